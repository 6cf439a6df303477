package components

import (
	"context"
	"fmt"
	"log/slog"

	"autosite/internal/graph"
)

const (
	StorageComponentName  = "history"
	NotifierComponentName = "notifier"
)

// IComponent is an optional part of a run that needs setup before the run
// and teardown after it.
type IComponent interface {
	Name() string
	Dependencies() []string
	Validate() error
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error
}

type Registry struct {
	components map[string]IComponent
	order      []string
}

func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]IComponent),
		order:      make([]string, 0),
	}
}

func (r *Registry) Register(component IComponent) error {
	name := component.Name()
	if _, exists := r.components[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}
	r.components[name] = component
	return nil
}

// Get returns the named component, or nil when it was never registered.
func (r *Registry) Get(name string) IComponent {
	return r.components[name]
}

func (r *Registry) InitializeAll(ctx context.Context) error {
	nodes := make(map[string]graph.Node)
	for name, comp := range r.components {
		nodes[name] = &componentNode{comp: comp}
	}

	if err := graph.ValidateGraph(nodes); err != nil {
		return err
	}

	order, err := graph.TopologicalSort(nodes)
	if err != nil {
		return err
	}

	for _, name := range order {
		comp := r.components[name]
		if err := comp.Validate(); err != nil {
			return fmt.Errorf("component %s validation failed: %w", name, err)
		}
	}

	for i, name := range order {
		comp := r.components[name]
		if err := comp.Initialize(ctx); err != nil {
			r.order = order[:i]
			return fmt.Errorf("component %s initialization failed: %w", name, err)
		}
		slog.Debug("Component initialized", "component", name)
	}

	r.order = order
	return nil
}

type componentNode struct {
	comp IComponent
}

func (cn *componentNode) GetName() string {
	return cn.comp.Name()
}

func (cn *componentNode) GetDependencies() []string {
	return cn.comp.Dependencies()
}

// CloseAll closes initialized components in reverse order. Close errors are
// logged and do not stop the remaining closes.
func (r *Registry) CloseAll(ctx context.Context) {
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		comp := r.components[name]
		if err := comp.Close(ctx); err != nil {
			slog.Error("Error closing component", "component", name, "error", err)
		}
	}
	r.order = r.order[:0]
}
