package graph

import (
	"fmt"
	"slices"
	"strings"
)

type Node interface {
	GetName() string
	GetDependencies() []string
}

// TopologicalSort orders nodes so every node follows its dependencies.
// Among nodes that are ready at the same time the smallest name goes first,
// so the result is stable across runs.
func TopologicalSort(nodes map[string]Node) ([]string, error) {
	pending := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))

	for name, node := range nodes {
		deps := node.GetDependencies()
		for _, dep := range deps {
			if _, exists := nodes[dep]; !exists {
				return nil, fmt.Errorf("node %s not found", dep)
			}
			dependents[dep] = append(dependents[dep], name)
		}
		pending[name] = len(deps)
	}

	ready := make([]string, 0, len(nodes))
	for name, count := range pending {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	result := make([]string, 0, len(nodes))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		result = append(result, name)

		for _, next := range dependents[name] {
			pending[next]--
			if pending[next] == 0 {
				at, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, at, next)
			}
		}
	}

	if len(result) < len(nodes) {
		stuck := make([]string, 0, len(nodes)-len(result))
		for name, count := range pending {
			if count > 0 {
				stuck = append(stuck, name)
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("cycle detected in dependencies involving %s", strings.Join(stuck, ", "))
	}

	return result, nil
}

// ValidateGraph reports the first missing dependency, checking nodes in name
// order.
func ValidateGraph(nodes map[string]Node) error {
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		for _, dep := range nodes[name].GetDependencies() {
			if _, exists := nodes[dep]; !exists {
				return fmt.Errorf("node %s depends on %s which does not exist", name, dep)
			}
		}
	}
	return nil
}
