package template

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strings"
	texttemplate "text/template"
)

type Template struct {
	name string
	tmpl *texttemplate.Template
}

// Parse compiles text with the default helpers plus customFuncs.
func Parse(name, text string, customFuncs texttemplate.FuncMap) (*Template, error) {
	defaultFuncs := texttemplate.FuncMap{
		"json":  toJSON,
		"upper": strings.ToUpper,
		"join":  strings.Join,
	}
	if customFuncs != nil {
		maps.Copy(defaultFuncs, customFuncs)
	}

	tmpl, err := texttemplate.New(name).Funcs(defaultFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{name: name, tmpl: tmpl}, nil
}

// Load reads and compiles the template at path. An empty path compiles
// fallback instead.
func Load(path, fallback string, customFuncs texttemplate.FuncMap) (*Template, error) {
	if path == "" {
		return Parse("default", fallback, customFuncs)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}
	return Parse(path, string(data), customFuncs)
}

func (t *Template) Name() string {
	return t.name
}

func (t *Template) Execute(data any) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t.name, err)
	}
	return sb.String(), nil
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(b)
}
