package template_test

import (
	"os"
	"path/filepath"
	"testing"
	texttemplate "text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosite/internal/template"
)

func TestParse_DefaultFuncs(t *testing.T) {
	t.Parallel()

	tmpl, err := template.Parse("t", `{{ json .Tags }} {{ upper .Name }} {{ join .Tags "," }}`, nil)
	require.NoError(t, err)

	out, err := tmpl.Execute(map[string]any{"Name": "abc", "Tags": []string{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"] ABC a,b`, out)
}

func TestParse_CustomFuncsOverride(t *testing.T) {
	t.Parallel()

	funcs := texttemplate.FuncMap{"upper": func(s string) string { return "<" + s + ">" }}
	tmpl, err := template.Parse("t", `{{ upper . }}`, funcs)
	require.NoError(t, err)

	out, err := tmpl.Execute("x")
	require.NoError(t, err)
	assert.Equal(t, "<x>", out)
}

func TestParse_InvalidSyntax(t *testing.T) {
	t.Parallel()

	_, err := template.Parse("broken", `{{ .Name `, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestLoad_FileAndFallback(t *testing.T) {
	t.Parallel()

	tmpl, err := template.Load("", "fallback {{ . }}", nil)
	require.NoError(t, err)
	out, err := tmpl.Execute(1)
	require.NoError(t, err)
	assert.Equal(t, "fallback 1", out)

	path := filepath.Join(t.TempDir(), "custom.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("file {{ . }}"), 0o644))
	tmpl, err = template.Load(path, "fallback {{ . }}", nil)
	require.NoError(t, err)
	out, err = tmpl.Execute(2)
	require.NoError(t, err)
	assert.Equal(t, "file 2", out)
	assert.Equal(t, path, tmpl.Name())

	_, err = template.Load(filepath.Join(t.TempDir(), "missing.tmpl"), "", nil)
	require.Error(t, err)
}

func TestExecute_MissingKeyFails(t *testing.T) {
	t.Parallel()

	tmpl, err := template.Parse("t", `{{ .Nope }}`, nil)
	require.NoError(t, err)
	_, err = tmpl.Execute(map[string]any{})
	require.Error(t, err)
}
