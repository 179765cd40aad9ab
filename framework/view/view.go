// Package view renders html/template files for controller actions.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"maps"
	"os"
	"path/filepath"
)

// DefaultExt is the template file extension used when none is configured.
const DefaultExt = ".html"

// MissingTemplateError is returned when a template file does not exist.
type MissingTemplateError struct {
	Name string
	Path string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("view (%s) not found at %s", e.Name, e.Path)
}

// View is a named template plus the data it is rendered with.
type View struct {
	name string
	dir  string
	ext  string
	data map[string]any
}

// New returns a view for the template name under dir.
func New(name, dir string) *View {
	return &View{name: name, dir: dir, ext: DefaultExt, data: make(map[string]any)}
}

// Name returns the template name.
func (v *View) Name() string { return v.name }

// Data returns a copy of the assigned data.
func (v *View) Data() map[string]any { return maps.Clone(v.data) }

// Set merges data into the view data, later keys winning.
func (v *View) Set(data map[string]any) *View {
	maps.Copy(v.data, data)
	return v
}

// Assign sets one key.
func (v *View) Assign(key string, value any) *View {
	v.data[key] = value
	return v
}

// Content renders the template with the view data.
//
// Templates can pull in other templates of the same directory with
// include, which receives the current data:
//
//	{{ include "partials/nav" }}
func (v *View) Content() (string, error) {
	return v.render(v.name, 0)
}

// maxIncludeDepth bounds include recursion.
const maxIncludeDepth = 16

func (v *View) render(name string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("view: include depth exceeded at %s", name)
	}

	path, err := v.path(name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("view: read %s: %w", path, err)
	}

	tmpl, err := template.New(name).Funcs(template.FuncMap{
		"include": func(partial string) (template.HTML, error) {
			out, err := v.render(partial, depth+1)
			// rendered by html/template, so already escaped
			return template.HTML(out), err
		},
	}).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("view: parse %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v.data); err != nil {
		return "", fmt.Errorf("view: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (v *View) path(name string) (string, error) {
	path := filepath.Join(v.dir, filepath.FromSlash(name)+v.ext)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &MissingTemplateError{Name: name, Path: path}
	}
	return path, nil
}
