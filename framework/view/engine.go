package view

import (
	"maps"
)

// Engine creates views sharing a template directory, extension and a set
// of data every view starts with.
type Engine struct {
	dir    string
	ext    string
	shared map[string]any
}

// NewEngine creates an Engine.
// dir is the templates directory (e.g. "./views"), ext the file extension (e.g. ".html").
func NewEngine(dir, ext string) *Engine {
	if ext == "" {
		ext = DefaultExt
	}
	return &Engine{dir: dir, ext: ext, shared: make(map[string]any)}
}

// Dir returns the template directory.
func (e *Engine) Dir() string { return e.dir }

// Share makes key available to every view made afterwards.
func (e *Engine) Share(key string, value any) {
	e.shared[key] = value
}

// Make returns a view for name, pre-filled with shared data.
func (e *Engine) Make(name string) *View {
	v := New(name, e.dir)
	v.ext = e.ext
	maps.Copy(v.data, e.shared)
	return v
}
