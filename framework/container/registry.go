package container

import "fmt"

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a concrete value. params carries the overrides given to Make.
type Factory func(c *Container, params Parameters) (any, error)

type concreteKind int

const (
	selfReference concreteKind = iota
	byTypeName
	byFactory
)

// concrete is the recipe of a binding: itself, another identifier or a factory.
type concrete struct {
	kind    concreteKind
	name    string
	factory Factory
}

// binding holds a registered recipe and whether it is shared.
type binding struct {
	id       string
	concrete concrete
	shared   bool
}

// newConcrete classifies the concrete value given to Bind.
func newConcrete(id string, v any) (concrete, error) {
	switch cv := v.(type) {
	case nil:
		return concrete{kind: selfReference}, nil
	case string:
		if cv == "" || cv == id {
			return concrete{kind: selfReference}, nil
		}
		return concrete{kind: byTypeName, name: cv}, nil
	case Factory:
		if cv == nil {
			return concrete{kind: selfReference}, nil
		}
		return concrete{kind: byFactory, factory: cv}, nil
	case func(*Container, Parameters) (any, error):
		return concrete{kind: byFactory, factory: cv}, nil
	case func(*Container) (any, error):
		return concrete{kind: byFactory, factory: func(c *Container, _ Parameters) (any, error) {
			return cv(c)
		}}, nil
	case func(*Container) any:
		return concrete{kind: byFactory, factory: func(c *Container, _ Parameters) (any, error) {
			return cv(c), nil
		}}, nil
	}
	return concrete{}, &ResolutionError{ID: id, Err: fmt.Errorf("unsupported concrete of type %T", v)}
}

// ── Registry ──────────────────────────────────────────────────────────────────

// registry stores bindings and aliases. Callers hold the container lock.
type registry struct {
	// abstract → binding
	bindings map[string]*binding

	// alias → abstract (canonical key)
	aliases map[string]string
}

func newRegistry() *registry {
	return &registry{
		bindings: make(map[string]*binding),
		aliases:  make(map[string]string),
	}
}

func (r *registry) bound(id string) bool {
	_, ok := r.bindings[id]
	return ok
}

func (r *registry) binding(id string) (*binding, bool) {
	b, ok := r.bindings[id]
	return b, ok
}

func (r *registry) isAlias(name string) bool {
	_, ok := r.aliases[name]
	return ok
}

// canonical dereferences an alias one level.
func (r *registry) canonical(id string) string {
	if target, ok := r.aliases[id]; ok {
		return target
	}
	return id
}

// get returns the alias target or the bound identifier.
func (r *registry) get(id string) (string, error) {
	if target, ok := r.aliases[id]; ok {
		return target, nil
	}
	if r.bound(id) {
		return id, nil
	}
	return "", &ComponentNotFoundError{ID: id}
}

// put stores a binding. shared reports whether id currently counts as shared,
// in which case a re-bind is refused.
func (r *registry) put(b *binding, shared bool) error {
	if r.bound(b.id) && shared {
		return &AlreadyBoundError{ID: b.id}
	}
	r.bindings[b.id] = b
	return nil
}

func (r *registry) alias(name, target string) {
	r.aliases[name] = target
}
