package container

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ── Parameters ────────────────────────────────────────────────────────────────

// Parameters are caller supplied constructor overrides, by position and by
// parameter name.
type Parameters struct {
	positional map[int]any
	named      map[string]any
}

// Parameter is a single override passed to Make.
type Parameter func(p *Parameters)

// At overrides the constructor parameter at position pos (0-based).
//
//	c.Make("Mailer", container.At(1, "smtp.example.com"))
func At(pos int, v any) Parameter {
	return func(p *Parameters) {
		if p.positional == nil {
			p.positional = make(map[int]any)
		}
		p.positional[pos] = v
	}
}

// Named overrides the constructor parameter called name.
//
//	c.Make("Mailer", container.Named("host", "smtp.example.com"))
func Named(name string, v any) Parameter {
	return func(p *Parameters) {
		if p.named == nil {
			p.named = make(map[string]any)
		}
		p.named[name] = v
	}
}

// Args overrides parameters positionally starting at 0.
func Args(vs ...any) Parameter {
	return func(p *Parameters) {
		for i, v := range vs {
			At(i, v)(p)
		}
	}
}

// NewParameters collects overrides.
func NewParameters(params ...Parameter) Parameters {
	var p Parameters
	for _, fn := range params {
		if fn != nil {
			fn(&p)
		}
	}
	return p
}

// ByPosition returns the override at pos, if any.
func (p Parameters) ByPosition(pos int) (any, bool) {
	v, ok := p.positional[pos]
	return v, ok
}

// ByName returns the override called name, if any.
func (p Parameters) ByName(name string) (any, bool) {
	v, ok := p.named[name]
	return v, ok
}

// Len returns the number of overrides.
func (p Parameters) Len() int { return len(p.positional) + len(p.named) }

// ── Resolution state ──────────────────────────────────────────────────────────

// resolution tracks what one Make call is currently resolving: defined types
// by identifier and bindings by record.
type resolution struct {
	active map[any]struct{}
	path   []string
}

func newResolution() *resolution {
	return &resolution{active: make(map[any]struct{})}
}

func (r *resolution) enter(id string) error { return r.push(id, id) }

func (r *resolution) leave(id string) { r.pop(id) }

// enterBinding guards bindings that do not construct a defined type
// themselves (factories and delegating bindings). A binding replaced while it
// runs, as deferred providers do, is a different record and may be entered.
func (r *resolution) enterBinding(b *binding) error { return r.push(b, b.id) }

func (r *resolution) leaveBinding(b *binding) { r.pop(b) }

func (r *resolution) push(key any, id string) error {
	if _, ok := r.active[key]; ok {
		path := make([]string, len(r.path), len(r.path)+1)
		copy(path, r.path)
		return &CyclicDependencyError{Path: append(path, id)}
	}
	r.active[key] = struct{}{}
	r.path = append(r.path, id)
	return nil
}

func (r *resolution) pop(key any) {
	delete(r.active, key)
	if n := len(r.path); n > 0 {
		r.path = r.path[:n-1]
	}
}

// ── Resolver ──────────────────────────────────────────────────────────────────

// resolve constructs a defined type, autowiring what params do not cover.
func (c *Container) resolve(d *descriptor, params Parameters, res *resolution) (any, error) {
	if d.abstract {
		return nil, &NotInstantiableError{Type: d.id}
	}
	if err := res.enter(d.id); err != nil {
		return nil, err
	}
	defer res.leave(d.id)

	if !d.ctor.IsValid() {
		return reflect.New(d.typ.Elem()).Interface(), nil
	}

	args := make([]reflect.Value, 0, len(d.deps))
	for _, dep := range d.deps {
		v, err := c.argument(d, dep, params, res)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return c.construct(d, args)
}

// argument picks the value of one parameter. The first matching rule wins:
// positional override, named override, contextual override, autowiring,
// declared default.
func (c *Container) argument(d *descriptor, dep Dependency, params Parameters, res *resolution) (reflect.Value, error) {
	if len(dep.Union) > 0 {
		names := make([]string, len(dep.Union))
		for i, t := range dep.Union {
			names[i] = t.String()
		}
		return reflect.Value{}, &UnsupportedTypeError{Type: d.id, Param: dep.Name, Types: names}
	}

	if v, ok := params.ByPosition(dep.Position); ok {
		return c.assign(d, dep, v)
	}
	if v, ok := params.ByName(dep.Name); ok {
		return c.assign(d, dep, v)
	}

	if f := c.contextualFor(d.id, dep); f != nil {
		v, err := c.runFactory(d.id, f, Parameters{}, res)
		if err != nil {
			return reflect.Value{}, err
		}
		return c.assign(d, dep, v)
	}

	if isClassLike(dep.Type) {
		v, err := c.autowire(dep.Type, res)
		if err != nil {
			return reflect.Value{}, err
		}
		return c.assign(d, dep, v)
	}

	if dep.Optional {
		return c.assign(d, dep, dep.Default)
	}

	return reflect.Value{}, &MissingDependencyError{Type: d.id, Param: dep.Name}
}

// autowire resolves a class-like parameter type. Registered identifiers go
// through make (and its cache); anything else is built directly, uncached.
func (c *Container) autowire(t reflect.Type, res *resolution) (any, error) {
	id := c.typeID(t)
	if c.Has(id) {
		return c.make(id, Parameters{}, res)
	}
	d, err := c.descriptor(id)
	if err != nil {
		return nil, err
	}
	return c.resolve(d, Parameters{}, res)
}

func (c *Container) assign(d *descriptor, dep Dependency, v any) (reflect.Value, error) {
	rv, err := assignable(v, dep.Type)
	if err != nil {
		return reflect.Value{}, &ResolutionError{ID: d.id, Err: fmt.Errorf("parameter (%s): %w", dep.Name, err)}
	}
	return rv, nil
}

// construct calls the constructor. Returned errors and panics become
// ResolutionErrors.
func (c *Container) construct(d *descriptor, args []reflect.Value) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ResolutionError{ID: d.id, Err: fmt.Errorf("constructor panicked: %v", r)}
		}
	}()

	out := d.ctor.Call(args)
	if d.errOut && !out[1].IsNil() {
		return nil, &ResolutionError{ID: d.id, Err: out[1].Interface().(error)}
	}
	c.logger.Debug("container: constructed", zap.String("type", d.id), zap.Int("args", len(args)))
	return out[0].Interface(), nil
}

// runFactory calls a factory with a container scoped to the current
// resolution so that nested Make calls share the cycle guard.
func (c *Container) runFactory(id string, f Factory, params Parameters, res *resolution) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ResolutionError{ID: id, Err: fmt.Errorf("factory panicked: %v", r)}
		}
	}()

	instance, err = f(&Container{core: c.core, res: res}, params)
	if err != nil {
		if errors.Is(err, ErrContainer) {
			return nil, err
		}
		return nil, &ResolutionError{ID: id, Err: err}
	}
	return instance, nil
}
