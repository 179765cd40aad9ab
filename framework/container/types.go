package container

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrUndefinedType is wrapped in a ResolutionError when a type identifier has
// no descriptor in the type table.
var ErrUndefinedType = errors.New("type is not defined")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ── Constructor parameters ────────────────────────────────────────────────────

// Arg describes one constructor parameter when a type is defined. Go keeps no
// parameter names at runtime, so every constructor parameter is named here in
// declaration order.
//
//	c.Define("Mailer", NewMailer, container.Param("logger"), container.Optional("from", "noreply@local"))
type Arg struct {
	name       string
	optional   bool
	defaultVal any
	union      []reflect.Type
}

// Param names a required parameter.
func Param(name string) Arg { return Arg{name: name} }

// Optional names a parameter with a default. The default is a last resort:
// a positional or named override, a contextual value or an autowired
// instance all take precedence, and only when none applies is defaultVal
// passed. Without it (see Param) the same parameter fails with
// MissingDependencyError.
func Optional(name string, defaultVal any) Arg {
	return Arg{name: name, optional: true, defaultVal: defaultVal}
}

// OneOf names a parameter that admits any of several types. Such parameters
// are rejected at resolution time with an UnsupportedTypeError.
func OneOf(name string, types ...reflect.Type) Arg {
	return Arg{name: name, union: types}
}

// Dependency is the descriptor of one constructor parameter.
type Dependency struct {
	Name     string
	Type     reflect.Type
	Position int
	Optional bool
	Default  any
	Union    []reflect.Type
}

// descriptor is a registered constructable type.
type descriptor struct {
	id       string
	typ      reflect.Type
	ctor     reflect.Value // zero when the type is built with reflect.New
	errOut   bool
	abstract bool
	deps     []Dependency
}

// ── Registration ──────────────────────────────────────────────────────────────

// Define registers a constructor function for a type. The constructor must
// return the instance, optionally followed by an error. An empty id defaults
// to the TypeKey of the returned type.
//
//	c.Define("", NewUserService, container.Param("repo"), container.Param("logger"))
func (c *Container) Define(id string, ctor any, args ...Arg) error {
	d, err := newDescriptor(id, ctor, args)
	if err != nil {
		return err
	}
	c.addDescriptor(d)
	return nil
}

// DefineType registers a type without a constructor. sample is a typed nil
// pointer: a pointer to a struct is built zero-valued, a pointer to an
// interface registers an abstract type.
//
//	c.DefineType("Logger", (*Logger)(nil))
//	c.DefineType("Store", (*Store)(nil)) // abstract
func (c *Container) DefineType(id string, sample any) error {
	t := reflect.TypeOf(sample)
	if t == nil || t.Kind() != reflect.Pointer {
		return &ResolutionError{ID: id, Err: fmt.Errorf("DefineType wants a typed nil pointer, got %T", sample)}
	}
	if id == "" {
		id = typeKeyOf(t)
	}
	d := &descriptor{id: id, typ: t}
	switch t.Elem().Kind() {
	case reflect.Interface:
		d.typ = t.Elem()
		d.abstract = true
	case reflect.Struct:
	default:
		d.abstract = true
	}
	c.addDescriptor(d)
	return nil
}

// MustDefine is like Define but panics on error. Meant for bootstrap code.
func (c *Container) MustDefine(id string, ctor any, args ...Arg) {
	if err := c.Define(id, ctor, args...); err != nil {
		panic(err)
	}
}

// Defined reports whether a type descriptor exists for id.
func (c *Container) Defined(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.types[id]
	return ok
}

// Dependencies returns the parameter descriptors of a defined type.
func (c *Container) Dependencies(id string) ([]Dependency, error) {
	d, err := c.descriptor(id)
	if err != nil {
		return nil, err
	}
	out := make([]Dependency, len(d.deps))
	copy(out, d.deps)
	return out, nil
}

func (c *Container) addDescriptor(d *descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types[d.id] = d
	c.typeIndex[d.typ] = d.id
}

func (c *Container) descriptor(id string) (*descriptor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.types[id]
	if !ok {
		return nil, &ResolutionError{ID: id, Err: ErrUndefinedType}
	}
	return d, nil
}

// typeID maps a declared parameter type to the identifier used for
// autowiring: the defined type's id when one exists, TypeKey otherwise.
func (c *Container) typeID(t reflect.Type) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookupTypeID(t)
}

// lookupTypeID is typeID for callers that hold mu.
func (c *Container) lookupTypeID(t reflect.Type) string {
	if id, ok := c.typeIndex[t]; ok {
		return id
	}
	if t.Kind() == reflect.Struct {
		if id, ok := c.typeIndex[reflect.PointerTo(t)]; ok {
			return id
		}
	}
	return typeKeyOf(t)
}

func newDescriptor(id string, ctor any, args []Arg) (*descriptor, error) {
	fail := func(format string, a ...any) error {
		return &ResolutionError{ID: id, Err: fmt.Errorf(format, a...)}
	}

	fv := reflect.ValueOf(ctor)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fail("constructor must be a non-nil function, got %T", ctor)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fail("variadic constructor %s is not supported", ft)
	}

	d := &descriptor{ctor: fv}
	switch {
	case ft.NumOut() == 1 && ft.Out(0) != errorType:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
		d.errOut = true
	default:
		return nil, fail("constructor %s must return (T) or (T, error)", ft)
	}
	d.typ = ft.Out(0)
	if id == "" {
		id = typeKeyOf(d.typ)
	}
	d.id = id

	if len(args) != ft.NumIn() {
		return nil, fail("constructor %s takes %d parameters, %d described", ft, ft.NumIn(), len(args))
	}

	d.deps = make([]Dependency, 0, len(args))
	for i, a := range args {
		pt := ft.In(i)
		if a.name == "" {
			return nil, fail("parameter %d has no name", i)
		}
		if a.optional && a.defaultVal != nil && !reflect.TypeOf(a.defaultVal).AssignableTo(pt) {
			return nil, fail("default %T of parameter (%s) is not assignable to %s", a.defaultVal, a.name, pt)
		}
		d.deps = append(d.deps, Dependency{
			Name:     a.name,
			Type:     pt,
			Position: i,
			Optional: a.optional,
			Default:  a.defaultVal,
			Union:    a.union,
		})
	}
	return d, nil
}

// ── Type helpers ──────────────────────────────────────────────────────────────

// TypeKey returns the package-qualified type name of v, useful as a stable
// abstract key when working with interfaces.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "main.UserRepository"
//	c.Singleton(key, "main.SQLUserRepository")
func TypeKey(v any) string {
	return typeKeyOf(reflect.TypeOf(v))
}

func typeKeyOf(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// isClassLike reports whether a declared parameter type is an object graph
// edge: a struct, a pointer to a struct or a non-empty interface. Everything
// else (scalars, slices, maps, funcs, any) must be supplied by the caller.
func isClassLike(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	case reflect.Struct:
		return true
	case reflect.Interface:
		return t.NumMethod() > 0
	}
	return false
}

// assignable converts v into a value usable for a parameter of type t.
func assignable(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	rt := rv.Type()
	switch {
	case rt.AssignableTo(t):
		return rv, nil
	case rt.Kind() == reflect.Pointer && !rv.IsNil() && rt.Elem().AssignableTo(t):
		return rv.Elem(), nil
	case sameFamily(rt, t) && rt.ConvertibleTo(t):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("value of type %s is not assignable to %s", rt, t)
}

func sameFamily(a, b reflect.Type) bool {
	return (isNumeric(a) && isNumeric(b)) || (a.Kind() == reflect.String && b.Kind() == reflect.String)
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
