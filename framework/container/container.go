package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the service container of an application.
//
// It supports:
//   - Bind / Singleton / Instance / Alias
//   - Make / Resolve (generic) with positional and named overrides
//   - Autowiring of constructor parameters from the type table (Define)
//   - Tags (group multiple abstractions under one tag)
//   - Contextual overrides (when A needs b, give it C)
//   - Resolved event callbacks
//
// A Container is safe for concurrent use. Create one per process with New and
// pass it to whatever needs to resolve services.
type Container struct {
	*core

	// set on the container handed to factories; shares the caller's cycle guard
	res *resolution
}

type core struct {
	mu sync.RWMutex

	reg   *registry
	cache *instanceCache

	// type table: id → descriptor, declared Go type → id
	types     map[string]*descriptor
	typeIndex map[reflect.Type]string

	// tag → []abstract
	tags map[string][]string

	// contextual: when[concrete][parameter name or type id] = factory
	contextual map[string]map[string]Factory

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)

	logger *zap.Logger
}

// Option configures a Container.
type Option func(*core)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *core) {
		if l != nil {
			c.logger = l.Named("container")
		}
	}
}

// New creates an empty container.
func New(opts ...Option) *Container {
	c := &Container{core: &core{
		reg:        newRegistry(),
		cache:      newInstanceCache(),
		types:      make(map[string]*descriptor),
		typeIndex:  make(map[reflect.Type]string),
		tags:       make(map[string][]string),
		contextual: make(map[string]map[string]Factory),
		logger:     zap.NewNop(),
	}}
	for _, opt := range opts {
		opt(c.core)
	}
	// The container is available to factories and autowired constructors.
	_ = c.DefineType("container", (*Container)(nil))
	_ = c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient binding: every Make builds a new instance.
// concrete is nil (the identifier itself is a defined type), the identifier
// of another type or binding, or a Factory.
//
//	c.Bind("UserRepository", "SQLUserRepository")
//	c.Bind("clock", func(c *container.Container) any { return time.Now })
func (c *Container) Bind(id string, concrete any) error {
	return c.bind(id, concrete, false)
}

// Singleton registers a shared binding whose instance is cached after the
// first resolution.
//
//	c.Singleton("Logger", nil)
func (c *Container) Singleton(id string, concrete any) error {
	return c.bind(id, concrete, true)
}

// BindShared registers a binding with an explicit shared flag.
func (c *Container) BindShared(id string, concrete any, shared bool) error {
	return c.bind(id, concrete, shared)
}

func (c *Container) bind(id string, concreteVal any, shared bool) error {
	cv, err := newConcrete(id, concreteVal)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.reg.put(&binding{id: id, concrete: cv, shared: shared}, c.isShared(id)); err != nil {
		return err
	}
	c.logger.Debug("container: bound", zap.String("id", id), zap.Bool("shared", shared))
	return nil
}

// isShared reports whether id has an Instance value or a shared binding
// (must hold mu). Values cached for other shared bindings do not count.
func (c *Container) isShared(id string) bool {
	if c.cache.isPinned(id) {
		return true
	}
	b, ok := c.reg.binding(id)
	return ok && b.shared
}

// Alias registers name as an alternative identifier for target. When target
// is not bound yet it is first registered as a singleton of itself, so an
// alias always dereferences to a binding.
//
//	c.Alias("log", "Logger")
func (c *Container) Alias(name, target string) error {
	if name == target {
		return &ResolutionError{ID: name, Err: fmt.Errorf("[%s] is aliased to itself", name)}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.reg.bound(target) && !c.reg.isAlias(target) {
		self := &binding{id: target, concrete: concrete{kind: selfReference}, shared: true}
		if err := c.reg.put(self, c.isShared(target)); err != nil {
			return err
		}
		c.logger.Debug("container: bound", zap.String("id", target), zap.Bool("shared", true))
	}
	canonical, err := c.reg.get(target)
	if err != nil {
		return err
	}
	c.reg.alias(name, canonical)
	return nil
}

// Instance registers a pre-built value as the shared instance of id,
// bypassing resolution. When id maps to a defined type the value must be
// assignable to it.
//
//	c.Instance("config", cfg)
func (c *Container) Instance(id string, instance any) error {
	if instance == nil {
		return &ResolutionError{ID: id, Err: fmt.Errorf("nil instance")}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.reg.canonical(id)
	if d, ok := c.types[c.concreteKey(key)]; ok {
		if err := checkInstance(d, instance); err != nil {
			return &ResolutionError{ID: id, Err: err}
		}
	}
	c.cache.set(key, instance)
	return nil
}

func checkInstance(d *descriptor, instance any) error {
	t := reflect.TypeOf(instance)
	switch {
	case d.typ.Kind() == reflect.Interface && t.Implements(d.typ):
	case t.AssignableTo(d.typ):
	default:
		return fmt.Errorf("instance of type %s is not a valid [%s] (%s)", t, d.id, d.typ)
	}
	return nil
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// Bound reports whether a binding exists for id. Cached instances and aliases
// are not bindings.
func (c *Container) Bound(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.bound(id)
}

// Has reports whether a cached instance or a binding exists for id.
func (c *Container) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache.has(id) || c.reg.bound(id)
}

// bindingOf returns the current binding of id, or nil.
func (c *Container) bindingOf(id string) *binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, _ := c.reg.binding(id)
	return b
}

// IsAlias reports whether name is an alias.
func (c *Container) IsAlias(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.isAlias(name)
}

// IsShared reports whether id holds an Instance value or is bound as a
// singleton.
func (c *Container) IsShared(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isShared(id)
}

// Resolved reports whether a shared instance of id has been cached.
func (c *Container) Resolved(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.cached(c.reg.canonical(id))
	return ok
}

// Get returns the identifier id stands for: the alias target, or id itself
// when it is bound. It never constructs anything.
func (c *Container) Get(id string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reg.get(id)
}

// Bindings returns every bound or cached identifier, sorted (for debugging).
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.reg.bindings))
	for k := range c.reg.bindings {
		seen[k] = true
		out = append(out, k)
	}
	for _, k := range c.cache.keys() {
		if !seen[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves id. Shared bindings are built once and cached under their
// concrete identifier; transient bindings are built on every call.
//
//	svc, err := c.Make("UserService")
//	ctl, err := c.Make("HomeController", container.Named("request", req))
func (c *Container) Make(id string, params ...Parameter) (any, error) {
	res := c.res
	if res == nil {
		res = newResolution()
	}
	return c.make(id, NewParameters(params...), res)
}

// MustMake is like Make but panics on error.
func (c *Container) MustMake(id string, params ...Parameter) any {
	v, err := c.Make(id, params...)
	if err != nil {
		panic(err)
	}
	return v
}

func (c *Container) make(id string, params Parameters, res *resolution) (any, error) {
	c.mu.RLock()
	canonical := c.reg.canonical(id)
	if inst, ok := c.cached(canonical); ok {
		c.mu.RUnlock()
		return inst, nil
	}
	b, ok := c.reg.binding(canonical)
	if !ok {
		c.mu.RUnlock()
		return nil, &ComponentNotFoundError{ID: id}
	}
	key := c.concreteKey(canonical)
	targetBound := b.concrete.kind == byTypeName && c.reg.bound(b.concrete.name)
	c.mu.RUnlock()

	var (
		instance any
		err      error
	)
	switch b.concrete.kind {
	case selfReference:
		instance, err = c.build(canonical, params, res)
	case byTypeName:
		if targetBound {
			instance, err = c.delegate(b, params, res)
		} else {
			instance, err = c.build(b.concrete.name, params, res)
		}
	case byFactory:
		instance, err = c.factory(b, params, res)
	}
	if err != nil {
		return nil, err
	}

	if b.shared {
		c.mu.Lock()
		instance = c.cache.put(key, instance)
		c.mu.Unlock()
	}
	c.fireAfterResolving(canonical, instance)
	return instance, nil
}

func (c *Container) build(typeID string, params Parameters, res *resolution) (any, error) {
	d, err := c.descriptor(typeID)
	if err != nil {
		return nil, err
	}
	return c.resolve(d, params, res)
}

func (c *Container) delegate(b *binding, params Parameters, res *resolution) (any, error) {
	if err := res.enterBinding(b); err != nil {
		return nil, err
	}
	defer res.leaveBinding(b)
	return c.make(b.concrete.name, params, res)
}

func (c *Container) factory(b *binding, params Parameters, res *resolution) (any, error) {
	if err := res.enterBinding(b); err != nil {
		return nil, err
	}
	defer res.leaveBinding(b)
	return c.runFactory(b.id, b.concrete.factory, params, res)
}

// cached returns the instance make serves for canonical without building
// (must hold mu). A transient binding only ever gets a value registered with
// Instance; shared instances of other bindings cached under the same concrete
// key are not its own.
func (c *Container) cached(canonical string) (any, bool) {
	b, bound := c.reg.binding(canonical)
	switch {
	case !bound:
		return c.cache.get(canonical)
	case !b.shared:
		if c.cache.isPinned(canonical) {
			return c.cache.get(canonical)
		}
		return nil, false
	}
	if inst, ok := c.cache.get(canonical); ok {
		return inst, true
	}
	return c.cache.get(c.concreteKey(canonical))
}

// concreteKey follows type-name bindings to the identifier a shared instance
// of id is cached under (must hold mu).
func (c *Container) concreteKey(id string) string {
	seen := map[string]bool{}
	for !seen[id] {
		seen[id] = true
		b, ok := c.reg.binding(id)
		if !ok || b.concrete.kind != byTypeName {
			return id
		}
		id = b.concrete.name
	}
	return id
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
//
//	c.Tag([]string{"CpuReport", "MemoryReport"}, "reports")
func (c *Container) Tag(abstracts []string, tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[tag] = append(c.tags[tag], abstracts...)
}

// Tagged resolves all abstracts registered under a tag.
//
//	reports, err := c.Tagged("reports")
func (c *Container) Tagged(tag string) ([]any, error) {
	c.mu.RLock()
	abstracts := append([]string(nil), c.tags[tag]...)
	c.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		inst, err := c.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, nil
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any binding is resolved.
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) fireAfterResolving(abstract string, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve is a generic helper that calls Make and type-asserts the result.
//
//	logger, err := container.Resolve[*zap.Logger](c, "logger")
func Resolve[T any](c *Container, id string, params ...Parameter) (T, error) {
	var zero T
	instance, err := c.Make(id, params...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		want := reflect.TypeOf((*T)(nil)).Elem()
		return zero, &ResolutionError{ID: id, Err: fmt.Errorf("resolved to %T, want %s", instance, want)}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error.
func MustResolve[T any](c *Container, id string, params ...Parameter) T {
	typed, err := Resolve[T](c, id, params...)
	if err != nil {
		panic(err)
	}
	return typed
}
