package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("PhotoController").Needs("disk").Give(func(c *container.Container, _ container.Parameters) (any, error) {
//	    return filesystem.NewS3(...), nil
//	})
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// When starts a contextual binding chain for the defined type concrete.
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// Needs names the constructor parameter, or the identifier of its declared
// type, the contextual value is for.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = abstract
	return b
}

// Give provides the factory used when the concrete type resolves the
// specified parameter. Explicit overrides passed to Make still win.
func (b *ContextualBuilder) Give(factory Factory) {
	b.container.mu.Lock()
	defer b.container.mu.Unlock()

	if _, ok := b.container.contextual[b.concrete]; !ok {
		b.container.contextual[b.concrete] = make(map[string]Factory)
	}
	b.container.contextual[b.concrete][b.needs] = factory
}

// GiveValue is a shorthand for Give when the value is a scalar or a pre-built
// instance.
//
//	c.When("PhotoController").Needs("storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(func(_ *Container, _ Parameters) (any, error) { return value, nil })
}

// contextualFor returns the contextual factory for a parameter of concrete,
// matched by parameter name first and then by declared type.
func (c *Container) contextualFor(concrete string, dep Dependency) Factory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.contextual[concrete]
	if !ok {
		return nil
	}
	if f, ok := m[dep.Name]; ok {
		return f
	}
	if isClassLike(dep.Type) {
		if f, ok := m[c.lookupTypeID(dep.Type)]; ok {
			return f
		}
	}
	return nil
}
