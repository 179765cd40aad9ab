// Package container provides the service container and Service Provider
// system of the framework.
//
// # Overview
//
// The container binds identifiers to recipes, builds instances on demand and
// caches shared ones. Constructor dependencies are autowired from a type
// table filled once at startup: Go keeps no constructor parameter names at
// runtime, so every constructable type is defined with its constructor and
// the names of its parameters.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(logger))
//  2. Define types: c.Define("UserService", NewUserService, container.Param("repo"))
//  3. Register bindings or providers: c.Singleton("UserService", nil)
//  4. Serve requests: svc, err := c.Make("UserService")
//
// # Type table
//
//	// Constructor with named parameters
//	c.Define("Mailer", mail.New, container.Param("logger"), container.Optional("from", "noreply@local"))
//
//	// Zero-value struct, no constructor
//	c.DefineType("Logger", (*Logger)(nil))
//
//	// Interface, never instantiable on its own
//	c.DefineType("Store", (*Store)(nil))
//
// # Bindings
//
//	// Transient: new instance every Make()
//	c.Bind("Mailer", nil)
//
//	// Singleton: created once, reused
//	c.Singleton("Logger", nil)
//
//	// Binding to another identifier
//	c.Singleton("Store", "SQLStore")
//
//	// Factory
//	c.Singleton("clock", func(c *container.Container) any { return time.Now })
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias (binds "Logger" as a singleton first when it is unbound)
//	c.Alias("log", "Logger")
//
// # Resolving
//
// Every constructor parameter takes the first value that applies: a
// positional override, a named override, a contextual override, an autowired
// instance of its declared type (structs, pointers to structs and interfaces
// only), or its declared default. Anything else fails with a
// MissingDependencyError.
//
//	raw, err := c.Make("Mailer", container.Named("from", "me@example.com"))
//	mailer, err := container.Resolve[*mail.Mailer](c, "Mailer", container.At(1, "me@example.com"))
//
// # Errors
//
// ComponentNotFoundError, AlreadyBoundError, NotInstantiableError,
// UnsupportedTypeError, MissingDependencyError, CyclicDependencyError and
// ResolutionError all match ErrContainer with errors.Is.
//
// # Contextual Binding
//
//	c.When("PhotoController").Needs("disk").GiveValue(s3Disk)
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", "Mailer")
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
package container
