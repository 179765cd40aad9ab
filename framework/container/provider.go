package container

import (
	"fmt"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one framework or application
// concern.
//
// Register() binds services into the container. Boot() is called after ALL
// providers have been registered, making it safe to resolve other bindings
// inside Boot().
//
//	type MailServiceProvider struct{ container.BaseProvider }
//
//	func (p *MailServiceProvider) Register(app *container.Container) error {
//	    if err := app.Define("Mailer", mail.New, container.Param("config"), container.Param("logger")); err != nil {
//	        return err
//	    }
//	    return app.Singleton("mailer", "Mailer")
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here; use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the identifiers this provider registers.
	// Used for deferred (lazy) provider loading.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// only when one of its Provides() identifiers is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	mu         sync.Mutex
	app        *Container
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider
	loaded     map[ServiceProvider]bool
	loading    map[ServiceProvider]chan struct{}
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		loaded:     make(map[ServiceProvider]bool),
		loading:    make(map[ServiceProvider]chan struct{}),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
		}
		r.mu.Unlock()
		return r.interceptDeferred(provider)
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	// If already booted, boot this provider immediately
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// interceptDeferred binds a placeholder for each deferred identifier. The
// first Make() replaces the placeholders with the provider's own bindings.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, abstract := range provider.Provides() {
		abs := abstract
		err := r.app.Bind(abs, func(c *Container, params Parameters) (any, error) {
			if err := r.load(provider); err != nil {
				return nil, err
			}
			return c.make(abs, params, c.res)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// load registers (and, if the registry is booted, boots) a deferred provider
// once. A failed Register leaves the placeholders in place, so the next Make
// retries the provider and reports its own error again. Concurrent callers
// wait for the loader; Register must not resolve the provider's own
// identifiers.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.mu.Lock()
	for {
		if r.loaded[provider] {
			r.mu.Unlock()
			return nil
		}
		done, busy := r.loading[provider]
		if !busy {
			break
		}
		r.mu.Unlock()
		<-done
		r.mu.Lock()
	}
	done := make(chan struct{})
	r.loading[provider] = done
	booted := r.booted
	r.mu.Unlock()

	err := r.registerDeferred(provider)

	r.mu.Lock()
	delete(r.loading, provider)
	if err == nil {
		r.loaded[provider] = true
		for _, abs := range provider.Provides() {
			delete(r.deferred, abs)
		}
	}
	r.mu.Unlock()
	close(done)

	if err != nil {
		return err
	}
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// registerDeferred runs Register and checks that every placeholder was
// replaced by a binding of the provider's own.
func (r *ProviderRegistry) registerDeferred(provider ServiceProvider) error {
	placeholders := make(map[string]*binding)
	for _, abs := range provider.Provides() {
		placeholders[abs] = r.app.bindingOf(abs)
	}
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	for _, abs := range provider.Provides() {
		b := r.app.bindingOf(abs)
		if b == nil || b == placeholders[abs] {
			return fmt.Errorf("register %T: deferred provider did not bind [%s]", provider, abs)
		}
	}
	return nil
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	eager := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range eager {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the identifiers still waiting for their provider.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abs := range r.deferred {
		out = append(out, abs)
	}
	return out
}
