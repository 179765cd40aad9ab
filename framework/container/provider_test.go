package container_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/km-arc/go-zelasli/framework/container"
)

// ── stub providers ────────────────────────────────────────────────────────────

type eagerProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     bool
}

func (p *eagerProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.Singleton("eager-svc", func(c *container.Container) any { return "eager" })
}

func (p *eagerProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

// deferredProvider is lazy: only registered when "deferred-svc" is first resolved.
type deferredProvider struct {
	container.BaseProvider
	registerCalled int
	bootCalled     bool
}

func (p *deferredProvider) Register(app *container.Container) error {
	p.registerCalled++
	return app.Singleton("deferred-svc", func(c *container.Container) any { return "deferred-value" })
}

func (p *deferredProvider) Boot(app *container.Container) error {
	p.bootCalled = true
	return nil
}

func (p *deferredProvider) IsDeferred() bool   { return true }
func (p *deferredProvider) Provides() []string { return []string{"deferred-svc"} }

// typedProvider defines a type and binds it, the way framework providers do.
type typedProvider struct {
	container.BaseProvider
}

func (p *typedProvider) Register(app *container.Container) error {
	if err := app.DefineType("Logger", (*Logger)(nil)); err != nil {
		return err
	}
	if err := app.Define("Service", NewService, container.Param("logger")); err != nil {
		return err
	}
	if err := app.Singleton("Logger", nil); err != nil {
		return err
	}
	return app.Bind("Service", nil)
}

// failingProvider fails to register.
type failingProvider struct {
	container.BaseProvider
}

var errRegister = errors.New("register failed")

func (p *failingProvider) Register(_ *container.Container) error { return errRegister }

// flakyDeferredProvider fails its first Register calls.
type flakyDeferredProvider struct {
	container.BaseProvider
	failures       int
	registerCalled int
}

func (p *flakyDeferredProvider) Register(app *container.Container) error {
	p.registerCalled++
	if p.registerCalled <= p.failures {
		return errRegister
	}
	return app.Singleton("flaky-svc", func(c *container.Container) any { return "flaky-value" })
}

func (p *flakyDeferredProvider) IsDeferred() bool   { return true }
func (p *flakyDeferredProvider) Provides() []string { return []string{"flaky-svc"} }

// forgetfulProvider promises "forgotten-svc" but never binds it.
type forgetfulProvider struct {
	container.BaseProvider
}

func (p *forgetfulProvider) Register(_ *container.Container) error { return nil }
func (p *forgetfulProvider) IsDeferred() bool                      { return true }
func (p *forgetfulProvider) Provides() []string                    { return []string{"forgotten-svc"} }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

func TestRegistry_EagerProvider_RegisterCalled(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if p.registerCalled != 1 {
		t.Error("Register() should be called immediately for eager providers")
	}
}

func TestRegistry_EagerProvider_BootCalledAfterBoot(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	_ = reg.Register(p)

	if p.bootCalled {
		t.Error("Boot() should NOT be called before registry.Boot()")
	}

	if err := reg.Boot(); err != nil {
		t.Fatalf("Boot: %v", err)
	}

	if !p.bootCalled {
		t.Error("Boot() should be called after registry.Boot()")
	}
}

func TestRegistry_EagerProvider_ServiceResolvable(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&eagerProvider{})
	_ = reg.Boot()

	got := c.MustMake("eager-svc").(string)
	if got != "eager" {
		t.Errorf("eager-svc: got %q, want 'eager'", got)
	}
}

func TestRegistry_Boot_IdempotentCallsAreIgnored(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	_ = reg.Register(p)

	_ = reg.Boot()
	_ = reg.Boot() // second call should be no-op

	if !reg.Booted() {
		t.Error("Booted() should be true after Boot()")
	}
}

func TestRegistry_Booted_FalseBeforeBoot(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if reg.Booted() {
		t.Error("Booted() should be false before Boot()")
	}
}

func TestRegistry_DuplicateRegister_Ignored(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &eagerProvider{}
	_ = reg.Register(p)
	if err := reg.Register(p); err != nil {
		t.Fatalf("second Register should be a no-op, got %v", err)
	}

	if p.registerCalled != 1 {
		t.Errorf("provider should have been registered once, got %d", p.registerCalled)
	}
}

func TestRegistry_RegisterError_IsReturned(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	err := reg.Register(&failingProvider{})
	if !errors.Is(err, errRegister) {
		t.Errorf("Register: got %v, want %v", err, errRegister)
	}
}

// ── Deferred providers ────────────────────────────────────────────────────────

func TestRegistry_DeferredProvider_NotRegisteredEagerly(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	_ = reg.Register(p)
	_ = reg.Boot()

	if p.registerCalled != 0 {
		t.Error("deferred provider Register() should not be called until Make()")
	}
	if got := reg.Deferred(); len(got) != 1 || got[0] != "deferred-svc" {
		t.Errorf("Deferred(): got %v", got)
	}
}

func TestRegistry_DeferredProvider_RegisteredOnFirstMake(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)

	p := &deferredProvider{}
	_ = reg.Register(p)
	_ = reg.Boot()

	got, err := c.Make("deferred-svc")
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if got.(string) != "deferred-value" {
		t.Errorf("deferred-svc: got %q, want 'deferred-value'", got)
	}
	if !p.bootCalled {
		t.Error("deferred provider loaded after Boot() should be booted")
	}

	_, _ = c.Make("deferred-svc")
	if p.registerCalled != 1 {
		t.Errorf("deferred provider registered %d times, want 1", p.registerCalled)
	}
	if !c.IsShared("deferred-svc") {
		t.Error("deferred-svc should be the provider's singleton after loading")
	}
}

// ── Multiple providers ────────────────────────────────────────────────────────

func TestRegistry_TypedProvider_AutowiresService(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&typedProvider{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_ = reg.Boot()

	svc := container.MustResolve[*Service](c, "Service")
	logger := container.MustResolve[*Logger](c, "Logger")
	if svc.Logger != logger {
		t.Error("Service should receive the shared Logger")
	}
}

// ── Providers list ────────────────────────────────────────────────────────────

func TestRegistry_Providers_ReturnsEagerOnes(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Register(&eagerProvider{})
	_ = reg.Register(&deferredProvider{}) // deferred, not in Providers()

	if len(reg.Providers()) != 1 {
		t.Errorf("Providers(): got %d, want 1 (eager only)", len(reg.Providers()))
	}
}

// ── BaseProvider defaults ─────────────────────────────────────────────────────

func TestBaseProvider_Defaults(t *testing.T) {
	var p container.BaseProvider
	c := container.New()

	if err := p.Boot(c); err != nil {
		t.Errorf("BaseProvider.Boot() should not fail, got %v", err)
	}

	if p.IsDeferred() {
		t.Error("BaseProvider.IsDeferred() should be false")
	}
	if len(p.Provides()) != 0 {
		t.Error("BaseProvider.Provides() should return empty slice")
	}
}

// ── Boot after registration (late provider) ───────────────────────────────────

func TestRegistry_RegisterAfterBoot_BootsImmediately(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	_ = reg.Boot() // boot before registering

	p := &eagerProvider{}
	_ = reg.Register(p) // register after boot

	if !p.bootCalled {
		t.Error("provider registered after Boot() should be booted immediately")
	}
}

func TestRegistry_DeferredProvider_RegisterErrorIsRepeated(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &flakyDeferredProvider{failures: 2}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, err := c.Make("flaky-svc")
		if !errors.Is(err, errRegister) {
			t.Fatalf("attempt %d: expected the provider's error, got %v", i+1, err)
		}
		var cyc *container.CyclicDependencyError
		if errors.As(err, &cyc) {
			t.Fatalf("attempt %d: unexpected cycle error %v", i+1, err)
		}
	}
	if len(reg.Deferred()) != 1 {
		t.Errorf("deferred identifiers should stay pending after a failure, got %v", reg.Deferred())
	}

	v, err := c.Make("flaky-svc")
	if err != nil {
		t.Fatalf("Make after recovery: %v", err)
	}
	if v != "flaky-value" {
		t.Errorf("expected flaky-value, got %v", v)
	}
	if p.registerCalled != 3 {
		t.Errorf("Register should run once per failed attempt plus once, ran %d times", p.registerCalled)
	}
	if len(reg.Deferred()) != 0 {
		t.Errorf("deferred identifiers should be cleared, got %v", reg.Deferred())
	}
}

func TestRegistry_DeferredProvider_MissingBindingIsReported(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&forgetfulProvider{}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := c.Make("forgotten-svc")
	if err == nil {
		t.Fatal("expected an error for a provider that does not bind its identifier")
	}
	if !strings.Contains(err.Error(), "did not bind [forgotten-svc]") {
		t.Errorf("unexpected error: %v", err)
	}
	var cyc *container.CyclicDependencyError
	if errors.As(err, &cyc) {
		t.Errorf("unexpected cycle error %v", err)
	}
}

func TestRegistry_DeferredProvider_ConcurrentMakeRegistersOnce(t *testing.T) {
	c := container.New()
	reg := container.NewProviderRegistry(c)
	p := &deferredProvider{}
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Make("deferred-svc"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Make: %v", err)
	}
	if p.registerCalled != 1 {
		t.Errorf("Register should run once, ran %d times", p.registerCalled)
	}
}
