package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/config"
	"github.com/km-arc/go-zelasli/framework/container"
	"github.com/km-arc/go-zelasli/framework/database"
	"github.com/km-arc/go-zelasli/framework/logging"
	"github.com/km-arc/go-zelasli/framework/providers"
	"github.com/km-arc/go-zelasli/framework/routing"
	"github.com/km-arc/go-zelasli/framework/view"
)

// Version of the framework.
const Version = "0.1.0"

const shutdownTimeout = 30 * time.Second

// Application is the top-level service container. It embeds the Container
// and a ProviderRegistry so user code can call app.Bind(), app.Singleton()
// and app.Register() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

type options struct {
	envFiles []string
	config   *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
}

// Option configures New.
type Option func(*options)

// WithEnvFiles sets the .env files the configuration is loaded from.
func WithEnvFiles(files ...string) Option {
	return func(o *options) { o.envFiles = files }
}

// WithConfig uses cfg instead of loading the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger uses logger instead of building one from the configuration.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry registers the dispatch metrics on reg.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// New creates the application and registers the framework providers:
// config, logger, router, session, view, validator, db (deferred) and the
// kernel. Register application providers next, then call Boot.
func New(opts ...Option) (*Application, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.config
	if cfg == nil {
		cfg = config.Load(o.envFiles...)
		if cfg.App.Settings != "" {
			if err := cfg.LoadSettings(cfg.App.Settings); err != nil {
				return nil, err
			}
		}
	}
	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = logging.New(cfg.Log); err != nil {
			return nil, err
		}
	}

	c := container.New(container.WithLogger(logger))
	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
	}

	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LogServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
		&providers.SessionServiceProvider{},
		&providers.ViewServiceProvider{},
		&providers.ValidationServiceProvider{},
		&providers.DatabaseServiceProvider{},
		&kernelServiceProvider{registry: o.registry},
	}
	for _, p := range core {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers. Routes may be added from a
// provider's Boot or after this returns.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Controller defines a controller constructor under id and binds it
// transient, so every request gets its own instance.
//
//	app.Controller("PostController", NewPostController, container.Param("db"))
func (a *Application) Controller(id string, ctor any, args ...container.Arg) error {
	if err := a.Define(id, ctor, args...); err != nil {
		return err
	}
	return a.Bind(id, nil)
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, "config")
}

// Logger resolves the application logger.
func (a *Application) Logger() *zap.Logger {
	return container.MustResolve[*zap.Logger](a.Container, "logger")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Views resolves the template engine.
func (a *Application) Views() *view.Engine {
	return container.MustResolve[*view.Engine](a.Container, "view")
}

// Kernel resolves the controller kernel.
func (a *Application) Kernel() *Kernel {
	return container.MustResolve[*Kernel](a.Container, "kernel")
}

// Handler boots the application if needed and returns the router.
func (a *Application) Handler() (http.Handler, error) {
	if err := a.Boot(); err != nil {
		return nil, err
	}
	return a.Router(), nil
}

// Run boots the application (if needed) and serves HTTP on the configured
// port until ctx is cancelled, then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}
	cfg := a.Config()
	logger := a.Logger()

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("app", cfg.App.Name),
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
			return err
		}
	}
	return a.Terminate()
}

// Terminate releases what the application opened: the database connection,
// if one was made, and buffered log entries.
func (a *Application) Terminate() error {
	var errs []error
	if a.Resolved("db") {
		db, err := container.Resolve[*database.DB](a.Container, "db")
		if err == nil {
			err = db.Close()
		}
		errs = append(errs, err)
	}
	// stderr and stdout sinks cannot always be synced
	_ = a.Logger().Sync()
	return errors.Join(errs...)
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
func (a *Application) Version() string     { return Version }

// kernelServiceProvider binds the kernel and its metrics, and on boot points
// the router at the kernel and mounts /metrics.
type kernelServiceProvider struct {
	container.BaseProvider
	registry *prometheus.Registry
}

func (p *kernelServiceProvider) Register(app *container.Container) error {
	reg := p.registry
	if err := app.Define("metrics", func() *Metrics { return NewMetrics(reg) }); err != nil {
		return err
	}
	if err := app.Singleton("metrics", nil); err != nil {
		return err
	}
	err := app.Define("kernel", NewKernel,
		container.Param("container"),
		container.Param("config"),
		container.Param("logger"),
		container.Param("view"),
		container.Param("metrics"))
	if err != nil {
		return err
	}
	return app.Singleton("kernel", nil)
}

func (p *kernelServiceProvider) Boot(app *container.Container) error {
	kernel, err := container.Resolve[*Kernel](app, "kernel")
	if err != nil {
		return err
	}
	metrics, err := container.Resolve[*Metrics](app, "metrics")
	if err != nil {
		return err
	}
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	router.SetDispatcher(kernel)
	router.Mount("/metrics", metrics.Handler())
	return nil
}
