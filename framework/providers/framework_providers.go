package providers

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/config"
	"github.com/km-arc/go-zelasli/framework/container"
	"github.com/km-arc/go-zelasli/framework/database"
	"github.com/km-arc/go-zelasli/framework/http/validation"
	"github.com/km-arc/go-zelasli/framework/logging"
	"github.com/km-arc/go-zelasli/framework/routing"
	"github.com/km-arc/go-zelasli/framework/session"
	"github.com/km-arc/go-zelasli/framework/view"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration as "config".
// When Config is nil it is loaded from EnvFiles, then layered with the YAML
// settings file named by APP_SETTINGS.
//
// Bound identifiers:
//   - "config"        → *config.Config
//   - "configuration" → alias of "config"
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
	Config   *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
		if cfg.App.Settings != "" {
			if err := cfg.LoadSettings(cfg.App.Settings); err != nil {
				return err
			}
		}
	}
	if err := app.DefineType("config", (*config.Config)(nil)); err != nil {
		return err
	}
	if err := app.Instance("config", cfg); err != nil {
		return err
	}
	return app.Alias("configuration", "config")
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider binds the zap logger as "logger", built from the
// log section of "config" unless Logger is set.
type LogServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	if p.Logger != nil {
		if err := app.DefineType("logger", (*zap.Logger)(nil)); err != nil {
			return err
		}
		return app.Instance("logger", p.Logger)
	}
	err := app.Define("logger", func(cfg *config.Config) (*zap.Logger, error) {
		return logging.New(cfg.Log)
	}, container.Param("config"))
	if err != nil {
		return err
	}
	return app.Singleton("logger", nil)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router as "router" and mounts
// request logging on boot.
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	if err := app.Define("router", routing.New); err != nil {
		return err
	}
	return app.Singleton("router", nil)
}

func (p *RoutingServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	logger, err := container.Resolve[*zap.Logger](app, "logger")
	if err != nil {
		return err
	}
	router.Middleware(logging.Middleware(logger))
	return nil
}

// ── SessionServiceProvider ────────────────────────────────────────────────────

// SessionServiceProvider binds the session manager as "session" and starts a
// session for every request routed through "router".
type SessionServiceProvider struct {
	container.BaseProvider
	Store session.Store // nil means an in-memory store
}

func (p *SessionServiceProvider) Register(app *container.Container) error {
	store := p.Store
	err := app.Define("session", func(cfg *config.Config, logger *zap.Logger) *session.Manager {
		return session.NewManager(cfg.Session, store, logger)
	}, container.Param("config"), container.Param("logger"))
	if err != nil {
		return err
	}
	return app.Singleton("session", nil)
}

func (p *SessionServiceProvider) Boot(app *container.Container) error {
	manager, err := container.Resolve[*session.Manager](app, "session")
	if err != nil {
		return err
	}
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	router.Middleware(manager.Start)
	return nil
}

// ── ViewServiceProvider ───────────────────────────────────────────────────────

// ViewServiceProvider registers the template engine as "view".
//
// Configuration keys read from "config":
//   - view.dir (default: "./views")
//   - view.ext (default: ".html")
type ViewServiceProvider struct {
	container.BaseProvider
}

func (p *ViewServiceProvider) Register(app *container.Container) error {
	err := app.Define("view", func(cfg *config.Config) *view.Engine {
		return view.NewEngine(cfg.View.Dir, cfg.View.Ext)
	}, container.Param("config"))
	if err != nil {
		return err
	}
	return app.Singleton("view", nil)
}

// Boot shares the application name with every view as "app".
func (p *ViewServiceProvider) Boot(app *container.Container) error {
	engine, err := container.Resolve[*view.Engine](app, "view")
	if err != nil {
		return err
	}
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	engine.Share("app", cfg.App.Name)
	return nil
}

// ── ValidationServiceProvider ─────────────────────────────────────────────────

// ValidationServiceProvider binds the shared struct validator as "validator"
// and registers any extra tags.
type ValidationServiceProvider struct {
	container.BaseProvider
	Tags map[string]validator.Func
}

func (p *ValidationServiceProvider) Register(app *container.Container) error {
	engine := validation.Engine()
	for tag, fn := range p.Tags {
		if err := engine.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("validation: register tag %q: %w", tag, err)
		}
	}
	if err := app.DefineType("validator", (*validator.Validate)(nil)); err != nil {
		return err
	}
	return app.Instance("validator", engine)
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider opens the default connection as "db" the first
// time something asks for it.
type DatabaseServiceProvider struct {
	container.BaseProvider
}

func (p *DatabaseServiceProvider) Register(app *container.Container) error {
	err := app.Define("db", func(cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
		return database.Connect(context.Background(), cfg.DB, logger)
	}, container.Param("config"), container.Param("logger"))
	if err != nil {
		return err
	}
	return app.Singleton("db", nil)
}

func (p *DatabaseServiceProvider) IsDeferred() bool   { return true }
func (p *DatabaseServiceProvider) Provides() []string { return []string{"db"} }
