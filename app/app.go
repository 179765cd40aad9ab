// Package app is the example application served by main.go.
package app

import (
	zelasli "github.com/km-arc/go-zelasli/framework/app"
	"github.com/km-arc/go-zelasli/framework/container"
	"github.com/km-arc/go-zelasli/framework/routing"
)

// New creates the framework application and registers this application's
// services. Call Boot (or Run) on the result.
func New(opts ...zelasli.Option) (*zelasli.Application, error) {
	a, err := zelasli.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := a.Register(&AppServiceProvider{}); err != nil {
		return nil, err
	}
	return a, nil
}

// AppServiceProvider binds the application's controllers and services and
// registers its routes.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) error {
	if err := app.Define("notes", NewNoteStore, container.Param("db")); err != nil {
		return err
	}
	if err := app.Singleton("notes", nil); err != nil {
		return err
	}

	controllers := []struct {
		id   string
		ctor any
		args []container.Arg
	}{
		{"HomeController", NewHomeController, []container.Arg{container.Param("logger")}},
		{"NoteController", NewNoteController, []container.Arg{container.Param("notes")}},
	}
	for _, c := range controllers {
		if err := app.Define(c.id, c.ctor, c.args...); err != nil {
			return err
		}
		if err := app.Bind(c.id, nil); err != nil {
			return err
		}
	}
	return nil
}

// Boot registers the routes.
func (p *AppServiceProvider) Boot(app *container.Container) error {
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	router.Controller("GET", "/", "HomeController")
	router.Controller("GET", "/hello/{name}", "HomeController@Hello")
	router.Prefix("/api", func(api *routing.Router) {
		api.Resource("/notes", "NoteController")
	})
	router.Static("/public", "./public")
	return nil
}
