package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/config"
	"github.com/km-arc/go-zelasli/framework/container"
	"github.com/km-arc/go-zelasli/framework/controller"
	gohttp "github.com/km-arc/go-zelasli/framework/http"
	"github.com/km-arc/go-zelasli/framework/routing"
	"github.com/km-arc/go-zelasli/framework/view"
)

// Kernel dispatches controller routes. Every request gets a fresh
// controller built by the container.
type Kernel struct {
	app     *container.Container
	logger  *zap.Logger
	views   *view.Engine
	metrics *Metrics
	debug   bool
}

// NewKernel creates a kernel resolving controllers from app.
func NewKernel(app *container.Container, cfg *config.Config, logger *zap.Logger, views *view.Engine, metrics *Metrics) *Kernel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	k := &Kernel{app: app, logger: logger, views: views, metrics: metrics}
	if cfg != nil {
		k.debug = cfg.App.Debug
	}
	return k
}

// Dispatch implements routing.Dispatcher.
func (k *Kernel) Dispatch(w http.ResponseWriter, r *http.Request, route routing.Route) {
	start := time.Now()
	res := gohttp.NewResponse(w)
	status := k.serve(res, r, route)
	k.metrics.observe(route, status, time.Since(start))
}

func (k *Kernel) serve(res *gohttp.Response, r *http.Request, route routing.Route) (status int) {
	defer func() {
		if p := recover(); p != nil {
			status = k.fail(res, route, fmt.Errorf("%s panicked: %v", route.Target(), p))
		}
	}()

	msg, err := k.Handle(r.Context(), gohttp.NewRequest(r), res, route)
	if err != nil {
		return k.fail(res, route, err)
	}
	if err := res.Send(msg); err != nil {
		k.logger.Warn("kernel: write response", append(routeFields(route), zap.Error(err))...)
	}
	return res.Status()
}

// Handle builds the route's controller, attaches the request to it, runs
// Initialize and calls the action. The controller is made with the named
// parameters "request" and "response" so constructors can take them.
func (k *Kernel) Handle(ctx context.Context, req *gohttp.Request, res *gohttp.Response, route routing.Route) (*gohttp.Message, error) {
	inst, err := k.app.Make(route.Controller,
		container.Named("request", req),
		container.Named("response", res))
	if err != nil {
		return nil, err
	}
	if a, ok := inst.(controller.Attacher); ok {
		a.Attach(req, res, k.views)
	}
	if c, ok := inst.(controller.Controller); ok {
		if err := c.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", route.Controller, err)
		}
	}
	return controller.Dispatch(ctx, inst, route.Action, route.Params)
}

// fail logs err and, unless the controller already answered, sends the
// error response. It returns the status the client got.
func (k *Kernel) fail(res *gohttp.Response, route routing.Route, err error) int {
	status := statusOf(err, route)
	fields := append(routeFields(route), zap.Int("status", status), zap.Error(err))
	if status >= http.StatusInternalServerError {
		k.logger.Error("kernel: dispatch failed", fields...)
	} else {
		k.logger.Info("kernel: dispatch rejected", fields...)
	}

	if res.Written() {
		return res.Status()
	}
	var detail string
	if k.debug {
		detail = err.Error()
	}
	if status == http.StatusNotFound {
		res.NotFound(detail)
	} else {
		res.ServerError(detail)
	}
	return status
}

// statusOf maps a dispatch error to a status: an unknown controller or
// route parameters the action cannot take are 404, anything else is 500.
func statusOf(err error, route routing.Route) int {
	var nf *container.ComponentNotFoundError
	if errors.As(err, &nf) && nf.ID == route.Controller {
		return http.StatusNotFound
	}
	if errors.Is(err, controller.ErrBadParams) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func routeFields(route routing.Route) []zap.Field {
	return []zap.Field{
		zap.String("method", route.Method),
		zap.String("pattern", route.Pattern),
		zap.String("target", route.Target()),
	}
}
