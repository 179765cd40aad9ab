// Package controller provides the embeddable controller base and the
// reflective action dispatch the kernel runs for controller routes.
package controller

import (
	gohttp "github.com/km-arc/go-zelasli/framework/http"
	"github.com/km-arc/go-zelasli/framework/session"
	"github.com/km-arc/go-zelasli/framework/view"
)

// Controller is implemented by every controller: Initialize runs once the
// controller is built and attached to the request, before the action.
type Controller interface {
	Initialize() error
}

// Attacher receives the request, response and view engine of the current
// request. Base implements it.
type Attacher interface {
	Attach(req *gohttp.Request, res *gohttp.Response, views *view.Engine)
}

// Base is embedded by application controllers.
//
//	type PostController struct {
//	    controller.Base
//	    db *database.DB
//	}
//
//	func NewPostController(db *database.DB) *PostController { return &PostController{db: db} }
//
//	func (c *PostController) Show(id int) (*view.View, error) {
//	    return c.View("posts/show").Assign("id", id), nil
//	}
type Base struct {
	request  *gohttp.Request
	response *gohttp.Response
	views    *view.Engine
}

// Attach sets the request context. The kernel calls it after construction.
func (b *Base) Attach(req *gohttp.Request, res *gohttp.Response, views *view.Engine) {
	b.request = req
	b.response = res
	b.views = views
}

// Initialize is a no-op hook; override it to prepare per-request state.
func (b *Base) Initialize() error { return nil }

func (b *Base) Request() *gohttp.Request   { return b.request }
func (b *Base) Response() *gohttp.Response { return b.response }

// Session returns the request session, or nil when sessions are not started.
func (b *Base) Session() *session.Session {
	if b.request == nil {
		return nil
	}
	return b.request.Session()
}

// View returns a view for the template name, from the configured engine
// when there is one.
func (b *Base) View(name string) *view.View {
	if b.views == nil {
		return view.NewEngine("views", view.DefaultExt).Make(name)
	}
	return b.views.Make(name)
}
