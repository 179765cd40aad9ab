package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-zelasli/framework/controller"
	"github.com/km-arc/go-zelasli/framework/view"
)

// HomeController serves the landing pages.
type HomeController struct {
	controller.Base
	logger *zap.Logger
}

func NewHomeController(logger *zap.Logger) *HomeController {
	return &HomeController{logger: logger}
}

// Index renders the home page and counts visits in the session.
func (c *HomeController) Index() *view.View {
	visits := 1
	if s := c.Session(); s != nil {
		n, _ := s.Get("visits", 0).(int)
		visits = n + 1
		s.Set("visits", visits)
	}
	return c.View("home").Set(map[string]any{
		"title":  "Welcome",
		"visits": visits,
	})
}

// Hello greets name and flashes it for the next page.
func (c *HomeController) Hello(name string) *view.View {
	if s := c.Session(); s != nil {
		s.Flash("greeted", name)
	}
	c.logger.Debug("greeting", zap.String("name", name))
	return c.View("hello").Assign("name", name)
}

// NoteController is a JSON resource over NoteStore.
type NoteController struct {
	controller.Base
	notes *NoteStore
}

func NewNoteController(notes *NoteStore) *NoteController {
	return &NoteController{notes: notes}
}

func (c *NoteController) Index(ctx context.Context) ([]Note, error) {
	return c.notes.All(ctx)
}

func (c *NoteController) Show(ctx context.Context, id int64) (*Note, error) {
	n, err := c.notes.Find(ctx, id)
	if err == nil && n == nil {
		c.Response().NotFound("Note not found.")
	}
	return n, err
}

func (c *NoteController) Store(ctx context.Context) error {
	var n Note
	if !c.bind(&n) {
		return nil
	}
	if err := c.notes.Create(ctx, &n); err != nil {
		return err
	}
	c.Response().Created(n)
	return nil
}

func (c *NoteController) Update(ctx context.Context, id int64) error {
	var n Note
	if !c.bind(&n) {
		return nil
	}
	n.ID = id
	found, err := c.notes.Update(ctx, &n)
	if err != nil {
		return err
	}
	if !found {
		c.Response().NotFound("Note not found.")
		return nil
	}
	c.Response().Success(n)
	return nil
}

func (c *NoteController) Destroy(ctx context.Context, id int64) error {
	found, err := c.notes.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		c.Response().NotFound("Note not found.")
		return nil
	}
	c.Response().NoContent()
	return nil
}

// bind decodes and validates the request body into n. It answers 400 or 422
// itself and returns false when n is unusable.
func (c *NoteController) bind(n *Note) bool {
	errs, err := c.Request().BindValid(n)
	if err != nil {
		c.Response().Error(http.StatusBadRequest, err.Error())
		return false
	}
	if errs != nil {
		c.Response().ValidationError(errs)
		return false
	}
	return true
}
