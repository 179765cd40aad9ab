// Package http holds the request and response objects controllers work with.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var payload struct {
//	    Name string `json:"name" validate:"required"`
//	}
//	errs, err := req.BindValid(&payload)
//
//	name := req.Input("name", "default")
//	page := req.Query("page", "1")
//	id   := req.RouteParam("id")
//	sess := req.Session()
//
// # Response
//
// Response writes straight to the client:
//
//	res.JSON(http.StatusOK, data)
//	res.ValidationError(v.Errors())
//	res.RedirectTo("/login")
//
// Message is what a controller action returns when it wants the kernel to
// send the response:
//
//	return gohttp.HTML(http.StatusCreated, "<p>saved</p>").WithHeader("X-Id", id), nil
package http
