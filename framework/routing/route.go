package routing

import (
	"fmt"
	"net/http"
	"strings"
)

// Route describes one registered endpoint. Controller routes carry the
// container id of the controller and the action method to call; Params
// holds the matched path parameter values in pattern order and is only
// filled on the copy handed to the Dispatcher.
type Route struct {
	Method     string
	Pattern    string
	Controller string
	Action     string
	Params     []string
}

// IsController reports whether the route dispatches to a controller action.
func (rt Route) IsController() bool { return rt.Controller != "" }

// Target returns "Controller@Action", or "func" for plain handlers.
func (rt Route) Target() string {
	if !rt.IsController() {
		return "func"
	}
	return rt.Controller + "@" + rt.Action
}

func (rt Route) String() string {
	return fmt.Sprintf("%-7s %-30s %s", rt.Method, rt.Pattern, rt.Target())
}

// ParseTarget splits "HomeController@index" into controller and action.
// A missing action defaults to "Index".
func ParseTarget(target string) (controller, action string, err error) {
	controller, action, found := strings.Cut(target, "@")
	if controller == "" || (found && action == "") {
		return "", "", fmt.Errorf("routing: invalid controller target %q", target)
	}
	if !found {
		action = "Index"
	}
	return controller, action, nil
}

// Dispatcher runs a controller route. The application kernel implements it.
type Dispatcher interface {
	Dispatch(w http.ResponseWriter, r *http.Request, route Route)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(w http.ResponseWriter, r *http.Request, route Route)

func (f DispatcherFunc) Dispatch(w http.ResponseWriter, r *http.Request, route Route) {
	f(w, r, route)
}
