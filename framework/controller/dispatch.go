package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	gohttp "github.com/km-arc/go-zelasli/framework/http"
	"github.com/km-arc/go-zelasli/framework/view"
)

var (
	// ErrActionNotFound is returned when the controller has no such method.
	ErrActionNotFound = errors.New("controller: action not found")

	// ErrBadParams is returned when route parameters do not fit the action.
	ErrBadParams = errors.New("controller: bad action parameters")
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Dispatch calls the action method of ctl with the route parameters and
// returns the message to send.
//
// The action may take a context.Context first; the remaining parameters
// receive params in order, converted to strings, integers, floats or bools.
// Extra params are ignored, missing ones are an error. It may return nothing,
// a value, a value and an error, or an error; values are normalised by
// Normalize.
func Dispatch(ctx context.Context, ctl any, action string, params []string) (*gohttp.Message, error) {
	method, err := lookup(ctl, action)
	if err != nil {
		return nil, err
	}

	args, err := arguments(ctx, method.Type(), params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadParams, action, err)
	}

	out := method.Call(args)

	var result any
	switch len(out) {
	case 0:
	case 1:
		if out[0].Type() == errorType {
			if !out[0].IsNil() {
				return nil, out[0].Interface().(error)
			}
		} else {
			result = out[0].Interface()
		}
	default:
		if last := out[len(out)-1]; last.Type() == errorType && !last.IsNil() {
			return nil, last.Interface().(error)
		}
		result = out[0].Interface()
	}
	return Normalize(result)
}

// lookup finds the exported method named action, accepting a lower-case
// first letter ("index" → Index).
func lookup(ctl any, action string) (reflect.Value, error) {
	v := reflect.ValueOf(ctl)
	if !v.IsValid() || action == "" {
		return reflect.Value{}, ErrActionNotFound
	}
	if m := v.MethodByName(action); m.IsValid() {
		return m, nil
	}
	r := []rune(action)
	r[0] = unicode.ToUpper(r[0])
	if m := v.MethodByName(string(r)); m.IsValid() {
		return m, nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %T has no method %s", ErrActionNotFound, ctl, action)
}

func arguments(ctx context.Context, mt reflect.Type, params []string) ([]reflect.Value, error) {
	n := mt.NumIn()
	args := make([]reflect.Value, 0, n)

	first := 0
	if n > 0 && mt.In(0) == contextType {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
		first = 1
	}

	fixed := n
	if mt.IsVariadic() {
		fixed = n - 1
	}
	if need := fixed - first; len(params) < need {
		return nil, fmt.Errorf("want %d parameters, got %d", need, len(params))
	}

	p := 0
	for i := first; i < fixed; i++ {
		v, err := convert(params[p], mt.In(i))
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		p++
	}

	if mt.IsVariadic() {
		elem := mt.In(n - 1).Elem()
		for ; p < len(params); p++ {
			v, err := convert(params[p], elem)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
		}
	}
	return args, nil
}

func convert(s string, t reflect.Type) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return v, fmt.Errorf("%q is not an %s", s, t)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return v, fmt.Errorf("%q is not a %s", s, t)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return v, fmt.Errorf("%q is not a %s", s, t)
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return v, fmt.Errorf("%q is not a bool", s)
		}
		v.SetBool(b)
	case reflect.Interface:
		if !reflect.TypeOf(s).AssignableTo(t) {
			return v, fmt.Errorf("cannot pass a route parameter as %s", t)
		}
		v.Set(reflect.ValueOf(s))
	default:
		return v, fmt.Errorf("cannot pass a route parameter as %s", t)
	}
	return v, nil
}

// Normalize turns an action result into a message: a *gohttp.Message is
// kept, a *view.View is rendered, a string or []byte becomes an HTML body,
// nil an empty 200, and anything else is sent as JSON.
func Normalize(result any) (*gohttp.Message, error) {
	switch r := result.(type) {
	case nil:
		return gohttp.NewMessage(""), nil
	case *gohttp.Message:
		if r == nil {
			return gohttp.NewMessage(""), nil
		}
		return r, nil
	case *view.View:
		if r == nil {
			return gohttp.NewMessage(""), nil
		}
		content, err := r.Content()
		if err != nil {
			return nil, err
		}
		return gohttp.NewMessage(content), nil
	case string:
		return gohttp.NewMessage(r), nil
	case []byte:
		return gohttp.NewMessage(string(r)), nil
	default:
		body, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("controller: encode %T: %w", r, err)
		}
		return &gohttp.Message{
			Status: http.StatusOK,
			Header: http.Header{"Content-Type": {"application/json"}},
			Body:   body,
		}, nil
	}
}
