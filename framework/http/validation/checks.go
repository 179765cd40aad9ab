package validation

import (
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate runs the format checks below; it is safe for concurrent use.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("truthy", func(fl validator.FieldLevel) bool {
		return Truthy(fl.Field().String())
	})
	_ = validate.RegisterValidation("falsy", func(fl validator.FieldLevel) bool {
		return Falsy(fl.Field().String())
	})
}

// Engine returns the shared validator/v10 instance behind Struct, so an
// application can register its own struct tags.
func Engine() *validator.Validate { return validate }

// DateLayout is the layout date rules parse with.
const DateLayout = time.DateOnly

func is(value, tag string) bool { return validate.Var(value, tag) == nil }

// Email reports whether value is a valid email address.
func Email(value string) bool { return is(value, "required,email") }

// URL reports whether value is an absolute http or https URL.
func URL(value string) bool { return is(value, "required,http_url") }

// Alpha reports whether value contains ASCII letters only.
func Alpha(value string) bool { return is(value, "required,alpha") }

// AlphaNum reports whether value contains ASCII letters and digits only.
func AlphaNum(value string) bool { return is(value, "required,alphanum") }

// Numeric reports whether value is a signed decimal number.
func Numeric(value string) bool { return is(value, "required,numeric") }

// Between reports whether min <= n <= max.
func Between(n, min, max int) bool { return n >= min && n <= max }

// Truthy reports whether value reads as true: true, 1, yes or on.
func Truthy(value string) bool {
	return In(strings.ToLower(value), "true", "1", "yes", "on")
}

// Falsy reports whether value reads as false: false, 0, no or off.
func Falsy(value string) bool {
	return In(strings.ToLower(value), "false", "0", "no", "off")
}

// In reports whether value is one of allowed.
func In(value string, allowed ...string) bool {
	return slices.Contains(allowed, value)
}

// DateAfter reports whether value is a date strictly after date.
// Both are parsed with DateLayout; unparsable input fails.
func DateAfter(value, date string) bool {
	a, b, ok := parseDates(value, date)
	return ok && a.After(b)
}

// DateBefore reports whether value is a date strictly before date.
func DateBefore(value, date string) bool {
	a, b, ok := parseDates(value, date)
	return ok && a.Before(b)
}

func parseDates(value, date string) (time.Time, time.Time, bool) {
	a, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	b, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return a, b, true
}

// Struct validates v's `validate` struct tags and returns the failures keyed
// by the field's json name, or nil when v is valid.
//
//	type SignUp struct {
//	    Email string `json:"email" validate:"required,email"`
//	    Terms string `json:"terms" validate:"truthy"`
//	}
func Struct(v any) (*Errors, error) {
	err := validate.Struct(v)
	if err == nil {
		return nil, nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil, err
	}

	typ := reflect.TypeOf(v)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	errs := &Errors{}
	for _, fe := range fieldErrs {
		field := jsonName(typ, fe.StructField())
		errs.add(field, message(field, fe))
	}
	return errs, nil
}

func jsonName(typ reflect.Type, name string) string {
	sf, ok := typ.FieldByName(name)
	if !ok {
		return strings.ToLower(name)
	}
	tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if tag == "" || tag == "-" {
		return strings.ToLower(name)
	}
	return tag
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + field + " field is required."
	case "email":
		return "The " + field + " must be a valid email address."
	case "truthy":
		return "The " + field + " must be accepted."
	default:
		return "The " + field + " is invalid (" + fe.Tag() + ")."
	}
}
