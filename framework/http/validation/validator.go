package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ── Types ────────────────────────────────────────────────────────────────────

// Errors holds validation errors keyed by field.
// JSON output: {"errors": {"field": ["msg1", "msg2"]}}
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

func (e *Errors) add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has returns true if there are any errors.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first error for a field.
func (e *Errors) First(field string) string {
	if msgs, ok := e.Bag[field]; ok && len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// ── Validator ────────────────────────────────────────────────────────────────

// Rules is a map of field → pipe-separated rule string.
// e.g. Rules{"email": "required|email", "age": "required|numeric|gte:18"}
type Rules map[string]string

// Validator validates a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	ran    bool
}

// Make creates a new Validator over data.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{
		data:   data,
		rules:  rules,
		errors: &Errors{},
	}
}

// Fails runs validation and returns true if any rule fails.
func (v *Validator) Fails() bool {
	v.validate()
	return v.errors.Has()
}

// Passes runs validation and returns true if all rules pass.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the validation error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// ── Core validation loop ─────────────────────────────────────────────────────

// outcome of one rule on one field
type outcome int

const (
	next outcome = iota // rule passed, keep going
	stop                // skip the field's remaining rules silently
	fail                // rule failed, message recorded
)

// rule checks value against param and returns the failure message, or "".
type rule func(v *Validator, field, value, param string) string

func (v *Validator) validate() {
	if v.ran {
		return
	}
	v.ran = true

	for field, ruleStr := range v.rules {
		value := v.data[field]

		for _, r := range strings.Split(ruleStr, "|") {
			r = strings.TrimSpace(r)
			if r == "" {
				continue
			}

			// min:3 → name=min, param=3
			name, param, _ := strings.Cut(r, ":")
			if v.apply(field, value, name, param) != next {
				break // bail on first failure
			}
		}
	}
}

func (v *Validator) apply(field, value, name, param string) outcome {
	switch name {
	case "nullable":
		if value == "" {
			return stop
		}
		return next
	case "sometimes":
		if _, present := v.data[field]; !present {
			return stop
		}
		return next
	case "string":
		// form values are always strings
		return next
	}

	check, ok := rules[name]
	if !ok {
		return next
	}
	if msg := check(v, field, value, param); msg != "" {
		v.errors.add(field, msg)
		return fail
	}
	return next
}

var rules = map[string]rule{
	"required": func(_ *Validator, field, value, _ string) string {
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("The %s field is required.", field)
		}
		return ""
	},
	"required_if": func(v *Validator, field, value, param string) string {
		// required_if:other,val1,val2
		other, vals, _ := strings.Cut(param, ",")
		if !In(v.data[other], splitList(vals)...) || strings.TrimSpace(value) != "" {
			return ""
		}
		return fmt.Sprintf("The %s field is required when %s is %s.", field, other, v.data[other])
	},
	"numeric": func(_ *Validator, field, value, _ string) string {
		if !Numeric(value) {
			return fmt.Sprintf("The %s must be a number.", field)
		}
		return ""
	},
	"integer": func(_ *Validator, field, value, _ string) string {
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Sprintf("The %s must be an integer.", field)
		}
		return ""
	},
	"boolean": func(_ *Validator, field, value, _ string) string {
		if !Truthy(value) && !Falsy(value) {
			return fmt.Sprintf("The %s field must be true or false.", field)
		}
		return ""
	},
	"email": func(_ *Validator, field, value, _ string) string {
		if !Email(value) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
		return ""
	},
	"url": func(_ *Validator, field, value, _ string) string {
		if !URL(value) {
			return fmt.Sprintf("The %s must be a valid URL.", field)
		}
		return ""
	},
	"min": func(_ *Validator, field, value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("The %s must be at least %d characters.", field, n)
		}
		return ""
	},
	"max": func(_ *Validator, field, value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("The %s may not be greater than %d characters.", field, n)
		}
		return ""
	},
	"size": func(_ *Validator, field, value, param string) string {
		n, _ := strconv.Atoi(param)
		if utf8.RuneCountInString(value) != n {
			return fmt.Sprintf("The %s must be %d characters.", field, n)
		}
		return ""
	},
	"between": func(_ *Validator, field, value, param string) string {
		lo, hi, ok := strings.Cut(param, ",")
		if !ok {
			return ""
		}
		min, _ := strconv.Atoi(strings.TrimSpace(lo))
		max, _ := strconv.Atoi(strings.TrimSpace(hi))
		if !Between(utf8.RuneCountInString(value), min, max) {
			return fmt.Sprintf("The %s must be between %d and %d characters.", field, min, max)
		}
		return ""
	},
	"in": func(_ *Validator, field, value, param string) string {
		if !In(value, splitList(param)...) {
			return fmt.Sprintf("The selected %s is invalid.", field)
		}
		return ""
	},
	"not_in": func(_ *Validator, field, value, param string) string {
		if In(value, splitList(param)...) {
			return fmt.Sprintf("The selected %s is invalid.", field)
		}
		return ""
	},
	"confirmed": func(v *Validator, field, value, _ string) string {
		if v.data[field+"_confirmation"] != value {
			return fmt.Sprintf("The %s confirmation does not match.", field)
		}
		return ""
	},
	"same": func(v *Validator, field, value, param string) string {
		if v.data[param] != value {
			return fmt.Sprintf("The %s and %s must match.", field, param)
		}
		return ""
	},
	"different": func(v *Validator, field, value, param string) string {
		if v.data[param] == value {
			return fmt.Sprintf("The %s and %s must be different.", field, param)
		}
		return ""
	},
	"alpha": func(_ *Validator, field, value, _ string) string {
		if !Alpha(value) {
			return fmt.Sprintf("The %s may only contain letters.", field)
		}
		return ""
	},
	"alpha_num": func(_ *Validator, field, value, _ string) string {
		if !AlphaNum(value) {
			return fmt.Sprintf("The %s may only contain letters and numbers.", field)
		}
		return ""
	},
	"alpha_dash": func(_ *Validator, field, value, _ string) string {
		if !alphaDash.MatchString(value) {
			return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores.", field)
		}
		return ""
	},
	"regex": func(_ *Validator, field, value, param string) string {
		re, err := regexp.Compile(param)
		if err != nil || !re.MatchString(value) {
			return fmt.Sprintf("The %s format is invalid.", field)
		}
		return ""
	},
	"date_after": func(_ *Validator, field, value, param string) string {
		if !DateAfter(value, param) {
			return fmt.Sprintf("The %s must be a date after %s.", field, param)
		}
		return ""
	},
	"date_before": func(_ *Validator, field, value, param string) string {
		if !DateBefore(value, param) {
			return fmt.Sprintf("The %s must be a date before %s.", field, param)
		}
		return ""
	},
	"gt":  compare("greater than", func(a, b float64) bool { return a > b }),
	"gte": compare("greater than or equal to", func(a, b float64) bool { return a >= b }),
	"lt":  compare("less than", func(a, b float64) bool { return a < b }),
	"lte": compare("less than or equal to", func(a, b float64) bool { return a <= b }),
}

var alphaDash = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func compare(phrase string, ok func(a, b float64) bool) rule {
	return func(_ *Validator, field, value, param string) string {
		f, _ := strconv.ParseFloat(value, 64)
		t, _ := strconv.ParseFloat(param, 64)
		if !ok(f, t) {
			return fmt.Sprintf("The %s must be %s %s.", field, phrase, param)
		}
		return ""
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
