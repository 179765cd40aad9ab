// Package validation validates request input.
//
// # Basic Usage
//
// Rules are pipe-separated strings keyed by field name:
//
//	v := validation.Make(req.All(), validation.Rules{
//	    "name":  "required|min:2|max:100",
//	    "email": "required|email",
//	    "start": "required|date_after:2024-01-01",
//	})
//
//	if v.Fails() {
//	    res.ValidationError(v.Errors())
//	}
//
// Structs can carry go-playground/validator tags instead:
//
//	errs, err := validation.Struct(&payload)
//
// # Available Rules
//
// String rules:
//   - required: field must be present and non-empty
//   - required_if:other,a,b: required when data[other] is a or b
//   - string: passes (all form values are strings)
//   - min:n, max:n, size:n: UTF-8 character counts
//   - between:min,max: length between min and max (inclusive)
//   - alpha, alpha_num, alpha_dash
//   - regex:pattern: must match regexp pattern
//
// Format rules:
//   - email: valid email address
//   - url: absolute http:// or https:// URL
//   - date_after:YYYY-MM-DD, date_before:YYYY-MM-DD
//
// Numeric rules:
//   - numeric, integer
//   - gt:n, gte:n, lt:n, lte:n
//
// Comparison rules:
//   - confirmed: field_confirmation must match field
//   - same:other: must equal data[other]
//   - different:other: must not equal data[other]
//
// Type rules:
//   - boolean: true/false/1/0/yes/no/on/off (case-insensitive)
//   - in:a,b,c, not_in:a,b,c
//
// Control rules:
//   - nullable: an empty value skips the remaining rules
//   - sometimes: an absent value skips the remaining rules
//
// Rules bail on the first failure of a field. Unknown rule names pass.
//
// # Error Bag
//
//	{
//	  "errors": {
//	    "email": ["The email must be a valid email address."],
//	    "age":   ["The age must be greater than or equal to 18."]
//	  }
//	}
package validation
