package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-zelasli/framework/http/validation"
)

// ── rules added on top of the string rules ───────────────────────────────────

func TestValidation_RequiredIf(t *testing.T) {
	r := validation.Rules{"company": "required_if:type,business,partner"}

	pass(t, "other value does not trigger", map[string]string{"type": "personal"}, r)
	pass(t, "triggered and present", map[string]string{"type": "business", "company": "ACME"}, r)
	fail(t, "triggered and missing", "company", map[string]string{"type": "partner"}, r)
}

func TestValidation_DateAfterBefore(t *testing.T) {
	r := validation.Rules{"start": "date_after:2024-01-01|date_before:2024-12-31"}

	pass(t, "inside range", map[string]string{"start": "2024-06-15"}, r)
	fail(t, "on lower bound", "start", map[string]string{"start": "2024-01-01"}, r)
	fail(t, "after upper bound", "start", map[string]string{"start": "2025-01-01"}, r)
	fail(t, "not a date", "start", map[string]string{"start": "soon"}, r)
}

func TestValidation_UnknownRuleIgnored(t *testing.T) {
	pass(t, "unknown rule", map[string]string{"x": "1"}, validation.Rules{"x": "frobnicate"})
}

func TestValidation_FailsTwice_NoDuplicateMessages(t *testing.T) {
	v := validation.Make(map[string]string{}, validation.Rules{"name": "required"})
	require.True(t, v.Fails())
	require.True(t, v.Fails())
	assert.Len(t, v.Errors().Bag["name"], 1)
}

// ── standalone checks ────────────────────────────────────────────────────────

func TestChecks(t *testing.T) {
	assert.True(t, validation.Email("a@b.co"))
	assert.False(t, validation.Email(""))
	assert.True(t, validation.URL("https://example.com"))
	assert.False(t, validation.URL("example.com"))
	assert.True(t, validation.Alpha("abc"))
	assert.False(t, validation.Alpha("ab1"))
	assert.True(t, validation.AlphaNum("ab1"))
	assert.False(t, validation.AlphaNum("ab-1"))
	assert.True(t, validation.Numeric("-1.5"))
	assert.False(t, validation.Numeric("1e"))
	assert.True(t, validation.Between(5, 1, 5))
	assert.False(t, validation.Between(6, 1, 5))
	assert.True(t, validation.In("b", "a", "b"))
	assert.False(t, validation.In("c", "a", "b"))
}

func TestTruthyFalsy(t *testing.T) {
	for _, v := range []string{"true", "1", "YES", "on"} {
		assert.True(t, validation.Truthy(v), v)
		assert.False(t, validation.Falsy(v), v)
	}
	for _, v := range []string{"false", "0", "No", "off"} {
		assert.True(t, validation.Falsy(v), v)
		assert.False(t, validation.Truthy(v), v)
	}
	assert.False(t, validation.Truthy("maybe"))
	assert.False(t, validation.Falsy("maybe"))
}

func TestDates(t *testing.T) {
	assert.True(t, validation.DateAfter("2024-02-01", "2024-01-31"))
	assert.False(t, validation.DateAfter("2024-01-31", "2024-01-31"))
	assert.True(t, validation.DateBefore("2023-12-31", "2024-01-01"))
	assert.False(t, validation.DateBefore("2024-01-01", "bad"))
}

// ── struct validation ────────────────────────────────────────────────────────

type signUp struct {
	Email string `json:"email" validate:"required,email"`
	Terms string `json:"terms" validate:"truthy"`
	Nick  string `validate:"required"`
}

func TestStruct_Valid(t *testing.T) {
	errs, err := validation.Struct(&signUp{Email: "a@b.co", Terms: "yes", Nick: "al"})
	require.NoError(t, err)
	assert.Nil(t, errs)
}

func TestStruct_Invalid(t *testing.T) {
	errs, err := validation.Struct(signUp{Email: "nope", Terms: "no"})
	require.NoError(t, err)
	require.NotNil(t, errs)

	assert.Equal(t, "The email must be a valid email address.", errs.First("email"))
	assert.Equal(t, "The terms must be accepted.", errs.First("terms"))
	assert.Equal(t, "The nick field is required.", errs.First("nick"))
}

func TestStruct_NotAStruct(t *testing.T) {
	_, err := validation.Struct(42)
	assert.Error(t, err)
}
