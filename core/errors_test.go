package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError(errors.New("invalid filters"),
		FieldError{Field: "ordering", Error: "unknown field: b"},
		FieldError{Field: "q", Error: "too long"},
		FieldError{Field: "ordering", Error: "unknown field: a"},
	)

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Equal(t, "invalid filters", err.Error())
	assert.Equal(t, map[string]string{
		"ordering": "unknown field: a, unknown field: b",
		"q":        "too long",
	}, vErr.FieldErrors())

	assert.Nil(t, ValidationError{Err: errors.New("nope")}.FieldErrors())
	assert.Equal(t, "", ValidationError{}.Error())
}
