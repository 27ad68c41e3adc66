package core

import (
	"sort"
	"strings"
)

// FieldError is the error of one request field (query param, form field).
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a request the portal refuses with a 400.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// FieldErrors maps each field to its errors, nil when the error is not about fields.
func (err ValidationError) FieldErrors() map[string]string {
	if len(err.Fields) == 0 {
		return nil
	}
	grouped := make(map[string][]string, len(err.Fields))
	for _, fErr := range err.Fields {
		grouped[fErr.Field] = append(grouped[fErr.Field], fErr.Error)
	}
	res := make(map[string]string, len(grouped))
	for fld, msgs := range grouped {
		sort.Strings(msgs)
		res[fld] = strings.Join(msgs, ", ")
	}
	return res
}
