package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRecord is the kind shared by every record validation failure.
var ErrInvalidRecord = errors.New("invalid record")

// MissingFieldsMessage is shown when a required selection is left unset.
const MissingFieldsMessage = "Please fill in all the required fields"

// ReasonRequired is the ValidationError reason for an unanswered required field.
const ReasonRequired = "required selection is missing"

// DefaultRequiredFields are the selections that must be made before a
// prediction is attempted.
var DefaultRequiredFields = []string{FieldAge, FieldDevType, FieldOrgSize}

// ValidationError describes a single user-input problem.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRecord }

// Validate checks required selections and numeric ranges. All problems are
// reported together; each one is a *ValidationError.
func (r Record) Validate(required []string) error {
	var errs []error
	for _, field := range required {
		kind, ok := KindOf(field)
		if !ok {
			errs = append(errs, &ValidationError{Field: field, Reason: "unknown field"})
			continue
		}
		if kind != KindCategorical {
			continue
		}
		v, _ := r.Text(field)
		if IsPrompt(v) {
			errs = append(errs, &ValidationError{Field: field, Reason: ReasonRequired})
		}
	}
	for _, field := range []string{FieldYearsCode, FieldWorkExp, FieldYearsCodePro} {
		n, _ := r.Number(field)
		if n < MinYears || n > MaxYears {
			errs = append(errs, &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("must be between %d and %d, got %d", MinYears, MaxYears, n),
			})
		}
	}
	return errors.Join(errs...)
}

// Invalid returns the validation problems contained in err.
func Invalid(err error) []*ValidationError {
	var out []*ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if ve, ok := e.(*ValidationError); ok {
			out = append(out, ve)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
