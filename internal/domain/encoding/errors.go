package encoding

import (
	"errors"
	"fmt"
)

// Sentinel kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownCategory   = errors.New("unknown category")
	ErrNoEncoder         = errors.New("no encoder for feature")
	ErrDuplicateClass    = errors.New("duplicate encoder class")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidScaler     = errors.New("invalid scaler")
)

// UnknownCategoryError reports a categorical value that was not seen during
// training and that the feature's encoder has no fallback for.
type UnknownCategoryError struct {
	Feature string
	Value   string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for feature %s", e.Value, e.Feature)
}

func (e *UnknownCategoryError) Unwrap() error { return ErrUnknownCategory }
