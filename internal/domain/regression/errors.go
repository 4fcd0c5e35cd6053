package regression

import "errors"

// Sentinel kinds for regression errors.
var (
	ErrInvalidModel      = errors.New("invalid model")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrNonFinite         = errors.New("non-finite prediction")
)
