package features

import (
	"errors"
	"fmt"
)

// Sentinel kinds for feature preparation errors.
var (
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrInvalidSchema  = errors.New("invalid schema")
)

// SchemaMismatchError reports an assembled vector whose length differs from
// what the next stage was fitted on.
type SchemaMismatchError struct {
	Stage string // "scaler" or "model"
	Want  int
	Got   int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s expects %d features, pipeline produced %d", e.Stage, e.Want, e.Got)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }
