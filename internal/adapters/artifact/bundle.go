package artifact

import (
	"fmt"

	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/features"
	"github.com/okian/salarygauge/internal/domain/regression"
)

// Bundle is the loaded, validated artifact. It is read-only after Load and
// is shared by every prediction for the life of the process.
type Bundle struct {
	Version  string
	Schema   features.Schema
	Encoders encoding.Encoders
	Scaler   encoding.Scaler
	Model    regression.Regressor
	Meta     map[string]string
}

// Validate checks that the members agree with each other: every categorical
// column has an encoder, and the scaler and model were fitted on the
// schema's width.
func (b *Bundle) Validate() error {
	if b.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalid)
	}
	if b.Model == nil || b.Scaler == nil {
		return fmt.Errorf("%w: model and scaler are required", ErrInvalid)
	}
	if err := b.Schema.Validate(b.Encoders); err != nil {
		return fmt.Errorf("%w: %w", ErrInconsistent, err)
	}
	dim := b.Schema.Dim()
	if b.Scaler.Dim() != dim {
		return fmt.Errorf("%w: %w", ErrInconsistent, &features.SchemaMismatchError{Stage: "scaler", Want: b.Scaler.Dim(), Got: dim})
	}
	if b.Model.NumFeatures() != dim {
		return fmt.Errorf("%w: %w", ErrInconsistent, &features.SchemaMismatchError{Stage: "model", Want: b.Model.NumFeatures(), Got: dim})
	}
	return nil
}

// Pipeline returns a feature pipeline for the bundle's schema.
func (b *Bundle) Pipeline(opts ...features.Option) *features.Pipeline {
	return features.NewPipeline(b.Schema, opts...)
}
