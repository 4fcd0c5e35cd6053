package encoding

import (
	"fmt"
	"math"
)

// ScalerKind names a fitted numeric transform.
type ScalerKind string

const (
	ScalerStandard ScalerKind = "standard"
	ScalerMinMax   ScalerKind = "minmax"
	ScalerIdentity ScalerKind = "identity"
)

// Scaler normalizes an assembled feature vector. Implementations are
// immutable after construction and safe for concurrent use.
type Scaler interface {
	// Transform returns the scaled copy of x. x must have Dim() entries.
	Transform(x []float64) ([]float64, error)
	Dim() int
	Kind() ScalerKind
}

// StandardScaler computes (x - mean) / scale per column.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

// NewStandardScaler validates the fitted parameters. A zero scale is
// treated as one, matching how constant columns are fitted.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("%w: %d means, %d scales", ErrInvalidScaler, len(mean), len(scale))
	}
	if err := checkFinite(mean, scale); err != nil {
		return nil, err
	}
	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: make([]float64, len(scale)),
	}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	return s, nil
}

func (s *StandardScaler) Dim() int         { return len(s.mean) }
func (s *StandardScaler) Kind() ScalerKind { return ScalerStandard }

func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("%w: scaler expects %d, got %d", ErrDimensionMismatch, len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// MinMaxScaler computes x*scale + min per column, where min and scale are
// the fitted offsets for the target range.
type MinMaxScaler struct {
	min   []float64
	scale []float64
}

// NewMinMaxScaler validates the fitted parameters.
func NewMinMaxScaler(mins, scale []float64) (*MinMaxScaler, error) {
	if len(mins) != len(scale) {
		return nil, fmt.Errorf("%w: %d mins, %d scales", ErrInvalidScaler, len(mins), len(scale))
	}
	if err := checkFinite(mins, scale); err != nil {
		return nil, err
	}
	return &MinMaxScaler{
		min:   append([]float64(nil), mins...),
		scale: append([]float64(nil), scale...),
	}, nil
}

func (s *MinMaxScaler) Dim() int         { return len(s.min) }
func (s *MinMaxScaler) Kind() ScalerKind { return ScalerMinMax }

func (s *MinMaxScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.min) {
		return nil, fmt.Errorf("%w: scaler expects %d, got %d", ErrDimensionMismatch, len(s.min), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v*s.scale[i] + s.min[i]
	}
	return out, nil
}

// IdentityScaler passes vectors through unchanged, for models trained on
// unscaled features.
type IdentityScaler struct {
	dim int
}

func NewIdentityScaler(dim int) *IdentityScaler { return &IdentityScaler{dim: dim} }

func (s *IdentityScaler) Dim() int         { return s.dim }
func (s *IdentityScaler) Kind() ScalerKind { return ScalerIdentity }

func (s *IdentityScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.dim {
		return nil, fmt.Errorf("%w: scaler expects %d, got %d", ErrDimensionMismatch, s.dim, len(x))
	}
	return append([]float64(nil), x...), nil
}

func checkFinite(vectors ...[]float64) error {
	for _, vec := range vectors {
		for i, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite parameter at column %d", ErrInvalidScaler, i)
			}
		}
	}
	return nil
}
