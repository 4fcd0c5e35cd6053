// Package regression defines the contract for the pre-trained salary model
// and the model families an artifact may carry.
package regression

import (
	"fmt"
	"math"
)

// Kind names a model family.
type Kind string

const (
	KindLinear       Kind = "linear"
	KindTreeEnsemble Kind = "tree_ensemble"
)

// Regressor maps a scaled feature vector to a scalar prediction.
// Implementations are immutable after construction and safe for concurrent use.
type Regressor interface {
	Predict(x []float64) (float64, error)
	// NumFeatures is the vector length the model was trained on.
	NumFeatures() int
	Kind() Kind
}

// Linear is an ordinary least squares style model: intercept + coef·x.
type Linear struct {
	coef      []float64
	intercept float64
}

// NewLinear validates and copies the fitted coefficients.
func NewLinear(coef []float64, intercept float64) (*Linear, error) {
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: linear model has no coefficients", ErrInvalidModel)
	}
	for i, c := range coef {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	if math.IsNaN(intercept) || math.IsInf(intercept, 0) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	return &Linear{coef: append([]float64(nil), coef...), intercept: intercept}, nil
}

func (m *Linear) NumFeatures() int { return len(m.coef) }
func (m *Linear) Kind() Kind       { return KindLinear }

func (m *Linear) Predict(x []float64) (float64, error) {
	if err := checkDim(m, x); err != nil {
		return 0, err
	}
	y := m.intercept
	for i, v := range x {
		y += m.coef[i] * v
	}
	return finite(y)
}

func checkDim(m Regressor, x []float64) error {
	if len(x) != m.NumFeatures() {
		return fmt.Errorf("%w: model expects %d, got %d", ErrDimensionMismatch, m.NumFeatures(), len(x))
	}
	return nil
}

func finite(y float64) (float64, error) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, y)
	}
	return y, nil
}
