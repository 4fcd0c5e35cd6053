// Package encoding holds the fitted transforms applied to survey answers
// before inference: per-feature label encoders and the numeric scaler.
package encoding

import (
	"fmt"

	"github.com/okian/salarygauge/internal/domain/model"
)

// UnknownPolicy decides what an encoder does with a value it was not fitted on.
type UnknownPolicy string

const (
	// PolicyReject fails with *UnknownCategoryError.
	PolicyReject UnknownPolicy = "reject"
	// PolicyFallback maps the value to the encoder's fallback code.
	PolicyFallback UnknownPolicy = "fallback"
)

// Resolution tells how a value was turned into a code.
type Resolution int

const (
	ResolvedKnown Resolution = iota
	ResolvedMissing
	ResolvedFallback
)

func (r Resolution) String() string {
	switch r {
	case ResolvedKnown:
		return "known"
	case ResolvedMissing:
		return "missing"
	case ResolvedFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// EncoderOption applies a configuration option to a LabelEncoder.
type EncoderOption func(*LabelEncoder)

// WithMissingValue sets the training token that stood in for blank answers,
// typically "nan". Placeholder answers encode as this token.
func WithMissingValue(token string) EncoderOption {
	return func(e *LabelEncoder) {
		e.missing = token
	}
}

// WithFallback switches the encoder to PolicyFallback with the given code.
func WithFallback(code int) EncoderOption {
	return func(e *LabelEncoder) {
		e.policy = PolicyFallback
		e.fallback = code
	}
}

// LabelEncoder maps the string classes of one categorical feature to the
// integer codes used at training time. The code of a class is its index.
type LabelEncoder struct {
	feature  string
	classes  []string
	codes    map[string]int
	missing  string
	policy   UnknownPolicy
	fallback int
}

// NewLabelEncoder builds an encoder for feature from classes in code order.
func NewLabelEncoder(feature string, classes []string, opts ...EncoderOption) (*LabelEncoder, error) {
	e := &LabelEncoder{
		feature: feature,
		classes: append([]string(nil), classes...),
		codes:   make(map[string]int, len(classes)),
		policy:  PolicyReject,
	}
	for i, c := range classes {
		if _, dup := e.codes[c]; dup {
			return nil, fmt.Errorf("%w: %q in %s", ErrDuplicateClass, c, feature)
		}
		e.codes[c] = i
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Feature returns the feature name the encoder was fitted for.
func (e *LabelEncoder) Feature() string { return e.feature }

// Len returns the number of known classes.
func (e *LabelEncoder) Len() int { return len(e.classes) }

// Policy returns the unknown-value policy.
func (e *LabelEncoder) Policy() UnknownPolicy { return e.policy }

// MissingValue returns the blank-answer token, or "" if none was declared.
func (e *LabelEncoder) MissingValue() string { return e.missing }

// Classes returns a copy of the known classes in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Knows reports whether value is one of the fitted classes.
func (e *LabelEncoder) Knows(value string) bool {
	_, ok := e.codes[value]
	return ok
}

// Encode returns the code for value. An exact class match always wins, so a
// literal "NAN" class stays distinct from the blank-answer token.
func (e *LabelEncoder) Encode(value string) (int, Resolution, error) {
	if code, ok := e.codes[value]; ok {
		return code, ResolvedKnown, nil
	}
	if e.missing != "" && model.IsUnset(value) {
		if code, ok := e.codes[e.missing]; ok {
			return code, ResolvedMissing, nil
		}
	}
	if e.policy == PolicyFallback {
		return e.fallback, ResolvedFallback, nil
	}
	return 0, ResolvedKnown, &UnknownCategoryError{Feature: e.feature, Value: value}
}

// Encoders is the set of label encoders keyed by categorical feature name.
type Encoders map[string]*LabelEncoder

// Encode looks up the encoder for feature and encodes value with it.
func (m Encoders) Encode(feature, value string) (int, Resolution, error) {
	e, ok := m[feature]
	if !ok {
		return 0, ResolvedKnown, fmt.Errorf("%w: %s", ErrNoEncoder, feature)
	}
	return e.Encode(value)
}
