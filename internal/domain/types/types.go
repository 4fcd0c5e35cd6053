// Package types contains common types used across the application
package types

// Prediction is the outcome of one salary prediction.
type Prediction struct {
	ID           string  `json:"id"`
	Salary       float64 `json:"salary"`
	Display      string  `json:"display"`
	Currency     string  `json:"currency,omitempty"`
	ModelVersion string  `json:"model_version"`
	Cached       bool    `json:"cached"`
}

// Explanation exposes the vectors a prediction was computed from.
type Explanation struct {
	Columns []string  `json:"columns"`
	Raw     []float64 `json:"raw"`
	Scaled  []float64 `json:"scaled"`
	Salary  float64   `json:"salary"`
}

// FieldOptions describes how a form should offer one survey field.
type FieldOptions struct {
	Field       string   `json:"field"`
	Label       string   `json:"label"`
	Kind        string   `json:"kind"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Default     *int     `json:"default,omitempty"`
	Delimiter   string   `json:"delimiter,omitempty"`
}

// Options is the full form description for the loaded model.
type Options struct {
	ModelVersion string         `json:"model_version"`
	Fields       []FieldOptions `json:"fields"`
}
