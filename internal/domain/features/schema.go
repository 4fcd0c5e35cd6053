// Package features turns a raw survey record into the numeric vector the
// salary model was trained on.
package features

import (
	"fmt"
	"strings"

	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/model"
)

// SchemaVersion is the feature schema revision this build understands.
const SchemaVersion = "survey/v1"

// ColumnKind says how one vector column is derived from the record.
type ColumnKind string

const (
	// ColumnCategorical is the label-encoded code of a categorical field.
	ColumnCategorical ColumnKind = "categorical"
	// ColumnNumeric is a numeric field as-is.
	ColumnNumeric ColumnKind = "numeric"
	// ColumnCount is the number of distinct tokens in a multi-value field.
	ColumnCount ColumnKind = "count"
	// ColumnPresence is 1 when Token appears in a multi-value field, else 0.
	ColumnPresence ColumnKind = "presence"
)

// Column describes one position of the feature vector.
type Column struct {
	Name  string
	Kind  ColumnKind
	Field string // record field; empty means Name
	Token string // ColumnPresence only
}

// Source returns the record field the column reads.
func (c Column) Source() string {
	if c.Field != "" {
		return c.Field
	}
	return c.Name
}

// Schema is the ordered column list shared by training and inference.
type Schema struct {
	Version string
	Columns []Column
}

// Dim returns the vector length.
func (s Schema) Dim() int { return len(s.Columns) }

// Names returns column names in vector order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Tokens returns, per multi-value field, the tokens that have a presence column.
func (s Schema) Tokens() map[string][]string {
	out := make(map[string][]string)
	for _, c := range s.Columns {
		if c.Kind == ColumnPresence {
			out[c.Source()] = append(out[c.Source()], c.Token)
		}
	}
	return out
}

// Validate checks the schema against the record layout and the encoder set.
func (s Schema) Validate(encoders encoding.Encoders) error {
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: version %q, want %q", ErrInvalidSchema, s.Version, SchemaVersion)
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: no columns", ErrInvalidSchema)
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, c := range s.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrInvalidSchema, i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate column %s", ErrInvalidSchema, c.Name)
		}
		seen[c.Name] = struct{}{}

		kind, ok := model.KindOf(c.Source())
		if !ok {
			return fmt.Errorf("%w: column %s reads unknown field %s", ErrInvalidSchema, c.Name, c.Source())
		}
		var want model.FieldKind
		switch c.Kind {
		case ColumnCategorical:
			want = model.KindCategorical
			if _, ok := encoders[c.Name]; !ok {
				return fmt.Errorf("%w: column %s: %w", ErrInvalidSchema, c.Name, encoding.ErrNoEncoder)
			}
		case ColumnNumeric:
			want = model.KindNumeric
		case ColumnCount:
			want = model.KindMultiValue
		case ColumnPresence:
			want = model.KindMultiValue
			if strings.TrimSpace(c.Token) == "" {
				return fmt.Errorf("%w: presence column %s has no token", ErrInvalidSchema, c.Name)
			}
		default:
			return fmt.Errorf("%w: column %s has unknown kind %q", ErrInvalidSchema, c.Name, c.Kind)
		}
		if kind != want {
			return fmt.Errorf("%w: column %s is %s but field %s is %s", ErrInvalidSchema, c.Name, c.Kind, c.Source(), kind)
		}
	}
	return nil
}

// SplitMulti splits a ';'-delimited answer into distinct tokens in input
// order. Blank and nan tokens are dropped, so "" yields no tokens. Tokens
// are compared case-insensitively; the first spelling is kept.
func SplitMulti(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ";")
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || strings.EqualFold(p, "nan") {
			continue
		}
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
