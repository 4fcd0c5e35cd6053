package features

import (
	"strings"

	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/regression"
)

// EncodeObserver is told how each categorical value was resolved.
type EncodeObserver func(feature, value string, res encoding.Resolution)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithEncodeObserver registers an observer for categorical resolutions.
func WithEncodeObserver(fn EncodeObserver) Option {
	return func(p *Pipeline) {
		p.observe = fn
	}
}

// Pipeline prepares records for one schema. It holds no mutable state and
// may be shared between goroutines.
type Pipeline struct {
	schema  Schema
	observe EncodeObserver
}

// NewPipeline creates a pipeline for schema. The schema is expected to have
// been validated against the artifact it came with.
func NewPipeline(schema Schema, opts ...Option) *Pipeline {
	p := &Pipeline{schema: schema}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schema returns the schema the pipeline assembles.
func (p *Pipeline) Schema() Schema { return p.schema }

// Assemble splits multi-value fields, encodes categoricals and lays the
// results out in schema order.
func (p *Pipeline) Assemble(rec model.Record, encoders encoding.Encoders) ([]float64, error) {
	rec = rec.Normalized()
	tokens := make(map[string]map[string]struct{})
	vec := make([]float64, 0, len(p.schema.Columns))
	for _, c := range p.schema.Columns {
		switch c.Kind {
		case ColumnCategorical:
			v, _ := rec.Text(c.Source())
			code, res, err := encoders.Encode(c.Name, v)
			if err != nil {
				return nil, err
			}
			if p.observe != nil {
				p.observe(c.Name, v, res)
			}
			vec = append(vec, float64(code))
		case ColumnNumeric:
			n, _ := rec.Number(c.Source())
			vec = append(vec, float64(n))
		case ColumnCount, ColumnPresence:
			set, ok := tokens[c.Source()]
			if !ok {
				raw, _ := rec.Text(c.Source())
				set = tokenSet(raw)
				tokens[c.Source()] = set
			}
			if c.Kind == ColumnCount {
				vec = append(vec, float64(len(set)))
				continue
			}
			if _, ok := set[strings.ToLower(strings.TrimSpace(c.Token))]; ok {
				vec = append(vec, 1)
			} else {
				vec = append(vec, 0)
			}
		}
	}
	return vec, nil
}

// Vectors returns the assembled vector and its scaled form.
func (p *Pipeline) Vectors(rec model.Record, encoders encoding.Encoders, scaler encoding.Scaler) (raw, scaled []float64, err error) {
	raw, err = p.Assemble(rec, encoders)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) != scaler.Dim() {
		return nil, nil, &SchemaMismatchError{Stage: "scaler", Want: scaler.Dim(), Got: len(raw)}
	}
	scaled, err = scaler.Transform(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, scaled, nil
}

// Prepare runs the full pipeline and returns the model output for rec.
func (p *Pipeline) Prepare(rec model.Record, m regression.Regressor, encoders encoding.Encoders, scaler encoding.Scaler) (float64, error) {
	_, scaled, err := p.Vectors(rec, encoders, scaler)
	if err != nil {
		return 0, err
	}
	if len(scaled) != m.NumFeatures() {
		return 0, &SchemaMismatchError{Stage: "model", Want: m.NumFeatures(), Got: len(scaled)}
	}
	return m.Predict(scaled)
}

func tokenSet(raw string) map[string]struct{} {
	toks := SplitMulti(raw)
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[strings.ToLower(t)] = struct{}{}
	}
	return set
}
