package artifact

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/features"
	"github.com/okian/salarygauge/internal/domain/regression"
	"github.com/okian/salarygauge/pkg/logger"
	"gopkg.in/yaml.v3"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Loader reads artifacts from disk.
type Loader struct {
	maxBytes int64
	logger   logger.Logger
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{maxBytes: defaultMaxBytes}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the artifact at path. gzip and zstd compressed files are
// detected by their magic bytes; the payload is YAML or JSON.
func (l *Loader) Load(ctx context.Context, path string) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	defer f.Close()

	b, err := l.Decode(ctx, f)
	if err != nil {
		return nil, err
	}
	if l.logger != nil {
		l.logger.Info(ctx, "artifact loaded",
			logger.String("path", path),
			logger.String("version", b.Version),
			logger.String("model", string(b.Model.Kind())),
			logger.String("scaler", string(b.Scaler.Kind())),
			logger.Int("features", b.Schema.Dim()),
			logger.Int("encoders", len(b.Encoders)),
		)
	}
	return b, nil
}

// Decode reads a bundle from r, decompressing it when needed.
func (l *Loader) Decode(ctx context.Context, r io.Reader) (*Bundle, error) {
	payload, err := l.readPayload(r)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(payload))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	b, err := doc.bundle()
	if err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (l *Loader) readPayload(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(len(zstdMagic))

	var src io.Reader = br
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", ErrDecode, err)
		}
		defer zr.Close()
		src = zr
	case bytes.HasPrefix(head, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrDecode, err)
		}
		defer zr.Close()
		src = zr
	}

	payload, err := io.ReadAll(io.LimitReader(src, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if int64(len(payload)) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.maxBytes)
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty artifact", ErrDecode)
	}
	return payload, nil
}

func (d document) bundle() (*Bundle, error) {
	encoders, err := d.encoders()
	if err != nil {
		return nil, err
	}
	scaler, err := d.Scaler.build()
	if err != nil {
		return nil, err
	}
	m, err := d.Model.build()
	if err != nil {
		return nil, err
	}
	schema := features.Schema{Version: d.Schema.Version}
	for _, c := range d.Schema.Columns {
		schema.Columns = append(schema.Columns, features.Column{
			Name:  c.Name,
			Kind:  features.ColumnKind(c.Kind),
			Field: c.Field,
			Token: c.Token,
		})
	}
	return &Bundle{
		Version:  d.Version,
		Schema:   schema,
		Encoders: encoders,
		Scaler:   scaler,
		Model:    m,
		Meta:     d.Meta,
	}, nil
}

func (d document) encoders() (encoding.Encoders, error) {
	out := make(encoding.Encoders, len(d.Encoders))
	for name, e := range d.Encoders {
		if len(e.Classes) == 0 {
			return nil, fmt.Errorf("%w: encoder %s has no classes", ErrInvalid, name)
		}
		var opts []encoding.EncoderOption
		if e.MissingValue != "" {
			opts = append(opts, encoding.WithMissingValue(e.MissingValue))
		}
		switch encoding.UnknownPolicy(strings.ToLower(e.Unknown)) {
		case "", encoding.PolicyReject:
		case encoding.PolicyFallback:
			if e.FallbackCode == nil {
				return nil, fmt.Errorf("%w: encoder %s falls back without fallback_code", ErrInvalid, name)
			}
			opts = append(opts, encoding.WithFallback(*e.FallbackCode))
		default:
			return nil, fmt.Errorf("%w: encoder %s has unknown policy %q", ErrInvalid, name, e.Unknown)
		}
		enc, err := encoding.NewLabelEncoder(name, e.Classes, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		out[name] = enc
	}
	return out, nil
}

func (s scalerDoc) build() (encoding.Scaler, error) {
	var (
		sc  encoding.Scaler
		err error
	)
	switch encoding.ScalerKind(strings.ToLower(s.Kind)) {
	case encoding.ScalerStandard:
		sc, err = encoding.NewStandardScaler(s.Mean, s.Scale)
	case encoding.ScalerMinMax:
		sc, err = encoding.NewMinMaxScaler(s.Min, s.Scale)
	case encoding.ScalerIdentity:
		if s.Dim <= 0 {
			return nil, fmt.Errorf("%w: identity scaler needs dim", ErrInvalid)
		}
		sc = encoding.NewIdentityScaler(s.Dim)
	default:
		return nil, fmt.Errorf("%w: unknown scaler kind %q", ErrInvalid, s.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return sc, nil
}

func (m modelDoc) build() (regression.Regressor, error) {
	switch regression.Kind(strings.ToLower(m.Kind)) {
	case regression.KindLinear:
		lin, err := regression.NewLinear(m.Coef, m.Intercept)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return lin, nil
	case regression.KindTreeEnsemble:
		trees := make([]*regression.Tree, 0, len(m.Trees))
		for i, td := range m.Trees {
			nodes := make([]regression.Node, len(td.Nodes))
			for j, n := range td.Nodes {
				nodes[j] = regression.Node{
					Feature:   n.Feature,
					Threshold: n.Threshold,
					Left:      childOrLeaf(n.Left),
					Right:     childOrLeaf(n.Right),
					Value:     n.Value,
				}
			}
			t, err := regression.NewTree(nodes, m.NFeatures)
			if err != nil {
				return nil, fmt.Errorf("%w: tree %d: %w", ErrInvalid, i, err)
			}
			trees = append(trees, t)
		}
		ens, err := regression.NewTreeEnsemble(trees, m.NFeatures,
			regression.WithAggregation(regression.Aggregation(m.Aggregation)),
			regression.WithBaseScore(m.BaseScore),
			regression.WithLearningRate(m.LearningRate),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		return ens, nil
	default:
		return nil, fmt.Errorf("%w: unknown model kind %q", ErrInvalid, m.Kind)
	}
}

func childOrLeaf(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}
