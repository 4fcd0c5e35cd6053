// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/salarygauge/internal/adapters/artifact"
	"github.com/okian/salarygauge/internal/adapters/cache"
	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/features"
	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/types"
	"github.com/okian/salarygauge/pkg/logger"
	"github.com/okian/salarygauge/pkg/metrics"
)

// Error kinds used for metrics and the HTTP layer.
const (
	KindInvalidInput    = "invalid_input"
	KindUnknownCategory = "unknown_category"
	KindSchemaMismatch  = "schema_mismatch"
	KindInternal        = "internal_error"
)

// Service implements the API dependencies for salary prediction.
type Service struct {
	mu sync.RWMutex

	// Loaded state
	bundle   *artifact.Bundle
	pipeline *features.Pipeline
	cache    cache.Cache
	options  types.Options

	// Configuration
	artifactPath   string
	preloaded      *artifact.Bundle
	requiredFields []string
	clampNegative  bool
	cacheSize      int
	cacheTTL       time.Duration

	// State
	started   bool
	startedAt time.Time

	predictions atomic.Int64
	cacheHits   atomic.Int64
	failures    atomic.Int64
	clamped     atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithArtifactPath sets the model bundle loaded by Start.
func WithArtifactPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.artifactPath = path
		}
	}
}

// WithBundle uses an already loaded bundle instead of reading a file.
func WithBundle(b *artifact.Bundle) Option {
	return func(s *Service) {
		s.preloaded = b
	}
}

// WithRequiredFields sets the categorical fields that must be answered.
func WithRequiredFields(fields []string) Option {
	return func(s *Service) {
		if fields != nil {
			s.requiredFields = append([]string(nil), fields...)
		}
	}
}

// WithClampNegative floors negative model output at zero.
func WithClampNegative(enabled bool) Option {
	return func(s *Service) {
		s.clampNegative = enabled
	}
}

// WithCacheSize bounds the prediction cache; zero disables it.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
	}
}

// WithCacheTTL expires cached predictions.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		artifactPath:   "artifacts/salary_model.yaml",
		requiredFields: append([]string(nil), model.DefaultRequiredFields...),
		clampNegative:  true,
		cacheSize:      10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the artifact and prepares the pipeline. A load failure is
// returned and the service stays stopped.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting salary service...", logger.String("artifact", s.artifactPath))

	bundle := s.preloaded
	if bundle == nil {
		began := time.Now()
		var err error
		bundle, err = artifact.NewLoader(artifact.WithLogger(s.logger)).Load(ctx, s.artifactPath)
		if err != nil {
			return fmt.Errorf("load artifact: %w", err)
		}
		metrics.RecordArtifactLoad(float64(time.Since(began).Microseconds()) / 1000)
	} else if err := bundle.Validate(); err != nil {
		return fmt.Errorf("load artifact: %w", err)
	}

	c, err := cache.New(cache.WithMaxEntries(s.cacheSize), cache.WithTTL(s.cacheTTL))
	if err != nil {
		return fmt.Errorf("create prediction cache: %w", err)
	}

	s.bundle = bundle
	s.cache = c
	s.pipeline = bundle.Pipeline(features.WithEncodeObserver(s.observeEncoding))
	s.options = s.buildOptions()
	s.started = true
	s.startedAt = time.Now()

	metrics.SetArtifactInfo(bundle.Version, bundle.Schema.Version,
		string(bundle.Model.Kind()), string(bundle.Scaler.Kind()), bundle.Schema.Dim())

	s.logger.Info(ctx, "salary service started",
		logger.String("model_version", bundle.Version),
		logger.Int("features", bundle.Schema.Dim()),
		logger.Int("encoders", len(bundle.Encoders)),
		logger.Int("cacheSize", s.cacheSize),
		logger.Bool("clampNegative", s.clampNegative),
	)
	return nil
}

// Stop releases the cache. The loaded bundle is dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping salary service...")
	if s.cache != nil {
		s.cache.Close()
	}
	s.started = false
	s.bundle, s.pipeline, s.cache = nil, nil, nil
	s.logger.Info(context.Background(), "salary service stopped")
}

type snapshot struct {
	bundle   *artifact.Bundle
	pipeline *features.Pipeline
	cache    cache.Cache
}

func (s *Service) current() (snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return snapshot{}, ErrNotStarted
	}
	return snapshot{bundle: s.bundle, pipeline: s.pipeline, cache: s.cache}, nil
}

// Predict validates rec and returns the model's salary estimate.
func (s *Service) Predict(ctx context.Context, rec model.Record) (types.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return types.Prediction{}, err
	}
	snap, err := s.current()
	if err != nil {
		return types.Prediction{}, err
	}
	if err := s.validate(rec); err != nil {
		return types.Prediction{}, err
	}

	if salary, ok := snap.cache.Get(ctx, rec); ok {
		metrics.RecordCacheHit()
		metrics.RecordPrediction("cache")
		s.cacheHits.Add(1)
		s.predictions.Add(1)
		return s.prediction(rec, snap.bundle, salary, true), nil
	}
	metrics.RecordCacheMiss()

	began := time.Now()
	salary, err := snap.pipeline.Prepare(rec, snap.bundle.Model, snap.bundle.Encoders, snap.bundle.Scaler)
	elapsed := float64(time.Since(began).Microseconds()) / 1000
	if err != nil {
		return types.Prediction{}, s.fail(ctx, err, elapsed)
	}
	metrics.RecordPredictionLatency(elapsed)
	salary = s.clamp(salary)

	snap.cache.Put(ctx, rec, salary)
	metrics.RecordPrediction("model")
	s.predictions.Add(1)

	s.logger.Debug(ctx, "prediction served",
		logger.Float64("salary", salary),
		logger.String("devType", rec.DevType),
	)
	return s.prediction(rec, snap.bundle, salary, false), nil
}

// Explain returns the assembled and scaled vectors behind a prediction.
func (s *Service) Explain(ctx context.Context, rec model.Record) (types.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return types.Explanation{}, err
	}
	snap, err := s.current()
	if err != nil {
		return types.Explanation{}, err
	}
	if err := s.validate(rec); err != nil {
		return types.Explanation{}, err
	}

	began := time.Now()
	raw, scaled, err := snap.pipeline.Vectors(rec, snap.bundle.Encoders, snap.bundle.Scaler)
	if err != nil {
		return types.Explanation{}, s.fail(ctx, err, float64(time.Since(began).Microseconds())/1000)
	}
	if len(scaled) != snap.bundle.Model.NumFeatures() {
		mismatch := &features.SchemaMismatchError{Stage: "model", Want: snap.bundle.Model.NumFeatures(), Got: len(scaled)}
		return types.Explanation{}, s.fail(ctx, mismatch, 0)
	}
	salary, err := snap.bundle.Model.Predict(scaled)
	if err != nil {
		return types.Explanation{}, s.fail(ctx, err, float64(time.Since(began).Microseconds())/1000)
	}
	return types.Explanation{
		Columns: snap.bundle.Schema.Names(),
		Raw:     raw,
		Scaled:  scaled,
		Salary:  s.clamp(salary),
	}, nil
}

// Options describes the form fields and vocabularies of the loaded model.
func (s *Service) Options(ctx context.Context) (types.Options, error) {
	if err := ctx.Err(); err != nil {
		return types.Options{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.Options{}, ErrNotStarted
	}
	return s.options, nil
}

// ModelVersion returns the loaded artifact version, or "" when stopped.
func (s *Service) ModelVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bundle == nil {
		return ""
	}
	return s.bundle.Version
}

// Ready reports whether an artifact is loaded.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"artifactPath":   s.artifactPath,
		"requiredFields": s.requiredFields,
		"clampNegative":  s.clampNegative,
		"cacheSize":      s.cacheSize,
		"predictions":    s.predictions.Load(),
		"cacheHits":      s.cacheHits.Load(),
		"failures":       s.failures.Load(),
		"clamped":        s.clamped.Load(),
	}
	if s.started {
		stats["modelVersion"] = s.bundle.Version
		stats["schemaVersion"] = s.bundle.Schema.Version
		stats["features"] = s.bundle.Schema.Dim()
		stats["modelKind"] = string(s.bundle.Model.Kind())
		stats["scalerKind"] = string(s.bundle.Scaler.Kind())
		stats["cacheEntries"] = s.cache.Size()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}
	return stats
}

// ErrorKind classifies a Predict or Explain error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrInvalidRecord):
		return KindInvalidInput
	case errors.Is(err, encoding.ErrUnknownCategory):
		return KindUnknownCategory
	case errors.Is(err, features.ErrSchemaMismatch):
		return KindSchemaMismatch
	default:
		return KindInternal
	}
}

func (s *Service) validate(rec model.Record) error {
	err := rec.Validate(s.requiredFields)
	if err == nil {
		return nil
	}
	for _, v := range model.Invalid(err) {
		metrics.RecordValidationError(v.Field)
	}
	metrics.RecordPredictionError(KindInvalidInput)
	s.failures.Add(1)
	return err
}

func (s *Service) fail(ctx context.Context, err error, elapsedMs float64) error {
	kind := ErrorKind(err)
	metrics.RecordPredictionError(kind)
	metrics.RecordErrorLatency("pipeline", kind, elapsedMs)
	s.failures.Add(1)

	var unknown *encoding.UnknownCategoryError
	if errors.As(err, &unknown) {
		metrics.RecordUnknownCategory(unknown.Feature, "rejected")
		s.logger.Warn(ctx, "unknown category rejected",
			logger.String("feature", unknown.Feature),
			logger.String("value", unknown.Value),
		)
		return err
	}
	s.logger.Error(ctx, "prediction failed", logger.String("kind", kind), logger.Error(err))
	return err
}

func (s *Service) clamp(salary float64) float64 {
	if s.clampNegative && salary < 0 {
		metrics.RecordClampedPrediction()
		s.clamped.Add(1)
		return 0
	}
	return salary
}

func (s *Service) observeEncoding(feature, value string, res encoding.Resolution) {
	if res == encoding.ResolvedKnown {
		return
	}
	metrics.RecordUnknownCategory(feature, res.String())
	if s.logger != nil {
		s.logger.Debug(context.Background(), "category resolved without exact match",
			logger.String("feature", feature),
			logger.String("value", value),
			logger.String("resolution", res.String()),
		)
	}
}

func (s *Service) prediction(rec model.Record, b *artifact.Bundle, salary float64, cached bool) types.Prediction {
	return types.Prediction{
		ID:           uuid.NewString(),
		Salary:       salary,
		Display:      fmt.Sprintf("$%.2f", salary),
		Currency:     currencyCode(rec.Currency),
		ModelVersion: b.Version,
		Cached:       cached,
	}
}
