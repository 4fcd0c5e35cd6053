package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/types"
	"github.com/okian/salarygauge/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Probe endpoints.
const (
	healthPath  = "/healthz"
	optionsPath = "/options"
	predictPath = "/predict"
	explainPath = "/predict/explain"
)

// ErrUnhealthy is returned when the service health check fails.
var ErrUnhealthy = errors.New("service is not healthy")

// Runner drives one probe run.
type Runner struct {
	cfg    Config
	client *httpClient
	log    logger.Logger
}

// NewRunner returns a runner for cfg. Zero-valued settings fall back to
// DefaultConfig.
func NewRunner(cfg Config, log logger.Logger) *Runner {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Verify > cfg.NumRecords {
		cfg.Verify = cfg.NumRecords
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		cfg:    cfg,
		client: newHTTPClient(cfg.BaseURL, cfg.Timeout),
		log:    log,
	}
}

// DefaultConfig returns the settings used by the probe CLI.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "http://localhost:9080",
		NumRecords: 1000,
		Workers:    16,
		Verify:     50,
		Timeout:    10 * time.Second,
	}
}

// Run checks health, fetches the form vocabulary, submits generated records
// and verifies that a sample of them predicts identically on a second call.
func (r *Runner) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now(), MinSalary: math.Inf(1), MaxSalary: math.Inf(-1)}

	r.log.Info(ctx, "checking service health", logger.String("url", r.cfg.BaseURL))
	var health struct {
		Status       string `json:"status"`
		ModelVersion string `json:"model_version"`
	}
	if err := r.client.getJSON(ctx, healthPath, &health); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	stats.ModelVersion = health.ModelVersion

	var opts types.Options
	if err := r.client.getJSON(ctx, optionsPath, &opts); err != nil {
		return nil, fmt.Errorf("fetch options: %w", err)
	}

	records := NewGenerator(opts, r.cfg.Seed).Records(r.cfg.NumRecords)
	stats.RecordsGenerated = len(records)
	r.log.Info(ctx, "generated records",
		logger.Int("count", len(records)),
		logger.Int("fields", len(opts.Fields)),
		logger.Any("seed", r.cfg.Seed))

	if r.cfg.OutputFile != "" {
		if err := saveRecords(r.cfg.OutputFile, records); err != nil {
			r.log.Warn(ctx, "failed to save records", logger.Error(err))
		}
	}

	salaries, err := r.submit(ctx, records, stats)
	if err != nil {
		return nil, err
	}
	if err := r.verify(ctx, records, salaries, stats); err != nil {
		return nil, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	if stats.Successful == 0 {
		stats.MinSalary, stats.MaxSalary = 0, 0
	}
	r.report(ctx, stats)
	return stats, nil
}

type outcome struct {
	ok     bool
	salary float64
}

// submit posts every record with at most Workers requests in flight.
// Individual failures are counted, not returned; only cancellation aborts.
func (r *Runner) submit(ctx context.Context, records []model.Record, stats *Stats) ([]outcome, error) {
	var (
		submitted, successful, rejected, limited, failed atomic.Int64
		mu                                               sync.Mutex
		sum                                              float64
	)
	results := make([]outcome, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			submitted.Add(1)
			var pred types.Prediction
			status, body, err := r.client.postJSON(gctx, predictPath, rec, &pred)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed.Add(1)
				if r.cfg.Verbose {
					r.log.Warn(gctx, "submission failed", logger.Int("record", i), logger.Error(err))
				}
			case status == http.StatusOK:
				successful.Add(1)
				results[i] = outcome{ok: true, salary: pred.Salary}
				mu.Lock()
				sum += pred.Salary
				stats.MinSalary = math.Min(stats.MinSalary, pred.Salary)
				stats.MaxSalary = math.Max(stats.MaxSalary, pred.Salary)
				mu.Unlock()
			case status == http.StatusTooManyRequests:
				limited.Add(1)
			case status >= 400 && status < 500:
				rejected.Add(1)
				if r.cfg.Verbose {
					r.log.Warn(gctx, "submission rejected",
						logger.Int("record", i),
						logger.Int("status", status),
						logger.String("body", string(body)))
				}
			default:
				failed.Add(1)
				if r.cfg.Verbose {
					r.log.Warn(gctx, "submission failed", logger.Int("record", i), logger.Int("status", status))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("submit records: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("submit records: %w", err)
	}

	stats.Submitted = int(submitted.Load())
	stats.Successful = int(successful.Load())
	stats.Rejected = int(rejected.Load())
	stats.RateLimited = int(limited.Load())
	stats.Failed = int(failed.Load())
	if stats.Successful > 0 {
		stats.MeanSalary = sum / float64(stats.Successful)
	}
	return results, nil
}

// verify sends up to Verify successfully predicted records to the explain
// endpoint, which recomputes the vectors without the prediction cache, and
// counts salaries that differ from the first answer.
func (r *Runner) verify(ctx context.Context, records []model.Record, first []outcome, stats *Stats) error {
	for i := 0; i < len(records) && stats.Verified+stats.Mismatched < r.cfg.Verify; i++ {
		if !first[i].ok {
			continue
		}
		var exp types.Explanation
		status, _, err := r.client.postJSON(ctx, explainPath, records[i], &exp)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("verify records: %w", ctx.Err())
			}
			r.log.Warn(ctx, "verification request failed", logger.Int("record", i), logger.Error(err))
			continue
		}
		if status != http.StatusOK {
			continue
		}
		if exp.Salary != first[i].salary {
			stats.Mismatched++
			r.log.Error(ctx, "recomputed salary differs from prediction",
				logger.Int("record", i),
				logger.Float64("predicted", first[i].salary),
				logger.Float64("recomputed", exp.Salary))
			continue
		}
		stats.Verified++
	}
	return nil
}

func (r *Runner) report(ctx context.Context, stats *Stats) {
	rate := 0.0
	if stats.Duration > 0 {
		rate = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	r.log.Info(ctx, "probe finished",
		logger.String("model_version", stats.ModelVersion),
		logger.Int("generated", stats.RecordsGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("successful", stats.Successful),
		logger.Int("rejected", stats.Rejected),
		logger.Int("rate_limited", stats.RateLimited),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatched", stats.Mismatched),
		logger.Float64("min_salary", stats.MinSalary),
		logger.Float64("max_salary", stats.MaxSalary),
		logger.Float64("mean_salary", stats.MeanSalary),
		logger.Duration("duration", stats.Duration),
		logger.Float64("requests_per_second", rate))
}

func saveRecords(path string, records []model.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
