// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/internal/domain/types"
	"github.com/okian/salarygauge/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, rec model.Record) (types.Prediction, error)
	Explain(ctx context.Context, rec model.Record) (types.Explanation, error)
	Options(ctx context.Context) (types.Options, error)
	ModelVersion() string
	Ready() bool
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	predictHandler *PredictHandler
	optionsHandler *OptionsHandler

	limiter *rate.Limiter
	logger  logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimit limits prediction endpoints to perSecond sustained requests
// with the given burst. A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(statsProvider)
	s.predictHandler = NewPredictHandler(deps, s.logger)
	s.optionsHandler = NewOptionsHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/options", MetricsMiddleware(s.optionsHandler.HandleGetOptions, "options"))
	mux.HandleFunc("/predict", MetricsMiddleware(
		RateLimitMiddleware(s.predictHandler.HandlePredict, s.limiter, "predict"), "predict"))
	mux.HandleFunc("/predict/explain", MetricsMiddleware(
		RateLimitMiddleware(s.predictHandler.HandleExplain, s.limiter, "explain"), "explain"))
}

// Handler returns mux wrapped with request id propagation.
func (s *Server) Handler(ctx context.Context, mux *http.ServeMux) http.Handler {
	s.Register(ctx, mux)
	return RequestIDMiddleware(mux)
}

type fieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error response.
// Validation problems are listed per field.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	var missing *MissingMembersError
	if errors.As(err, &missing) {
		resp := errorResponse{Code: code, Message: err.Error()}
		for _, m := range missing.Members {
			resp.Fields = append(resp.Fields, fieldError{Field: m, Reason: reasonMissingMember})
		}
		writeJSON(w, status, resp)
		return
	}
	if code != codeInvalidInput {
		writeError(w, status, code, err)
		return
	}
	resp := errorResponse{Code: code, Message: err.Error()}
	for _, v := range model.Invalid(err) {
		resp.Fields = append(resp.Fields, fieldError{Field: v.Field, Reason: v.Reason})
		if v.Reason == model.ReasonRequired {
			resp.Message = model.MissingFieldsMessage
		}
	}
	writeJSON(w, status, resp)
}
