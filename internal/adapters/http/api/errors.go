package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/salarygauge/internal/app"
	"github.com/okian/salarygauge/internal/domain/encoding"
	"github.com/okian/salarygauge/internal/domain/features"
	"github.com/okian/salarygauge/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("rate limited")
	ErrUnavailable = errors.New("model not loaded")
)

// Error codes written in error responses.
const (
	codeBadRequest       = "bad_request"
	codeInvalidInput     = service.KindInvalidInput
	codeUnknownCategory  = service.KindUnknownCategory
	codeSchemaMismatch   = service.KindSchemaMismatch
	codeInternal         = service.KindInternal
	codeRateLimit        = "rate_limit"
	codeUnavailable      = "unavailable"
	codeMethodNotAllowed = "method_not_allowed"
)

const reasonMissingMember = "member is missing"

// kindError tags err with the operation that failed and an API kind.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("%s: %v", e.op, e.kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.op, e.kind, e.err)
}

func (e *kindError) Unwrap() []error {
	if e.err == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.err}
}

// WrapKind annotates err with op and kind. Both remain visible to errors.Is.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// classify maps an error to its HTTP status and response code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, model.ErrInvalidRecord):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, encoding.ErrUnknownCategory):
		return http.StatusUnprocessableEntity, codeUnknownCategory
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, codeRateLimit
	case errors.Is(err, ErrUnavailable), errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, features.ErrSchemaMismatch):
		return http.StatusInternalServerError, codeSchemaMismatch
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
