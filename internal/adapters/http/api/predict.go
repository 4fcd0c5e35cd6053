package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/okian/salarygauge/internal/domain/model"
	"github.com/okian/salarygauge/pkg/logger"
)

const maxRecordBytes = 64 << 10

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies, l logger.Logger) *PredictHandler {
	return &PredictHandler{deps: deps, logger: l}
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}
	if !h.deps.Ready() {
		writeFailure(w, NewKind(op, ErrUnavailable))
		return
	}
	rec, err := decodeRecord(w, r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	pred, err := h.deps.Predict(r.Context(), rec)
	if err != nil {
		h.logFailure(r, op, err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pred)
}

// HandleExplain handles POST /predict/explain requests.
func (h *PredictHandler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	const op = "api.explain"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}
	if !h.deps.Ready() {
		writeFailure(w, NewKind(op, ErrUnavailable))
		return
	}
	rec, err := decodeRecord(w, r)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	exp, err := h.deps.Explain(r.Context(), rec)
	if err != nil {
		h.logFailure(r, op, err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

func (h *PredictHandler) logFailure(r *http.Request, op string, err error) {
	status, code := classify(err)
	if status < http.StatusInternalServerError {
		return
	}
	h.logger.Error(r.Context(), "request failed",
		logger.String("op", op),
		logger.String("code", code),
		logger.String("request_id", RequestID(r.Context())),
		logger.Error(err),
	)
}

// MissingMembersError lists record members absent from a request body.
type MissingMembersError struct {
	Members []string
}

func (e *MissingMembersError) Error() string {
	return "missing record members: " + strings.Join(e.Members, ", ")
}

// decodeRecord reads one survey record. Every record member must be present
// and non-null; unknown members and trailing data are rejected.
func decodeRecord(w http.ResponseWriter, r *http.Request) (model.Record, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBytes))
	if err != nil {
		return model.Record{}, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Record{}, errors.New("empty request body")
	}

	var members map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&members); err != nil {
		return model.Record{}, err
	}
	if dec.More() {
		return model.Record{}, errors.New("request body must hold a single record")
	}
	var unknown []string
	for name := range members {
		if _, ok := model.KindOf(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return model.Record{}, fmt.Errorf("unknown record members: %s", strings.Join(unknown, ", "))
	}
	var missing []string
	for _, name := range model.Fields {
		raw, ok := members[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return model.Record{}, &MissingMembersError{Members: missing}
	}

	var rec model.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}
