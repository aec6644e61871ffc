package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/apt777/finance-app/internal/model"
)

const dateFormat = "2006-01-02"

// maxBodyBytes bounds JSON and CSV request bodies.
const maxBodyBytes = 4 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Code: "invalid_request", Field: verr.Field})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: model.Classify(err)})
	case errors.Is(err, model.ErrInvalidAmount), errors.Is(err, model.ErrInvalidOperation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Code: model.Classify(err)})
	default:
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal"})
	}
}

// decode reads a JSON body into v, rejecting unknown fields.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return model.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, model.ValidationError{Field: field, Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return d, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, model.ValidationError{Field: field, Message: fmt.Sprintf("invalid number %q", s)}
	}
	return d, nil
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, model.ValidationError{Field: "limit", Message: fmt.Sprintf("invalid limit %q", s)}
	}
	return n, nil
}
