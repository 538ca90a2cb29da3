package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ukpostcodes/internal/config"
	"github.com/ukpostcodes/internal/corpus"
	"github.com/ukpostcodes/internal/postcode"
	"github.com/ukpostcodes/internal/service"
)

// maxBodyBytes bounds request bodies; the largest legal body is a parse
// request at the text limit.
const maxBodyBytes = 1 << 20

// Handlers serves the postcode API on top of one Service.
type Handlers struct {
	Service  *service.Service
	Limits   config.Limits
	Logger   *slog.Logger
	validate *validator.Validate
}

// New creates the API handlers.
func New(svc *service.Service, limits config.Limits, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Handlers{Service: svc, Limits: limits, Logger: logger, validate: v}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error  string       `json:"error"`
	Detail string       `json:"detail,omitempty"`
	Errors []FieldError `json:"errors,omitempty"`
}

// FieldError describes one failed request constraint.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Detail: detail})
}

func writeValidation(w http.ResponseWriter, detail string, fields ...FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error:  "Validation Error",
		Detail: detail,
		Errors: fields,
	})
}

// decode reads a JSON body into dst and validates its struct tags. It
// writes the error response itself and reports whether the handler should
// continue.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
			return false
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		writeValidation(w, "request failed validation", fields...)
		return false
	}
	return true
}

// serviceError maps service failures onto status codes.
func (h *Handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, corpus.ErrUnavailable):
		h.Logger.Error("postcode directory unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "Service unavailable", err.Error())
	case errors.Is(err, service.ErrTooMany):
		writeValidation(w, err.Error())
	case errors.Is(err, postcode.ErrInvalidFormat), errors.Is(err, postcode.ErrNoViableCorrection):
		writeError(w, http.StatusBadRequest, "Invalid postcode", err.Error())
	default:
		h.Logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func tooLarge(field string, limit int) FieldError {
	return FieldError{Field: field, Rule: "max", Param: fmt.Sprint(limit)}
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}
