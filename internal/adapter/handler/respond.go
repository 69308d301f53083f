package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/srgjo27/studio_ledger/internal/core/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := ErrorResponse{Error: http.StatusText(status), Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// errorStatus maps ledger errors to an HTTP status and a machine code. A
// full class and an exhausted package are different conflicts.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, domain.ErrBookingNotFound):
		return http.StatusNotFound, "booking_not_found"
	case errors.Is(err, domain.ErrPackageNotFound):
		return http.StatusNotFound, "package_not_found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrCapacityExceeded):
		return http.StatusConflict, "class_full"
	case errors.Is(err, domain.ErrSessionCancelled):
		return http.StatusConflict, "class_cancelled"
	case errors.Is(err, domain.ErrBookingClosed):
		return http.StatusConflict, "booking_closed"
	case errors.Is(err, domain.ErrAlreadyBooked):
		return http.StatusConflict, "already_booked"
	case errors.Is(err, domain.ErrNoActivePackage):
		return http.StatusPaymentRequired, "no_active_package"
	case errors.Is(err, domain.ErrNoCreditsRemaining):
		return http.StatusPaymentRequired, "package_exhausted"
	case errors.Is(err, domain.ErrPackageExpired):
		return http.StatusPaymentRequired, "package_expired"
	case errors.Is(err, domain.ErrPackageInactive):
		return http.StatusPaymentRequired, "package_inactive"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return http.StatusConflict, "concurrency_conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid json body", domain.ErrValidation)
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// fail writes err and logs it when the caller is not to blame.
func fail(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status, _ := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	writeDomainError(w, err)
}
