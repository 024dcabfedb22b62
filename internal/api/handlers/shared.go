package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/api/response"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/mapping"
)

// parseJSON decodes the request body into T. Unknown fields are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode request body: %w", err)
	}
	return req, nil
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, apperrors.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperrors.ErrSessionNotFound),
		errors.Is(err, apperrors.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDataNotPrepared),
		errors.Is(err, apperrors.ErrAnalysisNotRun):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrEmptyUpload),
		errors.Is(err, apperrors.ErrInvalidCSVHeaders),
		errors.Is(err, apperrors.ErrColumnNotFound),
		errors.Is(err, apperrors.ErrNoValidRows),
		errors.Is(err, apperrors.ErrInvalidMapping):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with the status statusFor picks. Client
// errors use the sentinel text as the message; server errors use fallback.
func respondServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	message := fallback
	switch {
	case status == http.StatusRequestEntityTooLarge:
		message = apperrors.ErrUploadTooLarge.Error()
	case status < http.StatusInternalServerError:
		message = clientMessage(err)
	}

	var details interface{} = err.Error()
	var mErr *mapping.Error
	if errors.As(err, &mErr) && len(mErr.Columns) > 0 {
		details = map[string]interface{}{
			"message": err.Error(),
			"columns": mErr.Columns,
		}
	}
	response.RespondError(w, status, message, details)
}

func clientMessage(err error) string {
	for _, sentinel := range []error{
		apperrors.ErrSessionNotFound,
		apperrors.ErrProductNotFound,
		apperrors.ErrDataNotPrepared,
		apperrors.ErrAnalysisNotRun,
		apperrors.ErrEmptyUpload,
		apperrors.ErrInvalidCSVHeaders,
		apperrors.ErrColumnNotFound,
		apperrors.ErrNoValidRows,
		apperrors.ErrInvalidMapping,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
