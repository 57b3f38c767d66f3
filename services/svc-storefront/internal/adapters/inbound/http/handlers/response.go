package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/go-playground/validator/v10"
)

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"

	codeNotFound           = "NOT_FOUND"
	codeInvalidJSON        = "INVALID_JSON"
	codeInvalidID          = "INVALID_ID"
	codeValidationFailed   = "VALIDATION_FAILED"
	codeSyncInProgress     = "SYNC_IN_PROGRESS"
	codeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	codeInvalidCatalog     = "INVALID_CATALOG_DATA"
	codeInternalError      = "INTERNAL_ERROR"
)

type (
	errorResponse struct {
		Code      string        `json:"code"`
		Message   string        `json:"message"`
		Timestamp time.Time     `json:"timestamp"`
		Details   []errorDetail `json:"details,omitempty"`
	}

	errorDetail struct {
		Field   string `json:"field"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
)

func writeJSONResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string, details ...errorDetail) {
	writeJSONResponse(w, status, errorResponse{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}

// writeDomainError is the single place where application errors become
// status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *model.ValidationErrors

	switch {
	case errors.As(err, &validation):
		details := make([]errorDetail, 0, len(validation.Errors))
		for _, e := range validation.Errors {
			details = append(details, errorDetail{Field: e.Field, Code: e.Code, Message: e.Message})
		}

		writeErrorResponse(w, http.StatusUnprocessableEntity, codeValidationFailed, validation.Error(), details...)
	case errors.Is(err, model.ErrNotFound):
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrSyncInProgress):
		writeErrorResponse(w, http.StatusConflict, codeSyncInProgress, err.Error())
	case errors.Is(err, model.ErrCatalogUnavailable):
		writeErrorResponse(w, http.StatusBadGateway, codeCatalogUnavailable, err.Error())
	case errors.Is(err, model.ErrInvalidCatalogRecord), errors.Is(err, model.ErrInvalidCurrency):
		writeErrorResponse(w, http.StatusBadGateway, codeInvalidCatalog, err.Error())
	default:
		writeErrorResponse(w, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

func writeRequestValidationError(w http.ResponseWriter, err error) {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		writeErrorResponse(w, http.StatusUnprocessableEntity, codeValidationFailed, err.Error())

		return
	}

	details := make([]errorDetail, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		details = append(details, errorDetail{
			Field:   fe.Namespace(),
			Code:    fe.Tag(),
			Message: fe.Error(),
		})
	}

	writeErrorResponse(w, http.StatusUnprocessableEntity, codeValidationFailed, "request validation failed", details...)
}

func isClientError(err error) bool {
	var validation *model.ValidationErrors

	return errors.As(err, &validation) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrSyncInProgress)
}
