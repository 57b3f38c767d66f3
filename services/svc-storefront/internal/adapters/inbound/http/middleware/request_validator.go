package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// RequestValidator rejects requests that do not match the OpenAPI document
// before they reach a handler. Field level business rules stay with the
// handlers; this only checks shape.
func RequestValidator(doc *openapi3.T, log logger.Logger) (func(http.Handler) http.Handler, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	options := &openapi3filter.Options{
		MultiError:         true,
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)

				return
			}

			route, pathParams, err := router.FindRoute(r)
			if err != nil {
				writeRouteError(w, err)

				return
			}

			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			})
			if err != nil {
				ctxLog := log.WithContext(r.Context())
				ctxLog.Debug().Err(err).Str("operation", route.Operation.OperationID).Msg("request rejected by contract")

				writeValidationError(w, err)

				return
			}

			next.ServeHTTP(w, r)
		})
	}, nil
}

func writeRouteError(w http.ResponseWriter, err error) {
	if errors.Is(err, routers.ErrMethodNotAllowed) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")

		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// writeValidationError maps body decode failures to 400 and schema
// violations to 422, matching what the handlers return for the same faults.
func writeValidationError(w http.ResponseWriter, err error) {
	var parseErr *openapi3filter.ParseError
	if errors.As(err, &parseErr) {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")

		return
	}

	details := schemaViolations(err)
	if len(details) > 0 {
		writeErrorWithDetails(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "request validation failed", details)

		return
	}

	var requestErr *openapi3filter.RequestError
	if errors.As(err, &requestErr) && requestErr.RequestBody != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", requestErr.Error())

		return
	}

	writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "request does not match the API contract")
}

func schemaViolations(err error) []errorDetail {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		details := make([]errorDetail, 0, len(multi))
		for _, item := range multi {
			details = append(details, schemaViolations(item)...)
		}

		return details
	}

	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		return nil
	}

	field := strings.Join(schemaErr.JSONPointer(), ".")
	if field == "" {
		field = "body"
	}

	return []errorDetail{{
		Field:   field,
		Code:    schemaErr.SchemaField,
		Message: schemaErr.Reason,
	}}
}
