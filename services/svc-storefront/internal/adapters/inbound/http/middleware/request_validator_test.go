package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/openapi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type validationResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field string `json:"field"`
		Code  string `json:"code"`
	} `json:"details"`
}

func newValidatedHandler(t *testing.T) (http.Handler, *int) {
	t.Helper()

	doc, err := openapi.Load()
	require.NoError(t, err)

	validator, err := middleware.RequestValidator(doc, logger.NewTestLogger())
	require.NoError(t, err)

	calls := 0
	handler := validator(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	return handler, &calls
}

func TestRequestValidator(t *testing.T) {
	t.Parallel()

	deviceID := uuid.NewString()

	cases := []struct {
		name          string
		method        string
		path          string
		body          string
		expectStatus  int
		expectCode    string
		expectField   string
		expectHandled bool
	}{
		{
			name:          "valid sale passes through",
			method:        http.MethodPost,
			path:          "/v1/sales",
			body:          `{"deviceId":"` + deviceID + `","customizations":[{"customizationId":"` + uuid.NewString() + `","optionId":"` + uuid.NewString() + `"}]}`,
			expectStatus:  http.StatusCreated,
			expectHandled: true,
		},
		{
			name:         "truncated body is rejected as invalid json",
			method:       http.MethodPost,
			path:         "/v1/sales",
			body:         `{"deviceId":`,
			expectStatus: http.StatusBadRequest,
			expectCode:   "INVALID_JSON",
		},
		{
			name:         "missing body is rejected",
			method:       http.MethodPost,
			path:         "/v1/sales",
			expectStatus: http.StatusBadRequest,
			expectCode:   "INVALID_JSON",
		},
		{
			name:         "malformed device id is a validation failure",
			method:       http.MethodPost,
			path:         "/v1/sales",
			body:         `{"deviceId":"not-a-uuid"}`,
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   "VALIDATION_FAILED",
			expectField:  "deviceId",
		},
		{
			name:         "missing device id is a validation failure",
			method:       http.MethodPost,
			path:         "/v1/sales",
			body:         `{"addonIds":[]}`,
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   "VALIDATION_FAILED",
			expectField:  "deviceId",
		},
		{
			name:         "selection without option is a validation failure",
			method:       http.MethodPost,
			path:         "/v1/sales",
			body:         `{"deviceId":"` + deviceID + `","customizations":[{"customizationId":"` + uuid.NewString() + `"}]}`,
			expectStatus: http.StatusUnprocessableEntity,
			expectCode:   "VALIDATION_FAILED",
			expectField:  "customizations.0.optionId",
		},
		{
			name:          "sale lookup passes through",
			method:        http.MethodGet,
			path:          "/v1/sales/" + uuid.NewString(),
			expectStatus:  http.StatusCreated,
			expectHandled: true,
		},
		{
			name:          "catalog sync without body passes through",
			method:        http.MethodPost,
			path:          "/v1/catalog/sync",
			expectStatus:  http.StatusCreated,
			expectHandled: true,
		},
		{
			name:         "unknown route is not found",
			method:       http.MethodGet,
			path:         "/v1/devices",
			expectStatus: http.StatusNotFound,
			expectCode:   "NOT_FOUND",
		},
		{
			name:         "wrong method is not allowed",
			method:       http.MethodDelete,
			path:         "/v1/sales",
			expectStatus: http.StatusMethodNotAllowed,
			expectCode:   "METHOD_NOT_ALLOWED",
		},
		{
			name:          "preflight skips validation",
			method:        http.MethodOptions,
			path:          "/v1/sales",
			expectStatus:  http.StatusCreated,
			expectHandled: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler, calls := newValidatedHandler(t)

			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.expectStatus, rec.Code, rec.Body.String())

			if tc.expectHandled {
				require.Equal(t, 1, *calls)

				return
			}

			require.Zero(t, *calls)

			var response validationResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			require.Equal(t, tc.expectCode, response.Code)

			if tc.expectField == "" {
				return
			}

			fields := make([]string, 0, len(response.Details))
			for _, detail := range response.Details {
				fields = append(fields, detail.Field)
			}

			require.Contains(t, fields, tc.expectField)
		})
	}
}
