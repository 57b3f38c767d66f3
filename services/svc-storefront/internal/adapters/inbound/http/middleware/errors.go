package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

type (
	errorBody struct {
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

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeErrorWithDetails(w, status, code, message, nil)
}

func writeErrorWithDetails(w http.ResponseWriter, status int, code, message string, details []errorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(errorBody{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Details:   details,
	})
}
