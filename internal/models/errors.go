package models

import (
	"encoding/json"
	"net/http"
)

// ReasonAuthenticationRequired marks failures that need the credential to be provisioned again.
const ReasonAuthenticationRequired = "authentication_required"

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
	// RequestID is set on responses that need correlating with server logs.
	RequestID string `json:"request_id,omitempty"`
}

func WriteError(w http.ResponseWriter, code int, message string) {
	WriteErrorReason(w, code, message, "")
}

// WriteErrorReason writes an error body carrying a machine-readable reason.
func WriteErrorReason(w http.ResponseWriter, code int, message, reason string) {
	WriteJSON(w, code, ErrorResponse{
		Status:  "error",
		Message: message,
		Code:    code,
		Reason:  reason,
	})
}

func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
