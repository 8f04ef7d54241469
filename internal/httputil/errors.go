package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/af-corp/debug-relay/internal/types"
)

// Fixed caller-facing messages. Upstream detail is never echoed.
const (
	MsgAuthRequired     = "Authentication required"
	MsgInvalidToken     = "Invalid or expired token"
	MsgInvalidJSON      = "Invalid JSON in request body"
	MsgInvalidType      = "Invalid type. Use: analyze, logs, stacktrace, or review"
	MsgInvalidContent   = "Content must be a non-empty string"
	MsgInvalidLanguage  = "Invalid language parameter"
	MsgBodyTooLarge     = "Request body too large"
	MsgRateLimited      = "Rate limit exceeded. Please try again later."
	MsgQuotaExhausted   = "AI credits exhausted. Please add credits to continue."
	MsgNotConfigured    = "AI service not configured"
	MsgUpstreamError    = "AI service error"
	MsgUnexpected       = "An unexpected error occurred"
	MsgPolicyDenied     = "Request denied by policy"
	MsgSecretsDetected  = "Content contains secrets"
	MsgInjectionBlocked = "Content rejected by injection filter"
)

// WriteError writes {"error": message} with the given status.
func WriteError(w http.ResponseWriter, requestID string, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("X-Request-ID", requestID)
	}
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(types.ErrorResponse{Error: message})
}

func WriteAuthError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusUnauthorized, message)
}

func WriteBadRequestError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusBadRequest, message)
}

func WritePayloadTooLargeError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusRequestEntityTooLarge, message)
}

func WriteForbiddenError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusForbidden, message)
}

func WriteRateLimitError(w http.ResponseWriter, requestID string) {
	WriteError(w, requestID, http.StatusTooManyRequests, MsgRateLimited)
}

func WriteQuotaError(w http.ResponseWriter, requestID string) {
	WriteError(w, requestID, http.StatusPaymentRequired, MsgQuotaExhausted)
}

func WriteInternalError(w http.ResponseWriter, requestID, message string) {
	WriteError(w, requestID, http.StatusInternalServerError, message)
}
