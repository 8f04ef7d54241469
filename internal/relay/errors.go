package relay

import (
	"fmt"
	"net/http"

	"github.com/af-corp/debug-relay/internal/httputil"
)

// Kind classifies a caller-facing failure.
type Kind string

const (
	KindUnauthenticated    Kind = "unauthenticated"
	KindBadRequest         Kind = "bad_request"
	KindForbidden          Kind = "forbidden"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindRateLimited        Kind = "rate_limited"
	KindQuotaExhausted     Kind = "quota_exhausted"
	KindServiceUnavailable Kind = "service_unavailable"
	KindUpstreamError      Kind = "upstream_error"
	KindUnexpected         Kind = "unexpected"
)

// Error is a failure that is reported to the caller as {"error": Message}
// with Status. Messages are fixed strings; internal detail is only logged.
type Error struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Write sends e as the JSON error body.
func (e *Error) Write(w http.ResponseWriter, requestID string) {
	httputil.WriteError(w, requestID, e.Status, e.Message)
}

var (
	ErrRateLimited = &Error{
		Kind: KindRateLimited, Status: http.StatusTooManyRequests, Message: httputil.MsgRateLimited,
	}
	ErrQuotaExhausted = &Error{
		Kind: KindQuotaExhausted, Status: http.StatusPaymentRequired, Message: httputil.MsgQuotaExhausted,
	}
	ErrNotConfigured = &Error{
		Kind: KindServiceUnavailable, Status: http.StatusInternalServerError, Message: httputil.MsgNotConfigured,
	}
	ErrUpstream = &Error{
		Kind: KindUpstreamError, Status: http.StatusInternalServerError, Message: httputil.MsgUpstreamError,
	}
	ErrUnexpected = &Error{
		Kind: KindUnexpected, Status: http.StatusInternalServerError, Message: httputil.MsgUnexpected,
	}
	ErrUnauthenticated = &Error{
		Kind: KindUnauthenticated, Status: http.StatusUnauthorized, Message: httputil.MsgAuthRequired,
	}
	ErrBodyTooLarge = &Error{
		Kind: KindPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Message: httputil.MsgBodyTooLarge,
	}
)

// fromStatus builds an Error for a rejection that carries its own status.
func fromStatus(status int, message string) *Error {
	kind := KindBadRequest
	switch status {
	case http.StatusRequestEntityTooLarge:
		kind = KindPayloadTooLarge
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusUnauthorized:
		kind = KindUnauthenticated
	}
	return &Error{Kind: kind, Status: status, Message: message}
}

// upstreamError maps a non-success upstream status. Only 429 and 402 are
// passed through; everything else is a generic upstream failure.
func upstreamError(status int) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusPaymentRequired:
		return ErrQuotaExhausted
	default:
		return ErrUpstream
	}
}
