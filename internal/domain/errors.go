package domain

import "errors"

// Handshake rejections. Each maps to a short machine-readable reason
// string surfaced to the client; stack traces never leave the process.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrRoomNotActive    = errors.New("room_not_active")
	ErrMissingRoomToken = errors.New("missing_room_token")
	ErrInvalidRoomToken = errors.New("invalid_room_token")

	ErrAmbiguousSession = errors.New("ambiguous session reference")
	ErrNoSession        = errors.New("missing session reference")

	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRoomNotFound        = errors.New("room not found")
)

// ProviderError wraps failures from the external media-relay provider.
// Retryable errors (timeouts, 5xx) may be retried by the client reissuing
// a join; the gateway itself never retries to avoid masking outages.
type ProviderError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return "provider " + e.Op + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RejectReason maps a handshake failure to its wire reason string.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrRoomNotActive), errors.Is(err, ErrRoomNotFound):
		return "room_not_active"
	case errors.Is(err, ErrMissingRoomToken):
		return "missing_room_token"
	case errors.Is(err, ErrInvalidRoomToken):
		return "invalid_room_token"
	case errors.Is(err, ErrAppointmentNotFound):
		return "forbidden"
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return "provider_unavailable"
	}
	return "internal_error"
}
