package core

import (
	"context"

	"github.com/counselpoint/gateway/internal/domain"
)

// Frame is a raw wire payload (JSON-encoded signaling or chat event).
type Frame []byte

// ConnID identifies one live connection. Two browser tabs of the same
// user hold two distinct ConnIDs.
type ConnID string

// SessionKey addresses one live session in the registry, derived from a
// domain.SessionRef.
type SessionKey string

// SignalConnection abstracts the messaging transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// RecordStore is the gateway's view of the session record store.
// Reads happen on every admission; the write methods are used only by
// the REST boundary, never by the signaling path.
type RecordStore interface {
	GetAppointment(ctx context.Context, id domain.AppointmentID) (*domain.Appointment, error)
	GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)

	CreateRoom(ctx context.Context, room *domain.Room) error
	AddParticipant(ctx context.Context, id domain.RoomID, user domain.UserID) error
	EndRoom(ctx context.Context, id domain.RoomID) error
}

// ProviderClient talks to the external media-relay provider. The gateway
// never inspects the minted credential; the provider validates it when the
// client's media stream connects to the relay directly.
type ProviderClient interface {
	// EnsureRoom creates the provider-side room. A provider response of
	// "already exists" is success; anything else propagates.
	EnsureRoom(ctx context.Context, name string) error
	// AccessToken mints a short-lived role-scoped credential naming the
	// participant and session. Moderator grants get elevated rights.
	AccessToken(name string, user domain.UserID, moderator bool) (string, error)
}

// DeliveryResult reports who a fan-out actually reached, so broadcasts
// are traceable rather than fire-and-forget side effects.
type DeliveryResult struct {
	Delivered []ConnID
	Dropped   []*Connection
}
