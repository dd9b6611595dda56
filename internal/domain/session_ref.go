package domain

import "fmt"

type SessionKind string

const (
	KindAppointment SessionKind = "appointment"
	KindRoom        SessionKind = "room"
)

// SessionRef names the backing record a connection is authorized against.
// It is resolved once at handshake and never changes for the lifetime of
// the connection; rejoining a different session requires a new connection.
type SessionRef struct {
	Kind SessionKind
	ID   string
}

func AppointmentRef(id AppointmentID) SessionRef {
	return SessionRef{Kind: KindAppointment, ID: string(id)}
}

func RoomRef(id RoomID) SessionRef {
	return SessionRef{Kind: KindRoom, ID: string(id)}
}

// ParseSessionRef builds a ref from the two optional handshake ids.
// Supplying both or neither is a construction-time error rather than
// an ad-hoc "first id wins" dispatch.
func ParseSessionRef(appointmentID, roomID string) (SessionRef, error) {
	switch {
	case appointmentID != "" && roomID != "":
		return SessionRef{}, ErrAmbiguousSession
	case appointmentID != "":
		return AppointmentRef(AppointmentID(appointmentID)), nil
	case roomID != "":
		return RoomRef(RoomID(roomID)), nil
	}
	return SessionRef{}, ErrNoSession
}

// Key derives the registry key for this ref. Appointment and room id
// spaces are kept disjoint by the kind prefix.
func (r SessionRef) Key() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}
