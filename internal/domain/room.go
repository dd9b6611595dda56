package domain

type RoomID string

// MediaStrategy selects who carries the media path for a session.
type MediaStrategy string

const (
	// StrategyPeerToPeer: browsers negotiate directly, the gateway
	// relays signaling only.
	StrategyPeerToPeer MediaStrategy = "peer_to_peer"
	// StrategyDelegated: an external relay provider carries media, the
	// gateway relays chat/presence only.
	StrategyDelegated MediaStrategy = "delegated"
)

// Room is an ad-hoc session backing record, created on demand rather than
// tied to a schedule. CredentialHash is a bcrypt hash of the opaque session
// credential handed out once at creation; the plaintext is never stored.
type Room struct {
	ID             RoomID
	CreatorID      UserID
	Participants   []UserID
	CredentialHash string
	Active         bool
	Strategy       MediaStrategy
}

// HasParticipant reports whether id is in the room's participant set.
func (r *Room) HasParticipant(id UserID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// AddParticipant appends id, keeping the set free of duplicates.
func (r *Room) AddParticipant(id UserID) {
	if r.HasParticipant(id) {
		return
	}
	r.Participants = append(r.Participants, id)
}
