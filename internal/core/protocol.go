package core

import "github.com/counselpoint/gateway/internal/domain"

// Wire message types. Presence events are gateway-originated; everything
// else is client-originated and relayed.
const (
	TypeJoin  = "join"
	TypeLeave = "leave"
	TypePing  = "ping"
	TypePong  = "pong"

	TypeJoined = "joined"
	TypeError  = "error"

	TypePresenceJoined = "presence:joined"
	TypePresenceLeft   = "presence:left"

	TypeChatMessage     = "chat:message"
	TypeWebRTCOffer     = "webrtc:offer"
	TypeWebRTCAnswer    = "webrtc:answer"
	TypeWebRTCCandidate = "webrtc:ice-candidate"
)

// SignalingType reports whether t is one of the peer-to-peer negotiation
// messages the relay must gate on the session's media strategy.
func SignalingType(t string) bool {
	switch t {
	case TypeWebRTCOffer, TypeWebRTCAnswer, TypeWebRTCCandidate:
		return true
	}
	return false
}

// Envelope is the minimal shape every inbound frame must decode to.
// Session ids disambiguate multi-session clients; they must match the
// connection's authorized ref or the frame is dropped.
type Envelope struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointmentId,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
}

// JoinRequest is the handshake frame, required first on every connection.
type JoinRequest struct {
	Type          string `json:"type"`
	UserID        string `json:"userId"`
	Role          string `json:"role,omitempty"`
	AppointmentID string `json:"appointmentId,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	RoomToken     string `json:"roomToken,omitempty"`
}

// JoinedResponse acknowledges a successful handshake. ICEServers is set
// only for peer-to-peer sessions.
type JoinedResponse struct {
	Type       string               `json:"type"` // always "joined"
	SessionID  string               `json:"sessionId"`
	Strategy   domain.MediaStrategy `json:"strategy"`
	ICEServers []ICEServer          `json:"iceServers,omitempty"`
}

// ICEServer mirrors the RTCIceServer dictionary handed to browsers.
type ICEServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ErrorMessage is a WS-safe rejection: reason code only, no internals.
type ErrorMessage struct {
	Type   string `json:"type"` // always "error"
	Reason string `json:"reason"`
}

// PresenceEvent announces a join or leave to the other session members.
type PresenceEvent struct {
	Type   string        `json:"type"` // "presence:joined" | "presence:left"
	UserID domain.UserID `json:"userId"`
}

// ChatMessage is relayed to all other members regardless of strategy.
type ChatMessage struct {
	Type          string `json:"type"` // always "chat:message"
	AppointmentID string `json:"appointmentId,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	Sender        string `json:"sender,omitempty"`
	Text          string `json:"text"`
}

// SignalPayload carries an offer/answer/candidate verbatim, tagged with
// the sender's identity. SDP and Candidate are opaque to the gateway.
type SignalPayload struct {
	Type          string `json:"type"`
	AppointmentID string `json:"appointmentId,omitempty"`
	RoomID        string `json:"roomId,omitempty"`
	SDP           string `json:"sdp,omitempty"`
	Candidate     any    `json:"candidate,omitempty"`
	From          string `json:"from,omitempty"`
}
