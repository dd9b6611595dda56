package app

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

// Gateway orchestrates the session lifecycle: one authorization at
// handshake, presence on admit/evict, relay in between. All components
// are injected so tests can instantiate isolated instances.
type Gateway struct {
	Registry *Registry
	Auth     *Authorizer
	Relay    *Relay
	Strategy *StrategySelector
	Policy   Policy

	log zerolog.Logger
}

func NewGateway(
	reg *Registry,
	auth *Authorizer,
	relay *Relay,
	strategy *StrategySelector,
	policy Policy,
	log zerolog.Logger,
) *Gateway {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Gateway{
		Registry: reg,
		Auth:     auth,
		Relay:    relay,
		Strategy: strategy,
		Policy:   policy,
		log:      log.With().Str("module", "app.gateway").Logger(),
	}
}

// Join authorizes req, admits the connection and announces presence.
// The returned connection must be handed back to Disconnect exactly once
// when the transport goes away.
func (g *Gateway) Join(ctx context.Context, req AuthRequest, sig core.SignalConnection) (*core.Connection, core.JoinedResponse, error) {
	grant, err := g.Auth.Authorize(ctx, req)
	if err != nil {
		return nil, core.JoinedResponse{}, err
	}

	conn := core.NewConnection(
		core.ConnID(uuid.NewString()),
		grant.UserID,
		grant.Role,
		grant.Ref,
		grant.Strategy,
		sig,
	)
	first := g.Registry.Admit(conn)

	// Presence is announced once per identity: a second tab joining the
	// same session stays silent, and symmetrically the last tab leaving
	// is the one that announces departure.
	if first {
		g.broadcastPresence(conn, core.TypePresenceJoined)
	}

	resp := core.JoinedResponse{
		Type:      core.TypeJoined,
		SessionID: string(conn.Key()),
		Strategy:  grant.Strategy,
	}
	if grant.Strategy == domain.StrategyPeerToPeer {
		resp.ICEServers = g.Strategy.ICEServers()
	}
	return conn, resp, nil
}

// Disconnect evicts conn immediately; there is no draining period.
func (g *Gateway) Disconnect(conn *core.Connection) {
	removed, last := g.Registry.Evict(conn)
	if !removed {
		return
	}
	if last {
		g.broadcastPresence(conn, core.TypePresenceLeft)
	}
}

// OnMessage handles one post-handshake frame from conn. Malformed or
// misaddressed frames are dropped and logged; they never terminate the
// connection.
func (g *Gateway) OnMessage(conn *core.Connection, frame core.Frame) {
	var env core.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		g.protocolError(conn, "bad json", err)
		return
	}
	if !g.addressedHere(conn, env) {
		g.protocolError(conn, "session mismatch", nil)
		return
	}

	switch env.Type {
	case core.TypeChatMessage:
		g.relayChat(conn, frame)
	case core.TypeWebRTCOffer, core.TypeWebRTCAnswer, core.TypeWebRTCCandidate:
		g.relaySignaling(conn, env.Type, frame)
	case core.TypeLeave:
		// Leaving ends the connection; closing the transport stops its
		// read loop so nothing more can be injected into the session.
		g.Disconnect(conn)
		conn.Signal().Close()
	default:
		g.log.Warn().
			Str("conn", string(conn.ID())).
			Str("type", env.Type).
			Msg("unknown message type dropped")
	}
}

// addressedHere checks the frame's session ids against the connection's
// authorized ref. Frames without ids are taken to mean the current
// session; a mismatch is a client bug and the frame is dropped.
func (g *Gateway) addressedHere(conn *core.Connection, env core.Envelope) bool {
	if env.AppointmentID == "" && env.RoomID == "" {
		return true
	}
	ref, err := domain.ParseSessionRef(env.AppointmentID, env.RoomID)
	if err != nil {
		return false
	}
	return ref == conn.Ref()
}

func (g *Gateway) relayChat(conn *core.Connection, frame core.Frame) {
	var msg core.ChatMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		g.protocolError(conn, "bad chat payload", err)
		return
	}
	msg.Sender = string(conn.UserID())
	out, err := json.Marshal(msg)
	if err != nil {
		g.protocolError(conn, "chat marshal", err)
		return
	}
	res, _ := g.Relay.Deliver(conn, msg.Type, out)
	g.applyPolicy(res)
}

func (g *Gateway) relaySignaling(conn *core.Connection, msgType string, frame core.Frame) {
	var msg core.SignalPayload
	if err := json.Unmarshal(frame, &msg); err != nil {
		g.protocolError(conn, "bad signaling payload", err)
		return
	}
	msg.From = string(conn.UserID())
	out, err := json.Marshal(msg)
	if err != nil {
		g.protocolError(conn, "signaling marshal", err)
		return
	}
	res, _ := g.Relay.Deliver(conn, msgType, out)
	g.applyPolicy(res)
}

func (g *Gateway) broadcastPresence(conn *core.Connection, eventType string) {
	frame, err := json.Marshal(core.PresenceEvent{
		Type:   eventType,
		UserID: conn.UserID(),
	})
	if err != nil {
		return
	}
	res := g.Relay.Broadcast(conn.Key(), conn.ID(), frame)
	g.applyPolicy(res)
}

func (g *Gateway) applyPolicy(res core.DeliveryResult) {
	for _, slow := range res.Dropped {
		switch g.Policy.OnBackPressure(slow) {
		case KickMember:
			g.log.Warn().
				Str("conn", string(slow.ID())).
				Msg("kicking member on backpressure")
			slow.Signal().Close()
			g.Disconnect(slow)
		case DropFrame:
		}
	}
}

func (g *Gateway) protocolError(conn *core.Connection, what string, err error) {
	ev := g.log.Warn().
		Str("conn", string(conn.ID())).
		Str("session", string(conn.Key()))
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(what)
}
