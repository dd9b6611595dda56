package app

import (
	"github.com/rs/zerolog"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

// Relay fans inbound signaling and chat out to the other members of a
// session. It is provider-aware: for delegated sessions the external
// relay handles media negotiation out-of-band, so webrtc frames are
// swallowed rather than forwarded alongside it.
type Relay struct {
	reg *Registry
	log zerolog.Logger
}

func NewRelay(reg *Registry, log zerolog.Logger) *Relay {
	return &Relay{
		reg: reg,
		log: log.With().Str("module", "app.relay").Logger(),
	}
}

// Deliver routes one inbound frame of the given type from conn to the
// rest of its session. Gated frames return an empty result with
// forwarded=false. Per-sender FIFO holds because each receiving
// connection drains one ordered send channel; no ordering is promised
// across senders.
func (r *Relay) Deliver(conn *core.Connection, msgType string, frame core.Frame) (core.DeliveryResult, bool) {
	key := conn.Key()
	// An evicted connection may still race frames in before its read
	// loop notices; they must not reach members who saw it leave.
	if !r.reg.Has(conn) {
		r.log.Debug().
			Str("session", string(key)).
			Str("conn", string(conn.ID())).
			Str("type", msgType).
			Msg("frame from departed connection dropped")
		return core.DeliveryResult{}, false
	}
	if core.SignalingType(msgType) {
		strategy, ok := r.reg.StrategyOf(key)
		if !ok {
			return core.DeliveryResult{}, false
		}
		if strategy == domain.StrategyDelegated {
			r.log.Debug().
				Str("session", string(key)).
				Str("type", msgType).
				Msg("signaling dropped for delegated session")
			return core.DeliveryResult{}, false
		}
	}
	return r.Broadcast(key, conn.ID(), frame), true
}

// Broadcast sends frame to every member of key except from. A member
// whose send buffer is full is reported in Dropped; delivery is
// best-effort and never blocks the sender.
func (r *Relay) Broadcast(key core.SessionKey, from core.ConnID, frame core.Frame) core.DeliveryResult {
	res := core.DeliveryResult{}
	for _, m := range r.reg.MembersOf(key) {
		if m.ID() == from {
			continue
		}
		if err := m.Signal().TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.Delivered = append(res.Delivered, m.ID())
	}
	r.log.Debug().
		Str("session", string(key)).
		Str("from", string(from)).
		Int("delivered", len(res.Delivered)).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}
