package app

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

func TestRelayNoSelfEcho(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.RoomRef("R1")

	sender, senderSig := newConn("c1", "U1", ref, domain.StrategyPeerToPeer)
	peer, peerSig := newConn("c2", "U2", ref, domain.StrategyPeerToPeer)
	reg.Admit(sender)
	reg.Admit(peer)

	res, forwarded := relay.Deliver(sender, core.TypeChatMessage, core.Frame(`{"type":"chat:message"}`))
	require.True(t, forwarded)
	require.Equal(t, []core.ConnID{"c2"}, res.Delivered)
	require.Empty(t, senderSig.received(), "sender must never receive its own message")
	require.Len(t, peerSig.received(), 1)
}

func TestRelayDelegatedGatesSignaling(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.RoomRef("R1")

	sender, _ := newConn("c1", "U1", ref, domain.StrategyDelegated)
	peer, peerSig := newConn("c2", "U2", ref, domain.StrategyDelegated)
	reg.Admit(sender)
	reg.Admit(peer)

	for _, msgType := range []string{core.TypeWebRTCOffer, core.TypeWebRTCAnswer, core.TypeWebRTCCandidate} {
		res, forwarded := relay.Deliver(sender, msgType, core.Frame(`{}`))
		require.False(t, forwarded, "%s must be swallowed for delegated sessions", msgType)
		require.Empty(t, res.Delivered)
	}
	require.Empty(t, peerSig.received())

	// Chat is provider-agnostic and still flows.
	res, forwarded := relay.Deliver(sender, core.TypeChatMessage, core.Frame(`{"type":"chat:message"}`))
	require.True(t, forwarded)
	require.Equal(t, []core.ConnID{"c2"}, res.Delivered)
}

func TestRelaySignalingFlowsPeerToPeer(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.AppointmentRef("A1")

	sender, _ := newConn("c1", "S1", ref, domain.StrategyPeerToPeer)
	peer, peerSig := newConn("c2", "C1", ref, domain.StrategyPeerToPeer)
	third, thirdSig := newConn("c3", "X1", ref, domain.StrategyPeerToPeer)
	reg.Admit(sender)
	reg.Admit(peer)
	reg.Admit(third)

	res, forwarded := relay.Deliver(sender, core.TypeWebRTCOffer, core.Frame(`{"type":"webrtc:offer"}`))
	require.True(t, forwarded)
	require.ElementsMatch(t, []core.ConnID{"c2", "c3"}, res.Delivered)
	require.Len(t, peerSig.received(), 1)
	require.Len(t, thirdSig.received(), 1)
}

func TestRelayReportsBackpressuredMembers(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.RoomRef("R1")

	sender, _ := newConn("c1", "U1", ref, domain.StrategyPeerToPeer)
	slow, slowSig := newConn("c2", "U2", ref, domain.StrategyPeerToPeer)
	slowSig.full = true
	reg.Admit(sender)
	reg.Admit(slow)

	res := relay.Broadcast(sender.Key(), sender.ID(), core.Frame(`{}`))
	require.Empty(t, res.Delivered)
	require.Len(t, res.Dropped, 1)
	require.Equal(t, slow, res.Dropped[0])
}

func TestRelayDropsEvictedSender(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.RoomRef("R1")

	sender, _ := newConn("c1", "U1", ref, domain.StrategyPeerToPeer)
	peer, peerSig := newConn("c2", "U2", ref, domain.StrategyPeerToPeer)
	reg.Admit(sender)
	reg.Admit(peer)
	reg.Evict(sender)

	res, forwarded := relay.Deliver(sender, core.TypeChatMessage, core.Frame(`{"type":"chat:message"}`))
	require.False(t, forwarded, "a departed connection must not relay into the session")
	require.Empty(t, res.Delivered)
	require.Empty(t, peerSig.received())
}

func TestRelayPerSenderFIFO(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	relay := NewRelay(reg, zerolog.Nop())
	ref := domain.RoomRef("R1")

	sender, _ := newConn("c1", "U1", ref, domain.StrategyPeerToPeer)
	peer, peerSig := newConn("c2", "U2", ref, domain.StrategyPeerToPeer)
	reg.Admit(sender)
	reg.Admit(peer)

	frames := []core.Frame{core.Frame(`1`), core.Frame(`2`), core.Frame(`3`)}
	for _, f := range frames {
		relay.Broadcast(sender.Key(), sender.ID(), f)
	}
	require.Equal(t, frames, peerSig.received(), "one sender's frames arrive in send order")
}
