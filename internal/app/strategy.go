package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

// JoinMaterial is what a client needs to bring up media for a session,
// shaped by the resolved strategy. Exactly one of the two halves is set.
type JoinMaterial struct {
	Provider string `json:"provider"` // "native" | "delegated"

	// peer-to-peer half
	ICEServers []core.ICEServer `json:"iceServers,omitempty"`

	// delegated half
	RoomName    string `json:"roomName,omitempty"`
	Domain      string `json:"domain,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// StrategySelector turns a grant into join material. It holds no session
// state; invoking it repeatedly yields identical results barring external
// provider failures.
type StrategySelector struct {
	provider   core.ProviderClient
	domain     string
	iceServers []core.ICEServer
	timeout    time.Duration
	log        zerolog.Logger
}

func NewStrategySelector(
	provider core.ProviderClient,
	providerDomain string,
	iceServers []core.ICEServer,
	timeout time.Duration,
	log zerolog.Logger,
) *StrategySelector {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StrategySelector{
		provider:   provider,
		domain:     providerDomain,
		iceServers: iceServers,
		timeout:    timeout,
		log:        log.With().Str("module", "app.strategy").Logger(),
	}
}

// ICEServers exposes the operator-configured NAT traversal endpoints for
// peer-to-peer clients.
func (s *StrategySelector) ICEServers() []core.ICEServer {
	return s.iceServers
}

// Resolve produces join material for grant. For delegated sessions the
// provider room is created idempotently and a fresh role-scoped access
// credential is minted; both calls are bounded by the selector timeout so
// a slow provider fails the join cleanly instead of hanging it.
func (s *StrategySelector) Resolve(ctx context.Context, grant Grant) (JoinMaterial, error) {
	if grant.Strategy != domain.StrategyDelegated {
		return JoinMaterial{Provider: "native", ICEServers: s.iceServers}, nil
	}
	if s.provider == nil {
		return JoinMaterial{}, &domain.ProviderError{
			Op:  "resolve",
			Err: fmt.Errorf("no relay provider configured"),
		}
	}

	name := ProviderRoomName(grant.Ref)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.provider.EnsureRoom(ctx, name); err != nil {
		return JoinMaterial{}, err
	}

	moderator := grant.Role == domain.RoleAdmin || grant.Role == domain.RoleCounselor
	token, err := s.provider.AccessToken(name, grant.UserID, moderator)
	if err != nil {
		return JoinMaterial{}, err
	}

	s.log.Info().
		Str("session", grant.Ref.Key()).
		Str("room", name).
		Bool("moderator", moderator).
		Msg("delegated join material issued")
	return JoinMaterial{
		Provider:    "delegated",
		RoomName:    name,
		Domain:      s.domain,
		AccessToken: token,
	}, nil
}

// ProviderRoomName derives the provider-side room name for a session.
// Deterministic so repeated joins land every participant in one room.
func ProviderRoomName(ref domain.SessionRef) string {
	return fmt.Sprintf("counselpoint-%s-%s", ref.Kind, ref.ID)
}
