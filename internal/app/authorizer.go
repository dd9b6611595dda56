package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

// AuthRequest is everything a new connection claims at handshake.
type AuthRequest struct {
	UserID    domain.UserID
	Role      domain.Role
	Ref       domain.SessionRef
	RoomToken string
}

// Grant is the admit decision plus the resolved media strategy, so
// downstream components never re-query the backing record.
type Grant struct {
	UserID   domain.UserID
	Role     domain.Role
	Ref      domain.SessionRef
	Strategy domain.MediaStrategy
}

// Authorizer validates a claimed identity and target session against the
// record store. The check runs exactly once, at connection establishment;
// a room deactivated mid-session is not forcibly evicted.
type Authorizer struct {
	store core.RecordStore
	// videoStrategy is what accepted video appointments resolve to:
	// delegated when a relay provider is configured, peer-to-peer
	// otherwise. Chat-only sessions never carry media and stay
	// peer-to-peer so the gateway relays everything.
	videoStrategy domain.MediaStrategy
	log           zerolog.Logger
	audit         zerolog.Logger
}

func NewAuthorizer(store core.RecordStore, videoStrategy domain.MediaStrategy, log zerolog.Logger) *Authorizer {
	return &Authorizer{
		store:         store,
		videoStrategy: videoStrategy,
		log:           log.With().Str("module", "app.authorizer").Logger(),
		audit:         log.With().Str("module", "app.authorizer").Str("audit", "session").Logger(),
	}
}

// Authorize returns the grant for req or a rejection. Rejections carry a
// machine-readable reason and are written to the audit trail with session
// id and actor; they are the only durable record of the failure.
func (a *Authorizer) Authorize(ctx context.Context, req AuthRequest) (Grant, error) {
	grant, err := a.authorize(ctx, req)
	if err != nil {
		a.audit.Warn().
			Str("session", req.Ref.Key()).
			Str("actor", string(req.UserID)).
			Str("reason", domain.RejectReason(err)).
			Msg("admission rejected")
		return Grant{}, err
	}
	a.audit.Info().
		Str("session", req.Ref.Key()).
		Str("actor", string(req.UserID)).
		Str("strategy", string(grant.Strategy)).
		Msg("admission granted")
	return grant, nil
}

func (a *Authorizer) authorize(ctx context.Context, req AuthRequest) (Grant, error) {
	if req.UserID == "" {
		return Grant{}, domain.ErrUnauthorized
	}

	switch req.Ref.Kind {
	case domain.KindAppointment:
		return a.authorizeAppointment(ctx, req)
	case domain.KindRoom:
		return a.authorizeRoom(ctx, req)
	}
	return Grant{}, domain.ErrNoSession
}

func (a *Authorizer) authorizeAppointment(ctx context.Context, req AuthRequest) (Grant, error) {
	appt, err := a.store.GetAppointment(ctx, domain.AppointmentID(req.Ref.ID))
	if err != nil {
		return Grant{}, fmt.Errorf("fetch appointment: %w", err)
	}
	if !appt.IsParty(req.UserID) && req.Role != domain.RoleAdmin {
		return Grant{}, domain.ErrForbidden
	}
	if !appt.Joinable() {
		return Grant{}, domain.ErrRoomNotActive
	}

	strategy := domain.StrategyPeerToPeer
	if appt.Mode == domain.ModeVideo {
		strategy = a.videoStrategy
	}
	return Grant{UserID: req.UserID, Role: req.Role, Ref: req.Ref, Strategy: strategy}, nil
}

func (a *Authorizer) authorizeRoom(ctx context.Context, req AuthRequest) (Grant, error) {
	room, err := a.store.GetRoom(ctx, domain.RoomID(req.Ref.ID))
	if err != nil {
		return Grant{}, fmt.Errorf("fetch room: %w", err)
	}
	if !room.Active {
		return Grant{}, domain.ErrRoomNotActive
	}
	if !room.HasParticipant(req.UserID) && req.Role != domain.RoleAdmin {
		return Grant{}, domain.ErrForbidden
	}
	if room.Strategy == domain.StrategyPeerToPeer {
		if req.RoomToken == "" {
			return Grant{}, domain.ErrMissingRoomToken
		}
		if bcrypt.CompareHashAndPassword([]byte(room.CredentialHash), []byte(req.RoomToken)) != nil {
			return Grant{}, domain.ErrInvalidRoomToken
		}
	}
	return Grant{UserID: req.UserID, Role: req.Role, Ref: req.Ref, Strategy: room.Strategy}, nil
}
