package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/counselpoint/gateway/internal/app"
	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

// Handlers implements the credential-issuer endpoints. They are the only
// writers of room state; the signaling path never mutates records.
type Handlers struct {
	Store    core.RecordStore
	Auth     *app.Authorizer
	Strategy *app.StrategySelector
	Registry *app.Registry

	// roomStrategy is assigned to newly created rooms: delegated when a
	// relay provider is configured, peer-to-peer otherwise.
	roomStrategy domain.MediaStrategy
	log          zerolog.Logger
}

func NewHandlers(
	store core.RecordStore,
	auth *app.Authorizer,
	strategy *app.StrategySelector,
	registry *app.Registry,
	roomStrategy domain.MediaStrategy,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		Store:        store,
		Auth:         auth,
		Strategy:     strategy,
		Registry:     registry,
		roomStrategy: roomStrategy,
		log:          log.With().Str("module", "rest").Logger(),
	}
}

func caller(c *gin.Context) (domain.UserID, domain.Role) {
	return domain.UserID(c.GetString(ctxUserID)), domain.Role(c.GetString(ctxRole))
}

// AppointmentJoin issues join material for a scheduled session. The
// caller must be a declared party (or admin) and the appointment must be
// in a joinable state.
func (h *Handlers) AppointmentJoin(c *gin.Context) {
	userID, role := caller(c)
	ref := domain.AppointmentRef(domain.AppointmentID(c.Param("id")))

	grant, err := h.Auth.Authorize(c.Request.Context(), app.AuthRequest{
		UserID: userID,
		Role:   role,
		Ref:    ref,
	})
	if err != nil {
		h.rejectJSON(c, err)
		return
	}

	material, err := h.Strategy.Resolve(c.Request.Context(), grant)
	if err != nil {
		h.rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, joinResponse(material))
}

type createRoomResponse struct {
	RoomID string `json:"roomId"`
	Token  string `json:"token"`
}

// CreateRoom makes an ad-hoc room owned by the caller. The opaque session
// credential is returned exactly once; only its bcrypt hash is stored.
func (h *Handlers) CreateRoom(c *gin.Context) {
	userID, _ := caller(c)

	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	room := &domain.Room{
		ID:             domain.RoomID(uuid.NewString()),
		CreatorID:      userID,
		Participants:   []domain.UserID{userID},
		CredentialHash: string(hash),
		Active:         true,
		Strategy:       h.roomStrategy,
	}
	if err := h.Store.CreateRoom(c.Request.Context(), room); err != nil {
		h.log.Error().Err(err).Msg("create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	h.log.Info().
		Str("room", string(room.ID)).
		Str("creator", string(userID)).
		Str("strategy", string(room.Strategy)).
		Msg("room created")
	c.JSON(http.StatusCreated, createRoomResponse{
		RoomID: string(room.ID),
		Token:  token,
	})
}

type joinRoomRequest struct {
	Token string `json:"token"`
}

// JoinRoom registers the caller as a room participant and returns the
// join material for the room's strategy. The caller proves invitation by
// presenting the room credential the creator shared out of band.
func (h *Handlers) JoinRoom(c *gin.Context) {
	userID, role := caller(c)
	roomID := domain.RoomID(c.Param("id"))

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}

	room, err := h.Store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		h.rejectJSON(c, err)
		return
	}
	if !room.Active {
		h.rejectJSON(c, domain.ErrRoomNotActive)
		return
	}
	if req.Token == "" {
		h.rejectJSON(c, domain.ErrMissingRoomToken)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(room.CredentialHash), []byte(req.Token)) != nil {
		h.rejectJSON(c, domain.ErrInvalidRoomToken)
		return
	}

	if err := h.Store.AddParticipant(c.Request.Context(), roomID, userID); err != nil {
		h.rejectJSON(c, err)
		return
	}

	material, err := h.Strategy.Resolve(c.Request.Context(), app.Grant{
		UserID:   userID,
		Role:     role,
		Ref:      domain.RoomRef(roomID),
		Strategy: room.Strategy,
	})
	if err != nil {
		h.rejectJSON(c, err)
		return
	}

	resp := joinResponse(material)
	// The verified credential is echoed back so the client presents the
	// same token at the websocket handshake.
	resp["token"] = req.Token
	c.JSON(http.StatusOK, resp)
}

// EndRoom flips the active flag. Live connections are not torn down;
// the authorizer simply refuses new admissions, and clients leave on
// their own once the portal signals the end.
func (h *Handlers) EndRoom(c *gin.Context) {
	userID, role := caller(c)
	roomID := domain.RoomID(c.Param("id"))

	room, err := h.Store.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		h.rejectJSON(c, err)
		return
	}
	if room.CreatorID != userID && !room.HasParticipant(userID) && role != domain.RoleAdmin {
		h.rejectJSON(c, domain.ErrForbidden)
		return
	}

	if err := h.Store.EndRoom(c.Request.Context(), roomID); err != nil {
		h.rejectJSON(c, err)
		return
	}
	h.log.Info().
		Str("room", string(roomID)).
		Str("actor", string(userID)).
		Msg("room ended")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSessions reports live session keys and member counts. Admin only.
func (h *Handlers) ListSessions(c *gin.Context) {
	_, role := caller(c)
	if role != domain.RoleAdmin {
		h.rejectJSON(c, domain.ErrForbidden)
		return
	}
	type sessionInfo struct {
		SessionID string `json:"sessionId"`
		Members   int    `json:"members"`
	}
	counts := h.Registry.Counts()
	out := make([]sessionInfo, 0, len(counts))
	for key, n := range counts {
		out = append(out, sessionInfo{SessionID: string(key), Members: n})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// joinResponse flattens join material into the wire shape clients expect.
func joinResponse(m app.JoinMaterial) gin.H {
	resp := gin.H{"provider": m.Provider}
	if m.Provider == "delegated" {
		resp["roomName"] = m.RoomName
		resp["domain"] = m.Domain
		resp["accessToken"] = m.AccessToken
		return resp
	}
	resp["rtcConfig"] = gin.H{"iceServers": m.ICEServers}
	resp["iceServers"] = m.ICEServers
	return resp
}

func (h *Handlers) rejectJSON(c *gin.Context, err error) {
	reason := domain.RejectReason(err)
	status := http.StatusForbidden
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrAppointmentNotFound):
		status = http.StatusNotFound
		reason = "not_found"
	case errors.Is(err, domain.ErrRoomNotActive):
		status = http.StatusGone
	default:
		var pe *domain.ProviderError
		if errors.As(err, &pe) {
			status = http.StatusBadGateway
		}
	}
	c.JSON(status, gin.H{"error": reason})
}
