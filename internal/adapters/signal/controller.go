package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/counselpoint/gateway/internal/app"
	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

const (
	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second
)

// SessionWSController owns the persistent-connection surface: one
// handshake frame, then relay until disconnect.
type SessionWSController struct {
	Gateway    *app.Gateway
	ReadLimit  int64
	PingPeriod time.Duration
	Limiter    *JoinRateLimiter
}

func NewSessionWSController(gw *app.Gateway, readLimit int64, pingPeriod time.Duration) *SessionWSController {
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	return &SessionWSController{
		Gateway:    gw,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		Limiter:    NewJoinRateLimiter(10, time.Minute),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSession upgrades the request and runs the connection to
// completion. The first frame must be a join; a rejection writes the
// reason and closes, leaving nothing registered. The write pump starts
// only after admission, so handshake writes are synchronous and cannot
// race the close.
func (ctl *SessionWSController) HandleSession(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := NewWsSignalConn(ws, 32)
	sess, resp, ok := ctl.handshake(ctx, ws, conn)
	if !ok {
		_ = ws.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go ctl.writePump(ctx, conn)
	ctl.sendJSON(conn, resp)

	log.Info().
		Str("module", "signal").
		Str("conn", string(sess.ID())).
		Str("user", string(sess.UserID())).
		Str("session", string(sess.Key())).
		Msg("connection established")

	ctl.readPump(ctx, ws, conn, sess)
}

// handshake blocks for the join frame, authorizes it and admits the
// connection. Rejections surface a reason string only, never internals.
func (ctl *SessionWSController) handshake(ctx context.Context, ws *websocket.Conn, conn *WsSignalConn) (*core.Connection, core.JoinedResponse, bool) {
	_ = ws.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := ws.ReadMessage()
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("handshake read")
		return nil, core.JoinedResponse{}, false
	}
	_ = ws.SetReadDeadline(time.Time{})

	var req core.JoinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Type != core.TypeJoin {
		ctl.reject(ws, "bad_handshake")
		return nil, core.JoinedResponse{}, false
	}
	if !ctl.Limiter.Allow(domain.UserID(req.UserID)) {
		ctl.reject(ws, "too_many_attempts")
		return nil, core.JoinedResponse{}, false
	}

	ref, err := domain.ParseSessionRef(req.AppointmentID, req.RoomID)
	if err != nil {
		ctl.reject(ws, domain.RejectReason(domain.ErrUnauthorized))
		return nil, core.JoinedResponse{}, false
	}

	// An unknown role claim carries no privileges.
	role := domain.Role(req.Role)
	if !domain.ValidRole(role) {
		role = ""
	}

	sess, resp, err := ctl.Gateway.Join(ctx, app.AuthRequest{
		UserID:    domain.UserID(req.UserID),
		Role:      role,
		Ref:       ref,
		RoomToken: req.RoomToken,
	}, conn)
	if err != nil {
		ctl.reject(ws, domain.RejectReason(err))
		return nil, core.JoinedResponse{}, false
	}
	return sess, resp, true
}

func (ctl *SessionWSController) readPump(ctx context.Context, ws *websocket.Conn, conn *WsSignalConn, sess *core.Connection) {
	defer func() {
		log.Info().
			Str("module", "signal").
			Str("conn", string(sess.ID())).
			Msg("readPump closing")
		ctl.Gateway.Disconnect(sess)
		conn.Close()
	}()

	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ctl.PingPeriod + handshakeTimeout))
	})
	_ = ws.SetReadDeadline(time.Now().Add(ctl.PingPeriod + handshakeTimeout))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			ctl.dispatch(sess, conn, data)
		}
	}
}

func (ctl *SessionWSController) dispatch(sess *core.Connection, conn *WsSignalConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		return
	}
	switch env.Type {
	case core.TypePing:
		ctl.sendJSON(conn, struct {
			Type string `json:"type"`
		}{Type: core.TypePong})
	case core.TypeJoin:
		// The authorized ref never changes after admission; rejoining
		// requires a new connection.
		log.Warn().
			Str("module", "signal").
			Str("conn", string(sess.ID())).
			Msg("join after handshake dropped")
	default:
		ctl.Gateway.OnMessage(sess, data)
	}
}

func (ctl *SessionWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SessionWSController) reject(ws *websocket.Conn, reason string) {
	b, err := json.Marshal(core.ErrorMessage{Type: core.TypeError, Reason: reason})
	if err != nil {
		return
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = ws.WriteMessage(websocket.TextMessage, b)
}

func (ctl *SessionWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
