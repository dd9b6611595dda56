package signal

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/core"
)

// dialSocket yields a server-side websocket connection backed by a live
// client peer, so Close has a real socket to tear down.
func dialSocket(t *testing.T) *websocket.Conn {
	t.Helper()
	serverConn := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConn <- ws
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return <-serverConn
}

func TestWsSignalConnQueueOrder(t *testing.T) {
	c := NewWsSignalConn(dialSocket(t), 4)

	require.NoError(t, c.TrySend(core.Frame(`1`)))
	require.NoError(t, c.TrySend(core.Frame(`2`)))

	require.Equal(t, core.Frame(`1`), <-c.send)
	require.Equal(t, core.Frame(`2`), <-c.send)
}

func TestWsSignalConnBackpressure(t *testing.T) {
	c := NewWsSignalConn(dialSocket(t), 1)

	require.NoError(t, c.TrySend(core.Frame(`1`)))
	require.ErrorIs(t, c.TrySend(core.Frame(`2`)), ErrBackpressure,
		"full buffer must fail fast, never block")
}

func TestWsSignalConnClose(t *testing.T) {
	c := NewWsSignalConn(dialSocket(t), 1)

	c.Close()
	c.Close() // second close is a no-op

	require.ErrorIs(t, c.TrySend(core.Frame(`1`)), ErrConnClosed)

	// The send channel is closed so the write pump drains and exits.
	_, ok := <-c.send
	require.False(t, ok)
}
