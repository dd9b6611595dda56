package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/domain"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	return NewClient(url, "api-key", "api-secret", time.Hour, 2*time.Second, zerolog.Nop())
}

func TestEnsureRoomIdempotent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusCreated)
			return
		}
		// The room already exists on the second create.
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	require.NoError(t, c.EnsureRoom(context.Background(), "counselpoint-room-r1"))
	require.NoError(t, c.EnsureRoom(context.Background(), "counselpoint-room-r1"),
		"already-exists must be swallowed")
	require.EqualValues(t, 2, calls.Load())
}

func TestEnsureRoomServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).EnsureRoom(context.Background(), "r1")
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.Retryable)
}

func TestEnsureRoomClientErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).EnsureRoom(context.Background(), "r1")
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	require.False(t, pe.Retryable)
}

func TestEnsureRoomUnreachableProvider(t *testing.T) {
	err := newTestClient(t, "http://127.0.0.1:1").EnsureRoom(context.Background(), "r1")
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	require.True(t, pe.Retryable)
}

func TestAccessTokenClaims(t *testing.T) {
	c := newTestClient(t, "http://unused")

	signed, err := c.AccessToken("counselpoint-room-r1", "U1", true)
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		return []byte("api-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "api-key", claims["iss"])
	require.Equal(t, "U1", claims["sub"])
	require.Equal(t, "counselpoint-room-r1", claims["room"])
	require.Equal(t, true, claims["moderator"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}
