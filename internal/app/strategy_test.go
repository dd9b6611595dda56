package app

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/core"
	"github.com/counselpoint/gateway/internal/domain"
)

type fakeProvider struct {
	ensured    []string
	ensureErr  error
	tokenCalls int
	moderator  bool
}

func (f *fakeProvider) EnsureRoom(_ context.Context, name string) error {
	f.ensured = append(f.ensured, name)
	return f.ensureErr
}

func (f *fakeProvider) AccessToken(name string, user domain.UserID, moderator bool) (string, error) {
	f.tokenCalls++
	f.moderator = moderator
	return "tok-" + name + "-" + string(user), nil
}

func TestResolvePeerToPeer(t *testing.T) {
	ice := []core.ICEServer{{URLs: []string{"stun:stun.example.org"}}}
	sel := NewStrategySelector(nil, "", ice, 0, zerolog.Nop())

	m, err := sel.Resolve(context.Background(), Grant{
		UserID:   "U1",
		Ref:      domain.RoomRef("R1"),
		Strategy: domain.StrategyPeerToPeer,
	})
	require.NoError(t, err)
	require.Equal(t, "native", m.Provider)
	require.Equal(t, ice, m.ICEServers)
	require.Empty(t, m.AccessToken)
}

func TestResolveDelegated(t *testing.T) {
	fp := &fakeProvider{}
	sel := NewStrategySelector(fp, "meet.example.org", nil, 0, zerolog.Nop())

	grant := Grant{
		UserID:   "U1",
		Role:     domain.RoleStudent,
		Ref:      domain.RoomRef("R1"),
		Strategy: domain.StrategyDelegated,
	}
	m, err := sel.Resolve(context.Background(), grant)
	require.NoError(t, err)
	require.Equal(t, "delegated", m.Provider)
	require.Equal(t, "meet.example.org", m.Domain)
	require.Equal(t, ProviderRoomName(grant.Ref), m.RoomName)
	require.NotEmpty(t, m.AccessToken)
	require.False(t, fp.moderator, "students get a standard credential")

	// Identical inputs resolve identically; only the external calls repeat.
	again, err := sel.Resolve(context.Background(), grant)
	require.NoError(t, err)
	require.Equal(t, m.RoomName, again.RoomName)
	require.Len(t, fp.ensured, 2)
}

func TestResolveDelegatedModeratorRoles(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleCounselor} {
		fp := &fakeProvider{}
		sel := NewStrategySelector(fp, "meet.example.org", nil, 0, zerolog.Nop())
		_, err := sel.Resolve(context.Background(), Grant{
			UserID:   "U1",
			Role:     role,
			Ref:      domain.RoomRef("R1"),
			Strategy: domain.StrategyDelegated,
		})
		require.NoError(t, err)
		require.True(t, fp.moderator, "%s gets an elevated credential", role)
	}
}

func TestResolveDelegatedProviderFailure(t *testing.T) {
	fp := &fakeProvider{ensureErr: &domain.ProviderError{Op: "create room", Retryable: true, Err: errors.New("timeout")}}
	sel := NewStrategySelector(fp, "meet.example.org", nil, 0, zerolog.Nop())

	_, err := sel.Resolve(context.Background(), Grant{
		UserID:   "U1",
		Ref:      domain.RoomRef("R1"),
		Strategy: domain.StrategyDelegated,
	})
	require.Error(t, err)
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Zero(t, fp.tokenCalls, "no credential is minted when the room cannot be ensured")
}

func TestResolveDelegatedWithoutProvider(t *testing.T) {
	sel := NewStrategySelector(nil, "", nil, 0, zerolog.Nop())
	_, err := sel.Resolve(context.Background(), Grant{
		UserID:   "U1",
		Ref:      domain.RoomRef("R1"),
		Strategy: domain.StrategyDelegated,
	})
	var pe *domain.ProviderError
	require.ErrorAs(t, err, &pe)
}
