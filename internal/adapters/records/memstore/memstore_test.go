package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/domain"
)

func TestRoomLifecycle(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateRoom(ctx, &domain.Room{
		ID:        "R1",
		CreatorID: "U1",
		Active:    true,
		Strategy:  domain.StrategyPeerToPeer,
	}))

	require.NoError(t, s.AddParticipant(ctx, "R1", "U2"))
	require.NoError(t, s.AddParticipant(ctx, "R1", "U2"), "re-adding is a no-op")

	room, err := s.GetRoom(ctx, "R1")
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{"U2"}, room.Participants)

	// Mutating the returned copy must not leak into the store.
	room.Participants[0] = "evil"
	again, err := s.GetRoom(ctx, "R1")
	require.NoError(t, err)
	require.Equal(t, []domain.UserID{"U2"}, again.Participants)

	require.NoError(t, s.EndRoom(ctx, "R1"))
	room, err = s.GetRoom(ctx, "R1")
	require.NoError(t, err)
	require.False(t, room.Active)

	require.ErrorIs(t, s.EndRoom(ctx, "R404"), domain.ErrRoomNotFound)
	require.ErrorIs(t, s.AddParticipant(ctx, "R404", "U1"), domain.ErrRoomNotFound)
	_, err = s.GetRoom(ctx, "R404")
	require.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestAppointmentLookup(t *testing.T) {
	s := New()
	s.PutAppointment(domain.Appointment{
		ID:          "A1",
		StudentID:   "S1",
		CounselorID: "C1",
		Mode:        domain.ModeVideo,
		Status:      domain.StatusAccepted,
	})

	a, err := s.GetAppointment(context.Background(), "A1")
	require.NoError(t, err)
	require.Equal(t, domain.UserID("S1"), a.StudentID)

	_, err = s.GetAppointment(context.Background(), "A404")
	require.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}
