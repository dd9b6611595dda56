package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/counselpoint/gateway/internal/domain"
)

func (s *Store) GetRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, creator_id, participants, credential_hash, active, strategy
		FROM rooms
		WHERE id = $1
	`, string(id))

	var r domain.Room
	var participants []string
	err := row.Scan(&r.ID, &r.CreatorID, &participants, &r.CredentialHash, &r.Active, &r.Strategy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	r.Participants = make([]domain.UserID, 0, len(participants))
	for _, p := range participants {
		r.Participants = append(r.Participants, domain.UserID(p))
	}
	return &r, nil
}

func (s *Store) CreateRoom(ctx context.Context, room *domain.Room) error {
	participants := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		participants = append(participants, string(p))
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO rooms (id, creator_id, participants, credential_hash, active, strategy)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, string(room.ID), string(room.CreatorID), participants, room.CredentialHash, room.Active, string(room.Strategy))
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Store) AddParticipant(ctx context.Context, id domain.RoomID, user domain.UserID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET participants = array_append(participants, $2)
		WHERE id = $1
		  AND NOT ($2 = ANY(participants))
	`, string(id), string(user))
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	// Zero rows is either an unknown room or an already-present
	// participant; distinguish so callers see missing rooms.
	if tag.RowsAffected() == 0 {
		if _, err := s.GetRoom(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) EndRoom(ctx context.Context, id domain.RoomID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		SET active = FALSE
		WHERE id = $1
	`, string(id))
	if err != nil {
		return fmt.Errorf("end room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
