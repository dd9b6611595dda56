package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/counselpoint/gateway/internal/domain"
)

func (s *Store) GetAppointment(ctx context.Context, id domain.AppointmentID) (*domain.Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, student_id, counselor_id, mode, status
		FROM appointments
		WHERE id = $1
	`, string(id))

	var a domain.Appointment
	err := row.Scan(&a.ID, &a.StudentID, &a.CounselorID, &a.Mode, &a.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}
