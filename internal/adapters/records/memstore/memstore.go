// Package memstore is an in-memory session record store for development
// mode and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/counselpoint/gateway/internal/domain"
)

type Store struct {
	mu           sync.RWMutex
	appointments map[domain.AppointmentID]domain.Appointment
	rooms        map[domain.RoomID]domain.Room
}

func New() *Store {
	return &Store{
		appointments: make(map[domain.AppointmentID]domain.Appointment),
		rooms:        make(map[domain.RoomID]domain.Room),
	}
}

// PutAppointment seeds or replaces an appointment record.
func (s *Store) PutAppointment(a domain.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a
}

func (s *Store) GetAppointment(_ context.Context, id domain.AppointmentID) (*domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	cp := a
	return &cp, nil
}

func (s *Store) GetRoom(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := r
	cp.Participants = append([]domain.UserID(nil), r.Participants...)
	return &cp, nil
}

func (s *Store) CreateRoom(_ context.Context, room *domain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *room
	cp.Participants = append([]domain.UserID(nil), room.Participants...)
	s.rooms[room.ID] = cp
	return nil
}

func (s *Store) AddParticipant(_ context.Context, id domain.RoomID, user domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	r.AddParticipant(user)
	s.rooms[id] = r
	return nil
}

func (s *Store) EndRoom(_ context.Context, id domain.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	r.Active = false
	s.rooms[id] = r
	return nil
}
