package services

import (
	"context"
	"time"

	"interview_server/models"

	"github.com/google/uuid"
)

const defaultMaxParticipants = 10

// RoomService owns the room lifecycle. Starting a room activates its
// registry entry; ending it tears the entry down, which kicks everyone still
// connected.
type RoomService struct {
	Store    RoomStore
	Registry *RoomRegistry
	Now      func() time.Time
}

// CreateRoomInput is the host's request for a new scheduled room.
type CreateRoomInput struct {
	HostUserID  string
	Title       string
	ScheduledAt time.Time
	Settings    models.RoomSettings
}

func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (models.Room, error) {
	if in.Settings.MaxParticipants <= 0 {
		in.Settings.MaxParticipants = defaultMaxParticipants
	}
	room := models.Room{
		ID:          uuid.New().String(),
		HostUserID:  in.HostUserID,
		Title:       in.Title,
		ScheduledAt: in.ScheduledAt,
		Status:      models.RoomStatusScheduled,
		Settings:    in.Settings,
		CreatedAt:   s.now(),
	}
	if err := s.Store.Create(ctx, room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// Start moves a scheduled room live and opens it for admissions.
func (s *RoomService) Start(ctx context.Context, roomID, hostUserID string) (models.Room, error) {
	if err := s.requireHost(ctx, roomID, hostUserID); err != nil {
		return models.Room{}, err
	}
	room, err := s.Store.TransitionStatus(ctx, roomID, models.RoomStatusScheduled, models.RoomStatusLive)
	if err != nil {
		return models.Room{}, err
	}
	s.Registry.Activate(room)
	return room, nil
}

// End is terminal: the room stops accepting admissions and every connected
// participant is kicked.
func (s *RoomService) End(ctx context.Context, roomID, hostUserID string) (models.Room, error) {
	if err := s.requireHost(ctx, roomID, hostUserID); err != nil {
		return models.Room{}, err
	}
	room, err := s.Store.TransitionStatus(ctx, roomID, models.RoomStatusLive, models.RoomStatusEnded)
	if err != nil {
		return models.Room{}, err
	}
	s.Registry.Deactivate(roomID)
	return room, nil
}

// Get returns the room plus, while it is live, the current participant
// snapshot.
func (s *RoomService) Get(ctx context.Context, roomID, hostUserID string) (models.Room, []models.Participant, error) {
	room, err := s.Store.Get(ctx, roomID)
	if err != nil {
		return models.Room{}, nil, err
	}
	if room.HostUserID != hostUserID {
		return models.Room{}, nil, ErrNotHost
	}
	if room.Status != models.RoomStatusLive {
		return room, nil, nil
	}
	_, participants, err := s.Registry.Snapshot(roomID)
	if err != nil {
		// The registry entry can lag a store transition; the room row is
		// still authoritative for display.
		return room, nil, nil
	}
	return room, participants, nil
}

func (s *RoomService) ListByHost(ctx context.Context, hostUserID string) ([]models.Room, error) {
	return s.Store.ListByHost(ctx, hostUserID)
}

func (s *RoomService) requireHost(ctx context.Context, roomID, hostUserID string) error {
	room, err := s.Store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if room.HostUserID != hostUserID {
		return ErrNotHost
	}
	return nil
}

func (s *RoomService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
