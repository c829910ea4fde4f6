package services

import (
	"context"
	"sync"
	"time"

	"interview_server/models"
)

// MemoryInvitationStore implements InvitationStore with in-process maps. It
// is the STORAGE=memory backend for local development and the store the test
// suite runs against; the semantics mirror the DynamoDB implementation's
// conditional writes.
type MemoryInvitationStore struct {
	mu     sync.Mutex
	byCode map[string]*models.Invitation
	byID   map[string]string // id -> joinCode
}

func NewMemoryInvitationStore() *MemoryInvitationStore {
	return &MemoryInvitationStore{
		byCode: make(map[string]*models.Invitation),
		byID:   make(map[string]string),
	}
}

func (s *MemoryInvitationStore) Create(_ context.Context, inv models.Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byCode[inv.JoinCode]; ok {
		if !existing.ExpiredAt(time.Now()) {
			return ErrJoinCodeTaken
		}
		// Expired holder: the code is free again.
		delete(s.byID, existing.ID)
	}
	copied := inv
	s.byCode[inv.JoinCode] = &copied
	s.byID[inv.ID] = inv.JoinCode
	return nil
}

func (s *MemoryInvitationStore) GetByJoinCode(_ context.Context, joinCode string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.byCode[joinCode]
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	return *inv, nil
}

func (s *MemoryInvitationStore) GetByID(_ context.Context, id string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookupByID(id)
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	return *inv, nil
}

func (s *MemoryInvitationStore) ListByRoom(_ context.Context, roomID string) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var invs []models.Invitation
	for _, inv := range s.byCode {
		if inv.RoomID == roomID {
			invs = append(invs, *inv)
		}
	}
	return invs, nil
}

func (s *MemoryInvitationStore) HasActiveEmailInvitation(_ context.Context, roomID, email string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.byCode {
		if inv.RoomID != roomID || inv.InviteeEmail != email {
			continue
		}
		switch inv.Status {
		case models.InvitationStatusAccepted:
			return true, nil
		case models.InvitationStatusPending:
			if !inv.ExpiredAt(now) {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *MemoryInvitationStore) Redeem(_ context.Context, joinCode string, now time.Time) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.byCode[joinCode]
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	if inv.ExpiredAt(now) {
		return models.Invitation{}, ErrInvitationExpired
	}
	switch inv.Status {
	case models.InvitationStatusPending:
	case models.InvitationStatusAccepted:
		if inv.SingleUse() {
			return models.Invitation{}, ErrInvitationAlreadyUsed
		}
	case models.InvitationStatusRevoked:
		return models.Invitation{}, ErrInvitationRevoked
	default:
		return models.Invitation{}, ErrInvitationNotFound
	}
	if inv.Exhausted() {
		return models.Invitation{}, ErrInvitationAlreadyUsed
	}

	inv.Status = models.InvitationStatusAccepted
	inv.UseCount++
	if inv.RedeemedAt == nil {
		stamp := now.UTC()
		inv.RedeemedAt = &stamp
	}
	return *inv, nil
}

func (s *MemoryInvitationStore) SetStatus(_ context.Context, id, status string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookupByID(id)
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	if inv.Status != models.InvitationStatusPending {
		return models.Invitation{}, ErrInvitationAlreadyUsed
	}
	inv.Status = status
	return *inv, nil
}

func (s *MemoryInvitationStore) UpdatePending(_ context.Context, id string, upd PendingUpdate) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.lookupByID(id)
	if !ok {
		return models.Invitation{}, ErrInvitationNotFound
	}
	if inv.Status != models.InvitationStatusPending {
		return models.Invitation{}, ErrInvitationAlreadyUsed
	}
	if upd.InviteeEmail != nil {
		inv.InviteeEmail = *upd.InviteeEmail
	}
	if upd.InviteeName != nil {
		inv.InviteeName = *upd.InviteeName
	}
	if upd.PermissionLevel != nil {
		inv.PermissionLevel = *upd.PermissionLevel
	}
	return *inv, nil
}

// lookupByID must be called with the lock held.
func (s *MemoryInvitationStore) lookupByID(id string) (*models.Invitation, bool) {
	code, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	inv, ok := s.byCode[code]
	return inv, ok
}
