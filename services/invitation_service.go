package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"interview_server/models"

	"github.com/google/uuid"
)

// maxCodeRetries bounds how often invitation creation retries after a join
// code collision. With a 57^12 code space hitting this is a configuration
// problem (e.g. a broken random source), not something a caller can fix.
const maxCodeRetries = 5

// InvitationService owns the invitation lifecycle: creation, redemption
// bookkeeping and revocation. Redemption order at the room level (waiting
// queue, capacity) is the AdmissionService's job; this service only settles
// the credential itself.
type InvitationService struct {
	Store      InvitationStore
	Rooms      RoomStore
	Codes      CodeSource
	DefaultTTL time.Duration

	// Created receives a post-commit event per created invitation for the
	// mail worker. Delivery is best effort; a full channel is dropped with a
	// log line rather than blocking the request.
	Created chan<- models.InvitationCreated

	// Now is the clock, swappable in tests.
	Now func() time.Time
}

// CreateInvitationInput is the host's request to invite someone.
type CreateInvitationInput struct {
	RoomID          string
	HostUserID      string
	InviteeEmail    string
	InviteeName     string
	PermissionLevel models.PermissionLevel
	ExpiresIn       time.Duration
	MaxUses         int
}

// CreateInvitation validates the request, generates the credential pair and
// persists the invitation. Email-bound invitations are always single-use and
// at most one may be pending or accepted per (room, email).
func (s *InvitationService) CreateInvitation(ctx context.Context, in CreateInvitationInput) (models.Invitation, error) {
	if !in.PermissionLevel.Valid() {
		return models.Invitation{}, fmt.Errorf("invalid permission level %q", in.PermissionLevel)
	}
	in.InviteeEmail = strings.TrimSpace(strings.ToLower(in.InviteeEmail))
	if in.InviteeEmail != "" && !strings.Contains(in.InviteeEmail, "@") {
		return models.Invitation{}, fmt.Errorf("invalid email %q", in.InviteeEmail)
	}

	room, err := s.Rooms.Get(ctx, in.RoomID)
	if err != nil {
		return models.Invitation{}, err
	}
	if room.HostUserID != in.HostUserID {
		return models.Invitation{}, ErrNotHost
	}
	if room.Status == models.RoomStatusEnded {
		return models.Invitation{}, ErrRoomEnded
	}

	now := s.now()
	if in.InviteeEmail != "" {
		exists, err := s.Store.HasActiveEmailInvitation(ctx, in.RoomID, in.InviteeEmail, now)
		if err != nil {
			return models.Invitation{}, err
		}
		if exists {
			return models.Invitation{}, ErrDuplicatePendingInvitation
		}
		// Email-bound codes are always single-use.
		in.MaxUses = 1
	}
	if in.MaxUses < 0 {
		in.MaxUses = 1
	}
	expiresIn := in.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.DefaultTTL
	}

	token, err := s.Codes.GenerateToken()
	if err != nil {
		return models.Invitation{}, err
	}

	inv := models.Invitation{
		ID:              uuid.New().String(),
		RoomID:          in.RoomID,
		Token:           token,
		InviteeEmail:    in.InviteeEmail,
		InviteeName:     in.InviteeName,
		Status:          models.InvitationStatusPending,
		PermissionLevel: in.PermissionLevel,
		MaxUses:         in.MaxUses,
		ExpiresAt:       now.Add(expiresIn),
		CreatedAt:       now,
	}
	inv.TTL = inv.ExpiresAt.Unix()

	// The store's uniqueness constraint is the arbiter; a collision just
	// means we drew an unlucky code and try again with a fresh one.
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		code, err := s.Codes.GenerateJoinCode()
		if err != nil {
			return models.Invitation{}, err
		}
		inv.JoinCode = code
		err = s.Store.Create(ctx, inv)
		if err == nil {
			s.emitCreated(inv, room)
			return inv, nil
		}
		if err != ErrJoinCodeTaken {
			return models.Invitation{}, err
		}
	}
	return models.Invitation{}, ErrCodeSpaceExhausted
}

// ValidateForRedemption checks a join code without mutating anything. Expiry
// is authoritative from the clock regardless of the stored status.
func (s *InvitationService) ValidateForRedemption(ctx context.Context, joinCode string) (models.Invitation, error) {
	inv, err := s.Store.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return models.Invitation{}, err
	}
	if inv.ExpiredAt(s.now()) {
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
	return inv, nil
}

// CommitRedemption performs the store-side atomic accept. Exactly one caller
// wins a single-use race; the others observe ErrInvitationAlreadyUsed.
func (s *InvitationService) CommitRedemption(ctx context.Context, joinCode string) (models.Invitation, error) {
	return s.Store.Redeem(ctx, joinCode, s.now())
}

// Revoke moves a pending invitation to revoked. Already-terminal invitations
// are left alone; revoking twice is not an error.
func (s *InvitationService) Revoke(ctx context.Context, invitationID, hostUserID string) error {
	inv, err := s.Store.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.requireHost(ctx, inv.RoomID, hostUserID); err != nil {
		return err
	}
	if models.IsTerminalInvitationStatus(inv.Status) {
		return nil
	}
	_, err = s.Store.SetStatus(ctx, invitationID, models.InvitationStatusRevoked)
	if err == ErrInvitationAlreadyUsed {
		// Lost a race against redemption or another revoke; still a no-op.
		return nil
	}
	return err
}

// Decline marks a pending invitation declined on the host's behalf.
func (s *InvitationService) Decline(ctx context.Context, invitationID, hostUserID string) error {
	inv, err := s.Store.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.requireHost(ctx, inv.RoomID, hostUserID); err != nil {
		return err
	}
	if models.IsTerminalInvitationStatus(inv.Status) {
		return nil
	}
	_, err = s.Store.SetStatus(ctx, invitationID, models.InvitationStatusDeclined)
	if err == ErrInvitationAlreadyUsed {
		return nil
	}
	return err
}

// UpdatePending lets the host edit invitee fields and the granted level
// before redemption.
func (s *InvitationService) UpdatePending(ctx context.Context, invitationID, hostUserID string, upd PendingUpdate) (models.Invitation, error) {
	if upd.PermissionLevel != nil && !upd.PermissionLevel.Valid() {
		return models.Invitation{}, fmt.Errorf("invalid permission level %q", *upd.PermissionLevel)
	}
	inv, err := s.Store.GetByID(ctx, invitationID)
	if err != nil {
		return models.Invitation{}, err
	}
	if err := s.requireHost(ctx, inv.RoomID, hostUserID); err != nil {
		return models.Invitation{}, err
	}
	return s.Store.UpdatePending(ctx, invitationID, upd)
}

// ListByRoom returns the room's invitations with expiry applied lazily, so
// the host's view never shows a stale pending row.
func (s *InvitationService) ListByRoom(ctx context.Context, roomID, hostUserID string) ([]models.Invitation, error) {
	if err := s.requireHost(ctx, roomID, hostUserID); err != nil {
		return nil, err
	}
	invs, err := s.Store.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range invs {
		if invs[i].Status == models.InvitationStatusPending && invs[i].ExpiredAt(now) {
			invs[i].Status = models.InvitationStatusExpired
		}
	}
	return invs, nil
}

func (s *InvitationService) requireHost(ctx context.Context, roomID, hostUserID string) error {
	room, err := s.Rooms.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if room.HostUserID != hostUserID {
		return ErrNotHost
	}
	return nil
}

func (s *InvitationService) emitCreated(inv models.Invitation, room models.Room) {
	if s.Created == nil || inv.InviteeEmail == "" {
		return
	}
	select {
	case s.Created <- models.InvitationCreated{Invitation: inv, RoomTitle: room.Title}:
	default:
		log.Printf("invitation mail queue full, dropping notification for %s", inv.ID)
	}
}

func (s *InvitationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
