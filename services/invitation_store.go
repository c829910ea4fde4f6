package services

import (
	"context"
	"time"

	"interview_server/models"
)

// InvitationStore is the single source of truth for invitations across
// process restarts. Implementations must keep joinCode unique among
// non-expired rows ("create if absent" is atomic) and must make Redeem an
// atomic check-and-increment so two concurrent redemptions of a single-use
// code can never both succeed.
type InvitationStore interface {
	// Create persists a new invitation. Returns ErrJoinCodeTaken when a
	// non-expired invitation already holds the code.
	Create(ctx context.Context, inv models.Invitation) error

	// GetByJoinCode returns ErrInvitationNotFound for unknown codes.
	GetByJoinCode(ctx context.Context, joinCode string) (models.Invitation, error)

	// GetByID returns ErrInvitationNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (models.Invitation, error)

	ListByRoom(ctx context.Context, roomID string) ([]models.Invitation, error)

	// HasActiveEmailInvitation reports whether a pending or accepted,
	// non-expired invitation exists for (roomID, email).
	HasActiveEmailInvitation(ctx context.Context, roomID, email string, now time.Time) (bool, error)

	// Redeem atomically transitions the invitation to accepted, increments
	// its use count and stamps redeemedAt, provided it is still redeemable
	// at now. The loser of a single-use race gets ErrInvitationAlreadyUsed.
	Redeem(ctx context.Context, joinCode string, now time.Time) (models.Invitation, error)

	// SetStatus moves a non-terminal invitation to the given terminal
	// status. Returns ErrInvitationAlreadyUsed when the invitation is
	// already terminal.
	SetStatus(ctx context.Context, id, status string) (models.Invitation, error)

	// UpdatePending edits invitee fields and the granted level while the
	// invitation is still pending.
	UpdatePending(ctx context.Context, id string, update PendingUpdate) (models.Invitation, error)
}

// PendingUpdate carries host edits applied to a pending invitation. Nil
// fields are left untouched.
type PendingUpdate struct {
	InviteeEmail    *string
	InviteeName     *string
	PermissionLevel *models.PermissionLevel
}

// RoomStore persists rooms.
type RoomStore interface {
	Create(ctx context.Context, room models.Room) error

	// Get returns ErrRoomNotFound for unknown ids.
	Get(ctx context.Context, id string) (models.Room, error)

	// TransitionStatus moves a room from one status to another atomically;
	// a room not in the from status yields ErrRoomNotLive for live targets
	// and ErrRoomEnded when the room already ended.
	TransitionStatus(ctx context.Context, id, from, to string) (models.Room, error)

	ListByHost(ctx context.Context, hostUserID string) ([]models.Room, error)
}
