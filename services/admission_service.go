package services

import (
	"context"
	"errors"
	"log"

	"interview_server/models"

	"github.com/google/uuid"
)

// AdmissionService mediates the waiting-room flow: it gates redemption
// attempts through the rate limiter, settles the credential with the
// invitation service and places the guest into the registry's waiting queue.
// Host decisions (admit/reject/kick) go through it as well so the HTTP layer
// never touches registry internals.
type AdmissionService struct {
	Invitations *InvitationService
	Registry    *RoomRegistry
	Limiter     *RateLimiter
	Rooms       RoomStore
}

// RedeemJoinCode is the guest entry point. The whole operation is atomic
// from the guest's point of view: either the invitation is redeemed AND the
// guest is waiting, or nothing observable happened. Rate-limit rejections are
// indistinguishable from unknown codes by design.
func (s *AdmissionService) RedeemJoinCode(ctx context.Context, joinCode, displayName, sourceAddr string) (models.WaitingTicket, error) {
	if !s.Limiter.Allow(sourceAddr) || !s.Limiter.Allow(joinCode+"|"+sourceAddr) {
		log.Printf("redemption rate limited for %s", sourceAddr)
		return models.WaitingTicket{}, ErrRateLimited
	}

	inv, err := s.Invitations.ValidateForRedemption(ctx, joinCode)
	if err != nil {
		return models.WaitingTicket{}, err
	}

	if inv.PermissionLevel == models.PermissionViewer {
		room, err := s.Rooms.Get(ctx, inv.RoomID)
		if err != nil {
			return models.WaitingTicket{}, err
		}
		if !room.Settings.AllowViewerJoin {
			return models.WaitingTicket{}, ErrViewerJoinDisabled
		}
	}

	identity, sharedIdentity := s.identityFor(inv, displayName)
	if displayName == "" {
		displayName = inv.InviteeName
	}
	if displayName == "" {
		displayName = "Guest"
	}

	// Reserve the waiting slot first: capacity and liveness are checked
	// atomically inside the registry, and a failure here leaves the
	// invitation untouched.
	ticket, created, err := s.Registry.EnterWaitingRoom(inv.RoomID, identity, displayName, inv.PermissionLevel)
	if err != nil {
		return models.WaitingTicket{}, err
	}

	// Now settle the credential. Losing the single-use race means another
	// guest holds this code; undo the reservation so neither side observes a
	// half-committed redemption. Two guards keep the rollback from touching a
	// slot the winner holds: a re-attached slot is never removed, and a slot
	// under a shared deterministic identity is kept when the loss was the
	// single-use race, because the winner's ticket points at that same slot.
	if _, err := s.Invitations.CommitRedemption(ctx, joinCode); err != nil {
		winnerShared := sharedIdentity && errors.Is(err, ErrInvitationAlreadyUsed)
		if created && !winnerShared {
			if removeErr := s.Registry.removeWaiting(inv.RoomID, identity); removeErr != nil {
				log.Printf("failed to roll back waiting slot for %s in room %s: %v", identity, inv.RoomID, removeErr)
			}
		}
		return models.WaitingTicket{}, err
	}
	return ticket, nil
}

// identityFor picks the re-attach key: email-bound invitations key on the
// invitee email so a reconnecting guest lands in its old slot, anonymous
// multi-use codes get a fresh guest identity per redemption. The second
// return reports whether the identity is deterministic, i.e. two concurrent
// redemptions of the same invitation would share it.
func (s *AdmissionService) identityFor(inv models.Invitation, displayName string) (string, bool) {
	if inv.InviteeEmail != "" {
		return inv.InviteeEmail, true
	}
	if inv.SingleUse() && displayName != "" {
		return inv.ID, true
	}
	return "guest-" + uuid.New().String(), false
}

// Admit is the host decision moving a guest out of the waiting room.
func (s *AdmissionService) Admit(roomID, callerIdentity, identity string) error {
	return s.Registry.Admit(roomID, callerIdentity, identity)
}

// Reject removes a waiting guest.
func (s *AdmissionService) Reject(roomID, callerIdentity, identity string) error {
	return s.Registry.Reject(roomID, callerIdentity, identity)
}

// Kick terminates an admitted participant's session.
func (s *AdmissionService) Kick(roomID, callerIdentity, identity string) error {
	return s.Registry.Kick(roomID, callerIdentity, identity)
}

// SetPermission changes a participant's level, subject to the escalation rules.
func (s *AdmissionService) SetPermission(roomID, callerIdentity, identity string, level models.PermissionLevel) error {
	return s.Registry.SetPermission(roomID, callerIdentity, identity, level)
}

// Heartbeat is the participant's own liveness ping, authenticated by the
// ticket secret.
func (s *AdmissionService) Heartbeat(roomID, identity, ticketSecret string) error {
	return s.Registry.Heartbeat(roomID, identity, ticketSecret)
}
