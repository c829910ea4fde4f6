package services

import "errors"

// Sentinel errors returned by the invitation and admission services.
// Controllers translate them to HTTP statuses; the redemption endpoint
// collapses the security-sensitive ones into a single generic response so an
// attacker cannot probe which codes exist.
var (
	ErrInvitationNotFound         = errors.New("invitation not found")
	ErrInvitationExpired          = errors.New("invitation expired")
	ErrInvitationAlreadyUsed      = errors.New("invitation already used")
	ErrInvitationRevoked          = errors.New("invitation revoked")
	ErrDuplicatePendingInvitation = errors.New("a pending or accepted invitation already exists for this email")
	ErrJoinCodeTaken              = errors.New("join code already exists")
	ErrCodeSpaceExhausted         = errors.New("join code generation retries exhausted")
	ErrRateLimited                = errors.New("rate limited")
	ErrViewerJoinDisabled         = errors.New("viewer-level codes cannot be redeemed for this room")

	ErrRoomNotFound = errors.New("room not found")
	ErrRoomNotLive  = errors.New("room is not live")
	ErrRoomEnded    = errors.New("room has ended")
	ErrRoomFull     = errors.New("room is full")

	ErrNotHost                = errors.New("caller is not a host of this room")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrParticipantNotWaiting  = errors.New("participant is not waiting")
	ErrSelfEscalation         = errors.New("permission change not allowed")
	ErrInvalidPermissionLevel = errors.New("unknown permission level")
)

// IsSecuritySensitive reports whether the error must be rendered to guests as
// the generic invalid-invite response, indistinguishable from one another.
func IsSecuritySensitive(err error) bool {
	return errors.Is(err, ErrInvitationNotFound) ||
		errors.Is(err, ErrInvitationExpired) ||
		errors.Is(err, ErrInvitationAlreadyUsed) ||
		errors.Is(err, ErrInvitationRevoked) ||
		errors.Is(err, ErrViewerJoinDisabled) ||
		errors.Is(err, ErrRateLimited)
}
