package models

// PermissionLevel is the capability tier granted to a participant. It is a
// closed set: escalation rules switch over these values, never over raw
// client input.
type PermissionLevel string

const (
	PermissionHost   PermissionLevel = "host"
	PermissionCoHost PermissionLevel = "co-host"
	PermissionGuest  PermissionLevel = "guest"
	PermissionViewer PermissionLevel = "viewer"
)

// Valid reports whether the level is one of the known tiers.
func (p PermissionLevel) Valid() bool {
	switch p {
	case PermissionHost, PermissionCoHost, PermissionGuest, PermissionViewer:
		return true
	}
	return false
}

// CanModerate reports whether the level may admit, reject or kick participants.
func (p PermissionLevel) CanModerate() bool {
	return p == PermissionHost || p == PermissionCoHost
}

// Invitation lifecycle statuses. Accepted, declined, expired and revoked are terminal.
const (
	InvitationStatusPending  = "pending"
	InvitationStatusAccepted = "accepted"
	InvitationStatusDeclined = "declined"
	InvitationStatusExpired  = "expired"
	InvitationStatusRevoked  = "revoked"
)

// Room lifecycle statuses. Ended is terminal; admissions happen only while live.
const (
	RoomStatusScheduled = "scheduled"
	RoomStatusLive      = "live"
	RoomStatusEnded     = "ended"
)

// Participant connection states. Kicked and left are terminal for the
// session; the underlying invitation is not affected.
const (
	ConnectionStateWaiting  = "waiting"
	ConnectionStateAdmitted = "admitted"
	ConnectionStateActive   = "active"
	ConnectionStateLeft     = "left"
	ConnectionStateKicked   = "kicked"
)

// IsTerminalInvitationStatus reports whether no transition may leave the status.
func IsTerminalInvitationStatus(status string) bool {
	switch status {
	case InvitationStatusAccepted, InvitationStatusDeclined,
		InvitationStatusExpired, InvitationStatusRevoked:
		return true
	}
	return false
}
