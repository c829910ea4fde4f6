package models

import "time"

// Participant is one connected (or waiting) session member. Participants are
// ephemeral: they live only inside the room registry entry for their room and
// are never persisted. Identity is a registered user id or, for anonymous
// guests, a generated guest id; it is the re-attach key on reconnect.
type Participant struct {
	RoomID          string          `json:"roomId"`
	Identity        string          `json:"identity"`
	DisplayName     string          `json:"displayName"`
	PermissionLevel PermissionLevel `json:"permissionLevel"`
	ConnectionState string          `json:"connectionState"`
	JoinedAt        time.Time       `json:"joinedAt"`
	LastSeenAt      time.Time       `json:"lastSeenAt"`

	// TicketSecret is the opaque credential handed out with the waiting
	// ticket. It never leaves the registry except inside that ticket, so it
	// is excluded from snapshots and event payloads.
	TicketSecret string `json:"-"`
}

// CountsAgainstCapacity reports whether the participant occupies one of the
// room's maxParticipants slots.
func (p Participant) CountsAgainstCapacity() bool {
	switch p.ConnectionState {
	case ConnectionStateWaiting, ConnectionStateAdmitted, ConnectionStateActive:
		return true
	}
	return false
}

// WaitingTicket is what a guest receives after a successful redemption. It
// identifies the participant slot while the guest sits in the waiting room,
// and Secret is the credential proving ownership of that slot on heartbeats
// and when joining the participant socket channel.
type WaitingTicket struct {
	RoomID          string          `json:"roomId"`
	Identity        string          `json:"identity"`
	DisplayName     string          `json:"displayName"`
	PermissionLevel PermissionLevel `json:"permissionLevel"`
	Secret          string          `json:"ticketSecret"`
}
