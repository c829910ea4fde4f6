package models

// Room event types pushed over the realtime channel.
const (
	EventGuestWaiting      = "guestWaiting"
	EventAdmitted          = "admitted"
	EventRejected          = "rejected"
	EventKicked            = "kicked"
	EventLeft              = "left"
	EventPermissionChanged = "permissionChanged"
)

// RoomEvent is one outbox entry produced by a room mutation. Events are
// appended under the room lock and delivered by the dispatcher after the lock
// is released, so delivery never blocks admission decisions.
type RoomEvent struct {
	Type     string `json:"event"`
	RoomID   string `json:"roomId"`
	Identity string `json:"identity"`
	// Participant carries the affected participant snapshot for host-facing
	// events such as guestWaiting.
	Participant *Participant `json:"participant,omitempty"`
}

// InvitationCreated is handed to the mail worker after a successful
// createInvitation. The creating request never waits on delivery.
type InvitationCreated struct {
	Invitation Invitation
	RoomTitle  string
	HostName   string
}
