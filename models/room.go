package models

import "time"

// RoomSettings are host-chosen knobs fixed per room.
type RoomSettings struct {
	MaxParticipants int  `dynamodbav:"maxParticipants" json:"maxParticipants"`
	RecordingOnJoin bool `dynamodbav:"recordingOnJoin" json:"recordingOnJoin"`
	// AllowViewerJoin lets viewer-level invitations redeem a join code
	// directly. When false, viewers can only be demoted into by the host
	// after joining as a guest.
	AllowViewerJoin bool `dynamodbav:"allowViewerJoin" json:"allowViewerJoin"`
}

// Room is a scheduled interview session. Status walks scheduled -> live ->
// ended; ended is terminal and the room stops accepting admissions.
type Room struct {
	ID          string       `dynamodbav:"id" json:"id"` // Partition Key (PK)
	HostUserID  string       `dynamodbav:"hostUserId" json:"hostUserId"`
	Title       string       `dynamodbav:"title" json:"title"`
	ScheduledAt time.Time    `dynamodbav:"scheduledAt" json:"scheduledAt"`
	Status      string       `dynamodbav:"status" json:"status"`
	Settings    RoomSettings `dynamodbav:"settings" json:"settings"`
	CreatedAt   time.Time    `dynamodbav:"createdAt" json:"createdAt"`
}

// TableName returns the DynamoDB table name
func (Room) TableName() string {
	return "Rooms"
}
