package models

import "time"

// Invitation is a persisted credential pair granting entry to one room's
// waiting queue. JoinCode is the short human-typeable secret and the
// partition key, so the storage layer enforces code uniqueness; Token is the
// longer secret embedded in the email deep link and never derived from the
// code.
type Invitation struct {
	JoinCode        string          `dynamodbav:"joinCode" json:"joinCode"` // Partition Key (PK)
	ID              string          `dynamodbav:"id" json:"id"`             // GSI: IdIndex
	RoomID          string          `dynamodbav:"roomId" json:"roomId"`     // GSI: RoomIndex
	Token           string          `dynamodbav:"token" json:"token"`
	InviteeEmail    string          `dynamodbav:"inviteeEmail,omitempty" json:"inviteeEmail,omitempty"`
	InviteeName     string          `dynamodbav:"inviteeName,omitempty" json:"inviteeName,omitempty"`
	Status          string          `dynamodbav:"status" json:"status"`
	PermissionLevel PermissionLevel `dynamodbav:"permissionLevel" json:"permissionLevel"`
	MaxUses         int             `dynamodbav:"maxUses" json:"maxUses"` // 0 = unlimited, email-bound invitations are always 1
	UseCount        int             `dynamodbav:"useCount" json:"useCount"`
	ExpiresAt       time.Time       `dynamodbav:"expiresAt" json:"expiresAt"`
	CreatedAt       time.Time       `dynamodbav:"createdAt" json:"createdAt"`
	RedeemedAt      *time.Time      `dynamodbav:"redeemedAt,omitempty" json:"redeemedAt,omitempty"`
	TTL             int64           `dynamodbav:"ttl" json:"-"` // DynamoDB native TTL, storage reclamation only
}

// TableName returns the DynamoDB table name
func (Invitation) TableName() string {
	return "Invitations"
}

// ExpiredAt reports whether the invitation is past its deadline at the given
// instant. Expiry is evaluated lazily at every read; the stored status is not
// authoritative for it.
func (i Invitation) ExpiredAt(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// SingleUse reports whether redeeming the invitation once exhausts it.
func (i Invitation) SingleUse() bool {
	return i.MaxUses == 1
}

// Exhausted reports whether the use budget is spent. MaxUses of zero means
// the code may be redeemed any number of times while it is alive.
func (i Invitation) Exhausted() bool {
	return i.MaxUses > 0 && i.UseCount >= i.MaxUses
}
