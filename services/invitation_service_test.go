package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview_server/models"
)

const testHost = "host-1"

func newTestRoom(t *testing.T, rooms RoomStore, status string) models.Room {
	t.Helper()
	room := models.Room{
		ID:         "room-" + status,
		HostUserID: testHost,
		Title:      "Backend screen",
		Status:     status,
		Settings:   models.RoomSettings{MaxParticipants: 5},
	}
	if err := rooms.Create(context.Background(), room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	return room
}

func newInvitationService(t *testing.T) (*InvitationService, *MemoryRoomStore, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &now
	rooms := NewMemoryRoomStore()
	svc := &InvitationService{
		Store:      NewMemoryInvitationStore(),
		Rooms:      rooms,
		Codes:      CodeGenerator{},
		DefaultTTL: 72 * time.Hour,
		Now:        func() time.Time { return *clock },
	}
	return svc, rooms, clock
}

// seqCodes hands out a fixed sequence of join codes.
type seqCodes struct {
	codes []string
	next  int
}

func (s *seqCodes) GenerateJoinCode() (string, error) {
	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

func (s *seqCodes) GenerateToken() (string, error) { return "fixed-token", nil }

func TestCreateInvitationCodesAreDistinct(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
			RoomID:          room.ID,
			HostUserID:      testHost,
			PermissionLevel: models.PermissionGuest,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if _, dup := seen[inv.JoinCode]; dup {
			t.Fatalf("duplicate join code %q", inv.JoinCode)
		}
		seen[inv.JoinCode] = struct{}{}
		if inv.Status != models.InvitationStatusPending {
			t.Fatalf("status = %q, want pending", inv.Status)
		}
	}
}

func TestCreateInvitationRejectsNonHost(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID:          room.ID,
		HostUserID:      "someone-else",
		PermissionLevel: models.PermissionGuest,
	})
	if !errors.Is(err, ErrNotHost) {
		t.Fatalf("err = %v, want ErrNotHost", err)
	}
}

func TestCreateInvitationRejectsEndedRoom(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusEnded)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID:          room.ID,
		HostUserID:      testHost,
		PermissionLevel: models.PermissionGuest,
	})
	if !errors.Is(err, ErrRoomEnded) {
		t.Fatalf("err = %v, want ErrRoomEnded", err)
	}
}

func TestCreateInvitationDuplicateEmail(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusScheduled)

	in := CreateInvitationInput{
		RoomID:          room.ID,
		HostUserID:      testHost,
		InviteeEmail:    "alice@example.com",
		PermissionLevel: models.PermissionGuest,
	}
	inv, err := svc.CreateInvitation(context.Background(), in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if inv.MaxUses != 1 {
		t.Fatalf("email-bound invitation MaxUses = %d, want 1", inv.MaxUses)
	}

	_, err = svc.CreateInvitation(context.Background(), in)
	if !errors.Is(err, ErrDuplicatePendingInvitation) {
		t.Fatalf("second create err = %v, want ErrDuplicatePendingInvitation", err)
	}
}

func TestCreateInvitationDuplicateEmailAllowedAfterExpiry(t *testing.T) {
	svc, rooms, clock := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	in := CreateInvitationInput{
		RoomID:          room.ID,
		HostUserID:      testHost,
		InviteeEmail:    "bob@example.com",
		PermissionLevel: models.PermissionGuest,
		ExpiresIn:       time.Hour,
	}
	if _, err := svc.CreateInvitation(context.Background(), in); err != nil {
		t.Fatalf("first create: %v", err)
	}

	*clock = clock.Add(2 * time.Hour)
	if _, err := svc.CreateInvitation(context.Background(), in); err != nil {
		t.Fatalf("create after previous expired: %v", err)
	}
}

func TestCreateInvitationRetriesCollisions(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)
	svc.Codes = &seqCodes{codes: []string{"AAAAAAAAAAAA", "AAAAAAAAAAAA", "BBBBBBBBBBBB", "CCCCCCCCCCCC"}}

	first, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if first.JoinCode == second.JoinCode {
		t.Fatal("collision was not retried")
	}
}

func TestCreateInvitationRetryExhaustion(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)
	svc.Codes = &seqCodes{codes: []string{"SAMECODEXXXX"}}

	if _, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Fatalf("err = %v, want ErrCodeSpaceExhausted", err)
	}
}

func TestValidateForRedemptionLazyExpiry(t *testing.T) {
	svc, rooms, clock := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
		ExpiresIn: time.Second,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// No sweep ever ran; the stored status is still pending, but the clock
	// alone decides.
	*clock = clock.Add(2 * time.Second)
	_, err = svc.ValidateForRedemption(context.Background(), inv.JoinCode)
	if !errors.Is(err, ErrInvitationExpired) {
		t.Fatalf("err = %v, want ErrInvitationExpired", err)
	}
	_, err = svc.CommitRedemption(context.Background(), inv.JoinCode)
	if !errors.Is(err, ErrInvitationExpired) {
		t.Fatalf("commit err = %v, want ErrInvitationExpired", err)
	}
}

func TestSingleUseCodeRedeemsOnce(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost,
		InviteeEmail:    "carol@example.com",
		PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.CommitRedemption(context.Background(), inv.JoinCode)
	if err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if got.Status != models.InvitationStatusAccepted || got.RedeemedAt == nil {
		t.Fatalf("after redemption: status=%q redeemedAt=%v", got.Status, got.RedeemedAt)
	}

	_, err = svc.CommitRedemption(context.Background(), inv.JoinCode)
	if !errors.Is(err, ErrInvitationAlreadyUsed) {
		t.Fatalf("second redemption err = %v, want ErrInvitationAlreadyUsed", err)
	}
}

func TestMultiUseCodeHonorsMaxUses(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost,
		PermissionLevel: models.PermissionGuest,
		MaxUses:         2,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.CommitRedemption(context.Background(), inv.JoinCode); err != nil {
			t.Fatalf("redemption %d: %v", i+1, err)
		}
	}
	_, err = svc.CommitRedemption(context.Background(), inv.JoinCode)
	if !errors.Is(err, ErrInvitationAlreadyUsed) {
		t.Fatalf("third redemption err = %v, want ErrInvitationAlreadyUsed", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Revoke(context.Background(), inv.ID, testHost); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := svc.Revoke(context.Background(), inv.ID, testHost); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
	_, err = svc.ValidateForRedemption(context.Background(), inv.JoinCode)
	if !errors.Is(err, ErrInvitationRevoked) {
		t.Fatalf("validate err = %v, want ErrInvitationRevoked", err)
	}
}

func TestRevokeRequiresHost(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Revoke(context.Background(), inv.ID, "intruder"); !errors.Is(err, ErrNotHost) {
		t.Fatalf("err = %v, want ErrNotHost", err)
	}
}

func TestUpdatePendingOnlyWhilePending(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	name := "Dana"
	updated, err := svc.UpdatePending(context.Background(), inv.ID, testHost, PendingUpdate{InviteeName: &name})
	if err != nil {
		t.Fatalf("update pending: %v", err)
	}
	if updated.InviteeName != "Dana" {
		t.Fatalf("InviteeName = %q, want Dana", updated.InviteeName)
	}

	if _, err := svc.CommitRedemption(context.Background(), inv.JoinCode); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if _, err := svc.UpdatePending(context.Background(), inv.ID, testHost, PendingUpdate{InviteeName: &name}); err == nil {
		t.Fatal("update after redemption should fail")
	}
}

func TestCreateInvitationEmitsMailEvent(t *testing.T) {
	svc, rooms, _ := newInvitationService(t)
	room := newTestRoom(t, rooms, models.RoomStatusLive)
	created := make(chan models.InvitationCreated, 1)
	svc.Created = created

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		RoomID: room.ID, HostUserID: testHost,
		InviteeEmail:    "eve@example.com",
		PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	select {
	case ev := <-created:
		if ev.Invitation.ID != inv.ID {
			t.Fatalf("event for %q, want %q", ev.Invitation.ID, inv.ID)
		}
	default:
		t.Fatal("no mail event emitted")
	}
}
