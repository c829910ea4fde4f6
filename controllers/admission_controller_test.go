package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"interview_server/models"
	"interview_server/services"

	"github.com/gorilla/mux"
)

func newRedeemRouter(t *testing.T) (*mux.Router, *services.AdmissionService, models.Room) {
	t.Helper()

	rooms := services.NewMemoryRoomStore()
	room := models.Room{
		ID:         "room-http",
		HostUserID: "host-1",
		Title:      "Phone screen",
		Status:     models.RoomStatusLive,
		Settings:   models.RoomSettings{MaxParticipants: 5},
	}
	if err := rooms.Create(context.Background(), room); err != nil {
		t.Fatalf("create room: %v", err)
	}

	registry := services.NewRoomRegistry(services.NopNotifier{}, 30*time.Second, 5*time.Minute)
	t.Cleanup(registry.Close)
	registry.Activate(room)

	svc := &services.AdmissionService{
		Invitations: &services.InvitationService{
			Store:      services.NewMemoryInvitationStore(),
			Rooms:      rooms,
			Codes:      services.CodeGenerator{},
			DefaultTTL: 72 * time.Hour,
		},
		Registry: registry,
		Limiter:  services.NewRateLimiter(10, time.Minute),
		Rooms:    rooms,
	}

	router := mux.NewRouter()
	controller := &AdmissionController{AdmissionService: svc}
	router.HandleFunc("/api/invitations/redeem", controller.RedeemHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/heartbeat", controller.HeartbeatHandler).Methods(http.MethodPost)
	return router, svc, room
}

func postRedeem(router *mux.Router, joinCode, addr string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"joinCode": joinCode})
	req := httptest.NewRequest(http.MethodPost, "/api/invitations/redeem", bytes.NewReader(body))
	req.RemoteAddr = addr + ":51234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRedeemHandlerSuccess(t *testing.T) {
	router, svc, room := newRedeemRouter(t)

	inv, err := svc.Invitations.CreateInvitation(context.Background(), services.CreateInvitationInput{
		RoomID: room.ID, HostUserID: room.HostUserID, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	rec := postRedeem(router, inv.JoinCode, "10.9.0.1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ticket models.WaitingTicket
	if err := json.Unmarshal(rec.Body.Bytes(), &ticket); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if ticket.RoomID != room.ID || ticket.Identity == "" {
		t.Fatalf("ticket = %+v", ticket)
	}
}

func TestRedeemHandlerRejectsBadBody(t *testing.T) {
	router, _, _ := newRedeemRouter(t)

	for _, body := range []string{"", "{}", `{"joinCode":""}`, "not json"} {
		req := httptest.NewRequest(http.MethodPost, "/api/invitations/redeem", bytes.NewBufferString(body))
		req.RemoteAddr = "10.9.0.2:51234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestRedeemHandlerUnknownCodeIsGeneric404(t *testing.T) {
	router, _, _ := newRedeemRouter(t)

	rec := postRedeem(router, "NOSUCHCODE99", "10.9.0.3")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["message"] != genericInviteMessage {
		t.Fatalf("message = %q, want the generic invite message", resp["message"])
	}
}

func TestRedeemHandlerRevokedCodeLooksUnknown(t *testing.T) {
	router, svc, room := newRedeemRouter(t)

	inv, err := svc.Invitations.CreateInvitation(context.Background(), services.CreateInvitationInput{
		RoomID: room.ID, HostUserID: room.HostUserID, PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	if err := svc.Invitations.Revoke(context.Background(), inv.ID, room.HostUserID); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked := postRedeem(router, inv.JoinCode, "10.9.0.4")
	unknown := postRedeem(router, "NOSUCHCODE99", "10.9.0.4")
	if revoked.Code != unknown.Code {
		t.Fatalf("status %d for revoked vs %d for unknown", revoked.Code, unknown.Code)
	}
	if revoked.Body.String() != unknown.Body.String() {
		t.Fatalf("revoked body %q differs from unknown body %q", revoked.Body.String(), unknown.Body.String())
	}
}

func TestRedeemHandlerRateLimitMatchesNotFoundShape(t *testing.T) {
	router, _, _ := newRedeemRouter(t)

	// Burn the per-source budget with wrong codes, keeping one response to
	// compare against.
	var notFound *httptest.ResponseRecorder
	for i := 0; i < 10; i++ {
		notFound = postRedeem(router, "NOSUCHCODE99", "10.9.0.5")
	}
	limited := postRedeem(router, "NOSUCHCODE99", "10.9.0.5")

	if limited.Code != notFound.Code {
		t.Fatalf("status %d when limited vs %d when unknown", limited.Code, notFound.Code)
	}
	var limitedResp, notFoundResp map[string]string
	if err := json.Unmarshal(limited.Body.Bytes(), &limitedResp); err != nil {
		t.Fatalf("decode limited: %v", err)
	}
	if err := json.Unmarshal(notFound.Body.Bytes(), &notFoundResp); err != nil {
		t.Fatalf("decode not found: %v", err)
	}
	if limitedResp["message"] != notFoundResp["message"] {
		t.Fatalf("limited message %q differs from not-found message %q", limitedResp["message"], notFoundResp["message"])
	}
	if len(limitedResp) != len(notFoundResp) {
		t.Fatalf("limited response has %d fields, not-found has %d", len(limitedResp), len(notFoundResp))
	}
	if limitedResp["error"] != "RateLimited" {
		t.Fatalf("error code = %q, want RateLimited", limitedResp["error"])
	}
}

func TestHeartbeatHandler(t *testing.T) {
	router, svc, room := newRedeemRouter(t)

	inv, err := svc.Invitations.CreateInvitation(context.Background(), services.CreateInvitationInput{
		RoomID: room.ID, HostUserID: room.HostUserID,
		InviteeEmail:    "frank@example.com",
		PermissionLevel: models.PermissionGuest,
	})
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}
	rec := postRedeem(router, inv.JoinCode, "10.9.0.6")
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var ticket models.WaitingTicket
	if err := json.Unmarshal(rec.Body.Bytes(), &ticket); err != nil {
		t.Fatalf("decode ticket: %v", err)
	}
	if ticket.Secret == "" {
		t.Fatal("redemption returned a ticket without a secret")
	}

	heartbeat := func(identity, secret string) int {
		req := httptest.NewRequest(http.MethodPost,
			"/api/rooms/"+room.ID+"/participants/"+identity+"/heartbeat", nil)
		if secret != "" {
			req.Header.Set("X-Ticket-Secret", secret)
		}
		hb := httptest.NewRecorder()
		router.ServeHTTP(hb, req)
		return hb.Code
	}

	if code := heartbeat(ticket.Identity, ticket.Secret); code != http.StatusOK {
		t.Fatalf("heartbeat status = %d, want 200", code)
	}

	// Knowing the identity alone is not enough; without the ticket secret
	// the participant looks unknown.
	if code := heartbeat(ticket.Identity, ""); code != http.StatusNotFound {
		t.Fatalf("no-secret heartbeat status = %d, want 404", code)
	}
	if code := heartbeat(ticket.Identity, "wrong-secret"); code != http.StatusNotFound {
		t.Fatalf("wrong-secret heartbeat status = %d, want 404", code)
	}

	// An identity the room has never seen gets the same 404.
	if code := heartbeat("ghost", ticket.Secret); code != http.StatusNotFound {
		t.Fatalf("ghost heartbeat status = %d, want 404", code)
	}
}
