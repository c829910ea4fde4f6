package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"interview_server/middleware"
	"interview_server/models"
	"interview_server/services"
	"interview_server/utils"

	"github.com/gorilla/mux"
)

// InvitationController handles the host-facing invitation surface.
type InvitationController struct {
	InvitationService *services.InvitationService
}

// CreateInvitationHandler creates an invitation for the room and returns the
// join code plus deep-link token.
func (c *InvitationController) CreateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	var request struct {
		Email            string `json:"email"`
		Name             string `json:"name"`
		PermissionLevel  string `json:"permissionLevel"`
		ExpiresInSeconds int64  `json:"expiresInSeconds"`
		MaxUses          int    `json:"maxUses"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	level := models.PermissionLevel(request.PermissionLevel)
	if !level.Valid() {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "InvalidPermissionLevel", "permissionLevel must be one of host, co-host, guest, viewer")
		return
	}

	inv, err := c.InvitationService.CreateInvitation(r.Context(), services.CreateInvitationInput{
		RoomID:          roomID,
		HostUserID:      middleware.UserID(r),
		InviteeEmail:    request.Email,
		InviteeName:     request.Name,
		PermissionLevel: level,
		ExpiresIn:       time.Duration(request.ExpiresInSeconds) * time.Second,
		MaxUses:         request.MaxUses,
	})
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, inv)
}

// ListInvitationsHandler returns the room's invitations with lazy expiry
// applied.
func (c *InvitationController) ListInvitationsHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	invs, err := c.InvitationService.ListByRoom(r.Context(), roomID, middleware.UserID(r))
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, invs)
}

// UpdateInvitationHandler edits invitee fields on a pending invitation.
func (c *InvitationController) UpdateInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["id"]
	var request struct {
		Email           *string `json:"email"`
		Name            *string `json:"name"`
		PermissionLevel *string `json:"permissionLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	upd := services.PendingUpdate{
		InviteeEmail: request.Email,
		InviteeName:  request.Name,
	}
	if request.PermissionLevel != nil {
		level := models.PermissionLevel(*request.PermissionLevel)
		upd.PermissionLevel = &level
	}
	inv, err := c.InvitationService.UpdatePending(r.Context(), invitationID, middleware.UserID(r), upd)
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, inv)
}

// RevokeInvitationHandler revokes a pending invitation. Revoking an already
// terminal invitation is a successful no-op.
func (c *InvitationController) RevokeInvitationHandler(w http.ResponseWriter, r *http.Request) {
	invitationID := mux.Vars(r)["id"]
	if err := c.InvitationService.Revoke(r.Context(), invitationID, middleware.UserID(r)); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Invitation revoked"})
}
