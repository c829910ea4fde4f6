package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"strings"

	"interview_server/middleware"
	"interview_server/models"
	"interview_server/services"
	"interview_server/utils"

	"github.com/gorilla/mux"
)

// AdmissionController handles join-code redemption and the host's
// waiting-room decisions.
type AdmissionController struct {
	AdmissionService *services.AdmissionService
}

// RedeemHandler is the public guest entry point. All failure modes that
// could leak whether a code exists share one 404 shape and one message; the
// precise reason goes to the log only.
func (c *AdmissionController) RedeemHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JoinCode    string `json:"joinCode"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.JoinCode == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := c.AdmissionService.RedeemJoinCode(r.Context(), request.JoinCode, request.DisplayName, clientAddr(r))
	if err != nil {
		c.writeRedeemError(w, r, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, ticket)
}

func (c *AdmissionController) writeRedeemError(w http.ResponseWriter, r *http.Request, err error) {
	if services.IsSecuritySensitive(err) {
		log.Printf("redemption rejected from %s: %v", clientAddr(r), err)
		code := "NotFound"
		switch {
		case errors.Is(err, services.ErrInvitationExpired):
			code = "Expired"
		case errors.Is(err, services.ErrInvitationAlreadyUsed):
			code = "AlreadyUsed"
		case errors.Is(err, services.ErrRateLimited):
			code = "RateLimited"
		}
		utils.WriteErrorResponse(w, http.StatusNotFound, code, genericInviteMessage)
		return
	}
	switch {
	case errors.Is(err, services.ErrRoomFull):
		utils.WriteErrorResponse(w, http.StatusConflict, "RoomFull", "the session is at capacity")
	case errors.Is(err, services.ErrRoomNotLive), errors.Is(err, services.ErrRoomNotFound):
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, "RoomNotLive", "the session has not started yet")
	default:
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal", "internal error")
	}
}

// AdmitHandler moves a waiting guest into the session.
func (c *AdmissionController) AdmitHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.AdmissionService.Admit(vars["roomId"], middleware.UserID(r), vars["identity"]); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Participant admitted"})
}

// RejectHandler removes a waiting guest.
func (c *AdmissionController) RejectHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.AdmissionService.Reject(vars["roomId"], middleware.UserID(r), vars["identity"]); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Participant rejected"})
}

// KickHandler terminates a participant's session.
func (c *AdmissionController) KickHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := c.AdmissionService.Kick(vars["roomId"], middleware.UserID(r), vars["identity"]); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Participant kicked"})
}

// SetPermissionHandler changes a participant's permission level.
func (c *AdmissionController) SetPermissionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var request struct {
		PermissionLevel string `json:"permissionLevel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	level := models.PermissionLevel(request.PermissionLevel)
	if !level.Valid() {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "InvalidPermissionLevel", "unknown permission level")
		return
	}
	if err := c.AdmissionService.SetPermission(vars["roomId"], middleware.UserID(r), vars["identity"], level); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Permission updated"})
}

// HeartbeatHandler is the participant's own liveness ping; it is idempotent.
// The caller proves slot ownership with the ticket secret from redemption; a
// missing or wrong secret looks exactly like an unknown participant.
func (c *AdmissionController) HeartbeatHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	secret := r.Header.Get("X-Ticket-Secret")
	if err := c.AdmissionService.Heartbeat(vars["roomId"], vars["identity"], secret); err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "ok"})
}

// clientAddr extracts the caller's address for rate limiting, trusting the
// first X-Forwarded-For hop when present.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
