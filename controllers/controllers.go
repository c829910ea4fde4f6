package controllers

import (
	"errors"
	"net/http"

	"interview_server/services"
	"interview_server/utils"
)

// HealthCheckHandler provides a basic health check
func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// WelcomeHandler provides a welcome message
func WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{"message": "Welcome to the Interview Rooms API."})
}

// genericInviteMessage is the single message every failed redemption shows a
// guest. Guests are untrusted; the precise reason stays in the logs.
const genericInviteMessage = "This invite link is no longer valid"

// writeHostError maps service errors to statuses for the trusted host
// surface, where specific, actionable errors are wanted.
func writeHostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotHost):
		utils.WriteErrorResponse(w, http.StatusForbidden, "NotHost", "only the room host may do this")
	case errors.Is(err, services.ErrRoomNotFound), errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrParticipantNotFound):
		utils.WriteErrorResponse(w, http.StatusNotFound, "NotFound", "not found")
	case errors.Is(err, services.ErrDuplicatePendingInvitation):
		utils.WriteErrorResponse(w, http.StatusConflict, "DuplicatePendingInvitation", err.Error())
	case errors.Is(err, services.ErrParticipantNotWaiting):
		utils.WriteErrorResponse(w, http.StatusConflict, "ParticipantNotWaiting", "participant is no longer waiting")
	case errors.Is(err, services.ErrInvitationAlreadyUsed):
		utils.WriteErrorResponse(w, http.StatusConflict, "AlreadyUsed", "invitation is no longer pending")
	case errors.Is(err, services.ErrRoomFull):
		utils.WriteErrorResponse(w, http.StatusConflict, "RoomFull", "room is at capacity")
	case errors.Is(err, services.ErrRoomEnded):
		utils.WriteErrorResponse(w, http.StatusConflict, "RoomEnded", "room has ended")
	case errors.Is(err, services.ErrRoomNotLive):
		utils.WriteErrorResponse(w, http.StatusConflict, "RoomNotLive", "room is not live")
	case errors.Is(err, services.ErrInvalidPermissionLevel):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "InvalidPermissionLevel", "unknown permission level")
	case errors.Is(err, services.ErrSelfEscalation):
		utils.WriteErrorResponse(w, http.StatusForbidden, "PermissionDenied", "permission change not allowed")
	default:
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal", "internal error")
	}
}
