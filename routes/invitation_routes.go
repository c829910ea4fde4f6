package routes

import (
	"net/http"

	"interview_server/controllers"
	"interview_server/services"

	"github.com/gorilla/mux"
)

// RegisterInvitationRoutes registers the host-facing invitation routes on
// the authenticated router.
func RegisterInvitationRoutes(router *mux.Router, invitationService *services.InvitationService) {
	controller := &controllers.InvitationController{InvitationService: invitationService}

	router.HandleFunc("/api/rooms/{roomId}/invitations", controller.CreateInvitationHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/invitations", controller.ListInvitationsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/invitations/{id}", controller.UpdateInvitationHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/invitations/{id}", controller.RevokeInvitationHandler).Methods(http.MethodDelete)
}
