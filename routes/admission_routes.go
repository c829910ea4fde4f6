package routes

import (
	"net/http"

	"interview_server/controllers"
	"interview_server/services"

	"github.com/gorilla/mux"
)

// RegisterRedemptionRoutes registers the public guest endpoints: code
// redemption and the heartbeat self-call. These never sit behind auth.
func RegisterRedemptionRoutes(router *mux.Router, admissionService *services.AdmissionService) {
	controller := &controllers.AdmissionController{AdmissionService: admissionService}

	router.HandleFunc("/api/invitations/redeem", controller.RedeemHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/heartbeat", controller.HeartbeatHandler).Methods(http.MethodPost)
}

// RegisterAdmissionRoutes registers the host decision endpoints on the
// authenticated router.
func RegisterAdmissionRoutes(router *mux.Router, admissionService *services.AdmissionService) {
	controller := &controllers.AdmissionController{AdmissionService: admissionService}

	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/admit", controller.AdmitHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/reject", controller.RejectHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/kick", controller.KickHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/rooms/{roomId}/participants/{identity}/permission", controller.SetPermissionHandler).Methods(http.MethodPost)
}
