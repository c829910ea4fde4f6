package routes

import (
	"net/http"

	"interview_server/controllers"
	"interview_server/services"

	"github.com/gorilla/mux"
)

// RegisterRoomRoutes registers room lifecycle routes under `/api/rooms`.
// The router passed in must already carry the auth middleware.
func RegisterRoomRoutes(router *mux.Router, roomService *services.RoomService) {
	controller := &controllers.RoomController{RoomService: roomService}

	roomRouter := router.PathPrefix("/api/rooms").Subrouter()
	roomRouter.HandleFunc("", controller.CreateRoomHandler).Methods(http.MethodPost)
	roomRouter.HandleFunc("", controller.ListRoomsHandler).Methods(http.MethodGet)
	roomRouter.HandleFunc("/{roomId}", controller.GetRoomHandler).Methods(http.MethodGet)
	roomRouter.HandleFunc("/{roomId}/start", controller.StartRoomHandler).Methods(http.MethodPost)
	roomRouter.HandleFunc("/{roomId}/end", controller.EndRoomHandler).Methods(http.MethodPost)
}
