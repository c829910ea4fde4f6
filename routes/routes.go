package routes

import (
	"net/http"

	"interview_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterBaseRoutes registers the welcome and health endpoints.
func RegisterBaseRoutes(router *mux.Router) {
	router.HandleFunc("/", controllers.WelcomeHandler).Methods(http.MethodGet)
	router.HandleFunc("/health", controllers.HealthCheckHandler).Methods(http.MethodGet)
}
