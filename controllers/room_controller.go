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

// RoomController handles HTTP requests for room lifecycle actions
type RoomController struct {
	RoomService *services.RoomService
}

// CreateRoomHandler creates a new scheduled room owned by the caller.
func (c *RoomController) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title       string              `json:"title"`
		ScheduledAt time.Time           `json:"scheduledAt"`
		Settings    models.RoomSettings `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	room, err := c.RoomService.CreateRoom(r.Context(), services.CreateRoomInput{
		HostUserID:  middleware.UserID(r),
		Title:       request.Title,
		ScheduledAt: request.ScheduledAt,
		Settings:    request.Settings,
	})
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, room)
}

// StartRoomHandler moves a scheduled room live.
func (c *RoomController) StartRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	room, err := c.RoomService.Start(r.Context(), roomID, middleware.UserID(r))
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, room)
}

// EndRoomHandler ends a live room; everyone still connected is kicked.
func (c *RoomController) EndRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	room, err := c.RoomService.End(r.Context(), roomID, middleware.UserID(r))
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, room)
}

// GetRoomHandler returns the room and, while live, its participant snapshot.
func (c *RoomController) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]
	room, participants, err := c.RoomService.Get(r.Context(), roomID, middleware.UserID(r))
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"room":         room,
		"participants": participants,
	})
}

// ListRoomsHandler returns the caller's rooms.
func (c *RoomController) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, err := c.RoomService.ListByHost(r.Context(), middleware.UserID(r))
	if err != nil {
		writeHostError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, rooms)
}
