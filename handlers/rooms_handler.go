package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"palermoJusticeAPI/internal/logger"
	"palermoJusticeAPI/services"
	"palermoJusticeAPI/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RoomsHandler struct {
	manager *services.RoomManager
}

func NewRoomsHandler(manager *services.RoomManager) *RoomsHandler {
	return &RoomsHandler{manager: manager}
}

// CreateRoom opens a new room and hands back the shareable code plus the
// websocket path to join it on.
func (h *RoomsHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostName string `json:"hostName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HostName == "" {
		respondWithError(w, http.StatusBadRequest, "hostName is required")
		return
	}

	roomID := utils.NewRoomCode(6)
	h.manager.CreateSession(roomID, req.HostName)
	logger.Log.Infof("room %s created by %s", roomID, req.HostName)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"roomId": roomID,
		"wsUrl":  "/api/v1/rooms/ws/" + roomID,
	})
}

// GetPublicRooms lists open rooms for the join screen.
func (h *RoomsHandler) GetPublicRooms(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.manager.PublicSessions())
}

// GetRoomInfo answers "does this code exist and what is it doing".
func (h *RoomsHandler) GetRoomInfo(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]

	session, exists := h.manager.GetSession(roomID)
	if !exists {
		respondWithError(w, http.StatusNotFound, "room not found")
		return
	}
	respondWithJSON(w, http.StatusOK, session.Info())
}

// JoinRoom upgrades the connection and registers the client with the
// room's session. The player entry itself is created by the JOIN_ROOM
// message the client sends over the socket.
func (h *RoomsHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]

	session, exists := h.manager.GetSession(roomID)
	if !exists {
		respondWithError(w, http.StatusNotFound, "room not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("room %s: upgrade failed: %v", roomID, err)
		return
	}

	client := services.NewClient(session, conn)
	session.Register <- client
	go client.WritePump()
	go client.ReadPump()
}
