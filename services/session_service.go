// Session owns the networking side of one game room: clients register and
// unregister through channels and every inbound frame is applied by the
// Run() loop, so the game state machine only ever sees one message at a
// time. The manager tracks live rooms and destroys a session once the last
// client leaves.
package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"palermoJusticeAPI/internal/game"
	"palermoJusticeAPI/internal/logger"
	"palermoJusticeAPI/middleware"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

type frame struct {
	client *Client
	data   []byte
}

// RoomInfo is the public listing entry for one room.
type RoomInfo struct {
	RoomID   string      `json:"roomId"`
	HostName string      `json:"hostName"`
	State    game.Status `json:"state"`
	Phase    game.Phase  `json:"currentPhase"`
	Players  int         `json:"players"`
}

type Session struct {
	ID      string
	Game    *game.Game
	Router  *game.Router
	Manager *RoomManager

	Clients    map[*Client]bool
	players    map[string]*Client // player id -> connection
	Inbound    chan frame
	Register   chan *Client
	Unregister chan *Client

	// Copy of the listing data, safe to read from outside the Run loop.
	infoMu sync.Mutex
	info   RoomInfo
}

func NewSession(id, hostName string, manager *RoomManager) *Session {
	g := game.NewGame(id)
	g.SetHostName(hostName)
	return &Session{
		ID:         id,
		Game:       g,
		Router:     game.NewRouter(g),
		Manager:    manager,
		Clients:    make(map[*Client]bool),
		players:    make(map[string]*Client),
		Inbound:    make(chan frame, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		info:       RoomInfo{RoomID: id, HostName: hostName, State: game.StatusWaiting, Phase: game.PhaseLobby},
	}
}

// Info returns the current listing entry.
func (s *Session) Info() RoomInfo {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.info
}

func (s *Session) updateInfo() {
	s.infoMu.Lock()
	s.info = RoomInfo{
		RoomID:   s.ID,
		HostName: s.Game.HostName(),
		State:    s.Game.Status(),
		Phase:    s.Game.Phase(),
		Players:  s.Game.Registry().Len(),
	}
	s.infoMu.Unlock()
}

// Run is the single writer for the room. It returns when the room empties.
func (s *Session) Run() {
	for {
		select {
		case client := <-s.Register:
			s.Clients[client] = true
			middleware.ClientConnected()
			logger.Log.Infof("room %s: client connected, count=%d", s.ID, len(s.Clients))

		case client := <-s.Unregister:
			if s.disconnect(client) {
				return
			}

		case f := <-s.Inbound:
			s.handleFrame(f)
		}
	}
}

// disconnect removes the client, detaches its player and reports whether
// the session should shut down.
func (s *Session) disconnect(client *Client) (empty bool) {
	if _, ok := s.Clients[client]; !ok {
		return false
	}
	delete(s.Clients, client)
	close(client.Send)
	middleware.ClientDisconnected()

	if client.PlayerID != "" {
		delete(s.players, client.PlayerID)
	}
	if client.PlayerName != "" {
		// In the lobby this removes the roster entry; mid-game the record
		// stays so the player keeps existing for history and win checks.
		raw, _ := game.EncodeMessage(game.MessageLeaveRoom, game.LeavePayload{PlayerName: client.PlayerName})
		s.deliver(s.Router.Route(raw))
	}
	s.updateInfo()

	if len(s.Clients) == 0 {
		logger.Log.Infof("room %s: empty, destroying", s.ID)
		s.Manager.DeleteSession(s.ID)
		return true
	}
	return false
}

func (s *Session) handleFrame(f frame) {
	msg, err := game.DecodeMessage(f.data)
	if err != nil {
		logger.Log.Warnf("room %s: dropping frame: %v", s.ID, err)
		return
	}
	middleware.MessageRouted(string(msg.Type))

	outs := s.Router.RouteMessage(msg)

	if msg.Type == game.MessageJoinRoom {
		s.bindJoinedPlayer(f.client, msg)
	}

	s.deliver(outs)
	s.updateInfo()
}

// bindJoinedPlayer attaches the connection to the roster entry the join
// created and tells the client its player id.
func (s *Session) bindJoinedPlayer(client *Client, msg game.GameMessage) {
	var p game.JoinPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil || p.PlayerName == "" {
		return
	}
	player := s.Game.Registry().FindByName(p.PlayerName)
	if player == nil {
		return // join was rejected (e.g. game already running)
	}
	client.PlayerID = player.ID
	client.PlayerName = player.Name
	s.players[player.ID] = client

	ack, err := game.EncodeMessage(game.MessageJoinRoom, map[string]string{
		"roomId":     s.ID,
		"playerId":   player.ID,
		"playerName": player.Name,
	})
	if err != nil {
		logger.Log.Errorf("room %s: join ack: %v", s.ID, err)
		return
	}
	client.trySend(ack)
}

// deliver fans outbound messages to the room or to a single player.
func (s *Session) deliver(outs []game.Outbound) {
	for _, out := range outs {
		data, err := json.Marshal(out.Message)
		if err != nil {
			logger.Log.Errorf("room %s: marshal outbound: %v", s.ID, err)
			continue
		}
		if out.TargetID == "" {
			s.broadcast(data)
			continue
		}
		if client, ok := s.players[out.TargetID]; ok {
			client.trySend(data)
		}
	}
}

func (s *Session) broadcast(data []byte) {
	for client := range s.Clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer: drop the connection rather than stall the room.
			close(client.Send)
			delete(s.Clients, client)
			if client.PlayerID != "" {
				delete(s.players, client.PlayerID)
			}
		}
	}
}

// Client sits between one websocket connection and the session.
type Client struct {
	Session    *Session
	Conn       *websocket.Conn
	Send       chan []byte
	PlayerID   string
	PlayerName string
}

func NewClient(session *Session, conn *websocket.Conn) *Client {
	return &Client{
		Session: session,
		Conn:    conn,
		Send:    make(chan []byte, 256),
	}
}

func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

// ReadPump moves frames from the websocket into the session's inbound
// channel until the connection dies.
func (c *Client) ReadPump() {
	defer func() {
		c.Session.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnf("room %s: read: %v", c.Session.ID, err)
			}
			return
		}
		c.Session.Inbound <- frame{client: c, data: message}
	}
}

// WritePump drains the send channel to the websocket and keeps the
// connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The session closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RoomManager holds every active room.
type RoomManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

func NewRoomManager() *RoomManager {
	return &RoomManager{sessions: make(map[string]*Session)}
}

// CreateSession opens a room and starts its Run loop. Creating an existing
// room returns the running session unchanged.
func (m *RoomManager) CreateSession(roomID, hostName string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[roomID]; ok {
		return s
	}
	s := NewSession(roomID, hostName, m)
	m.sessions[roomID] = s
	middleware.RoomOpened()
	go s.Run()
	return s
}

func (m *RoomManager) GetSession(roomID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[roomID]
	return s, ok
}

func (m *RoomManager) DeleteSession(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[roomID]; ok {
		delete(m.sessions, roomID)
		middleware.RoomClosed()
	}
}

// PublicSessions lists rooms for the join screen. Empty slice, never nil,
// so the JSON stays [] instead of null.
func (m *RoomManager) PublicSessions() []RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]RoomInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		rooms = append(rooms, s.Info())
	}
	return rooms
}
