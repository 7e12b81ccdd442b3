package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/platform/auth"
)

// SignalFrame is one signaling message, relayed verbatim between the two
// call participants. Signal carries the peer-connection payload (SDP offer,
// answer, ICE candidates) and is opaque to the server.
type SignalFrame struct {
	Event  string          `json:"event"`
	From   string          `json:"from,omitempty"`
	To     string          `json:"to,omitempty"`
	Signal json.RawMessage `json:"signal,omitempty"`
}

// Signaling events exchanged with clients.
const (
	SignalJoinRoom   = "join-room"
	SignalUserJoined = "user-joined"
	SignalCallUser   = "call-user"
	SignalAnswerCall = "answer-call"
	SignalUserLeft   = "user-left"
)

// RoomAuthorizer decides whether a user may join a consultation room. The
// appointment domain backs it with a participant check.
type RoomAuthorizer interface {
	AuthorizeRoom(ctx context.Context, roomID, userID string) error
}

type signalPeer struct {
	userID string
	send   chan []byte
}

// SignalHub relays call signaling between the participants of a room. It
// implements no media logic; frames pass through untouched.
type SignalHub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*signalPeer // roomID -> userID -> peer
}

func NewSignalHub() *SignalHub {
	return &SignalHub{rooms: make(map[string]map[string]*signalPeer)}
}

// Join adds a peer to a room and notifies the other participants.
func (s *SignalHub) Join(roomID, userID string) *signalPeer {
	peer := &signalPeer{userID: userID, send: make(chan []byte, 64)}

	s.mu.Lock()
	if s.rooms[roomID] == nil {
		s.rooms[roomID] = make(map[string]*signalPeer)
	}
	// A reconnect replaces the previous peer for the same user.
	if old, ok := s.rooms[roomID][userID]; ok {
		close(old.send)
	}
	s.rooms[roomID][userID] = peer
	s.mu.Unlock()

	s.relayToOthers(roomID, userID, SignalFrame{Event: SignalUserJoined, From: userID})
	return peer
}

// Leave removes a peer and notifies the rest of the room.
func (s *SignalHub) Leave(roomID string, peer *signalPeer) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if ok && room[peer.userID] == peer {
		delete(room, peer.userID)
		close(peer.send)
		if len(room) == 0 {
			delete(s.rooms, roomID)
		}
	}
	s.mu.Unlock()

	if ok {
		s.relayToOthers(roomID, peer.userID, SignalFrame{Event: SignalUserLeft, From: peer.userID})
	}
}

// Relay forwards a frame from one participant. Frames with an explicit To
// go to that user only; others go to everyone else in the room.
func (s *SignalHub) Relay(roomID, fromUserID string, frame SignalFrame) {
	frame.From = fromUserID
	if frame.To != "" {
		s.relayTo(roomID, frame.To, frame)
		return
	}
	s.relayToOthers(roomID, fromUserID, frame)
}

// RoomSize returns the number of peers currently in a room.
func (s *SignalHub) RoomSize(roomID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[roomID])
}

func (s *SignalHub) relayTo(roomID, toUserID string, frame SignalFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if peer, ok := s.rooms[roomID][toUserID]; ok {
		select {
		case peer.send <- data:
		default:
		}
	}
}

func (s *SignalHub) relayToOthers(roomID, fromUserID string, frame SignalFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for uid, peer := range s.rooms[roomID] {
		if uid == fromUserID {
			continue
		}
		select {
		case peer.send <- data:
		default:
		}
	}
}

// SignalHandler exposes the signaling hub over a per-consultation WebSocket.
type SignalHandler struct {
	hub        *SignalHub
	authorizer RoomAuthorizer
}

func NewSignalHandler(hub *SignalHub, authorizer RoomAuthorizer) *SignalHandler {
	return &SignalHandler{hub: hub, authorizer: authorizer}
}

func (sh *SignalHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/consultations/:id", sh.HandleConnect)
}

func (sh *SignalHandler) HandleConnect(c echo.Context) error {
	principal := auth.PrincipalFromContext(c.Request().Context())
	if principal == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	roomID := c.Param("id")
	if err := sh.authorizer.AuthorizeRoom(c.Request().Context(), roomID, principal.ID); err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "not a participant of this consultation")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	peer := sh.hub.Join(roomID, principal.ID)

	go func() {
		defer ws.Close()
		for data := range peer.send {
			if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
				return
			}
		}
	}()

	go func() {
		defer func() {
			sh.hub.Leave(roomID, peer)
			ws.Close()
		}()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var frame SignalFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			sh.hub.Relay(roomID, principal.ID, frame)
		}
	}()

	return nil
}
