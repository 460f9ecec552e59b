package game

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"example.com/ms-mvp/internal/engine"
	"example.com/ms-mvp/internal/httpapi"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // MVP
}

// ClientConn wraps one websocket with a buffered outbound queue. Sends are
// non-blocking: a client that stops reading loses messages instead of
// stalling the room.
type ClientConn struct {
	ws   *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *ClientConn) Send(env Envelope) {
	if c == nil {
		return
	}
	b, _ := json.Marshal(env)
	select {
	case c.send <- b:
	default:
	}
}

func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.ws.Close()
	})
}

// handleWS is the single websocket entry point. A connection is not bound
// to a room at dial time; create-room and join-room messages bind it.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID, name, token, ok := s.identify(w, r)
	if !ok {
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cc := &ClientConn{
		ws:   ws,
		send: make(chan []byte, 64),
	}
	s.mets.ConnOpened()

	// writer loop
	go func() {
		ticker := time.NewTicker(25 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-cc.send:
				if !ok {
					return
				}
				_ = ws.WriteMessage(websocket.TextMessage, msg)
			case <-ticker.C:
				_ = ws.WriteMessage(websocket.PingMessage, []byte{})
			}
		}
	}()

	cc.Send(Envelope{Type: "connected", Payload: mustJSON(ConnectedPayload{
		PlayerID: playerID,
		Token:    token,
	})})

	s.log.Debug().Str("player", playerID).Msg("ws connected")

	// reader loop; room is bound by the first successful create/join
	var room *Room
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.sendError(cc, &ProtocolError{Code: CodeBadJSON, Message: "invalid json"})
			continue
		}

		room = s.dispatch(cc, room, playerID, &name, env)
	}

	// disconnect
	if room != nil {
		room.HandleDisconnect(playerID)
	}
	cc.Close()
	s.mets.ConnClosed()
	s.log.Debug().Str("player", playerID).Msg("ws disconnected")
}

// identify resolves the player identity before the upgrade: a presented
// token keeps its player id across reconnects, otherwise a fresh id is
// minted and a token issued for it.
func (s *Server) identify(w http.ResponseWriter, r *http.Request) (playerID, name, token string, ok bool) {
	presented := r.URL.Query().Get("token")
	if presented == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			presented = strings.TrimPrefix(h, "Bearer ")
		}
	}

	if presented != "" {
		claims, err := s.verifier.Verify(presented)
		if err != nil {
			httpapi.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return "", "", "", false
		}
		return claims.PlayerID, claims.DisplayName, presented, true
	}

	playerID = uuid.NewString()
	token, err := s.issuer.Issue(playerID, "")
	if err != nil {
		s.log.Error().Err(err).Msg("issue player token")
		token = "" // connection still works, reconnection won't
	}
	return playerID, "", token, true
}

// dispatch routes one envelope and returns the (possibly updated) room the
// connection is bound to.
func (s *Server) dispatch(cc *ClientConn, room *Room, playerID string, name *string, env Envelope) *Room {
	switch env.Type {
	case "create-room":
		var p CreateRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(cc, errBadInput("invalid payload"))
			return room
		}
		if room != nil {
			s.sendError(cc, errBadInput("ya estás en una sala"))
			return room
		}
		if p.PlayerName != "" {
			*name = p.PlayerName
		}
		created, perr := s.createRoom(cc, playerID, *name, p)
		if perr != nil {
			s.sendError(cc, perr)
			return room
		}
		created.mu.Lock()
		snap := created.snapshotLocked()
		created.mu.Unlock()
		cc.Send(Envelope{Type: "room-created", Payload: mustJSON(RoomCreatedPayload{
			RoomCode: snap.Code,
			Room:     snap,
		})})
		return created

	case "join-room":
		var p JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(cc, errBadInput("invalid payload"))
			return room
		}
		code := strings.ToUpper(strings.TrimSpace(p.RoomCode))
		target, ok := s.rooms.Get(code)
		if !ok {
			s.sendError(cc, errRoomNotFound())
			return room
		}
		if p.PlayerName != "" {
			*name = p.PlayerName
		}
		if perr := target.Join(playerID, *name, cc); perr != nil {
			s.sendError(cc, perr)
			return room
		}
		// moving to another room counts as leaving the old one, otherwise
		// the abandoned room keeps a "connected" player forever
		if room != nil && room != target {
			room.HandleDisconnect(playerID)
		}
		return target

	case "player-ready":
		var p PlayerReadyPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(cc, errBadInput("invalid payload"))
			return room
		}
		// ready for a room that doesn't exist is silently ignored
		if target, ok := s.rooms.Get(strings.ToUpper(strings.TrimSpace(p.RoomCode))); ok {
			target.MarkReady(playerID)
		}
		return room

	case "make-move":
		var p MakeMovePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			s.sendError(cc, errBadInput("invalid payload"))
			return room
		}
		action := Action(p.Action)
		if action != ActionReveal && action != ActionFlag {
			s.sendError(cc, errBadInput("acción desconocida"))
			return room
		}
		target, ok := s.rooms.Get(strings.ToUpper(strings.TrimSpace(p.RoomCode)))
		if !ok {
			return room
		}
		if perr := target.MakeMove(playerID, p.Row, p.Col, action); perr != nil {
			s.sendError(cc, perr)
			return room
		}
		s.mets.IncMove(p.Action)
		return room

	default:
		s.sendError(cc, &ProtocolError{Code: CodeUnknownType, Message: "unknown message type"})
		return room
	}
}

func (s *Server) createRoom(cc *ClientConn, playerID, name string, p CreateRoomPayload) (*Room, *ProtocolError) {
	var cfg engine.GameConfig
	switch {
	case p.Difficulty != "":
		c, err := engine.ConfigFor(engine.Difficulty(p.Difficulty))
		if err != nil {
			return nil, errBadInput(err.Error())
		}
		cfg = c
	case p.Config != nil:
		cfg = *p.Config
	default:
		return nil, errBadInput("falta difficulty o config")
	}

	return s.rooms.Create(cfg, playerID, name, cc)
}

func (s *Server) sendError(cc *ClientConn, perr *ProtocolError) {
	s.mets.IncProtocolError(perr.Code)
	cc.Send(Envelope{Type: "error", Payload: mustJSON(ErrorPayload{
		Code:    perr.Code,
		Message: perr.Message,
	})})
}
