package game

import (
	"encoding/json"

	"example.com/ms-mvp/internal/engine"
)

// Envelope is the WS framing: {"type":"...","payload":{...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// client -> server

type CreateRoomPayload struct {
	PlayerName string             `json:"playerName"`
	Difficulty string             `json:"difficulty,omitempty"`
	Config     *engine.GameConfig `json:"config,omitempty"`
}

type JoinRoomPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type PlayerReadyPayload struct {
	RoomCode string `json:"roomCode"`
}

type MakeMovePayload struct {
	RoomCode string `json:"roomCode"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Action   string `json:"action"` // reveal|flag
}

// server -> client

// ConnectedPayload is the hello sent right after the upgrade. The token lets
// the client reclaim the same player id after a reconnect.
type ConnectedPayload struct {
	PlayerID string `json:"playerId"`
	Token    string `json:"token,omitempty"`
}

type RoomCreatedPayload struct {
	RoomCode string       `json:"roomCode"`
	Room     RoomSnapshot `json:"room"`
}

// RoomPayload is shared by player-joined, player-ready-update, game-started,
// game-updated and player-left: every broadcast carries the full room.
type RoomPayload struct {
	Room RoomSnapshot `json:"room"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
