package game

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/ms-mvp/internal/auth"
)

// stubTokens issues trivially-decodable tokens so endpoint tests don't need
// real signing.
type stubTokens struct{}

func (stubTokens) Verify(token string) (*auth.Claims, error) {
	if id, ok := strings.CutPrefix(token, "pid:"); ok && id != "" {
		return &auth.Claims{PlayerID: id}, nil
	}
	return nil, errors.New("bad token")
}

func (stubTokens) Issue(playerID, _ string) (string, error) {
	return "pid:" + playerID, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := Config{HostGracePeriod: time.Minute, RoomIdleTTL: time.Hour}
	rooms := NewRegistry(cfg, zerolog.Nop(), nil)
	srv := NewServer(cfg, zerolog.Nop(), rooms, stubTokens{}, stubTokens{}, nil)

	r := chi.NewRouter()
	srv.RegisterRoutes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(Envelope{Type: msgType, Payload: mustJSON(payload)}))
}

// waitFor reads until an envelope of the wanted type arrives, skipping
// everything else.
func waitFor(t *testing.T, conn *websocket.Conn, msgType string) Envelope {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %q: %v", msgType, err)
		}
		if env.Type == msgType {
			return env
		}
	}
}

func decodePayload[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var p T
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	return p
}

func TestWS_ConnectedHello(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "")

	hello := decodePayload[ConnectedPayload](t, waitFor(t, conn, "connected"))
	require.NotEmpty(t, hello.PlayerID)
	assert.Equal(t, "pid:"+hello.PlayerID, hello.Token)
}

func TestWS_TokenKeepsPlayerID(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "pid:returning-player")

	hello := decodePayload[ConnectedPayload](t, waitFor(t, conn, "connected"))
	assert.Equal(t, "returning-player", hello.PlayerID)
}

func TestWS_RejectsBadToken(t *testing.T) {
	ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?token=garbage"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWS_JoinUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "")
	waitFor(t, conn, "connected")

	sendEnvelope(t, conn, "join-room", JoinRoomPayload{RoomCode: "ZZZZZ9", PlayerName: "Bob"})

	perr := decodePayload[ErrorPayload](t, waitFor(t, conn, "error"))
	assert.Equal(t, CodeRoomNotFound, perr.Code)
	assert.Equal(t, "Sala no encontrada. Verifica el código.", perr.Message)
}

func TestWS_UnknownMessageType(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "")
	waitFor(t, conn, "connected")

	sendEnvelope(t, conn, "self-destruct", struct{}{})

	perr := decodePayload[ErrorPayload](t, waitFor(t, conn, "error"))
	assert.Equal(t, CodeUnknownType, perr.Code)
}

func TestWS_CreateRoomNeedsDifficultyOrConfig(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "")
	waitFor(t, conn, "connected")

	sendEnvelope(t, conn, "create-room", CreateRoomPayload{PlayerName: "Alice"})

	perr := decodePayload[ErrorPayload](t, waitFor(t, conn, "error"))
	assert.Equal(t, CodeBadInput, perr.Code)
}

func TestWS_FullMatchFlow(t *testing.T) {
	ts := newTestServer(t)

	host := dialWS(t, ts, "")
	hostHello := decodePayload[ConnectedPayload](t, waitFor(t, host, "connected"))

	sendEnvelope(t, host, "create-room", CreateRoomPayload{PlayerName: "Alice", Difficulty: "easy"})
	created := decodePayload[RoomCreatedPayload](t, waitFor(t, host, "room-created"))
	require.Regexp(t, `^[A-Z0-9]{6}$`, created.RoomCode)
	assert.Equal(t, StatusWaiting, created.Room.GameStatus)
	assert.Equal(t, hostHello.PlayerID, created.Room.HostID)
	assert.Nil(t, created.Room.GameState)

	guest := dialWS(t, ts, "")
	guestHello := decodePayload[ConnectedPayload](t, waitFor(t, guest, "connected"))

	sendEnvelope(t, guest, "join-room", JoinRoomPayload{RoomCode: created.RoomCode, PlayerName: "Bob"})
	joined := decodePayload[RoomPayload](t, waitFor(t, guest, "player-joined"))
	require.Len(t, joined.Room.Players, 2)
	assert.Equal(t, guestHello.PlayerID, joined.Room.Players[1].ID)
	waitFor(t, host, "player-joined")

	sendEnvelope(t, host, "player-ready", PlayerReadyPayload{RoomCode: created.RoomCode})
	waitFor(t, guest, "player-ready-update")
	sendEnvelope(t, guest, "player-ready", PlayerReadyPayload{RoomCode: created.RoomCode})

	started := decodePayload[RoomPayload](t, waitFor(t, host, "game-started"))
	require.NotNil(t, started.Room.GameState)
	assert.Equal(t, StatusPlaying, started.Room.GameStatus)
	assert.Equal(t, 0, started.Room.CurrentTurn)
	assert.Equal(t, MatchPlaying, started.Room.GameState.GameStatus)
	assert.Len(t, started.Room.GameState.Board, 8)
	waitFor(t, guest, "game-started")

	// guest moves out of turn and gets exactly an error, no broadcast
	sendEnvelope(t, guest, "make-move", MakeMovePayload{
		RoomCode: created.RoomCode, Row: 0, Col: 0, Action: "reveal",
	})
	perr := decodePayload[ErrorPayload](t, waitFor(t, guest, "error"))
	assert.Equal(t, CodeNotYourTurn, perr.Code)
	assert.Equal(t, "No es tu turno", perr.Message)

	// a flag never ends the game, so the host move is deterministic
	sendEnvelope(t, host, "make-move", MakeMovePayload{
		RoomCode: created.RoomCode, Row: 0, Col: 0, Action: "flag",
	})
	for _, conn := range []*websocket.Conn{host, guest} {
		updated := decodePayload[RoomPayload](t, waitFor(t, conn, "game-updated"))
		require.NotNil(t, updated.Room.GameState)
		assert.Equal(t, 1, updated.Room.GameState.FlagsUsed)
		assert.Equal(t, 1, updated.Room.CurrentTurn)
		assert.True(t, updated.Room.GameState.Board[0][0].IsFlagged)
	}
}

func TestWS_JoinLeavesPreviousRoom(t *testing.T) {
	cfg := Config{HostGracePeriod: 30 * time.Millisecond, RoomIdleTTL: time.Hour}
	rooms := NewRegistry(cfg, zerolog.Nop(), nil)
	srv := NewServer(cfg, zerolog.Nop(), rooms, stubTokens{}, stubTokens{}, nil)

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	host := dialWS(t, ts, "")
	waitFor(t, host, "connected")
	sendEnvelope(t, host, "create-room", CreateRoomPayload{PlayerName: "Alice", Difficulty: "easy"})
	abandoned := decodePayload[RoomCreatedPayload](t, waitFor(t, host, "room-created"))

	other := dialWS(t, ts, "")
	waitFor(t, other, "connected")
	sendEnvelope(t, other, "create-room", CreateRoomPayload{PlayerName: "Bob", Difficulty: "easy"})
	kept := decodePayload[RoomCreatedPayload](t, waitFor(t, other, "room-created"))

	// the host walks out of their own room into Bob's; the empty playerName
	// falls back to the name remembered from create-room
	sendEnvelope(t, host, "join-room", JoinRoomPayload{RoomCode: kept.RoomCode})
	joined := decodePayload[RoomPayload](t, waitFor(t, host, "player-joined"))
	require.Len(t, joined.Room.Players, 2)
	assert.Equal(t, "Alice", joined.Room.Players[1].Name)

	// the abandoned room lost its host, so the grace timer collects it
	assert.Eventually(t, func() bool {
		_, ok := rooms.Get(abandoned.RoomCode)
		return !ok
	}, time.Second, 10*time.Millisecond, "abandoned room must be deleted after the grace period")

	_, ok := rooms.Get(kept.RoomCode)
	assert.True(t, ok, "the room the player actually joined stays")
}

func TestWS_BadJSONAndBadAction(t *testing.T) {
	ts := newTestServer(t)
	conn := dialWS(t, ts, "")
	waitFor(t, conn, "connected")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	perr := decodePayload[ErrorPayload](t, waitFor(t, conn, "error"))
	assert.Equal(t, CodeBadJSON, perr.Code)

	sendEnvelope(t, conn, "make-move", MakeMovePayload{
		RoomCode: "ABC123", Row: 0, Col: 0, Action: "detonate",
	})
	perr = decodePayload[ErrorPayload](t, waitFor(t, conn, "error"))
	assert.Equal(t, CodeBadInput, perr.Code)
}
