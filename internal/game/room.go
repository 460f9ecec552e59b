package game

import (
	"sync"
	"time"

	"example.com/ms-mvp/internal/engine"
)

// Status is the room lifecycle. There is no transition back from finished:
// a finished room can only be abandoned.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// MatchStatus is the in-game outcome, only meaningful while a MatchState exists.
type MatchStatus string

const (
	MatchPlaying MatchStatus = "playing"
	MatchWon     MatchStatus = "won"
	MatchLost    MatchStatus = "lost"
)

type Action string

const (
	ActionReveal Action = "reveal"
	ActionFlag   Action = "flag"
)

type Player struct {
	id        string
	name      string
	ready     bool
	conn      *ClientConn
	connected bool
}

// MatchState exists only between game-started and room deletion, so a
// waiting room can never carry a board.
type MatchState struct {
	board     engine.Board
	status    MatchStatus
	scores    [2]int
	flagsUsed int
	elapsed   int
	startedAt time.Time
}

// Room is the one shared mutable resource of the protocol. Every mutation
// happens under mu and broadcasts after the state change is complete, so
// observers always see read-after-write consistent snapshots and at most
// one move is in flight per room.
type Room struct {
	code string
	mu   sync.Mutex

	status      Status
	config      engine.GameConfig
	players     []*Player // max 2, index is the turn index
	hostID      string
	currentTurn int
	match       *MatchState

	gracePeriod time.Duration
	graceTimer  *time.Timer
	graceToken  int64

	lastActive time.Time

	// onEmpty removes the room from its registry. Assigned at creation.
	onEmpty func(code string)
}

func newRoom(code string, cfg engine.GameConfig, gracePeriod time.Duration, hostID, hostName string, cc *ClientConn) *Room {
	return &Room{
		code:        code,
		status:      StatusWaiting,
		config:      cfg,
		hostID:      hostID,
		gracePeriod: gracePeriod,
		lastActive:  time.Now(),
		players: []*Player{{
			id:        hostID,
			name:      hostName,
			conn:      cc,
			connected: true,
		}},
	}
}

func (r *Room) Code() string {
	return r.code
}

// Join adds a player, or reattaches a known player id (reconnection). The
// reconnect check runs before the capacity check so a returning player is
// never bounced from their own full room.
func (r *Room) Join(playerID, name string, cc *ClientConn) *ProtocolError {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	for _, p := range r.players {
		if p.id == playerID {
			p.conn = cc
			p.connected = true
			if name != "" {
				p.name = name
			}
			if playerID == r.hostID {
				r.cancelGraceLocked()
			}
			r.broadcastRoomLocked("player-joined")
			return nil
		}
	}

	if len(r.players) >= 2 {
		return errRoomFull()
	}

	r.players = append(r.players, &Player{
		id:        playerID,
		name:      name,
		conn:      cc,
		connected: true,
	})
	r.broadcastRoomLocked("player-joined")
	return nil
}

// MarkReady flips a player's ready flag. When both players of a full room
// are ready the match starts: board built, status playing, turn 0.
func (r *Room) MarkReady(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusWaiting {
		return
	}

	p := r.playerLocked(playerID)
	if p == nil {
		return
	}
	p.ready = true
	r.lastActive = time.Now()

	if len(r.players) == 2 && r.players[0].ready && r.players[1].ready {
		r.startMatchLocked()
		return
	}
	r.broadcastRoomLocked("player-ready-update")
}

func (r *Room) startMatchLocked() {
	board, err := engine.NewBoard(r.config)
	if err != nil {
		// config was validated at creation; treat this as unreachable but
		// keep the room in waiting rather than panicking mid-broadcast
		r.broadcastErrorLocked(errBadInput(err.Error()))
		return
	}

	r.cancelGraceLocked()
	r.match = &MatchState{
		board:     board,
		status:    MatchPlaying,
		startedAt: time.Now(),
	}
	r.status = StatusPlaying
	r.currentTurn = 0
	r.broadcastRoomLocked("game-started")
}

// MakeMove validates and applies one move. Silent conditions (no error, no
// state change, no broadcast): no match yet, match already decided,
// already-revealed cell, reveal of a flagged cell, flag-on past the cap.
func (r *Room) MakeMove(playerID string, row, col int, action Action) *ProtocolError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.match == nil || r.match.status != MatchPlaying {
		return nil
	}

	idx := r.playerIndexLocked(playerID)
	if idx != r.currentTurn {
		return errNotYourTurn()
	}

	board := r.match.board
	if !board.InBounds(row, col) {
		return errBadInput("celda fuera del tablero")
	}

	cell := &board[row][col]
	if cell.IsRevealed {
		return nil
	}

	moveValid := false
	score := 0

	switch action {
	case ActionFlag:
		switch {
		case !cell.IsFlagged && r.match.flagsUsed < r.config.MinesCount:
			cell.IsFlagged = true
			r.match.flagsUsed++
			moveValid = true
		case cell.IsFlagged:
			cell.IsFlagged = false
			r.match.flagsUsed--
			moveValid = true
		}

	case ActionReveal:
		if cell.IsFlagged {
			return nil
		}
		cell.IsRevealed = true
		score = 1
		moveValid = true

		if cell.IsMine {
			board.RevealAllMines()
			r.match.status = MatchLost
			r.status = StatusFinished
		} else {
			if cell.NeighborMines == 0 {
				score += board.RevealEmptyNeighbors(row, col)
			}
			if board.CheckWinCondition(r.config.MinesCount) {
				r.match.status = MatchWon
				r.status = StatusFinished
			}
		}

	default:
		return errBadInput("acción desconocida")
	}

	if !moveValid {
		return nil
	}

	r.match.scores[idx] += score
	r.match.elapsed = int(time.Since(r.match.startedAt).Seconds())
	r.lastActive = time.Now()

	// the turn only passes while the game is still undecided
	if r.match.status == MatchPlaying {
		r.currentTurn = (r.currentTurn + 1) % 2
	}

	r.broadcastRoomLocked("game-updated")
	return nil
}

// HandleDisconnect applies the room's disconnect policy:
//   - waiting, non-host: player removed; empty room deleted
//   - waiting, host: room survives a grace period, then deleted if still
//     waiting with at most the host on the roster
//   - playing/finished: room kept alive for reconnection, others notified
func (r *Room) HandleDisconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.playerIndexLocked(playerID)
	if idx < 0 {
		return
	}

	p := r.players[idx]
	p.connected = false
	p.conn = nil
	r.lastActive = time.Now()

	if r.status != StatusWaiting {
		r.broadcastRoomLocked("player-left")
		return
	}

	if playerID == r.hostID {
		r.scheduleGraceLocked()
		return
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	if len(r.players) == 0 {
		r.deleteLocked()
		return
	}
	r.broadcastRoomLocked("player-left")
}

func (r *Room) scheduleGraceLocked() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
	}
	r.graceToken++
	token := r.graceToken
	r.graceTimer = time.AfterFunc(r.gracePeriod, func() {
		r.onGraceExpired(token)
	})
}

func (r *Room) onGraceExpired(token int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.graceToken {
		return // stale timer
	}
	r.graceTimer = nil

	if r.status == StatusWaiting && len(r.players) <= 1 {
		r.deleteLocked()
	}
}

// cancelGraceLocked stops the pending host-abandonment deletion. Called
// explicitly when the host reattaches or the room leaves waiting.
func (r *Room) cancelGraceLocked() {
	if r.graceTimer != nil {
		r.graceTimer.Stop()
		r.graceTimer = nil
	}
	r.graceToken++
}

func (r *Room) deleteLocked() {
	r.cancelGraceLocked()
	if r.onEmpty != nil {
		r.onEmpty(r.code)
	}
}

// Expired reports whether the sweeper may collect this room: nobody is
// connected and it has been idle past ttl.
func (r *Room) Expired(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.connected {
			return false
		}
	}
	return now.Sub(r.lastActive) > ttl
}

func (r *Room) playerLocked(playerID string) *Player {
	for _, p := range r.players {
		if p.id == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) playerIndexLocked(playerID string) int {
	for i, p := range r.players {
		if p.id == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) broadcastRoomLocked(event string) {
	env := Envelope{Type: event, Payload: mustJSON(RoomPayload{Room: r.snapshotLocked()})}
	for _, p := range r.players {
		p.conn.Send(env)
	}
}

func (r *Room) broadcastErrorLocked(perr *ProtocolError) {
	env := Envelope{Type: "error", Payload: mustJSON(ErrorPayload{Code: perr.Code, Message: perr.Message})}
	for _, p := range r.players {
		p.conn.Send(env)
	}
}

// Snapshot returns the full wire representation of the room.
func (r *Room) Snapshot() RoomSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}
