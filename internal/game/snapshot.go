package game

import "example.com/ms-mvp/internal/engine"

// RoomSnapshot is the full room state broadcast on every change. This is a
// full-disclosure protocol: both clients receive the complete board,
// including unrevealed mines; hiding them is a rendering convention, not a
// protocol guarantee.
type RoomSnapshot struct {
	Code        string            `json:"code"`
	Players     []PlayerSnapshot  `json:"players"`
	Config      engine.GameConfig `json:"config"`
	CurrentTurn int               `json:"currentTurn"`
	GameStatus  Status            `json:"gameStatus"`
	HostID      string            `json:"hostId"`
	GameState   *MatchSnapshot    `json:"gameState"` // null until both players ready
}

type PlayerSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}

type MatchSnapshot struct {
	Board       engine.Board `json:"board"`
	GameStatus  MatchStatus  `json:"gameStatus"`
	Scores      [2]int       `json:"scores"`
	FlagsUsed   int          `json:"flagsUsed"`
	TimeElapsed int          `json:"timeElapsed"`
	StartTime   int64        `json:"startTime"` // unix millis
}

func (r *Room) snapshotLocked() RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerSnapshot{
			ID:        p.id,
			Name:      p.name,
			Ready:     p.ready,
			Connected: p.connected,
		})
	}

	snap := RoomSnapshot{
		Code:        r.code,
		Players:     players,
		Config:      r.config,
		CurrentTurn: r.currentTurn,
		GameStatus:  r.status,
		HostID:      r.hostID,
	}

	if r.match != nil {
		snap.GameState = &MatchSnapshot{
			Board:       r.match.board,
			GameStatus:  r.match.status,
			Scores:      r.match.scores,
			FlagsUsed:   r.match.flagsUsed,
			TimeElapsed: r.match.elapsed,
			StartTime:   r.match.startedAt.UnixMilli(),
		}
	}

	return snap
}
