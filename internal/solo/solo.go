// Package solo is the single-player counterpart of the multiplayer room:
// the same board engine driven locally, with no turns and no networking.
package solo

import (
	"time"

	"example.com/ms-mvp/internal/engine"
)

type Status string

const (
	Playing Status = "playing"
	Won     Status = "won"
	Lost    Status = "lost"
)

type Game struct {
	cfg    engine.GameConfig
	board  engine.Board
	status Status
	score  int

	flagsUsed  int
	startedAt  time.Time
	finishedAt time.Time
}

func New(d engine.Difficulty) (*Game, error) {
	cfg, err := engine.ConfigFor(d)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg engine.GameConfig) (*Game, error) {
	board, err := engine.NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	return &Game{
		cfg:       cfg,
		board:     board,
		status:    Playing,
		startedAt: time.Now(),
	}, nil
}

// Reset starts a fresh game on a new board with the same config.
func (g *Game) Reset() error {
	board, err := engine.NewBoard(g.cfg)
	if err != nil {
		return err
	}
	g.board = board
	g.status = Playing
	g.score = 0
	g.flagsUsed = 0
	g.startedAt = time.Now()
	g.finishedAt = time.Time{}
	return nil
}

// Reveal opens a cell: +1 score plus the cascade. Revealing a mine loses
// the game and exposes every mine; revealing the last safe cell wins.
// No-ops outside the board, on revealed or flagged cells, or once decided.
func (g *Game) Reveal(row, col int) {
	if g.status != Playing || !g.board.InBounds(row, col) {
		return
	}
	cell := &g.board[row][col]
	if cell.IsRevealed || cell.IsFlagged {
		return
	}

	cell.IsRevealed = true
	g.score++

	if cell.IsMine {
		g.board.RevealAllMines()
		g.finish(Lost)
		return
	}

	if cell.NeighborMines == 0 {
		g.score += g.board.RevealEmptyNeighbors(row, col)
	}
	if g.board.CheckWinCondition(g.cfg.MinesCount) {
		g.finish(Won)
	}
}

// ToggleFlag flips the flag on an unrevealed cell.
func (g *Game) ToggleFlag(row, col int) {
	if g.status != Playing || !g.board.InBounds(row, col) {
		return
	}
	cell := &g.board[row][col]
	if cell.IsRevealed {
		return
	}
	cell.IsFlagged = !cell.IsFlagged
	g.flagsUsed = g.board.CountFlags()
}

func (g *Game) finish(st Status) {
	g.status = st
	g.finishedAt = time.Now()
}

func (g *Game) Status() Status { return g.status }
func (g *Game) Score() int     { return g.score }
func (g *Game) FlagsUsed() int { return g.flagsUsed }

func (g *Game) Board() engine.Board { return g.board }

func (g *Game) MinesRemaining() int {
	return g.cfg.MinesCount - g.flagsUsed
}

// TimeElapsed is whole seconds since the game started, frozen at the
// moment the game was decided.
func (g *Game) TimeElapsed() int {
	end := time.Now()
	if !g.finishedAt.IsZero() {
		end = g.finishedAt
	}
	return int(end.Sub(g.startedAt).Seconds())
}
