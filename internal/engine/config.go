package engine

import "fmt"

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// GameConfig describes one board. Immutable once a game or room is created.
type GameConfig struct {
	BoardSize  int `json:"boardSize"`
	MinesCount int `json:"minesCount"`
}

var difficultyConfigs = map[Difficulty]GameConfig{
	Easy:   {BoardSize: 8, MinesCount: 10},
	Medium: {BoardSize: 12, MinesCount: 25},
	Hard:   {BoardSize: 16, MinesCount: 50},
}

func ConfigFor(d Difficulty) (GameConfig, error) {
	cfg, ok := difficultyConfigs[d]
	if !ok {
		return GameConfig{}, fmt.Errorf("unknown difficulty %q", d)
	}
	return cfg, nil
}

func (c GameConfig) Validate() error {
	if c.BoardSize <= 0 {
		return fmt.Errorf("board size must be positive, got %d", c.BoardSize)
	}
	if c.MinesCount < 0 {
		return fmt.Errorf("mines count must be non-negative, got %d", c.MinesCount)
	}
	// mine placement samples until minesCount distinct cells are mines,
	// so a full board would never terminate
	if c.MinesCount >= c.BoardSize*c.BoardSize {
		return fmt.Errorf("mines count %d must be below %d cells", c.MinesCount, c.BoardSize*c.BoardSize)
	}
	return nil
}
