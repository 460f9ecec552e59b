package engine

import "math/rand"

// Cell is one grid position. JSON tags match the wire shape sent to clients.
type Cell struct {
	IsMine        bool `json:"isMine"`
	IsRevealed    bool `json:"isRevealed"`
	IsFlagged     bool `json:"isFlagged"`
	NeighborMines int  `json:"neighborMines"`
}

// Board is a square grid of cells. All mutation happens in place; the board
// is never resized after construction.
type Board [][]Cell

// NewBoard allocates a boardSize×boardSize grid, places minesCount mines by
// rejection sampling and computes neighbor counts for every safe cell.
func NewBoard(cfg GameConfig) (Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := make(Board, cfg.BoardSize)
	for i := range b {
		b[i] = make([]Cell, cfg.BoardSize)
	}

	placed := 0
	for placed < cfg.MinesCount {
		row := rand.Intn(cfg.BoardSize)
		col := rand.Intn(cfg.BoardSize)
		if !b[row][col].IsMine {
			b[row][col].IsMine = true
			placed++
		}
	}

	for row := range b {
		for col := range b[row] {
			if !b[row][col].IsMine {
				b[row][col].NeighborMines = b.countNeighborMines(row, col)
			}
		}
	}

	return b, nil
}

func (b Board) Size() int {
	return len(b)
}

func (b Board) InBounds(row, col int) bool {
	return row >= 0 && row < len(b) && col >= 0 && col < len(b)
}

func (b Board) countNeighborMines(row, col int) int {
	count := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			nr, nc := row+dr, col+dc
			if b.InBounds(nr, nc) && b[nr][nc].IsMine {
				count++
			}
		}
	}
	return count
}

// RevealEmptyNeighbors flood-fills from (row,col): every in-bounds neighbor
// that is unrevealed, not a mine and not flagged gets revealed, and the
// cascade continues through zero-neighbor cells. Flagged cells act as walls.
// Returns the number of cells revealed.
//
// Iterative on purpose: a low-density board can chain through most of the
// grid, and a recursive fill would be bounded by stack depth.
func (b Board) RevealEmptyNeighbors(row, col int) int {
	revealed := 0

	stack := [][2]int{{row, col}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				nr, nc := cur[0]+dr, cur[1]+dc
				if !b.InBounds(nr, nc) {
					continue
				}
				cell := &b[nr][nc]
				if cell.IsRevealed || cell.IsMine || cell.IsFlagged {
					continue
				}
				cell.IsRevealed = true
				revealed++
				if cell.NeighborMines == 0 {
					stack = append(stack, [2]int{nr, nc})
				}
			}
		}
	}

	return revealed
}

// CheckWinCondition reports whether every safe cell has been revealed.
// Flags play no role here.
func (b Board) CheckWinCondition(minesCount int) bool {
	revealed := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col].IsRevealed && !b[row][col].IsMine {
				revealed++
			}
		}
	}
	return revealed == len(b)*len(b)-minesCount
}

func (b Board) CountFlags() int {
	flags := 0
	for row := range b {
		for col := range b[row] {
			if b[row][col].IsFlagged {
				flags++
			}
		}
	}
	return flags
}

// RevealAllMines flips every mine to revealed. Called once when a mine is hit.
func (b Board) RevealAllMines() {
	for row := range b {
		for col := range b[row] {
			if b[row][col].IsMine {
				b[row][col].IsRevealed = true
			}
		}
	}
}
