package tictactoe

import (
	"errors"
	"fmt"
)

// Cell is the state of a single board square.
type Cell uint8

const (
	Empty Cell = iota
	MarkA
	MarkB
)

func (c Cell) String() string {
	switch c {
	case MarkA:
		return "X"
	case MarkB:
		return "O"
	default:
		return "."
	}
}

// Opponent returns the other mark; Empty stays Empty.
func (c Cell) Opponent() Cell {
	switch c {
	case MarkA:
		return MarkB
	case MarkB:
		return MarkA
	default:
		return Empty
	}
}

const (
	Size  = 3
	Cells = Size * Size
)

var (
	ErrInvalidCell  = errors.New("invalid cell")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrWrongMark    = errors.New("mark does not match the side to move")
	ErrInvalidBoard = errors.New("invalid board")
)

// Lines lists the 8 winning triples: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// OutcomeKind classifies a board.
type OutcomeKind uint8

const (
	InProgress OutcomeKind = iota
	Win
	Draw
)

func (k OutcomeKind) String() string {
	switch k {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Outcome is derived from a Board. Line indexes Lines when Kind is Win, otherwise -1.
type Outcome struct {
	Kind   OutcomeKind
	Winner Cell
	Line   int
}

func (o Outcome) Terminal() bool { return o.Kind != InProgress }

func (o Outcome) String() string {
	if o.Kind == Win {
		return fmt.Sprintf("win(%s)", o.Winner)
	}
	return o.Kind.String()
}

// Board is a row-major 3x3 grid. The zero value is an empty board.
type Board [Cells]Cell

func (b Board) count() (a, o int) {
	for _, c := range b {
		switch c {
		case MarkA:
			a++
		case MarkB:
			o++
		}
	}
	return a, o
}

// NextMark returns the mark to play next, derived from the mark counts.
func (b Board) NextMark() Cell {
	a, o := b.count()
	if a == o {
		return MarkA
	}
	return MarkB
}

// Place sets index to mark. A failed Place never mutates the board.
func (b *Board) Place(index int, mark Cell) error {
	if index < 0 || index >= Cells {
		return fmt.Errorf("%w: %d", ErrInvalidCell, index)
	}
	if b[index] != Empty {
		return fmt.Errorf("%w: %d", ErrCellOccupied, index)
	}
	if mark == Empty || mark != b.NextMark() {
		return fmt.Errorf("%w: got %s", ErrWrongMark, mark)
	}
	b[index] = mark
	return nil
}

// Outcome reports the first line fully owned by one mark, then Draw on a full board.
func (b Board) Outcome() Outcome {
	for i, line := range Lines {
		c := b[line[0]]
		if c != Empty && c == b[line[1]] && c == b[line[2]] {
			return Outcome{Kind: Win, Winner: c, Line: i}
		}
	}
	if b.Full() {
		return Outcome{Kind: Draw, Line: -1}
	}
	return Outcome{Kind: InProgress, Line: -1}
}

func (b Board) Full() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// FirstEmpty returns the lowest empty index, or -1 on a full board.
func (b Board) FirstEmpty() int {
	for i, c := range b {
		if c == Empty {
			return i
		}
	}
	return -1
}

// Validate checks a board that did not come from Place: cell values, the
// alternation count and that at most one mark owns a line.
func (b Board) Validate() error {
	for i, c := range b {
		if c > MarkB {
			return fmt.Errorf("%w: cell %d has value %d", ErrInvalidBoard, i, c)
		}
	}
	a, o := b.count()
	if a != o && a != o+1 {
		return fmt.Errorf("%w: %d X vs %d O", ErrInvalidBoard, a, o)
	}
	var winners [3]bool
	for _, line := range Lines {
		c := b[line[0]]
		if c != Empty && c == b[line[1]] && c == b[line[2]] {
			winners[c] = true
		}
	}
	if winners[MarkA] && winners[MarkB] {
		return fmt.Errorf("%w: both sides own a line", ErrInvalidBoard)
	}
	// X wins only on its own move, so X must be one ahead; O wins with equal counts.
	if winners[MarkA] && a != o+1 {
		return fmt.Errorf("%w: X won but O moved after", ErrInvalidBoard)
	}
	if winners[MarkB] && a != o {
		return fmt.Errorf("%w: O won but X moved after", ErrInvalidBoard)
	}
	return nil
}

// Row and Col split an index into grid coordinates.
func Row(index int) int { return index / Size }
func Col(index int) int { return index % Size }

func (b Board) String() string {
	out := make([]byte, 0, Cells+Size-1)
	for i, c := range b {
		if i > 0 && i%Size == 0 {
			out = append(out, '/')
		}
		out = append(out, c.String()...)
	}
	return string(out)
}
