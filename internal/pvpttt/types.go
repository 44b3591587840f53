package pvpttt

import (
	"strings"

	"github.com/park285/tictactoe-kakao-bot/internal/tictactoe"
)

// SurfaceRef addresses the chat room a player interacts from.
type SurfaceRef struct {
	Room string
}

func (s SurfaceRef) IsZero() bool { return strings.TrimSpace(s.Room) == "" }

// Player is an immutable participant record.
type Player struct {
	ID      string
	Name    string
	Surface SurfaceRef
}

// NewPlayer trims its inputs and falls back to DefaultName when name is blank.
func NewPlayer(id, name, room string) Player {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(id)
	}
	return Player{ID: id, Name: name, Surface: SurfaceRef{Room: strings.TrimSpace(room)}}
}

func DefaultName(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return "player"
	}
	return "player-" + id
}

// Turn names the side allowed to act.
type Turn uint8

const (
	TurnFirst Turn = iota
	TurnSecond
)

func (t Turn) Other() Turn {
	if t == TurnFirst {
		return TurnSecond
	}
	return TurnFirst
}

// Mark is the board mark placed by the side.
func (t Turn) Mark() tictactoe.Cell {
	if t == TurnFirst {
		return tictactoe.MarkA
	}
	return tictactoe.MarkB
}

func (t Turn) String() string {
	if t == TurnFirst {
		return "first"
	}
	return "second"
}

// SurfaceMode records whether both players share one room. It is fixed at match time.
type SurfaceMode uint8

const (
	SurfaceUnset SurfaceMode = iota
	SurfaceShared
	SurfaceSplit
)

func ModeFor(a, b SurfaceRef) SurfaceMode {
	if a.IsZero() || b.IsZero() {
		return SurfaceUnset
	}
	if strings.TrimSpace(a.Room) == strings.TrimSpace(b.Room) {
		return SurfaceShared
	}
	return SurfaceSplit
}

func (m SurfaceMode) String() string {
	switch m {
	case SurfaceShared:
		return "shared"
	case SurfaceSplit:
		return "split"
	default:
		return "unset"
	}
}

// EndReason explains why a session became terminal.
type EndReason uint8

const (
	EndNone EndReason = iota
	EndWin
	EndDraw
	EndStopped
	EndExpired
)

func (r EndReason) String() string {
	switch r {
	case EndWin:
		return "win"
	case EndDraw:
		return "draw"
	case EndStopped:
		return "stopped"
	case EndExpired:
		return "expired"
	default:
		return "none"
	}
}

type Direction uint8

const (
	Up Direction = iota + 1
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseDirection accepts words, single letters and wasd.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u", "w", "위":
		return Up, true
	case "down", "s", "아래":
		return Down, true
	case "left", "l", "a", "왼쪽":
		return Left, true
	case "right", "r", "d", "오른쪽":
		return Right, true
	default:
		return 0, false
	}
}

// Step moves index one cell in d, wrapping within its row or column.
func Step(index int, d Direction) int {
	row, col := tictactoe.Row(index), tictactoe.Col(index)
	n := tictactoe.Size
	switch d {
	case Up:
		row = (row + n - 1) % n
	case Down:
		row = (row + 1) % n
	case Left:
		col = (col + n - 1) % n
	case Right:
		col = (col + 1) % n
	}
	return row*n + col
}

type InputKind uint8

const (
	InputMoveCursor InputKind = iota + 1
	InputConfirm
	InputPlace
	InputCancel
	InputStart
)

func (k InputKind) String() string {
	switch k {
	case InputMoveCursor:
		return "move_cursor"
	case InputConfirm:
		return "confirm"
	case InputPlace:
		return "place"
	case InputCancel:
		return "cancel"
	case InputStart:
		return "start"
	default:
		return "unknown"
	}
}

// Input is one player action. Dir is set for InputMoveCursor, Cell for InputPlace.
type Input struct {
	Kind InputKind
	Dir  Direction
	Cell int
}

func MoveCursor(d Direction) Input { return Input{Kind: InputMoveCursor, Dir: d} }
func Confirm() Input { return Input{Kind: InputConfirm} }
func Place(cell int) Input { return Input{Kind: InputPlace, Cell: cell} }
func Cancel() Input { return Input{Kind: InputCancel} }
func Start() Input { return Input{Kind: InputStart} }
