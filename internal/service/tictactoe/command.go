package tictactoe

import (
	"strconv"
	"strings"

	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
)

type CommandKind uint8

const (
	CmdPlay CommandKind = iota + 1
	CmdStop
	CmdInput
	CmdBoard
	CmdStats
	CmdStatus
	CmdHelp
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlay:
		return "play"
	case CmdStop:
		return "stop"
	case CmdInput:
		return "input"
	case CmdBoard:
		return "board"
	case CmdStats:
		return "stats"
	case CmdStatus:
		return "status"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Command is one parsed chat command.
type Command struct {
	Kind  CommandKind
	Input pvpttt.Input
}

// CommandDescriptor documents a command for help listings.
type CommandDescriptor struct {
	Name        string
	Aliases     []string
	Usage       string
	Description string
}

var gameWords = []string{"ttt", "틱택토"}

// ParseCommand parses the text after the bot prefix: "play", "stop", or
// "ttt <verb>". ok is false when the text is not addressed to this game.
func ParseCommand(raw string) (Command, bool, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	if len(fields) == 0 {
		return Command{}, false, nil
	}
	head := fields[0]
	if !isGameWord(head) {
		switch head {
		case "play":
			return Command{Kind: CmdPlay}, true, nil
		case "stop":
			return Command{Kind: CmdStop}, true, nil
		default:
			return Command{}, false, nil
		}
	}
	if len(fields) == 1 {
		return Command{Kind: CmdHelp}, true, nil
	}
	cmd, err := parseVerb(fields[1])
	return cmd, true, err
}

func parseVerb(verb string) (Command, error) {
	switch verb {
	case "play", "join", "참가":
		return Command{Kind: CmdPlay}, nil
	case "stop", "quit", "중단":
		return Command{Kind: CmdStop}, nil
	case "board", "판":
		return Command{Kind: CmdBoard}, nil
	case "stats", "전적":
		return Command{Kind: CmdStats}, nil
	case "status", "현황":
		return Command{Kind: CmdStatus}, nil
	case "help", "도움말":
		return Command{Kind: CmdHelp}, nil
	case "ok", "confirm", "enter", "확인":
		return Command{Kind: CmdInput, Input: pvpttt.Confirm()}, nil
	}
	if dir, ok := pvpttt.ParseDirection(verb); ok {
		return Command{Kind: CmdInput, Input: pvpttt.MoveCursor(dir)}, nil
	}
	if n, err := strconv.Atoi(verb); err == nil {
		if n < 1 || n > 9 {
			return Command{}, pvpttt.ErrInvalidCell
		}
		return Command{Kind: CmdInput, Input: pvpttt.Place(n - 1)}, nil
	}
	return Command{}, pvpttt.ErrUnknownInput
}

func isGameWord(s string) bool {
	for _, w := range gameWords {
		if s == w {
			return true
		}
	}
	return false
}
