package tttpresenter

import (
	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/pvp"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/pkg/tttdto"
)

func ToDTOState(s pvpttt.Snapshot) *tttdto.SessionState {
	state := &tttdto.SessionState{
		SessionID: s.ID,
		Since:     s.CreatedAt,
		Mode:      s.Mode.String(),
		First:     toPlayerView(s.First, pvpttt.TurnFirst),
		Second:    toPlayerView(s.Second, pvpttt.TurnSecond),
		Board:     s.Board.String(),
		Turn:      s.Turn.String(),
		Cursor:    s.Cursor,
		Moves:     append([]int(nil), s.Moves...),
		Version:   s.Version,
		Outcome:   s.End.String(),
	}
	if !s.Terminal() {
		state.ToMove = s.Active().ID
	}
	return state
}

func ToDTOWaiting(w pvp.Waiting) *tttdto.SessionState {
	return &tttdto.SessionState{
		Waiting: true,
		Since:   w.JoinedAt,
		First:   toPlayerView(w.Player, pvpttt.TurnFirst),
		Cursor:  -1,
	}
}

func ToDTOStats(s domain.PlayerStats) tttdto.StatsView {
	return tttdto.StatsView{
		PlayerID:  s.PlayerID,
		Name:      s.Name,
		Games:     s.Games,
		Wins:      s.Wins,
		Losses:    s.Losses,
		Draws:     s.Draws,
		Abandoned: s.Abandoned,
		LastPlay:  s.LastPlayedAt,
	}
}

func toPlayerView(p pvpttt.Player, t pvpttt.Turn) tttdto.PlayerView {
	return tttdto.PlayerView{ID: p.ID, Name: p.Name, Room: p.Surface.Room, Mark: t.Mark().String()}
}
