package tttpresenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/tictactoe-kakao-bot/internal/domain"
	"github.com/park285/tictactoe-kakao-bot/internal/msgcat"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpchan"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/internal/util"
	"github.com/park285/tictactoe-kakao-bot/pkg/tttdto"
)

const (
	nameLimit      = 12
	recentLimit    = 3
	helpFallback   = "틱택토 명령어"
	statsHeaderFmt = "최근 %d판"
)

// PrefixProvider exposes the prefix commands start with.
type PrefixProvider interface {
	Prefix() string
}

// StaticPrefix is a fixed PrefixProvider.
type StaticPrefix string

func (p StaticPrefix) Prefix() string { return string(p) }

// Formatter renders sessions and results into KakaoTalk text through the message catalog.
// It implements pvpchan.Texts.
type Formatter struct {
	catalog        *msgcat.Catalog
	prefixProvider PrefixProvider
}

var _ pvpchan.Texts = (*Formatter)(nil)

func NewFormatter(catalog *msgcat.Catalog, provider PrefixProvider) *Formatter {
	return &Formatter{catalog: catalog, prefixProvider: provider}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

func (f *Formatter) render(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.Prefix()
	}
	return f.catalog.RenderOr(key, data, "")
}

func (f *Formatter) Caption(fr pvpttt.Frame, s pvpttt.Snapshot) string {
	data := map[string]any{
		"First":  displayName(s.First),
		"Second": displayName(s.Second),
		"Viewer": displayName(fr.Viewer),
		"Mark":   s.Turn.Mark().String(),
	}
	if opp, ok := opponentOf(s, fr.Viewer.ID); ok {
		data["Opponent"] = displayName(opp)
	}
	switch fr.Kind {
	case pvpttt.FrameYourTurn:
		return f.render("caption.your_turn", data)
	case pvpttt.FrameWaiting:
		return f.render("caption.waiting", data)
	case pvpttt.FrameShared:
		data["Viewer"] = displayName(s.Active())
		return f.render("caption.shared", data)
	case pvpttt.FrameFinished:
		if w, ok := s.Winner(); ok {
			data["Winner"] = displayName(w)
		}
		data["StoppedBy"] = displayName(playerByID(s, s.StoppedBy))
		return f.render("caption.finished."+s.End.String(), data)
	default:
		return ""
	}
}

// Legend is drawn into the image with a Latin-only font, so it never carries names.
func (f *Formatter) Legend(fr pvpttt.Frame, s pvpttt.Snapshot) string {
	data := map[string]any{
		"Mark": s.Turn.Mark().String(),
		"Cell": s.Cursor + 1,
	}
	switch fr.Kind {
	case pvpttt.FrameYourTurn:
		return f.render("legend.your_turn", data)
	case pvpttt.FrameWaiting:
		return f.render("legend.waiting", data)
	case pvpttt.FrameShared:
		return f.render("legend.shared", data)
	case pvpttt.FrameFinished:
		if s.End == pvpttt.EndWin {
			data["Mark"] = s.Outcome.Winner.String()
		}
		return f.render("legend.finished."+s.End.String(), data)
	default:
		return ""
	}
}

func (f *Formatter) Help() string {
	header := f.render("help.header", nil)
	body := f.render("help.body", nil)
	if header == "" {
		header = helpFallback
	}
	return util.ApplySeeMoreWithHeader(header+"\n\n"+body, header, helpFallback)
}

func (f *Formatter) Waiting(p pvpttt.Player) string {
	return f.render("join.waiting", map[string]any{"Name": displayName(p)})
}

func (f *Formatter) Matched(s pvpttt.Snapshot) string {
	return f.render("join.matched", map[string]any{"First": displayName(s.First), "Second": displayName(s.Second)})
}

func (f *Formatter) Cancelled(p pvpttt.Player) string {
	return f.render("join.cancelled", map[string]any{"Name": displayName(p)})
}

func (f *Formatter) WaitExpired(p pvpttt.Player) string {
	return f.render("join.expired", map[string]any{"Name": displayName(p)})
}

// Error turns a boundary error into the catalog message for its code.
func (f *Formatter) Error(de *tttdto.DomainError) string {
	if de == nil {
		return ""
	}
	if msg := f.render("errors."+de.Code, nil); msg != "" {
		return msg
	}
	return f.render("errors."+tttdto.CodeInternal, nil)
}

func (f *Formatter) NoSession() string { return f.render("status.none", nil) }

func (f *Formatter) StillWaiting(state *tttdto.SessionState, now time.Time) string {
	since := "0s"
	if state != nil && !state.Since.IsZero() {
		since = now.Sub(state.Since).Truncate(time.Second).String()
	}
	return f.render("status.waiting", map[string]any{"Since": since})
}

func (f *Formatter) StatsUnavailable() string { return f.render("stats.unavailable", nil) }

// Stats renders the scoreboard line plus the last few results.
func (f *Formatter) Stats(v tttdto.StatsView, recent []domain.MatchResult) string {
	name := util.TruncateName(v.Name, nameLimit)
	if name == "" {
		name = pvpttt.DefaultName(v.PlayerID)
	}
	if v.Games == 0 {
		return f.render("stats.empty", map[string]any{"Name": name})
	}
	var sb strings.Builder
	sb.WriteString(f.render("stats.line", map[string]any{
		"Name":      name,
		"Games":     v.Games,
		"Wins":      v.Wins,
		"Losses":    v.Losses,
		"Draws":     v.Draws,
		"Abandoned": v.Abandoned,
	}))
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	if len(recent) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf(statsHeaderFmt, len(recent)))
		for _, r := range recent {
			sb.WriteString("\n• ")
			sb.WriteString(formatRecent(v.PlayerID, r))
		}
	}
	return sb.String()
}

func formatRecent(playerID string, r domain.MatchResult) string {
	opp := r.SecondName
	if r.SecondID == playerID {
		opp = r.FirstName
	}
	return fmt.Sprintf("%s vs %s (%d수, %s)", formatResultBadge(playerID, r), util.TruncateName(opp, nameLimit), len(r.Moves), formatShortTime(r.EndedAt))
}

func formatResultBadge(playerID string, r domain.MatchResult) string {
	switch r.Result {
	case domain.ResultDraw:
		return "무"
	case domain.ResultStopped:
		if r.StoppedBy == playerID {
			return "중단"
		}
		return "상대 중단"
	case domain.ResultExpired:
		return "시간 초과"
	}
	if r.WinnerID == playerID {
		return "승"
	}
	return "패"
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("01/02 15:04")
}

func displayName(p pvpttt.Player) string {
	name := util.TruncateName(p.Name, nameLimit)
	if name == "" {
		return pvpttt.DefaultName(p.ID)
	}
	return name
}

func opponentOf(s pvpttt.Snapshot, id string) (pvpttt.Player, bool) {
	switch id {
	case s.First.ID:
		return s.Second, true
	case s.Second.ID:
		return s.First, true
	}
	return pvpttt.Player{}, false
}

func playerByID(s pvpttt.Snapshot, id string) pvpttt.Player {
	if id == s.Second.ID {
		return s.Second
	}
	return s.First
}
