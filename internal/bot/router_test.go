package bot

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/park285/tictactoe-kakao-bot/internal/adapter/tttpresenter"
	"github.com/park285/tictactoe-kakao-bot/internal/irisfast"
	"github.com/park285/tictactoe-kakao-bot/internal/msgcat"
	"github.com/park285/tictactoe-kakao-bot/internal/pvp"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpchan"
	"github.com/park285/tictactoe-kakao-bot/internal/pvpttt"
	"github.com/park285/tictactoe-kakao-bot/internal/render"
	svcttt "github.com/park285/tictactoe-kakao-bot/internal/service/tictactoe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbox struct {
	mu    sync.Mutex
	texts map[string][]string
	imgs  map[string]int
}

func newOutbox() *outbox {
	return &outbox{texts: map[string][]string{}, imgs: map[string]int{}}
}

func (o *outbox) text(_ context.Context, room, msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts[room] = append(o.texts[room], msg)
	return nil
}

func (o *outbox) image(_ context.Context, room, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.imgs[room]++
	return nil
}

func (o *outbox) lastText(room string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	list := o.texts[room]
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1]
}

func newRouter(t *testing.T, allowed ...string) (*Router, *outbox) {
	t.Helper()
	box := newOutbox()
	presenter := tttpresenter.NewPresenter(box.text, box.image)
	formatter := tttpresenter.NewFormatter(msgcat.MustDefault(), tttpresenter.StaticPrefix("!"))
	dispatcher := pvpchan.NewDispatcher(presenter, render.NewBoard(), formatter)
	reg := pvpttt.NewRegistry()
	ctl := pvpttt.NewController(reg, dispatcher)
	svc, err := svcttt.NewService(pvp.NewMatchmaker(reg), ctl, dispatcher, formatter, nil, svcttt.Config{AllowedRooms: allowed}, nil)
	require.NoError(t, err)
	return NewRouter("!", svc, formatter, presenter, nil), box
}

func msg(room, sender, userID, text string) *irisfast.Message {
	m := &irisfast.Message{Msg: text, Room: room, Sender: &sender}
	if userID != "" {
		m.JSON = &irisfast.MessageJSON{UserID: userID}
	}
	return m
}

func TestRouterMatchFlow(t *testing.T) {
	r, box := newRouter(t)
	ctx := context.Background()

	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1001", "!play")))
	assert.Contains(t, box.lastText("roomA"), "Alice님이 틱택토 상대를 기다립니다")

	require.NoError(t, r.HandleMessage(ctx, msg("roomB", "Bob", "1002", "!ttt play")))
	assert.Equal(t, 1, box.imgs["roomA"])
	assert.Equal(t, 1, box.imgs["roomB"])
	assert.Contains(t, box.lastText("roomB"), "Alice님의 수를 기다리는")

	require.NoError(t, r.HandleMessage(ctx, msg("roomB", "Bob", "1002", "!ttt ok")))
	assert.Equal(t, "상대의 차례입니다.", box.lastText("roomB"))

	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1001", "!ttt 5")))
	assert.Equal(t, 2, box.imgs["roomA"])
	assert.Contains(t, box.lastText("roomB"), "Bob님 차례")

	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1001", "!ttt 5")))
	assert.Equal(t, "상대의 차례입니다.", box.lastText("roomA"))
	require.NoError(t, r.HandleMessage(ctx, msg("roomB", "Bob", "1002", "!ttt 5")))
	assert.Equal(t, "이미 표시된 칸입니다.", box.lastText("roomB"))

	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1001", "!stop")))
	assert.Contains(t, box.lastText("roomB"), "Alice님이 대국을 중단")
}

func TestRouterIgnoresForeignText(t *testing.T) {
	r, box := newRouter(t, "roomA")
	ctx := context.Background()
	require.NoError(t, r.HandleMessage(ctx, nil))
	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1", "hello")))
	require.NoError(t, r.HandleMessage(ctx, msg("roomA", "Alice", "1", "!체스 시작")))
	require.NoError(t, r.HandleMessage(ctx, msg("roomZ", "Zed", "9", "!play")))
	assert.Empty(t, box.texts)
}

func TestRouterHelpStatusAndErrors(t *testing.T) {
	r, box := newRouter(t)
	ctx := context.Background()

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt help")))
	assert.True(t, strings.HasPrefix(box.lastText("room"), "틱택토 명령어"))

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt dance")))
	assert.Contains(t, box.lastText("room"), "알 수 없는 명령")

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt 0")))
	assert.Contains(t, box.lastText("room"), "1부터 9까지")

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt status")))
	assert.Equal(t, "진행 중인 대국이 없습니다. !play 로 시작하세요.", box.lastText("room"))

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!play")))
	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt status")))
	assert.Contains(t, box.lastText("room"), "상대를 기다리는 중")

	require.NoError(t, r.HandleMessage(ctx, msg("room", "Alice", "1", "!ttt stats")))
	assert.Equal(t, "전적 저장소가 설정되지 않았습니다.", box.lastText("room"))
}

func TestRouterFallsBackToSenderName(t *testing.T) {
	r, box := newRouter(t)
	require.NoError(t, r.HandleMessage(context.Background(), msg("room", "Carol", "", "!play")))
	assert.Contains(t, box.lastText("room"), "Carol님이")
}
