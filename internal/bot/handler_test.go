package bot

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/irisfast"
	"github.com/park285/numguess/internal/msgcat"
	svc "github.com/park285/numguess/internal/service/guess"
	"github.com/park285/numguess/internal/storage"
)

type sent struct {
	room  string
	kind  string
	value string
}

type fakeEgress struct {
	mu   sync.Mutex
	out  []sent
	fail error
}

func (f *fakeEgress) SendText(_ context.Context, room, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, sent{room: room, kind: "text", value: message})
	return f.fail
}

func (f *fakeEgress) SendImage(_ context.Context, room, imageBase64 string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.out = append(f.out, sent{room: room, kind: "image", value: imageBase64})
	return f.fail
}

func (f *fakeEgress) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.out)
	return f.out[len(f.out)-1]
}

func (f *fakeEgress) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.out)
}

type fixedRand struct{ v int }

func (f fixedRand) IntN(n int) int { return f.v % n }

type staticPrefix string

func (p staticPrefix) Prefix() string { return string(p) }

func newHandler(t *testing.T, cfg Config) (*Handler, *svc.Manager, *fakeEgress) {
	t.Helper()
	cat, err := msgcat.New("")
	require.NoError(t, err)
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	mgr, err := svc.NewManager(storage.NewMemoryRepository(), svc.Config{},
		svc.WithRand(fixedRand{v: 6}), svc.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	eg := &fakeEgress{}
	f := guesspresenter.NewFormatter(cat, staticPrefix(cfg.Prefix), guesspresenter.WithSeeMore())
	return NewHandler(cfg, mgr, f, eg, zaptest.NewLogger(t)), mgr, eg
}

func chat(room, sender, text string) *irisfast.Message {
	return &irisfast.Message{Msg: text, Room: room, Sender: &sender}
}

func TestHandlerPlaysRoundPerSender(t *testing.T) {
	h, mgr, eg := newHandler(t, Config{Prefix: "!ng "})
	ctx := context.Background()

	h.Handle(ctx, chat("room-1", "Alice", "!ng start easy"))
	got := eg.last(t)
	require.Equal(t, "room-1", got.room)
	require.Contains(t, got.value, "New easy round")

	h.Handle(ctx, chat("room-1", "Alice", "!ng 3"))
	require.Equal(t, "📈 3 is too low! Attempts left: 6", eg.last(t).value)

	// Another sender in the same room has no round yet.
	h.Handle(ctx, chat("room-1", "Bob", "!ng 7"))
	require.Contains(t, eg.last(t).value, "No active round")

	h.Handle(ctx, chat("room-1", "Alice", "!ng 7"))
	require.Contains(t, eg.last(t).value, "Correct! The number was 7.")

	sess, err := mgr.Session(ctx, svc.PlayerKey("room-1", "Alice"))
	require.NoError(t, err)
	require.Equal(t, "Alice", sess.Profile().Name)
	require.Equal(t, 1, sess.Profile().Stats.GamesWon)
	require.Equal(t, 2, mgr.Len())
}

func TestHandlerIgnoresForeignMessages(t *testing.T) {
	h, _, eg := newHandler(t, Config{
		Prefix:      "!ng",
		RoomAllowed: func(room string) bool { return room == "allowed" },
	})
	ctx := context.Background()

	h.Handle(ctx, nil)
	h.Handle(ctx, chat("allowed", "Alice", "hello there"))
	h.Handle(ctx, chat("blocked", "Alice", "!ng start"))
	h.Handle(ctx, chat("", "Alice", "!ng start"))
	h.Handle(ctx, &irisfast.Message{Msg: "!ng start", Room: "allowed"})
	require.Zero(t, eg.count())

	h.Handle(ctx, chat("allowed", "Alice", "!ng"))
	require.Contains(t, eg.last(t).value, "Number Guess")
}

func TestHandlerPrefersUserID(t *testing.T) {
	h, mgr, _ := newHandler(t, Config{Prefix: "!ng"})
	ctx := context.Background()
	name := "Carol"
	msg := &irisfast.Message{Msg: "!ng start", Room: "r", Sender: &name, JSON: &irisfast.MessageJSON{UserID: "u-42"}}

	h.Handle(ctx, msg)
	sess, err := mgr.Session(ctx, svc.PlayerKey("r", "u-42"))
	require.NoError(t, err)
	require.Equal(t, "Carol", sess.Profile().Name)
	require.Equal(t, 1, mgr.Len())
}

func TestHandlerKeepsChosenName(t *testing.T) {
	h, mgr, _ := newHandler(t, Config{Prefix: "!ng"})
	ctx := context.Background()

	h.Handle(ctx, chat("r", "Dave", "!ng name Captain"))
	h.Handle(ctx, chat("r", "Dave", "!ng status"))
	sess, err := mgr.Session(ctx, svc.PlayerKey("r", "Dave"))
	require.NoError(t, err)
	require.Equal(t, "Captain", sess.Profile().Name)
}

func TestHandlerSendsChartImage(t *testing.T) {
	h, _, eg := newHandler(t, Config{Prefix: "!ng"})
	ctx := context.Background()

	h.Handle(ctx, chat("r", "Erin", "!ng start easy"))
	h.Handle(ctx, chat("r", "Erin", "!ng 7"))
	before := eg.count()
	h.Handle(ctx, chat("r", "Erin", "!ng chart"))

	require.Equal(t, before+2, eg.count())
	img := eg.last(t)
	require.Equal(t, "image", img.kind)
	raw, err := base64.StdEncoding.DecodeString(img.value)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), "\x89PNG"))
}

func TestHandlerUnknownCommandUsesPrefix(t *testing.T) {
	h, _, eg := newHandler(t, Config{Prefix: "!ng"})
	h.Handle(context.Background(), chat("r", "Fay", "!ng exit"))
	require.Equal(t, "Unknown command. Try `!nghelp`.", eg.last(t).value)
}

func TestHandlerSurvivesEgressFailure(t *testing.T) {
	h, _, eg := newHandler(t, Config{Prefix: "!ng"})
	eg.fail = errors.New("bridge down")
	h.Handle(context.Background(), chat("r", "Gus", "!ng start"))
	require.Equal(t, 1, eg.count())
}
