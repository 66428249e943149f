package bot

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/command"
	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/irisfast"
	svc "github.com/park285/numguess/internal/service/guess"
)

const replyTimeout = 15 * time.Second

// Config selects which chat messages the bot answers.
type Config struct {
	Prefix string
	// RoomAllowed filters rooms; nil admits all.
	RoomAllowed func(room string) bool
}

// Handler turns chat messages into game commands. Every sender in every
// room is a separate player.
type Handler struct {
	cfg       Config
	mgr       *svc.Manager
	d         *command.Dispatcher
	presenter *guesspresenter.Presenter
	logger    *zap.Logger
}

func NewHandler(cfg Config, mgr *svc.Manager, f *guesspresenter.Formatter, egress irisfast.Egress, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	send := func(room, message string) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return egress.SendText(ctx, room, message)
	}
	sendImage := func(room, imageBase64 string) error {
		ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		return egress.SendImage(ctx, room, imageBase64)
	}
	return &Handler{
		cfg:       cfg,
		mgr:       mgr,
		d:         command.New(f, command.ForBot(), command.WithLogger(logger)),
		presenter: guesspresenter.NewPresenter(send, sendImage),
		logger:    logger,
	}
}

// Accepts reports whether msg is a command for this bot.
func (h *Handler) Accepts(msg *irisfast.Message) bool {
	if msg == nil || strings.TrimSpace(msg.Msg) == "" || strings.TrimSpace(msg.Room) == "" {
		return false
	}
	if h.cfg.RoomAllowed != nil && !h.cfg.RoomAllowed(msg.Room) {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(msg.Msg), strings.TrimSpace(h.cfg.Prefix))
}

// Handle runs one command and sends the reply to the originating room.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if !h.Accepts(msg) {
		return
	}
	sender := msg.SenderID()
	if sender == "" {
		h.logger.Debug("message_without_sender", zap.String("room", msg.Room))
		return
	}
	line := strings.TrimPrefix(strings.TrimSpace(msg.Msg), strings.TrimSpace(h.cfg.Prefix))
	if strings.TrimSpace(line) == "" {
		line = "help"
	}

	sess, err := h.mgr.Session(ctx, svc.PlayerKey(msg.Room, sender))
	if err != nil {
		h.logger.Error("session_load_failed", zap.String("room", msg.Room), zap.Error(err))
		h.send(msg.Room, command.Reply{Text: "⚠️ " + err.Error()})
		return
	}
	h.adoptDisplayName(ctx, sess, msg.SenderName())

	h.send(msg.Room, h.d.Handle(ctx, sess, line))
}

// adoptDisplayName names a fresh profile after the chat display name.
func (h *Handler) adoptDisplayName(ctx context.Context, sess *svc.Session, name string) {
	if name == "" || sess.Profile().Name != domain.DefaultPlayerName {
		return
	}
	if err := sess.Rename(ctx, name); err != nil {
		h.logger.Debug("display_name_rejected", zap.String("name", name), zap.Error(err))
	}
}

func (h *Handler) send(room string, r command.Reply) {
	var err error
	if len(r.Chart) > 0 {
		err = h.presenter.Chart(room, r.Text, r.Chart)
	} else {
		err = h.presenter.Text(room, r.Text)
	}
	if err != nil {
		h.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}
