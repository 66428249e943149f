// Package command parses player input shared by the terminal game and the
// chat bot and turns it into rendered replies.
package command

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/render"
	"github.com/park285/numguess/internal/round"
	svc "github.com/park285/numguess/internal/service/guess"
	"github.com/park285/numguess/internal/stats"
	"github.com/park285/numguess/pkg/guessdto"
)

// Reply is the rendered answer to one input line.
type Reply struct {
	Text string
	// Chart is a PNG to deliver alongside Text.
	Chart []byte
	// Exit asks an interactive front-end to stop.
	Exit bool
}

type Dispatcher struct {
	f      *guesspresenter.Formatter
	bot    bool
	logger *zap.Logger
}

type Option func(*Dispatcher)

// ForBot renders chat-flavoured help and ignores exit.
func ForBot() Option {
	return func(d *Dispatcher) { d.bot = true }
}

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(f *guesspresenter.Formatter, opts ...Option) *Dispatcher {
	d := &Dispatcher{f: f, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs one line against sess. A bare number is a guess.
func (d *Dispatcher) Handle(ctx context.Context, sess *svc.Session, line string) Reply {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}
	}
	if n, err := strconv.Atoi(fields[0]); err == nil {
		return d.guess(ctx, sess, n)
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "start", "new", "play":
		return d.start(ctx, sess, args)
	case "hint":
		return d.hint(ctx, sess)
	case "status":
		return d.status(ctx, sess)
	case "quit", "giveup", "abandon":
		return d.abandon(ctx, sess)
	case "stats", "profile":
		return Reply{Text: d.f.Stats(guesspresenter.ToDTOProfile(sess.Profile()))}
	case "history":
		return d.history(sess)
	case "achievements":
		return Reply{Text: d.f.Achievements(guesspresenter.ToDTOProfile(sess.Profile()).Achievements)}
	case "presets", "modes":
		return Reply{Text: d.f.Presets()}
	case "chart":
		return d.chart(ctx, sess)
	case "name":
		return d.rename(ctx, sess, strings.Join(args, " "))
	case "avatar":
		if len(args) == 0 {
			return Reply{Text: d.f.Avatars()}
		}
		if err := sess.SetAvatar(ctx, args[0]); err != nil {
			return d.fail(ctx, sess, err)
		}
		return Reply{Text: d.f.AvatarChanged(args[0])}
	case "help", "?":
		return Reply{Text: d.f.Help(d.bot)}
	case "exit":
		if d.bot {
			return d.unknown()
		}
		return Reply{Exit: true}
	default:
		return d.unknown()
	}
}

func (d *Dispatcher) start(ctx context.Context, sess *svc.Session, args []string) Reply {
	var difficulty string
	var mode round.Mode
	for _, a := range args {
		if m, err := round.ParseMode(a); err == nil && mode == "" {
			mode = m
			continue
		}
		if difficulty == "" {
			difficulty = a
			continue
		}
		return d.fail(ctx, sess, round.ErrUnknownMode)
	}
	view, err := sess.Start(ctx, difficulty, mode)
	if errors.Is(err, svc.ErrRoundInProgress) && view != nil {
		return Reply{Text: d.f.Start(guesspresenter.ToDTORound(view), true)}
	}
	if err != nil {
		return d.fail(ctx, sess, err)
	}
	text := d.f.Start(guesspresenter.ToDTORound(view), false)
	if view.Closed != nil {
		text = d.completion(view.Closed, false) + "\n\n" + text
	}
	return Reply{Text: text}
}

func (d *Dispatcher) guess(ctx context.Context, sess *svc.Session, n int) Reply {
	res, err := sess.Guess(ctx, n)
	if err != nil {
		return d.fail(ctx, sess, err)
	}
	return Reply{Text: d.f.Guess(guesspresenter.ToDTOGuess(res))}
}

func (d *Dispatcher) hint(ctx context.Context, sess *svc.Session) Reply {
	text, err := sess.Hint(ctx)
	var expired *svc.ExpiredError
	if errors.As(err, &expired) {
		return Reply{Text: d.completion(expired.Completion, false)}
	}
	if err != nil {
		return d.fail(ctx, sess, err)
	}
	return Reply{Text: d.f.Hint(text)}
}

func (d *Dispatcher) status(ctx context.Context, sess *svc.Session) Reply {
	view, err := sess.Status(ctx)
	if err != nil {
		return d.fail(ctx, sess, err)
	}
	if view.Closed != nil {
		return Reply{Text: d.completion(view.Closed, false)}
	}
	return Reply{Text: d.f.Status(guesspresenter.ToDTORound(view))}
}

func (d *Dispatcher) abandon(ctx context.Context, sess *svc.Session) Reply {
	c, err := sess.Abandon(ctx)
	if err != nil {
		return d.fail(ctx, sess, err)
	}
	return Reply{Text: d.completion(c, true)}
}

func (d *Dispatcher) completion(c *svc.Completion, abandoned bool) string {
	return d.f.Completion(guesspresenter.ToDTORound(&c.Round), guesspresenter.ToDTOCompletion(c, abandoned))
}

func (d *Dispatcher) history(sess *svc.Session) Reply {
	p := sess.Profile()
	entries := guesspresenter.ToDTOHistory(sess.History(0))
	summary := guesspresenter.ToDTOHistorySummary(stats.Summarize(p.History))
	return Reply{Text: d.f.History(entries, summary)}
}

func (d *Dispatcher) chart(ctx context.Context, sess *svc.Session) Reply {
	p := sess.Profile()
	png, err := render.RenderPNG(ctx, render.FromHistory(p.Name, p.History))
	if err != nil {
		d.logger.Warn("chart_render_failed", zap.String("profile_id", p.ID), zap.Error(err))
		return d.fail(ctx, sess, err)
	}
	return Reply{Text: d.f.ChartCaption(p.Name, len(p.History)), Chart: png}
}

func (d *Dispatcher) rename(ctx context.Context, sess *svc.Session, name string) Reply {
	if err := sess.Rename(ctx, name); err != nil {
		return d.fail(ctx, sess, err)
	}
	return Reply{Text: d.f.Renamed(strings.TrimSpace(name))}
}

func (d *Dispatcher) unknown() Reply {
	return Reply{Text: d.f.Error(&guessdto.DomainError{Code: guesspresenter.CodeUnknownCommand}, nil)}
}

// fail renders err. Out-of-range messages need the round bounds, so the
// current status is looked up for them.
func (d *Dispatcher) fail(ctx context.Context, sess *svc.Session, err error) Reply {
	de := guesspresenter.ToDomainError(err)
	if !de.Retryable {
		d.logger.Error("command_failed", zap.Error(err))
	}
	var state *guessdto.RoundState
	if de.Code == guesspresenter.CodeOutOfRange {
		if view, serr := sess.Status(ctx); serr == nil {
			state = guesspresenter.ToDTORound(view)
		}
	}
	return Reply{Text: d.f.Error(de, state)}
}
