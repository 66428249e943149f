package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/command"
	svc "github.com/park285/numguess/internal/service/guess"
)

const DefaultChartPath = "numguess-chart.png"

// Game is the interactive terminal loop for one local player.
type Game struct {
	sess      *svc.Session
	d         *command.Dispatcher
	f         *guesspresenter.Formatter
	in        io.Reader
	out       io.Writer
	chartPath string
	logger    *zap.Logger
}

type Option func(*Game)

func WithChartPath(p string) Option {
	return func(g *Game) {
		if strings.TrimSpace(p) != "" {
			g.chartPath = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.logger = l
		}
	}
}

func New(sess *svc.Session, f *guesspresenter.Formatter, in io.Reader, out io.Writer, opts ...Option) *Game {
	g := &Game{
		sess:      sess,
		f:         f,
		in:        in,
		out:       out,
		chartPath: DefaultChartPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.d = command.New(f, command.WithLogger(g.logger))
	return g
}

// Run starts a round with difficulty and mode (blank for the defaults) and
// reads commands until exit, end of input or ctx is done.
func (g *Game) Run(ctx context.Context, difficulty, mode string) error {
	fmt.Fprintln(g.out, g.f.Help(false))
	fmt.Fprintln(g.out)
	g.reply(g.d.Handle(ctx, g.sess, strings.TrimSpace("start "+difficulty+" "+mode)))

	sc := bufio.NewScanner(g.in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(g.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(g.out)
			return sc.Err()
		}
		r := g.d.Handle(ctx, g.sess, sc.Text())
		if r.Exit {
			return nil
		}
		g.reply(r)
	}
}

func (g *Game) reply(r command.Reply) {
	if r.Text != "" {
		fmt.Fprintln(g.out, r.Text)
	}
	if len(r.Chart) == 0 {
		return
	}
	if err := os.WriteFile(g.chartPath, r.Chart, 0o644); err != nil {
		g.logger.Warn("chart_write_failed", zap.String("path", g.chartPath), zap.Error(err))
		fmt.Fprintln(g.out, g.f.Error(guesspresenter.ToDomainError(err), nil))
		return
	}
	fmt.Fprintln(g.out, g.f.ChartSaved(g.chartPath))
}
