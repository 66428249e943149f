package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/park285/numguess/internal/adapter/guesspresenter"
	"github.com/park285/numguess/internal/bot"
	"github.com/park285/numguess/internal/guessbuilder"
	"github.com/park285/numguess/internal/irisfast"
	"github.com/park285/numguess/internal/metrics"
	"github.com/park285/numguess/internal/obslog"
	svc "github.com/park285/numguess/internal/service/guess"
)

const (
	maxReconnectAttempts = 5
	sessionSweepInterval = time.Minute
	sessionIdleTTL       = 30 * time.Minute
)

func botCommand() *cli.Command {
	return &cli.Command{
		Name:  "bot",
		Usage: "serve games to KakaoTalk rooms through the Iris bridge",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "log websocket replies instead of sending them"},
		},
		Action: runBot,
	}
}

func runBot(c *cli.Context) error {
	if err := obslog.InitFromEnv(); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger := obslog.L()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateBot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	deps, err := guessbuilder.New(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if reg != nil {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, deps.Gatherer, logger); err != nil {
				logger.Error("metrics_server_failed", zap.Error(err))
			}
		}()
	}

	mgr, err := svc.NewManager(deps.Repo, deps.Session, svc.WithLogger(logger), svc.WithMetrics(deps.Metrics))
	if err != nil {
		return err
	}
	go mgr.RunEviction(ctx, sessionSweepInterval, sessionIdleTTL, logger)

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(cfg.Headers))
	ws := irisfast.NewListener(cfg.IrisWSURL, maxReconnectAttempts,
		irisfast.WithListenerLogger(logger),
		irisfast.WithHandshakeHeaders(cfg.Headers))
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})

	egress := irisfast.NewEgress(cfg.EgressMode, c.Bool("dry-run"), client, ws, logger)
	formatter := guesspresenter.NewFormatter(deps.Catalog, prefixProvider{prefix: cfg.BotPrefix}, guesspresenter.WithSeeMore())
	h := bot.NewHandler(bot.Config{Prefix: cfg.BotPrefix, RoomAllowed: cfg.RoomAllowed}, mgr, formatter, egress, logger)

	ws.OnMessage(func(msg *irisfast.Message) {
		if !h.Accepts(msg) {
			return
		}
		// Keep the read loop free while a reply is in flight.
		go h.Handle(ctx, msg)
	})

	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = ws.Connect(cctx)
	cancel()
	if err != nil {
		return fmt.Errorf("ws connect: %w", err)
	}
	logger.Info("bot_ready", zap.String("prefix", cfg.BotPrefix), zap.String("egress", cfg.EgressMode))

	<-ctx.Done()
	logger.Info("bot_shutdown", zap.Int("sessions", mgr.Len()))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer closeCancel()
	return ws.Close(closeCtx)
}
