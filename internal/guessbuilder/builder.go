package guessbuilder

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/numguess/internal/config"
	"github.com/park285/numguess/internal/metrics"
	"github.com/park285/numguess/internal/msgcat"
	"github.com/park285/numguess/internal/round"
	svc "github.com/park285/numguess/internal/service/guess"
	"github.com/park285/numguess/internal/storage"
)

// Deps is everything a front-end needs to run games.
type Deps struct {
	Repo     storage.Repository
	Catalog  *msgcat.Catalog
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer
	Session  svc.Config

	closers []func() error
}

// Close releases backend connections.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// New wires storage, messages, presets and metrics from cfg. A nil
// registry disables Prometheus metrics.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger, reg *prometheus.Registry) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := round.LoadPresetOverrides(cfg.PresetsFile); err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	d := &Deps{
		Catalog: cat,
		Metrics: metrics.Nop(),
		Session: svc.Config{
			DefaultDifficulty: cfg.DefaultDifficulty,
			DefaultMode:       round.Mode(cfg.DefaultMode),
			HistoryLimit:      cfg.HistoryLimit,
		},
	}
	if err := d.Session.Validate(); err != nil {
		return nil, err
	}

	if reg != nil {
		rec, err := metrics.NewPrometheus(reg)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		d.Metrics, d.Gatherer = rec, reg
	}

	repo, err := d.openRepository(ctx, cfg)
	if err != nil {
		_ = d.Close()
		return nil, err
	}
	d.Repo = repo
	logger.Info("storage_ready", zap.String("backend", cfg.StoreBackend))
	return d, nil
}

func (d *Deps) openRepository(ctx context.Context, cfg *config.AppConfig) (storage.Repository, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return storage.NewMemoryRepository(), nil
	case config.BackendFile, "":
		return storage.NewFileRepository(cfg.DataDir)
	case config.BackendRedis:
		opts, err := parseRedisURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		d.closers = append(d.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return storage.NewRedisStore(rdb, time.Duration(cfg.RedisTTLSec)*time.Second), nil
	case config.BackendPostgres:
		openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		db, err := storage.OpenPostgres(openCtx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, db.Close)
		return migrated(openCtx, db)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.StoreBackend)
	}
}

func migrated(ctx context.Context, db *sql.DB) (storage.Repository, error) {
	repo := storage.NewPostgresRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := u.Port()
	if port == "" {
		port = "6379"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid db %q", p)
		}
		db = n
	}
	opts := &redis.Options{Addr: net.JoinHostPort(host, port), DB: db}
	if u.User != nil {
		opts.Username = u.User.Username()
		opts.Password, _ = u.User.Password()
	}
	if u.Scheme == "rediss" {
		opts.TLSConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}
