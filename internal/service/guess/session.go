package guess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/metrics"
	"github.com/park285/numguess/internal/round"
	"github.com/park285/numguess/internal/stats"
	"github.com/park285/numguess/internal/storage"
)

var (
	ErrNoActiveRound   = errors.New("no active round")
	ErrRoundInProgress = errors.New("round already in progress")
	ErrInvalidName     = errors.New("invalid player name")
	ErrInvalidAvatar   = errors.New("invalid avatar")
)

const (
	nameRuneLimit       = 24
	defaultDifficulty   = "medium"
	saveTimeout         = 5 * time.Second
	rejectedOutOfRange  = "out_of_range"
	rejectedRoundIsOver = "round_over"
)

type Config struct {
	DefaultDifficulty string
	DefaultMode       round.Mode
	HistoryLimit      int
}

func (c Config) normalized() Config {
	c.DefaultDifficulty = strings.ToLower(strings.TrimSpace(c.DefaultDifficulty))
	if c.DefaultDifficulty == "" {
		c.DefaultDifficulty = defaultDifficulty
	}
	if c.DefaultMode == "" {
		c.DefaultMode = round.ModeClassic
	}
	if c.HistoryLimit <= 0 || c.HistoryLimit > stats.MaxHistoryLimit {
		c.HistoryLimit = stats.DefaultHistoryLimit
	}
	return c
}

// Validate checks that the defaults resolve to a playable round.
func (c Config) Validate() error {
	c = c.normalized()
	if _, err := round.Resolve(c.DefaultDifficulty, c.DefaultMode); err != nil {
		return fmt.Errorf("default round config: %w", err)
	}
	return nil
}

type Option func(*Session)

func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithClock(c round.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.now = c
		}
	}
}

// WithRand fixes the random source handed to every round.
func WithRand(r round.Rand) Option {
	return func(s *Session) {
		if r != nil {
			s.rnd = r
		}
	}
}

// Session is the context object for one player: the loaded profile, at
// most one active round and the survival run. All methods are serialized.
type Session struct {
	mu sync.Mutex

	repo    storage.Repository
	cfg     Config
	logger  *zap.Logger
	metrics metrics.Recorder
	now     round.Clock
	rnd     round.Rand

	profile    *domain.Profile
	cur        *round.Round
	difficulty string
	survival   int
}

// NewSession loads the profile for profileID and returns an idle session.
func NewSession(ctx context.Context, repo storage.Repository, profileID string, cfg Config, opts ...Option) (*Session, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		repo:    repo,
		cfg:     cfg.normalized(),
		logger:  zap.NewNop(),
		metrics: metrics.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	p, err := repo.Load(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.profile = storage.Normalize(p, profileID, s.now())
	return s, nil
}

// Profile returns a copy of the player's profile.
func (s *Session) Profile() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Defaults returns the difficulty and mode used when Start gets blanks.
func (s *Session) Defaults() (string, round.Mode) {
	return s.cfg.DefaultDifficulty, s.cfg.DefaultMode
}

// Start begins a round. Blank difficulty or mode fall back to the session
// defaults. A round already in progress must be abandoned first; one that
// ran out of time is closed and reported in the view's Closed field.
func (s *Session) Start(ctx context.Context, difficulty string, mode round.Mode) (*RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := false
	if s.cur != nil && s.cur.Status() == round.StatusInProgress {
		if !s.cur.Expired(s.now()) {
			view := s.viewLocked()
			return &view, ErrRoundInProgress
		}
		expired = true
	}

	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty == "" {
		difficulty = s.cfg.DefaultDifficulty
	}
	if mode == "" {
		mode = s.cfg.DefaultMode
	}
	cfg, err := round.Resolve(difficulty, mode)
	if err != nil {
		return nil, err
	}
	var closed *Completion
	if expired {
		closed = s.expireLocked(ctx)
	}

	opts := []round.Option{round.WithClock(s.now)}
	if s.rnd != nil {
		opts = append(opts, round.WithRand(s.rnd))
	}
	r, err := round.Start(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if mode != round.ModeSurvival || s.cur == nil || s.cur.Config().Mode != round.ModeSurvival {
		s.survival = 0
	}
	s.cur = r
	s.difficulty = difficulty

	s.metrics.RoundStarted(difficulty, string(mode))
	s.logger.Info("round_started",
		zap.String("profile_id", s.profile.ID),
		zap.String("round_id", r.ID()),
		zap.String("difficulty", difficulty),
		zap.String("mode", string(mode)),
	)
	view := s.viewLocked()
	view.Closed = closed
	return &view, nil
}

// Guess submits one guess. A time-limited round that ran out is closed as
// lost before the guess is considered, and the completion is returned with
// TimedOut set.
func (s *Session) Guess(ctx context.Context, value int) (*GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return nil, ErrNoActiveRound
	}
	if s.cur.Expired(s.now()) {
		c := s.expireLocked(ctx)
		return &GuessResult{Value: value, Round: c.Round, Completion: c}, nil
	}

	outcome, err := s.cur.Guess(value)
	if err != nil {
		switch {
		case errors.Is(err, round.ErrOutOfRange):
			s.metrics.GuessRejected(rejectedOutOfRange)
		case errors.Is(err, round.ErrRoundOver):
			s.metrics.GuessRejected(rejectedRoundIsOver)
		}
		return nil, err
	}

	res := &GuessResult{Value: value, Outcome: outcome}
	if s.cur.Status() != round.StatusInProgress {
		res.Completion = s.completeLocked(ctx, false)
		res.Round = res.Completion.Round
		return res, nil
	}
	res.Round = s.viewLocked()
	return res, nil
}

// Hint spends the round's hint. A round that ran out of time is closed
// and reported through an *ExpiredError.
func (s *Session) Hint(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return "", ErrNoActiveRound
	}
	if s.cur.Expired(s.now()) {
		return "", &ExpiredError{Completion: s.expireLocked(ctx)}
	}
	text, err := s.cur.Hint()
	if err != nil {
		return "", err
	}
	s.metrics.HintUsed(s.difficulty)
	return text, nil
}

// Status describes the current or last round. An expired round is closed
// first.
func (s *Session) Status(ctx context.Context) (*RoundView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil {
		return nil, ErrNoActiveRound
	}
	if s.cur.Expired(s.now()) {
		c := s.expireLocked(ctx)
		view := c.Round
		view.Closed = c
		return &view, nil
	}
	view := s.viewLocked()
	return &view, nil
}

// Abandon ends the active round as a loss.
func (s *Session) Abandon(ctx context.Context) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || s.cur.Status() != round.StatusInProgress {
		return nil, ErrNoActiveRound
	}
	timedOut := s.cur.Expired(s.now())
	if err := s.cur.Expire(); err != nil {
		return nil, err
	}
	return s.completeLocked(ctx, timedOut), nil
}

// settle closes a round that ran out of time and reports whether no round
// is left in progress.
func (s *Session) settle(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil || s.cur.Status() != round.StatusInProgress {
		return true
	}
	if s.cur.Expired(s.now()) {
		s.expireLocked(ctx)
		return true
	}
	return false
}

// Rename changes the profile's display name.
func (s *Session) Rename(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > nameRuneLimit {
		return fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, nameRuneLimit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Name = name
	s.profile.UpdatedAt = s.now()
	return s.saveLocked(ctx)
}

// SetAvatar changes the profile's avatar.
func (s *Session) SetAvatar(ctx context.Context, avatar string) error {
	avatar = strings.TrimSpace(avatar)
	if !domain.ValidAvatar(avatar) {
		return fmt.Errorf("%w: %q", ErrInvalidAvatar, avatar)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile.Avatar = avatar
	s.profile.UpdatedAt = s.now()
	return s.saveLocked(ctx)
}

// History returns up to limit most recent entries, newest first.
func (s *Session) History(limit int) []domain.RoundRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.profile.History
	if limit <= 0 || limit > len(h) {
		limit = len(h)
	}
	out := make([]domain.RoundRecord, 0, limit)
	for i := len(h) - 1; i >= len(h)-limit; i-- {
		out = append(out, h[i])
	}
	return out
}

func (s *Session) expireLocked(ctx context.Context) *Completion {
	_ = s.cur.Expire()
	return s.completeLocked(ctx, true)
}

// completeLocked folds the finished round into the profile and persists it.
// A failed save is logged and counted; the completion is still returned.
func (s *Session) completeLocked(ctx context.Context, timedOut bool) *Completion {
	st := s.cur.State()
	won := st.Status == round.StatusWon

	runScore := 0
	if st.Config.Mode == round.ModeSurvival {
		if won {
			s.survival += st.Score
			runScore = s.survival
		} else {
			runScore = s.survival
			s.survival = 0
		}
	}

	res := stats.Result{
		RoundID:      st.ID,
		Difficulty:   s.difficulty,
		Mode:         string(st.Config.Mode),
		Label:        st.Config.Label,
		Target:       st.Target,
		Guesses:      st.Guesses,
		AttemptsUsed: st.AttemptsUsed,
		HintsUsed:    st.HintsUsed,
		Won:          won,
		Score:        st.Score,
		RunScore:     runScore,
		Elapsed:      st.Elapsed,
		PlayedAt:     st.EndedAt,
	}
	upd := stats.Apply(s.profile, res, s.cfg.HistoryLimit)

	s.metrics.RoundFinished(s.difficulty, string(st.Config.Mode), won, st.AttemptsUsed, st.Elapsed)
	s.logger.Info("round_finished",
		zap.String("profile_id", s.profile.ID),
		zap.String("round_id", st.ID),
		zap.String("difficulty", s.difficulty),
		zap.String("mode", string(st.Config.Mode)),
		zap.Bool("won", won),
		zap.Bool("timed_out", timedOut),
		zap.Int("attempts", st.AttemptsUsed),
		zap.Int("score", st.Score),
		zap.Duration("elapsed", st.Elapsed),
	)

	c := &Completion{
		Round:        s.viewLocked(),
		Won:          won,
		TimedOut:     timedOut,
		Score:        st.Score,
		RunScore:     runScore,
		NewHighScore: upd.NewHighScore,
		Achievements: upd.NewAchievements,
		Stats:        upd.Stats,
	}
	if err := s.saveLocked(ctx); err != nil {
		c.SaveErr = err
	}
	return c
}

func (s *Session) saveLocked(ctx context.Context) error {
	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, s.profile); err != nil {
		s.metrics.SaveFailed()
		s.logger.Warn("profile_save_failed",
			zap.String("profile_id", s.profile.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Session) viewLocked() RoundView {
	st := s.cur.State()
	v := RoundView{
		RoundID:       st.ID,
		Difficulty:    s.difficulty,
		Mode:          st.Config.Mode,
		LowerBound:    st.Config.LowerBound,
		UpperBound:    st.Config.UpperBound,
		MaxAttempts:   st.Config.MaxAttempts,
		AttemptsUsed:  st.AttemptsUsed,
		MaxHints:      st.Config.MaxHints,
		HintsUsed:     st.HintsUsed,
		Guesses:       st.Guesses,
		Status:        st.Status,
		Elapsed:       st.Elapsed,
		TimeLimit:     st.Config.TimeLimit,
		SurvivalScore: s.survival,
	}
	if st.Config.TimeLimit > 0 && st.Status == round.StatusInProgress {
		v.Remaining = st.Config.TimeLimit - st.Elapsed
		if v.Remaining < 0 {
			v.Remaining = 0
		}
	}
	if st.Finished() {
		v.Target = st.Target
	}
	return v
}
