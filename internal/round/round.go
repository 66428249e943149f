package round

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// Round enforces the rules of one guessing round. It is not safe for
// concurrent use; callers drive it one guess at a time.
type Round struct {
	id  string
	cfg Config
	rnd Rand
	now Clock

	target    int
	attempts  int
	hints     int
	history   []int
	status    Status
	startedAt time.Time
	endedAt   time.Time
	score     int
}

type Option func(*Round)

// WithRand injects the random source used for the target and property hints.
func WithRand(r Rand) Option {
	return func(rd *Round) {
		if r != nil {
			rd.rnd = r
		}
	}
}

// WithClock injects the clock used for elapsed-time sampling.
func WithClock(c Clock) Option {
	return func(rd *Round) {
		if c != nil {
			rd.now = c
		}
	}
}

// WithID overrides the generated round id.
func WithID(id string) Option {
	return func(rd *Round) {
		if id != "" {
			rd.id = id
		}
	}
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Validate checks the structural rules of a config.
func (c Config) Validate() error {
	if c.LowerBound >= c.UpperBound {
		return fmt.Errorf("%w: lower bound %d must be below upper bound %d", ErrInvalidConfig, c.LowerBound, c.UpperBound)
	}
	// The target draw needs the range size to fit in an int.
	if uint64(c.UpperBound)-uint64(c.LowerBound) >= math.MaxInt {
		return fmt.Errorf("%w: range [%d, %d] is too wide", ErrInvalidConfig, c.LowerBound, c.UpperBound)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.MaxHints < 0 {
		return fmt.Errorf("%w: max hints must not be negative, got %d", ErrInvalidConfig, c.MaxHints)
	}
	if c.TimeLimit < 0 {
		return fmt.Errorf("%w: time limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Start validates cfg, draws the target and begins the round.
func Start(cfg Config, opts ...Option) (*Round, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Round{
		cfg:     cfg,
		rnd:     globalRand{},
		now:     time.Now,
		history: []int{},
		status:  StatusInProgress,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	r.target = cfg.LowerBound + r.rnd.IntN(cfg.UpperBound-cfg.LowerBound+1)
	r.startedAt = r.now()
	return r, nil
}

func (r *Round) ID() string { return r.id }
func (r *Round) Config() Config { return r.cfg }
func (r *Round) Status() Status { return r.status }
func (r *Round) Target() int { return r.target }
func (r *Round) AttemptsUsed() int { return r.attempts }
func (r *Round) HintsUsed() int { return r.hints }

// Guesses returns the accepted guesses in submission order.
func (r *Round) Guesses() []int {
	return append([]int(nil), r.history...)
}

// Guess evaluates one guess. Out-of-range values are rejected without
// consuming an attempt. Exhausting the attempt budget on a wrong guess
// ends the round as lost within the same call.
func (r *Round) Guess(value int) (Outcome, error) {
	if r.status != StatusInProgress {
		return "", ErrRoundOver
	}
	if value < r.cfg.LowerBound || value > r.cfg.UpperBound {
		return "", fmt.Errorf("%w: %d is outside [%d, %d]", ErrOutOfRange, value, r.cfg.LowerBound, r.cfg.UpperBound)
	}

	r.attempts++
	r.history = append(r.history, value)

	if value == r.target {
		r.finish(StatusWon)
		r.score = ComputeScore(r.endedAt.Sub(r.startedAt), r.hints, r.attempts)
		return OutcomeCorrect, nil
	}

	outcome := OutcomeTooHigh
	if value < r.target {
		outcome = OutcomeTooLow
	}
	if r.attempts >= r.cfg.MaxAttempts {
		r.finish(StatusLost)
	}
	return outcome, nil
}

// Hint spends one hint and describes the target according to the tier.
func (r *Round) Hint() (string, error) {
	if r.status != StatusInProgress {
		return "", ErrRoundOver
	}
	if r.hints >= r.cfg.MaxHints {
		return "", ErrNoHintsRemaining
	}
	r.hints++
	return describeTarget(r.cfg.HintTier, r.target, r.rnd), nil
}

// Score returns the score frozen at the winning guess.
func (r *Round) Score() (int, error) {
	if r.status != StatusWon {
		return 0, ErrNotWon
	}
	return r.score, nil
}

// Expired reports whether a time-limited round ran past its limit at now.
func (r *Round) Expired(now time.Time) bool {
	if r.status != StatusInProgress || r.cfg.TimeLimit <= 0 {
		return false
	}
	return now.Sub(r.startedAt) >= r.cfg.TimeLimit
}

// Expire ends the round as lost. Used when the time limit ran out or the
// player abandons the round.
func (r *Round) Expire() error {
	if r.status != StatusInProgress {
		return ErrRoundOver
	}
	r.finish(StatusLost)
	return nil
}

// Elapsed is the wall-clock time since start, frozen once the round ends.
func (r *Round) Elapsed() time.Duration {
	if r.status != StatusInProgress {
		return r.endedAt.Sub(r.startedAt)
	}
	return r.now().Sub(r.startedAt)
}

// State returns a copy of the round.
func (r *Round) State() State {
	return State{
		ID:           r.id,
		Config:       r.cfg,
		Target:       r.target,
		AttemptsUsed: r.attempts,
		HintsUsed:    r.hints,
		Guesses:      r.Guesses(),
		Status:       r.status,
		StartedAt:    r.startedAt,
		EndedAt:      r.endedAt,
		Elapsed:      r.Elapsed(),
		Score:        r.score,
	}
}

func (r *Round) finish(status Status) {
	r.status = status
	r.endedAt = r.now()
}
