package round

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// seqRand replays fixed values, reduced into [0, n).
type seqRand struct {
	vals []int
	i    int
}

func (s *seqRand) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func fiveAttempts() Config {
	return Config{LowerBound: 1, UpperBound: 20, MaxAttempts: 5, MaxHints: 1, HintTier: HintCoarse, Label: "medium"}
}

// startAt7 starts a round whose target is forced to 7.
func startAt7(t *testing.T, cfg Config, clk *fakeClock) *Round {
	t.Helper()
	r, err := Start(cfg, WithRand(&seqRand{vals: []int{6}}), WithClock(clk.Now))
	require.NoError(t, err)
	require.Equal(t, 7, r.Target())
	return r
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cases := map[string]Config{
		"equal bounds":      {LowerBound: 5, UpperBound: 5, MaxAttempts: 3},
		"inverted bounds":   {LowerBound: 10, UpperBound: 1, MaxAttempts: 3},
		"zero attempts":     {LowerBound: 1, UpperBound: 10, MaxAttempts: 0},
		"negative attempts": {LowerBound: 1, UpperBound: 10, MaxAttempts: -1},
		"negative hints":    {LowerBound: 1, UpperBound: 10, MaxAttempts: 3, MaxHints: -1},
		"negative limit":    {LowerBound: 1, UpperBound: 10, MaxAttempts: 3, TimeLimit: -time.Second},
		"full int range":    {LowerBound: math.MinInt, UpperBound: math.MaxInt, MaxAttempts: 1, HintTier: HintParity},
		"overflowing span":  {LowerBound: -1, UpperBound: math.MaxInt, MaxAttempts: 1},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := Start(cfg)
			require.Nil(t, r)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestStartTargetWithinBounds(t *testing.T) {
	src := rand.New(rand.NewPCG(1, 2))
	cfg := Config{LowerBound: -3, UpperBound: 4, MaxAttempts: 1}
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		r, err := Start(cfg, WithRand(src))
		require.NoError(t, err)
		require.GreaterOrEqual(t, r.Target(), cfg.LowerBound)
		require.LessOrEqual(t, r.Target(), cfg.UpperBound)
		seen[r.Target()] = true
	}
	require.Len(t, seen, 8, "every value in range should be drawn")
}

func TestStartWidestRange(t *testing.T) {
	cfg := Config{LowerBound: 0, UpperBound: math.MaxInt - 1, MaxAttempts: 1}
	r, err := Start(cfg, WithRand(rand.New(rand.NewPCG(3, 4))))
	require.NoError(t, err)
	require.GreaterOrEqual(t, r.Target(), cfg.LowerBound)
	require.LessOrEqual(t, r.Target(), cfg.UpperBound)

	cfg = Config{LowerBound: math.MinInt, UpperBound: -2, MaxAttempts: 1}
	r, err = Start(cfg, WithRand(rand.New(rand.NewPCG(5, 6))))
	require.NoError(t, err)
	require.LessOrEqual(t, r.Target(), cfg.UpperBound)
}

func TestStartInitialState(t *testing.T) {
	clk := newClock()
	r := startAt7(t, fiveAttempts(), clk)
	st := r.State()
	require.NotEmpty(t, st.ID)
	require.Equal(t, StatusInProgress, st.Status)
	require.Zero(t, st.AttemptsUsed)
	require.Zero(t, st.HintsUsed)
	require.Empty(t, st.Guesses)
	require.Equal(t, clk.t, st.StartedAt)
	require.False(t, st.Finished())
	require.Equal(t, 5, st.AttemptsLeft())
	require.Equal(t, 1, st.HintsLeft())
}

func TestWithIDOverridesGeneratedID(t *testing.T) {
	r, err := Start(fiveAttempts(), WithID("round-1"))
	require.NoError(t, err)
	require.Equal(t, "round-1", r.ID())
}

func TestGuessScenarioWin(t *testing.T) {
	clk := newClock()
	r := startAt7(t, fiveAttempts(), clk)

	var outcomes []Outcome
	for _, g := range []int{3, 10, 7} {
		clk.Advance(time.Second)
		o, err := r.Guess(g)
		require.NoError(t, err)
		outcomes = append(outcomes, o)
	}
	require.Equal(t, []Outcome{OutcomeTooLow, OutcomeTooHigh, OutcomeCorrect}, outcomes)
	require.Equal(t, 3, r.AttemptsUsed())
	require.Equal(t, StatusWon, r.Status())
	require.Equal(t, []int{3, 10, 7}, r.Guesses())

	score, err := r.Score()
	require.NoError(t, err)
	require.Equal(t, 1000-2*3-50*3, score)
	require.Equal(t, 3*time.Second, r.Elapsed())
}

func TestGuessScenarioLoss(t *testing.T) {
	r := startAt7(t, fiveAttempts(), newClock())
	for i, g := range []int{1, 2, 3, 4, 5} {
		o, err := r.Guess(g)
		require.NoError(t, err)
		require.Equal(t, OutcomeTooLow, o)
		if i < 4 {
			require.Equal(t, StatusInProgress, r.Status())
		}
	}
	require.Equal(t, StatusLost, r.Status())
	require.Equal(t, 5, r.AttemptsUsed())

	_, err := r.Score()
	require.ErrorIs(t, err, ErrNotWon)
}

func TestGuessOutOfRangeDoesNotConsumeAttempt(t *testing.T) {
	r := startAt7(t, fiveAttempts(), newClock())
	for _, g := range []int{0, 21, -5, 100} {
		_, err := r.Guess(g)
		require.ErrorIs(t, err, ErrOutOfRange)
	}
	require.Zero(t, r.AttemptsUsed())
	require.Empty(t, r.Guesses())

	for _, g := range []int{1, 0, 20, 25} {
		_, _ = r.Guess(g)
	}
	require.Equal(t, 2, r.AttemptsUsed())
	require.Equal(t, []int{1, 20}, r.Guesses())
}

func TestTerminalStateIsFrozen(t *testing.T) {
	for _, status := range []Status{StatusWon, StatusLost} {
		t.Run(string(status), func(t *testing.T) {
			cfg := fiveAttempts()
			cfg.MaxAttempts = 1
			r := startAt7(t, cfg, newClock())
			guess := 7
			if status == StatusLost {
				guess = 8
			}
			_, err := r.Guess(guess)
			require.NoError(t, err)
			require.Equal(t, status, r.Status())

			before := r.State()
			_, err = r.Guess(7)
			require.ErrorIs(t, err, ErrRoundOver)
			_, err = r.Guess(99)
			require.ErrorIs(t, err, ErrRoundOver)
			_, err = r.Hint()
			require.ErrorIs(t, err, ErrRoundOver)
			require.ErrorIs(t, r.Expire(), ErrRoundOver)
			require.Equal(t, before, r.State())
		})
	}
}

func TestHintBudget(t *testing.T) {
	r := startAt7(t, fiveAttempts(), newClock())
	text, err := r.Hint()
	require.NoError(t, err)
	require.Equal(t, "The number is between 6 and 10", text)
	require.Equal(t, 1, r.HintsUsed())

	_, err = r.Hint()
	require.ErrorIs(t, err, ErrNoHintsRemaining)
	require.Equal(t, 1, r.HintsUsed())
}

func TestZeroHintBudget(t *testing.T) {
	cfg := fiveAttempts()
	cfg.MaxHints = 0
	r := startAt7(t, cfg, newClock())
	_, err := r.Hint()
	require.ErrorIs(t, err, ErrNoHintsRemaining)
	require.Zero(t, r.HintsUsed())
}

func TestHintLowersScore(t *testing.T) {
	clk := newClock()
	r := startAt7(t, fiveAttempts(), clk)
	_, err := r.Hint()
	require.NoError(t, err)
	_, err = r.Guess(7)
	require.NoError(t, err)
	score, err := r.Score()
	require.NoError(t, err)
	require.Equal(t, 1000-100-50, score)
}

func TestExpiry(t *testing.T) {
	clk := newClock()
	cfg := fiveAttempts()
	cfg.TimeLimit = 60 * time.Second
	r := startAt7(t, cfg, clk)

	clk.Advance(59 * time.Second)
	require.False(t, r.Expired(clk.Now()))
	clk.Advance(time.Second)
	require.True(t, r.Expired(clk.Now()))

	require.NoError(t, r.Expire())
	require.Equal(t, StatusLost, r.Status())
	require.False(t, r.Expired(clk.Now()), "finished rounds never report expiry")
	require.Equal(t, 60*time.Second, r.Elapsed())
}

func TestUnlimitedRoundNeverExpires(t *testing.T) {
	clk := newClock()
	r := startAt7(t, fiveAttempts(), clk)
	clk.Advance(24 * time.Hour)
	require.False(t, r.Expired(clk.Now()))
}

func TestErrorsAreDistinct(t *testing.T) {
	all := []error{ErrInvalidConfig, ErrOutOfRange, ErrRoundOver, ErrNoHintsRemaining, ErrNotWon}
	for i, a := range all {
		for j, b := range all {
			require.Equal(t, i == j, errors.Is(a, b))
		}
	}
}
