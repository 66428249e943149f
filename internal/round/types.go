package round

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a round. Won and Lost are terminal.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusWon        Status = "WON"
	StatusLost       Status = "LOST"
)

// Outcome is the directional feedback for one accepted guess.
type Outcome string

const (
	OutcomeTooLow  Outcome = "TOO_LOW"
	OutcomeTooHigh Outcome = "TOO_HIGH"
	OutcomeCorrect Outcome = "CORRECT"
)

// HintTier selects how much a hint discloses about the target.
type HintTier string

const (
	HintCoarse   HintTier = "coarse"
	HintParity   HintTier = "parity"
	HintProperty HintTier = "property"
)

var (
	ErrInvalidConfig    = errors.New("invalid round config")
	ErrOutOfRange       = errors.New("guess out of range")
	ErrRoundOver        = errors.New("round already over")
	ErrNoHintsRemaining = errors.New("no hints remaining")
	ErrNotWon           = errors.New("round not won")
)

// Config is the immutable rule set of a single round.
type Config struct {
	LowerBound  int
	UpperBound  int
	MaxAttempts int
	MaxHints    int
	// TimeLimit of zero means unlimited.
	TimeLimit time.Duration
	HintTier  HintTier
	// Label keys the high score table (difficulty or mode name).
	Label string
	Mode  Mode
}

// Rand is the random source a round draws its target and hint choices from.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// Clock returns the current wall-clock time.
type Clock func() time.Time

// State is a read-only copy of a round for presentation and persistence.
type State struct {
	ID           string
	Config       Config
	Target       int
	AttemptsUsed int
	HintsUsed    int
	Guesses      []int
	Status       Status
	StartedAt    time.Time
	EndedAt      time.Time
	Elapsed      time.Duration
	Score        int
}

// Finished reports whether the round reached a terminal status.
func (s State) Finished() bool {
	return s.Status != StatusInProgress
}

// AttemptsLeft is the remaining attempt budget.
func (s State) AttemptsLeft() int {
	left := s.Config.MaxAttempts - s.AttemptsUsed
	if left < 0 {
		return 0
	}
	return left
}

// HintsLeft is the remaining hint budget.
func (s State) HintsLeft() int {
	left := s.Config.MaxHints - s.HintsUsed
	if left < 0 {
		return 0
	}
	return left
}
