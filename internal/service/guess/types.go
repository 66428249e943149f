package guess

import (
	"time"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/round"
	"github.com/park285/numguess/internal/stats"
)

// RoundView is a presentation snapshot of a round. Target is zero while
// the round is in progress.
type RoundView struct {
	RoundID       string
	Difficulty    string
	Mode          round.Mode
	LowerBound    int
	UpperBound    int
	MaxAttempts   int
	AttemptsUsed  int
	MaxHints      int
	HintsUsed     int
	Guesses       []int
	Status        round.Status
	Elapsed       time.Duration
	TimeLimit     time.Duration
	Remaining     time.Duration
	SurvivalScore int
	Target        int
	// Closed is set when this call first closed a time-limited round that
	// had run out.
	Closed *Completion
}

func (v RoundView) AttemptsLeft() int {
	if left := v.MaxAttempts - v.AttemptsUsed; left > 0 {
		return left
	}
	return 0
}

func (v RoundView) HintsLeft() int {
	if left := v.MaxHints - v.HintsUsed; left > 0 {
		return left
	}
	return 0
}

func (v RoundView) Finished() bool {
	return v.Status != round.StatusInProgress
}

// Completion reports a round that just ended and what it changed.
type Completion struct {
	Round        RoundView
	Won          bool
	TimedOut     bool
	Score        int
	RunScore     int
	NewHighScore bool
	Achievements []stats.Achievement
	Stats        domain.Stats
	// SaveErr is set when the profile could not be persisted.
	SaveErr error
}

// ExpiredError is returned when a call finds the round's time limit
// already passed. The round is closed as lost and Completion reports it.
type ExpiredError struct {
	Completion *Completion
}

func (e *ExpiredError) Error() string { return "round time limit reached" }

func (e *ExpiredError) Unwrap() error { return round.ErrRoundOver }

type GuessResult struct {
	Value   int
	Outcome round.Outcome
	Round   RoundView
	// Completion is set when this guess ended the round.
	Completion *Completion
}
