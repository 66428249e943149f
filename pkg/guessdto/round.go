package guessdto

import "time"

type RoundState struct {
	RoundID       string
	Difficulty    string
	Mode          string
	ModeTitle     string
	LowerBound    int
	UpperBound    int
	MaxAttempts   int
	AttemptsUsed  int
	AttemptsLeft  int
	MaxHints      int
	HintsUsed     int
	HintsLeft     int
	Guesses       []int
	Status        string
	Finished      bool
	Elapsed       time.Duration
	TimeLimit     time.Duration
	Remaining     time.Duration
	SurvivalScore int
	// Target is revealed only once the round is over.
	Target int
}

type Achievement struct {
	ID          string
	Name        string
	Description string
}

type Completion struct {
	Won          bool
	TimedOut     bool
	Abandoned    bool
	Score        int
	RunScore     int
	Label        string
	NewHighScore bool
	Achievements []Achievement
	SaveFailed   bool
}

type GuessResult struct {
	Value      int
	Outcome    string
	Round      RoundState
	Completion *Completion
}
