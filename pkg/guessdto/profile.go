package guessdto

import "time"

type HighScore struct {
	Label string
	Score int
}

type Stats struct {
	GamesPlayed     int
	GamesWon        int
	CurrentStreak   int
	BestStreak      int
	TotalGuesses    int
	CorrectGuesses  int
	TotalScore      int
	Accuracy        float64
	WinRate         float64
	AvgGuessSeconds float64
	BestTime        time.Duration
	HighScores      []HighScore
}

type Profile struct {
	ID           string
	Name         string
	Avatar       string
	Stats        Stats
	Achievements []Achievement
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type HistoryEntry struct {
	ID           string
	Difficulty   string
	Mode         string
	Target       int
	AttemptsUsed int
	HintsUsed    int
	Guesses      []int
	Won          bool
	Score        int
	Elapsed      time.Duration
	PlayedAt     time.Time
}

type HistorySummary struct {
	Games         int
	Wins          int
	WinRate       float64
	LongestStreak int
}
