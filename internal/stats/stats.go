// Package stats folds completed rounds into a player's aggregate record,
// rolling history and achievements.
package stats

import (
	"time"

	"github.com/google/uuid"

	"github.com/park285/numguess/internal/domain"
)

const (
	// DefaultHistoryLimit caps the rolling round log.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit is the largest configurable cap.
	MaxHistoryLimit = 100
)

// Result is the outcome of one finished round.
type Result struct {
	RoundID    string
	Difficulty string
	Mode       string
	// Label keys the high score table.
	Label        string
	Target       int
	Guesses      []int
	AttemptsUsed int
	HintsUsed    int
	Won          bool
	Score        int
	// RunScore is compared against the high score table. Cumulative modes
	// set it to the running total; zero means Score.
	RunScore int
	Elapsed  time.Duration
	PlayedAt time.Time
}

func (r Result) label() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Difficulty
}

func (r Result) highScoreValue() int {
	if r.RunScore > 0 {
		return r.RunScore
	}
	return r.Score
}

// RecordRound returns prev updated with res. prev is not modified.
func RecordRound(prev domain.Stats, res Result) domain.Stats {
	next := prev
	next.HighScores = make(map[string]int, len(prev.HighScores)+1)
	for k, v := range prev.HighScores {
		next.HighScores[k] = v
	}

	next.GamesPlayed++
	next.TotalGuesses += res.AttemptsUsed
	if res.Won {
		next.GamesWon++
		next.CorrectGuesses++
		next.CurrentStreak++
		next.TotalScore += res.Score
		if v := res.highScoreValue(); v > next.HighScores[res.label()] {
			next.HighScores[res.label()] = v
		}
		if next.BestTime == 0 || res.Elapsed < next.BestTime {
			next.BestTime = res.Elapsed
		}
	} else {
		next.CurrentStreak = 0
	}
	if next.CurrentStreak > next.BestStreak {
		next.BestStreak = next.CurrentStreak
	}
	if next.TotalGuesses > 0 {
		elapsed := res.Elapsed.Seconds()
		next.AvgGuessSeconds += (elapsed - next.AvgGuessSeconds) / float64(next.TotalGuesses)
	}
	return next
}

// Accuracy is the share of correct guesses in percent; 0 with no guesses.
func Accuracy(s domain.Stats) float64 {
	if s.TotalGuesses == 0 {
		return 0
	}
	return float64(s.CorrectGuesses) / float64(s.TotalGuesses) * 100
}

// WinRate is the share of won games in percent; 0 with no games.
func WinRate(s domain.Stats) float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed) * 100
}

// IsHighScore reports whether res beats the table entry in prev.
func IsHighScore(prev domain.Stats, res Result) bool {
	if !res.Won {
		return false
	}
	return res.highScoreValue() > prev.HighScores[res.label()]
}

// ToRecord converts res into a history entry.
func ToRecord(res Result) domain.RoundRecord {
	id := res.RoundID
	if id == "" {
		id = uuid.NewString()
	}
	return domain.RoundRecord{
		ID:           id,
		Difficulty:   res.Difficulty,
		Mode:         res.Mode,
		Target:       res.Target,
		AttemptsUsed: res.AttemptsUsed,
		HintsUsed:    res.HintsUsed,
		Guesses:      append([]int(nil), res.Guesses...),
		Won:          res.Won,
		Score:        res.Score,
		Elapsed:      res.Elapsed,
		PlayedAt:     res.PlayedAt,
	}
}

// Update describes what changed when a round was applied to a profile.
type Update struct {
	Stats           domain.Stats
	NewHighScore    bool
	NewAchievements []Achievement
}

// Apply folds res into p: stats, history and achievements. It is the only
// place a profile changes after a round.
func Apply(p *domain.Profile, res Result, historyLimit int) Update {
	upd := Update{NewHighScore: IsHighScore(p.Stats, res)}
	p.Stats = RecordRound(p.Stats, res)
	p.History = AppendHistory(p.History, ToRecord(res), historyLimit)

	for _, a := range Evaluate(p.Stats, res, p.Achievements) {
		p.Achievements = append(p.Achievements, a.ID)
		upd.NewAchievements = append(upd.NewAchievements, a)
	}
	if !res.PlayedAt.IsZero() {
		p.UpdatedAt = res.PlayedAt
	}
	upd.Stats = p.Stats
	return upd
}
