package stats

import (
	"time"

	"github.com/park285/numguess/internal/domain"
)

type Achievement struct {
	ID          string
	Name        string
	Description string
	unlocked    func(s domain.Stats, res Result) bool
}

const speedWinLimit = 30 * time.Second

var catalog = []Achievement{
	{
		ID:          "first_win",
		Name:        "First Victory",
		Description: "Win your first game",
		unlocked:    func(s domain.Stats, _ Result) bool { return s.GamesWon == 1 },
	},
	{
		ID:          "winning_streak",
		Name:        "Hot Streak",
		Description: "Win 3 games in a row",
		unlocked:    func(s domain.Stats, _ Result) bool { return s.CurrentStreak >= 3 },
	},
	{
		ID:          "perfect_game",
		Name:        "Perfect Game",
		Description: "Win on the first guess",
		unlocked:    func(_ domain.Stats, res Result) bool { return res.Won && res.AttemptsUsed == 1 },
	},
	{
		ID:          "speed_demon",
		Name:        "Speed Demon",
		Description: "Win in under 30 seconds",
		unlocked:    func(_ domain.Stats, res Result) bool { return res.Won && res.Elapsed < speedWinLimit },
	},
	{
		ID:          "master_guesser",
		Name:        "Master Guesser",
		Description: "Play 10 games",
		unlocked:    func(s domain.Stats, _ Result) bool { return s.GamesPlayed >= 10 },
	},
}

// Catalog lists every achievement in display order.
func Catalog() []Achievement {
	return append([]Achievement(nil), catalog...)
}

// Lookup finds an achievement by id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Evaluate returns the achievements satisfied by s and res that are not
// already in unlocked. s must already include res.
func Evaluate(s domain.Stats, res Result, unlocked []string) []Achievement {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}
	var out []Achievement
	for _, a := range catalog {
		if have[a.ID] {
			continue
		}
		if a.unlocked(s, res) {
			out = append(out, a)
		}
	}
	return out
}
