package domain

import "time"

const (
	DefaultPlayerName = "Player"
	DefaultAvatar     = "default"
)

// Stats is the aggregate record folded from completed rounds.
type Stats struct {
	GamesPlayed     int            `json:"games_played"`
	GamesWon        int            `json:"games_won"`
	CurrentStreak   int            `json:"current_streak"`
	BestStreak      int            `json:"best_streak"`
	TotalGuesses    int            `json:"total_guesses"`
	CorrectGuesses  int            `json:"correct_guesses"`
	HighScores      map[string]int `json:"high_scores"`
	AvgGuessSeconds float64        `json:"avg_guess_time"`
	TotalScore      int            `json:"total_score"`
	// BestTime is the fastest winning round; zero until the first win.
	BestTime time.Duration `json:"best_time"`
}

// RoundRecord is one entry of the rolling round log.
type RoundRecord struct {
	ID           string        `json:"id"`
	Difficulty   string        `json:"difficulty"`
	Mode         string        `json:"mode"`
	Target       int           `json:"target"`
	AttemptsUsed int           `json:"attempts"`
	HintsUsed    int           `json:"hints"`
	Guesses      []int         `json:"guesses,omitempty"`
	Won          bool          `json:"won"`
	Score        int           `json:"score"`
	Elapsed      time.Duration `json:"elapsed"`
	PlayedAt     time.Time     `json:"played_at"`
}

type Profile struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Avatar       string        `json:"avatar"`
	Stats        Stats         `json:"stats"`
	Achievements []string      `json:"achievements"`
	History      []RoundRecord `json:"history"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewProfile returns a zeroed profile carrying the documented defaults.
func NewProfile(id string, now time.Time) *Profile {
	return &Profile{
		ID:           id,
		Name:         DefaultPlayerName,
		Avatar:       DefaultAvatar,
		Stats:        Stats{HighScores: map[string]int{}},
		Achievements: []string{},
		History:      []RoundRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasAchievement reports whether id is already unlocked.
func (p *Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Stats.HighScores = make(map[string]int, len(p.Stats.HighScores))
	for k, v := range p.Stats.HighScores {
		cp.Stats.HighScores[k] = v
	}
	cp.Achievements = append([]string(nil), p.Achievements...)
	cp.History = make([]RoundRecord, len(p.History))
	for i, rec := range p.History {
		rec.Guesses = append([]int(nil), rec.Guesses...)
		cp.History[i] = rec
	}
	return &cp
}

// Avatars lists the selectable profile avatars besides DefaultAvatar.
var Avatars = []string{"👤", "🎮", "🎲", "🎯", "🎪", "🎨"}

// ValidAvatar reports whether a is DefaultAvatar or one of Avatars.
func ValidAvatar(a string) bool {
	if a == DefaultAvatar {
		return true
	}
	for _, v := range Avatars {
		if v == a {
			return true
		}
	}
	return false
}
