// Package storage persists player profiles. Every backend returns a zeroed
// default profile for an unknown id and normalizes what it loads.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/stats"
)

var (
	ErrNilProfile = errors.New("nil profile payload")
	ErrEmptyID    = errors.New("empty profile id")
)

type Repository interface {
	Load(ctx context.Context, id string) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
}

// Normalize fills missing fields with their documented defaults and clamps
// values a hand-edited or older record may carry.
func Normalize(p *domain.Profile, id string, now time.Time) *domain.Profile {
	if p == nil {
		return domain.NewProfile(id, now)
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = id
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = domain.DefaultPlayerName
	}
	if strings.TrimSpace(p.Avatar) == "" {
		p.Avatar = domain.DefaultAvatar
	}
	if p.Stats.HighScores == nil {
		p.Stats.HighScores = map[string]int{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	if p.History == nil {
		p.History = []domain.RoundRecord{}
	}
	if len(p.History) > stats.MaxHistoryLimit {
		p.History = append([]domain.RoundRecord(nil), p.History[len(p.History)-stats.MaxHistoryLimit:]...)
	}

	s := &p.Stats
	for _, v := range []*int{&s.GamesPlayed, &s.GamesWon, &s.CurrentStreak, &s.BestStreak, &s.TotalGuesses, &s.CorrectGuesses, &s.TotalScore} {
		if *v < 0 {
			*v = 0
		}
	}
	if s.GamesWon > s.GamesPlayed {
		s.GamesWon = s.GamesPlayed
	}
	if s.CorrectGuesses > s.TotalGuesses {
		s.CorrectGuesses = s.TotalGuesses
	}
	if s.BestStreak < s.CurrentStreak {
		s.BestStreak = s.CurrentStreak
	}
	if s.AvgGuessSeconds < 0 {
		s.AvgGuessSeconds = 0
	}
	if s.BestTime < 0 {
		s.BestTime = 0
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return p
}

func validateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyID
	}
	return id, nil
}
