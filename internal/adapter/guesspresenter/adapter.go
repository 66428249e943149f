package guesspresenter

import (
	"errors"
	"sort"

	"github.com/park285/numguess/internal/domain"
	"github.com/park285/numguess/internal/round"
	svc "github.com/park285/numguess/internal/service/guess"
	"github.com/park285/numguess/internal/stats"
	"github.com/park285/numguess/pkg/guessdto"
)

const (
	CodeNoActiveRound     = "no_active_round"
	CodeRoundInProgress   = "round_in_progress"
	CodeOutOfRange        = "out_of_range"
	CodeNotANumber        = "not_a_number"
	CodeRoundOver         = "round_over"
	CodeNoHints           = "no_hints"
	CodeUnknownDifficulty = "unknown_difficulty"
	CodeUnknownMode       = "unknown_mode"
	CodeInvalidName       = "invalid_name"
	CodeInvalidAvatar     = "invalid_avatar"
	CodeUnknownCommand    = "unknown_command"
	CodeInternal          = "internal"
)

func modeTitle(m round.Mode) string {
	if rule, err := round.GetModeRule(m); err == nil {
		return rule.Title
	}
	return string(m)
}

func ToDTORound(v *svc.RoundView) *guessdto.RoundState {
	if v == nil {
		return nil
	}
	return &guessdto.RoundState{
		RoundID:       v.RoundID,
		Difficulty:    v.Difficulty,
		Mode:          string(v.Mode),
		ModeTitle:     modeTitle(v.Mode),
		LowerBound:    v.LowerBound,
		UpperBound:    v.UpperBound,
		MaxAttempts:   v.MaxAttempts,
		AttemptsUsed:  v.AttemptsUsed,
		AttemptsLeft:  v.AttemptsLeft(),
		MaxHints:      v.MaxHints,
		HintsUsed:     v.HintsUsed,
		HintsLeft:     v.HintsLeft(),
		Guesses:       append([]int(nil), v.Guesses...),
		Status:        string(v.Status),
		Finished:      v.Finished(),
		Elapsed:       v.Elapsed,
		TimeLimit:     v.TimeLimit,
		Remaining:     v.Remaining,
		SurvivalScore: v.SurvivalScore,
		Target:        v.Target,
	}
}

func ToDTOCompletion(c *svc.Completion, abandoned bool) *guessdto.Completion {
	if c == nil {
		return nil
	}
	return &guessdto.Completion{
		Won:          c.Won,
		TimedOut:     c.TimedOut,
		Abandoned:    abandoned && !c.TimedOut,
		Score:        c.Score,
		RunScore:     c.RunScore,
		Label:        round.ScoreLabel(c.Round.Difficulty, c.Round.Mode),
		NewHighScore: c.NewHighScore,
		Achievements: toDTOAchievements(c.Achievements),
		SaveFailed:   c.SaveErr != nil,
	}
}

func ToDTOGuess(r *svc.GuessResult) *guessdto.GuessResult {
	if r == nil {
		return nil
	}
	return &guessdto.GuessResult{
		Value:      r.Value,
		Outcome:    string(r.Outcome),
		Round:      *ToDTORound(&r.Round),
		Completion: ToDTOCompletion(r.Completion, false),
	}
}

func toDTOAchievements(list []stats.Achievement) []guessdto.Achievement {
	out := make([]guessdto.Achievement, 0, len(list))
	for _, a := range list {
		out = append(out, guessdto.Achievement{ID: a.ID, Name: a.Name, Description: a.Description})
	}
	return out
}

// ToDTOAchievements resolves unlocked ids against the catalog, skipping
// ids it no longer knows.
func ToDTOAchievements(ids []string) []guessdto.Achievement {
	out := make([]guessdto.Achievement, 0, len(ids))
	for _, id := range ids {
		if a, ok := stats.Lookup(id); ok {
			out = append(out, guessdto.Achievement{ID: a.ID, Name: a.Name, Description: a.Description})
		}
	}
	return out
}

func ToDTOProfile(p *domain.Profile) *guessdto.Profile {
	if p == nil {
		return nil
	}
	s := p.Stats
	scores := make([]guessdto.HighScore, 0, len(s.HighScores))
	for label, score := range s.HighScores {
		scores = append(scores, guessdto.HighScore{Label: label, Score: score})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Label < scores[j].Label
	})
	return &guessdto.Profile{
		ID:     p.ID,
		Name:   p.Name,
		Avatar: p.Avatar,
		Stats: guessdto.Stats{
			GamesPlayed:     s.GamesPlayed,
			GamesWon:        s.GamesWon,
			CurrentStreak:   s.CurrentStreak,
			BestStreak:      s.BestStreak,
			TotalGuesses:    s.TotalGuesses,
			CorrectGuesses:  s.CorrectGuesses,
			TotalScore:      s.TotalScore,
			Accuracy:        stats.Accuracy(s),
			WinRate:         stats.WinRate(s),
			AvgGuessSeconds: s.AvgGuessSeconds,
			BestTime:        s.BestTime,
			HighScores:      scores,
		},
		Achievements: ToDTOAchievements(p.Achievements),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func ToDTOHistory(h []domain.RoundRecord) []guessdto.HistoryEntry {
	out := make([]guessdto.HistoryEntry, 0, len(h))
	for _, rec := range h {
		out = append(out, guessdto.HistoryEntry{
			ID:           rec.ID,
			Difficulty:   rec.Difficulty,
			Mode:         rec.Mode,
			Target:       rec.Target,
			AttemptsUsed: rec.AttemptsUsed,
			HintsUsed:    rec.HintsUsed,
			Guesses:      append([]int(nil), rec.Guesses...),
			Won:          rec.Won,
			Score:        rec.Score,
			Elapsed:      rec.Elapsed,
			PlayedAt:     rec.PlayedAt,
		})
	}
	return out
}

func ToDTOHistorySummary(s stats.Summary) guessdto.HistorySummary {
	return guessdto.HistorySummary{
		Games:         s.Games,
		Wins:          s.Wins,
		WinRate:       s.WinRate,
		LongestStreak: s.LongestStreak,
	}
}

// ToDomainError classifies a service error. Unknown errors map to
// CodeInternal and are not retryable.
func ToDomainError(err error) *guessdto.DomainError {
	if err == nil {
		return nil
	}
	code, retryable := CodeInternal, false
	switch {
	case errors.Is(err, svc.ErrNoActiveRound):
		code, retryable = CodeNoActiveRound, true
	case errors.Is(err, svc.ErrRoundInProgress):
		code, retryable = CodeRoundInProgress, true
	case errors.Is(err, round.ErrOutOfRange):
		code, retryable = CodeOutOfRange, true
	case errors.Is(err, round.ErrRoundOver):
		code, retryable = CodeRoundOver, true
	case errors.Is(err, round.ErrNoHintsRemaining):
		code, retryable = CodeNoHints, true
	case errors.Is(err, round.ErrUnknownDifficulty):
		code, retryable = CodeUnknownDifficulty, true
	case errors.Is(err, round.ErrUnknownMode):
		code, retryable = CodeUnknownMode, true
	case errors.Is(err, svc.ErrInvalidName):
		code, retryable = CodeInvalidName, true
	case errors.Is(err, svc.ErrInvalidAvatar):
		code, retryable = CodeInvalidAvatar, true
	}
	return &guessdto.DomainError{Code: code, Message: err.Error(), Retryable: retryable}
}
