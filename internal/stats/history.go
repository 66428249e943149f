package stats

import "github.com/park285/numguess/internal/domain"

// AppendHistory appends rec and drops the oldest entries beyond limit.
// A non-positive limit means DefaultHistoryLimit. h is not modified.
func AppendHistory(h []domain.RoundRecord, rec domain.RoundRecord, limit int) []domain.RoundRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	start := 0
	if len(h)+1 > limit {
		start = len(h) + 1 - limit
	}
	out := make([]domain.RoundRecord, 0, len(h)-start+1)
	out = append(out, h[start:]...)
	return append(out, rec)
}

// Summary aggregates a slice of history entries.
type Summary struct {
	Games          int
	Wins           int
	Losses         int
	WinRate        float64
	AvgAttemptsWon float64
	AvgElapsedWon  float64
	BestScore      int
	CurrentStreak  int
	LongestStreak  int
	HintsUsed      int
	ByDifficulty   map[string]int
	LastGuessPath  []int
	LastTarget     int
	LastDifficulty string
}

// Summarize walks the history oldest first.
func Summarize(h []domain.RoundRecord) Summary {
	s := Summary{ByDifficulty: map[string]int{}}
	var attemptsWon, elapsedWon float64
	for _, rec := range h {
		s.Games++
		s.HintsUsed += rec.HintsUsed
		s.ByDifficulty[rec.Difficulty]++
		if rec.Won {
			s.Wins++
			s.CurrentStreak++
			attemptsWon += float64(rec.AttemptsUsed)
			elapsedWon += rec.Elapsed.Seconds()
			if rec.Score > s.BestScore {
				s.BestScore = rec.Score
			}
		} else {
			s.Losses++
			s.CurrentStreak = 0
		}
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
	}
	if s.Games > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Games) * 100
		last := h[len(h)-1]
		s.LastGuessPath = append([]int(nil), last.Guesses...)
		s.LastTarget = last.Target
		s.LastDifficulty = last.Difficulty
	}
	if s.Wins > 0 {
		s.AvgAttemptsWon = attemptsWon / float64(s.Wins)
		s.AvgElapsedWon = elapsedWon / float64(s.Wins)
	}
	return s
}

// SummarizeDifficulty summarizes only the entries played at difficulty.
func SummarizeDifficulty(h []domain.RoundRecord, difficulty string) Summary {
	filtered := make([]domain.RoundRecord, 0, len(h))
	for _, rec := range h {
		if rec.Difficulty == difficulty {
			filtered = append(filtered, rec)
		}
	}
	return Summarize(filtered)
}
