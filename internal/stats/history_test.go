package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/numguess/internal/domain"
)

func rec(i int, won bool) domain.RoundRecord {
	return domain.RoundRecord{ID: fmt.Sprintf("r%d", i), Difficulty: "easy", Won: won, AttemptsUsed: 2, Score: i}
}

func TestAppendHistoryFIFO(t *testing.T) {
	var h []domain.RoundRecord
	for i := 1; i <= 25; i++ {
		h = AppendHistory(h, rec(i, true), 0)
		require.LessOrEqual(t, len(h), DefaultHistoryLimit)
	}
	require.Len(t, h, 20)
	require.Equal(t, "r6", h[0].ID)
	require.Equal(t, "r25", h[19].ID)
}

func TestAppendHistoryDoesNotAlias(t *testing.T) {
	h := []domain.RoundRecord{rec(1, true), rec(2, true), rec(3, true)}
	out := AppendHistory(h, rec(4, false), 3)
	require.Equal(t, []string{"r2", "r3", "r4"}, []string{out[0].ID, out[1].ID, out[2].ID})
	require.Equal(t, "r1", h[0].ID)
}

func TestAppendHistoryShrinksOverLongLog(t *testing.T) {
	var h []domain.RoundRecord
	for i := 0; i < 30; i++ {
		h = append(h, rec(i, true))
	}
	out := AppendHistory(h, rec(30, true), 5)
	require.Len(t, out, 5)
	require.Equal(t, "r26", out[0].ID)
}

func TestSummarize(t *testing.T) {
	h := []domain.RoundRecord{
		{Difficulty: "easy", Won: true, AttemptsUsed: 2, Score: 800, Elapsed: 10 * time.Second},
		{Difficulty: "hard", Won: false, AttemptsUsed: 3, HintsUsed: 1},
		{Difficulty: "easy", Won: true, AttemptsUsed: 4, Score: 650, Elapsed: 30 * time.Second},
		{Difficulty: "hard", Won: true, AttemptsUsed: 3, Score: 700, Target: 9, Guesses: []int{4, 12, 9}},
	}
	s := Summarize(h)
	require.Equal(t, 4, s.Games)
	require.Equal(t, 3, s.Wins)
	require.Equal(t, 1, s.Losses)
	require.InDelta(t, 75.0, s.WinRate, 1e-9)
	require.InDelta(t, 3.0, s.AvgAttemptsWon, 1e-9)
	require.Equal(t, 800, s.BestScore)
	require.Equal(t, 2, s.CurrentStreak)
	require.Equal(t, 2, s.LongestStreak)
	require.Equal(t, 1, s.HintsUsed)
	require.Equal(t, map[string]int{"easy": 2, "hard": 2}, s.ByDifficulty)
	require.Equal(t, []int{4, 12, 9}, s.LastGuessPath)
	require.Equal(t, 9, s.LastTarget)

	easy := SummarizeDifficulty(h, "easy")
	require.Equal(t, 2, easy.Games)
	require.InDelta(t, 100.0, easy.WinRate, 1e-9)
	require.InDelta(t, 20.0, easy.AvgElapsedWon, 1e-9)

	empty := Summarize(nil)
	require.Zero(t, empty.Games)
	require.Zero(t, empty.WinRate)
}
