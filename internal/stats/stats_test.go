package stats

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/park285/numguess/internal/domain"
)

func win(label string, attempts int, score int, elapsed time.Duration) Result {
	return Result{Difficulty: label, Label: label, Won: true, AttemptsUsed: attempts, Score: score, Elapsed: elapsed}
}

func loss(label string, attempts int) Result {
	return Result{Difficulty: label, Label: label, AttemptsUsed: attempts, Elapsed: 20 * time.Second}
}

func TestRecordRoundFirstWin(t *testing.T) {
	got := RecordRound(domain.Stats{}, win("medium", 1, 948, time.Second))
	want := domain.Stats{
		GamesPlayed:     1,
		GamesWon:        1,
		CurrentStreak:   1,
		BestStreak:      1,
		TotalGuesses:    1,
		CorrectGuesses:  1,
		HighScores:      map[string]int{"medium": 948},
		AvgGuessSeconds: 1,
		TotalScore:      948,
		BestTime:        time.Second,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("RecordRound mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRoundDoesNotMutateInput(t *testing.T) {
	prev := domain.Stats{GamesPlayed: 2, HighScores: map[string]int{"easy": 100}}
	_ = RecordRound(prev, win("easy", 2, 900, time.Second))
	require.Equal(t, 2, prev.GamesPlayed)
	require.Equal(t, map[string]int{"easy": 100}, prev.HighScores)
}

func TestStreakLaw(t *testing.T) {
	s := domain.Stats{}
	seq := []bool{true, true, true, false, true, false, false, true, true}
	best := 0
	for _, won := range seq {
		res := loss("hard", 3)
		if won {
			res = win("hard", 2, 500, 5*time.Second)
		}
		next := RecordRound(s, res)
		if !won {
			require.Zero(t, next.CurrentStreak)
		}
		require.GreaterOrEqual(t, next.BestStreak, s.BestStreak)
		require.LessOrEqual(t, next.CurrentStreak, next.BestStreak)
		require.LessOrEqual(t, next.CorrectGuesses, next.TotalGuesses)
		if next.CurrentStreak > best {
			best = next.CurrentStreak
		}
		s = next
	}
	require.Equal(t, 3, s.BestStreak)
	require.Equal(t, best, s.BestStreak)
	require.Equal(t, 2, s.CurrentStreak)
	require.Equal(t, len(seq), s.GamesPlayed)
	require.Equal(t, 6, s.GamesWon)
}

func TestHighScoresOnlyIncrease(t *testing.T) {
	s := RecordRound(domain.Stats{}, win("easy", 2, 800, time.Second))
	s = RecordRound(s, win("easy", 4, 600, time.Second))
	s = RecordRound(s, loss("easy", 7))
	require.Equal(t, 800, s.HighScores["easy"])

	s = RecordRound(s, win("easy", 1, 950, time.Second))
	require.Equal(t, 950, s.HighScores["easy"])
	require.NotContains(t, s.HighScores, "hard")
}

func TestRunScoreKeysCumulativeModes(t *testing.T) {
	res := win("easy", 2, 900, time.Second)
	res.Label = "survival"
	res.RunScore = 1800
	prev := domain.Stats{HighScores: map[string]int{"survival": 1200}}
	require.True(t, IsHighScore(prev, res))

	s := RecordRound(prev, res)
	require.Equal(t, 1800, s.HighScores["survival"])
	require.Equal(t, 900, s.TotalScore)
}

func TestIsHighScore(t *testing.T) {
	prev := domain.Stats{HighScores: map[string]int{"medium": 700}}
	require.False(t, IsHighScore(prev, win("medium", 3, 700, time.Second)))
	require.True(t, IsHighScore(prev, win("medium", 3, 701, time.Second)))
	require.True(t, IsHighScore(prev, win("hard", 3, 1, time.Second)))
	require.False(t, IsHighScore(prev, loss("hard", 3)))
}

func TestRunningAverage(t *testing.T) {
	s := RecordRound(domain.Stats{}, win("easy", 2, 900, 10*time.Second))
	require.InDelta(t, 5.0, s.AvgGuessSeconds, 1e-9)
	s = RecordRound(s, win("easy", 3, 900, 25*time.Second))
	require.InDelta(t, 5.0+(25.0-5.0)/5.0, s.AvgGuessSeconds, 1e-9)
}

func TestRunningAverageSkipsWithoutGuesses(t *testing.T) {
	s := RecordRound(domain.Stats{}, Result{Label: "easy", Elapsed: time.Minute})
	require.Equal(t, 1, s.GamesPlayed)
	require.Zero(t, s.AvgGuessSeconds)
}

func TestBestTime(t *testing.T) {
	s := RecordRound(domain.Stats{}, win("easy", 2, 900, 40*time.Second))
	s = RecordRound(s, win("easy", 2, 900, 55*time.Second))
	s = RecordRound(s, loss("easy", 7))
	require.Equal(t, 40*time.Second, s.BestTime)
	s = RecordRound(s, win("easy", 2, 900, 12*time.Second))
	require.Equal(t, 12*time.Second, s.BestTime)
}

func TestAccuracyAndWinRate(t *testing.T) {
	require.Zero(t, Accuracy(domain.Stats{}))
	require.Zero(t, WinRate(domain.Stats{}))

	s := domain.Stats{GamesPlayed: 4, GamesWon: 1, TotalGuesses: 8, CorrectGuesses: 2}
	require.InDelta(t, 25.0, Accuracy(s), 1e-9)
	require.InDelta(t, 25.0, WinRate(s), 1e-9)
}

func TestApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	p := domain.NewProfile("p1", now.Add(-time.Hour))
	res := win("medium", 1, 948, 2*time.Second)
	res.RoundID = "r1"
	res.Target = 7
	res.Guesses = []int{7}
	res.PlayedAt = now

	upd := Apply(p, res, 20)
	require.True(t, upd.NewHighScore)
	require.Equal(t, p.Stats, upd.Stats)
	require.Equal(t, now, p.UpdatedAt)
	require.Len(t, p.History, 1)
	require.Equal(t, "r1", p.History[0].ID)
	require.Equal(t, []int{7}, p.History[0].Guesses)

	var ids []string
	for _, a := range upd.NewAchievements {
		ids = append(ids, a.ID)
	}
	require.Equal(t, []string{"first_win", "perfect_game", "speed_demon"}, ids)
	require.Equal(t, ids, p.Achievements)

	res.RoundID = "r2"
	upd = Apply(p, res, 20)
	require.Empty(t, upd.NewAchievements)
	require.False(t, upd.NewHighScore)
	require.Len(t, p.Achievements, 3)
	require.Len(t, p.History, 2)
}

func TestToRecordGeneratesID(t *testing.T) {
	rec := ToRecord(loss("hard", 3))
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.Won)
}
