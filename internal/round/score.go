package round

import "time"

const (
	baseScore         = 1000
	timePenaltyPerSec = 2
	hintPenalty       = 100
	attemptPenalty    = 50
)

// ComputeScore is 1000 minus 2 per whole elapsed second, 100 per hint and
// 50 per attempt, floored at zero.
func ComputeScore(elapsed time.Duration, hintsUsed, attemptsUsed int) int {
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := int(elapsed / time.Second)
	score := baseScore - timePenaltyPerSec*seconds - hintPenalty*hintsUsed - attemptPenalty*attemptsUsed
	if score < 0 {
		return 0
	}
	return score
}
