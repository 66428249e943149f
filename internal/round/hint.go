package round

import (
	"fmt"
	"strconv"
)

const coarseWidth = 5

func describeTarget(tier HintTier, target int, rnd Rand) string {
	switch tier {
	case HintCoarse:
		lower, upper := coarseRange(target)
		return fmt.Sprintf("The number is between %d and %d", lower, upper)
	case HintParity:
		if target%2 == 0 {
			return "The number is even"
		}
		return "The number is odd"
	default:
		facts := []func() string{
			func() string {
				if target%3 == 0 {
					return "The number is divisible by 3"
				}
				return "The number is not divisible by 3"
			},
			func() string {
				if target > 10 {
					return "The number is greater than 10"
				}
				return "The number is less than or equal to 10"
			},
			func() string {
				return fmt.Sprintf("The sum of its digits is %d", digitSum(target))
			},
		}
		return facts[rnd.IntN(len(facts))]()
	}
}

// coarseRange returns the width-5 bucket, aligned at 1, that holds target.
func coarseRange(target int) (int, int) {
	lower := floorDiv(target-1, coarseWidth)*coarseWidth + 1
	return lower, lower + coarseWidth - 1
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func digitSum(n int) int {
	sum := 0
	for _, ch := range strconv.Itoa(n) {
		if ch >= '0' && ch <= '9' {
			sum += int(ch - '0')
		}
	}
	return sum
}
