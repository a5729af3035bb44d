// Package scoring is the pure score aggregator: deterministic functions over
// an ordered list of per-decision scores, with no state of their own. A final
// score must be reproducible by an auditor from the persisted decision list
// alone, so FinalScore uses exact integer arithmetic rather than floats.
package scoring

import "github.com/aretw0/moot/pkg/domain"

// RunningScore returns the arithmetic mean of the scores seen so far. It is
// informational (progress display); no rounding policy applies. An empty list
// yields 0.
func RunningScore(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}

// FinalScore returns the mean of all scores rounded half-up to an integer.
// An empty list is a contract violation and yields domain.ErrInsufficientData
// rather than a silent failing grade.
func FinalScore(scores []int) (int, error) {
	if len(scores) == 0 {
		return 0, domain.ErrInsufficientData
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	// floor((2*sum + n) / (2*n)) == round-half-up(sum/n) for non-negative sums.
	n := len(scores)
	return (2*sum + n) / (2 * n), nil
}
