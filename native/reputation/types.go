package reputation

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidThresholds marks class tables that do not start at zero or are
	// not strictly increasing.
	ErrInvalidThresholds = errors.New("reputation: invalid class thresholds")
)

// Record is the stored reputation of one account.
type Record struct {
	Score     uint64
	UpdatedAt uint64
}

// ValidateThresholds checks a class table. The first class must begin at zero
// so every score maps to a class.
func ValidateThresholds(thresholds []uint64) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("%w: at least one class required", ErrInvalidThresholds)
	}
	if thresholds[0] != 0 {
		return fmt.Errorf("%w: first threshold must be zero", ErrInvalidThresholds)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return fmt.Errorf("%w: threshold %d not above %d", ErrInvalidThresholds, thresholds[i], thresholds[i-1])
		}
	}
	return nil
}

// Classify returns the greatest class index whose threshold is at or below
// score.
func Classify(score uint64, thresholds []uint64) int {
	idx := sort.Search(len(thresholds), func(i int) bool { return thresholds[i] > score })
	if idx == 0 {
		return 0
	}
	return idx - 1
}
