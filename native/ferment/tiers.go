package ferment

import (
	"fmt"
	"math/big"

	nativecommon "yieldchain/native/common"
)

// ResolveTier returns the greatest tier index whose threshold is at or below
// xp.
func ResolveTier(tiers []Tier, xp *big.Int) uint64 {
	thresholds := make([]*big.Int, len(tiers))
	for i := range tiers {
		thresholds[i] = tiers[i].Threshold
	}
	return uint64(nativecommon.StepIndex(thresholds, xp))
}

// ValidateTiers checks that the table starts at zero and strictly increases.
func ValidateTiers(tiers []Tier) error {
	for i := range tiers {
		if err := validateNext(tiers[:i], tiers[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateNext(existing []Tier, next Tier) error {
	if next.Threshold == nil || next.Threshold.Sign() < 0 {
		return fmt.Errorf("%w: threshold must be non-negative", ErrInvalidTier)
	}
	if next.DailyYield == nil || next.DailyYield.Sign() < 0 {
		return fmt.Errorf("%w: daily yield must be non-negative", ErrInvalidTier)
	}
	if len(existing) == 0 {
		if next.Threshold.Sign() != 0 {
			return fmt.Errorf("%w: first threshold must be zero", ErrInvalidTier)
		}
		return nil
	}
	last := existing[len(existing)-1].Threshold
	if next.Threshold.Cmp(last) <= 0 {
		return fmt.Errorf("%w: threshold %s not above %s", ErrInvalidTier, next.Threshold, last)
	}
	return nil
}

func cloneTiers(tiers []Tier) []Tier {
	out := make([]Tier, len(tiers))
	for i, tier := range tiers {
		out[i] = Tier{
			Threshold:  nativecommon.CopyBig(tier.Threshold),
			DailyYield: nativecommon.CopyBig(tier.DailyYield),
		}
	}
	return out
}
