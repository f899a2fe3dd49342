package farm

import (
	"fmt"
	"math"
	"math/big"

	nativecommon "yieldchain/native/common"
)

// EmissionSchedule describes the per-block reward stream. Heights are
// inclusive at the start of a window and exclusive at its end. Before
// FirstPhaseEndHeight the base rate is scaled by FirstMultiplier, before
// SecondPhaseEndHeight by SecondMultiplier, and before FinalEndHeight it is
// emitted unscaled. A zero FinalEndHeight leaves the base window open ended.
type EmissionSchedule struct {
	PerBlockRate         *big.Int `json:"perBlockRate"`
	StartHeight          uint64   `json:"startHeight"`
	FirstPhaseEndHeight  uint64   `json:"firstPhaseEndHeight"`
	SecondPhaseEndHeight uint64   `json:"secondPhaseEndHeight"`
	FinalEndHeight       uint64   `json:"finalEndHeight"`
	FirstMultiplier      uint64   `json:"firstMultiplier"`
	SecondMultiplier     uint64   `json:"secondMultiplier"`
}

// Phase is one window of the schedule: blocks below End (and at or above the
// previous phase's End) earn Multiplier times the base rate.
type Phase struct {
	End        uint64
	Multiplier uint64
}

// Clone returns a deep copy of the schedule.
func (s *EmissionSchedule) Clone() *EmissionSchedule {
	if s == nil {
		return nil
	}
	out := *s
	out.PerBlockRate = nativecommon.CopyBig(s.PerBlockRate)
	return &out
}

// Validate checks that the windows are strictly ordered and the multipliers
// are usable.
func (s *EmissionSchedule) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: schedule nil", ErrInvalidSchedule)
	}
	if s.PerBlockRate == nil || s.PerBlockRate.Sign() <= 0 {
		return fmt.Errorf("%w: per-block rate must be positive", ErrInvalidSchedule)
	}
	if s.FirstMultiplier == 0 || s.SecondMultiplier == 0 {
		return fmt.Errorf("%w: multipliers must be at least 1", ErrInvalidSchedule)
	}
	if s.StartHeight >= s.FirstPhaseEndHeight {
		return fmt.Errorf("%w: start height %d must precede first phase end %d", ErrInvalidSchedule, s.StartHeight, s.FirstPhaseEndHeight)
	}
	if s.FirstPhaseEndHeight >= s.SecondPhaseEndHeight {
		return fmt.Errorf("%w: first phase end %d must precede second phase end %d", ErrInvalidSchedule, s.FirstPhaseEndHeight, s.SecondPhaseEndHeight)
	}
	if s.FinalEndHeight != 0 && s.SecondPhaseEndHeight >= s.FinalEndHeight {
		return fmt.Errorf("%w: second phase end %d must precede final end %d", ErrInvalidSchedule, s.SecondPhaseEndHeight, s.FinalEndHeight)
	}
	return nil
}

// Phases returns the ordered phase table.
func (s *EmissionSchedule) Phases() []Phase {
	final := s.FinalEndHeight
	if final == 0 {
		final = math.MaxUint64
	}
	return []Phase{
		{End: s.FirstPhaseEndHeight, Multiplier: s.FirstMultiplier},
		{End: s.SecondPhaseEndHeight, Multiplier: s.SecondMultiplier},
		{End: final, Multiplier: 1},
	}
}

// MultiplierAt reports the multiplier applied to the block at height.
func (s *EmissionSchedule) MultiplierAt(height uint64) uint64 {
	if s == nil || height < s.StartHeight {
		return 0
	}
	for _, phase := range s.Phases() {
		if height < phase.End {
			return phase.Multiplier
		}
	}
	return 0
}

// EmittedSince returns the reward emitted over blocks [from, to). The sum is
// exact: each window contributes blocks*rate*multiplier.
func (s *EmissionSchedule) EmittedSince(from, to uint64) *big.Int {
	total := big.NewInt(0)
	if s == nil || s.PerBlockRate == nil || to <= from {
		return total
	}
	if from < s.StartHeight {
		from = s.StartHeight
	}
	cursor := from
	for _, phase := range s.Phases() {
		if cursor >= to {
			break
		}
		if cursor >= phase.End {
			continue
		}
		end := phase.End
		if to < end {
			end = to
		}
		blocks := new(big.Int).SetUint64(end - cursor)
		blocks.Mul(blocks, new(big.Int).SetUint64(phase.Multiplier))
		total.Add(total, blocks.Mul(blocks, s.PerBlockRate))
		cursor = end
	}
	return total
}
