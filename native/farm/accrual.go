package farm

import (
	"fmt"
	"math/big"

	nativecommon "yieldchain/native/common"
)

// accrue returns a copy of pool advanced to height under schedule. An empty
// pool only moves its checkpoint; emission over that span is not distributed.
func accrue(pool *PoolState, schedule *EmissionSchedule, height uint64) (*PoolState, error) {
	next := ensurePool(pool.Clone())
	if height <= next.LastAccrualHeight {
		return next, nil
	}
	if next.TotalStaked.Sign() == 0 {
		next.LastAccrualHeight = height
		return next, nil
	}
	emitted := schedule.EmittedSince(next.LastAccrualHeight, height)
	if emitted.Sign() > 0 {
		perShare, err := nativecommon.MulDiv(emitted, nativecommon.AccScale, next.TotalStaked)
		if err != nil {
			return nil, fmt.Errorf("farm: scale emission: %w", err)
		}
		next.AccRewardPerShare = new(big.Int).Add(next.AccRewardPerShare, perShare)
	}
	next.LastAccrualHeight = height
	return next, nil
}

// rewardDebt is amount*acc/AccScale, floored.
func rewardDebt(amount, acc *big.Int) (*big.Int, error) {
	debt, err := nativecommon.MulDiv(amount, acc, nativecommon.AccScale)
	if err != nil {
		return nil, fmt.Errorf("farm: reward debt: %w", err)
	}
	return debt, nil
}

// pendingOf is the reward a stake has earned since its last settlement
// against an already accrued pool.
func pendingOf(pool *PoolState, stake *ParticipantStake) (*big.Int, error) {
	stake = ensureStake(stake.Clone())
	if stake.Amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	earned, err := rewardDebt(stake.Amount, ensurePool(pool.Clone()).AccRewardPerShare)
	if err != nil {
		return nil, err
	}
	pending := earned.Sub(earned, stake.RewardDebt)
	if pending.Sign() < 0 {
		return nil, fmt.Errorf("%w: reward debt %s exceeds earned %s", ErrInvariantViolation, stake.RewardDebt, earned)
	}
	return pending, nil
}

// settle applies a stake delta after pending rewards were paid. delta may be
// negative. The returned stake carries the refreshed reward debt and the pool
// its new total.
func settle(pool *PoolState, stake *ParticipantStake, delta *big.Int) (*PoolState, *ParticipantStake, error) {
	nextPool := ensurePool(pool.Clone())
	nextStake := ensureStake(stake.Clone())
	if delta != nil && delta.Sign() != 0 {
		nextStake.Amount = new(big.Int).Add(nextStake.Amount, delta)
		nextPool.TotalStaked = new(big.Int).Add(nextPool.TotalStaked, delta)
		if nextStake.Amount.Sign() < 0 || nextPool.TotalStaked.Sign() < 0 {
			return nil, nil, ErrInsufficientStake
		}
	}
	debt, err := rewardDebt(nextStake.Amount, nextPool.AccRewardPerShare)
	if err != nil {
		return nil, nil, err
	}
	nextStake.RewardDebt = debt
	return nextPool, nextStake, nil
}
