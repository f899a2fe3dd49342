package ferment

import (
	"math/big"

	nativecommon "yieldchain/native/common"
)

// accrualOrigin is the instant both streams measure from.
func accrualOrigin(record *AssetRecord, params *Parameters) uint64 {
	if record.LastClaimed > params.GlobalStartTime {
		return record.LastClaimed
	}
	return params.GlobalStartTime
}

// rewardOrigin is where the unbanked part of the reward stream starts.
func rewardOrigin(record *AssetRecord, params *Parameters) uint64 {
	origin := accrualOrigin(record, params)
	if record.RewardCheckpoint > origin {
		return record.RewardCheckpoint
	}
	return origin
}

// pendingReward is the banked amount plus continuous accrual at the current
// tier's daily rate since the reward origin. The per-second rate is truncated
// before it is multiplied by elapsed time.
func pendingReward(record *AssetRecord, tiers []Tier, params *Parameters, now uint64) *big.Int {
	banked := nativecommon.CopyBig(record.AccruedUnpaid)
	origin := rewardOrigin(record, params)
	if now <= origin || len(tiers) == 0 {
		return banked
	}
	idx := record.TierIndex
	if idx >= uint64(len(tiers)) {
		idx = uint64(len(tiers) - 1)
	}
	perSecond := new(big.Int).Quo(nativecommon.CopyBig(tiers[idx].DailyYield), new(big.Int).SetUint64(nativecommon.SecondsPerDay))
	perSecond.Mul(perSecond, new(big.Int).SetUint64(now-origin))
	return banked.Add(banked, perSecond)
}

// pendingXP only starts once the fermentation period has fully elapsed.
func pendingXP(record *AssetRecord, params *Parameters, now uint64) *big.Int {
	origin := accrualOrigin(record, params)
	if now <= origin {
		return big.NewInt(0)
	}
	elapsed := now - origin
	if elapsed <= params.FermentationPeriod {
		return big.NewInt(0)
	}
	ripe := new(big.Int).SetUint64(elapsed - params.FermentationPeriod)
	return ripe.Mul(ripe, nativecommon.CopyBig(params.ExperiencePerSecond))
}
