package farm

import (
	"math/big"

	nativecommon "yieldchain/native/common"
)

// PoolState is the single shared accumulator of the stake pool.
type PoolState struct {
	// TotalStaked is the sum of every participant's stake.
	TotalStaked *big.Int `json:"totalStaked"`
	// AccRewardPerShare is the cumulative reward per unit of stake, scaled by
	// AccScale. It never decreases.
	AccRewardPerShare *big.Int `json:"accRewardPerShare"`
	// LastAccrualHeight is the block height the accumulator was advanced to.
	LastAccrualHeight uint64 `json:"lastAccrualHeight"`
}

// NewPoolState returns an empty pool anchored at height.
func NewPoolState(height uint64) *PoolState {
	return &PoolState{
		TotalStaked:       big.NewInt(0),
		AccRewardPerShare: big.NewInt(0),
		LastAccrualHeight: height,
	}
}

// Clone returns a deep copy of the pool state.
func (p *PoolState) Clone() *PoolState {
	if p == nil {
		return nil
	}
	return &PoolState{
		TotalStaked:       nativecommon.CopyBig(p.TotalStaked),
		AccRewardPerShare: nativecommon.CopyBig(p.AccRewardPerShare),
		LastAccrualHeight: p.LastAccrualHeight,
	}
}

// ParticipantStake is the per-participant position.
type ParticipantStake struct {
	Amount *big.Int `json:"amount"`
	// RewardDebt is Amount*AccRewardPerShare/AccScale at the last settlement.
	RewardDebt *big.Int `json:"rewardDebt"`
}

// NewParticipantStake returns a zeroed position.
func NewParticipantStake() *ParticipantStake {
	return &ParticipantStake{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)}
}

// Clone returns a deep copy of the stake.
func (s *ParticipantStake) Clone() *ParticipantStake {
	if s == nil {
		return nil
	}
	return &ParticipantStake{
		Amount:     nativecommon.CopyBig(s.Amount),
		RewardDebt: nativecommon.CopyBig(s.RewardDebt),
	}
}

// IsZero reports whether the position holds nothing.
func (s *ParticipantStake) IsZero() bool {
	if s == nil {
		return true
	}
	return nativecommon.CopyBig(s.Amount).Sign() == 0 && nativecommon.CopyBig(s.RewardDebt).Sign() == 0
}

func ensurePool(p *PoolState) *PoolState {
	if p == nil {
		return NewPoolState(0)
	}
	if p.TotalStaked == nil {
		p.TotalStaked = big.NewInt(0)
	}
	if p.AccRewardPerShare == nil {
		p.AccRewardPerShare = big.NewInt(0)
	}
	return p
}

func ensureStake(s *ParticipantStake) *ParticipantStake {
	if s == nil {
		return NewParticipantStake()
	}
	if s.Amount == nil {
		s.Amount = big.NewInt(0)
	}
	if s.RewardDebt == nil {
		s.RewardDebt = big.NewInt(0)
	}
	return s
}
