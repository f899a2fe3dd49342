package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/types"
)

const (
	// TypeFarmDeposit is emitted when stake enters the pool.
	TypeFarmDeposit = "farm.deposit"
	// TypeFarmWithdraw is emitted when stake leaves the pool.
	TypeFarmWithdraw = "farm.withdraw"
	// TypeFarmHarvest is emitted when rewards are settled without moving stake.
	TypeFarmHarvest = "farm.harvest"
	// TypeFarmEmergencyWithdraw is emitted when a participant exits and forfeits rewards.
	TypeFarmEmergencyWithdraw = "farm.emergencyWithdraw"
	// TypeFarmScheduleUpdated is emitted after an emission schedule is installed.
	TypeFarmScheduleUpdated = "farm.scheduleUpdated"
)

// FarmStakeChanged captures a deposit, withdrawal or harvest settlement.
type FarmStakeChanged struct {
	Kind        string
	Participant common.Address
	Amount      *big.Int
	Reward      *big.Int
	Staked      *big.Int
	TotalStaked *big.Int
	Height      uint64
}

// EventType satisfies the Event interface.
func (e FarmStakeChanged) EventType() string { return e.Kind }

// Event converts the structured payload into a broadcastable event.
func (e FarmStakeChanged) Event() *types.Event {
	return &types.Event{
		Type: e.Kind,
		Attributes: map[string]string{
			"participant": formatAddress(e.Participant),
			"amount":      formatAmount(e.Amount),
			"reward":      formatAmount(e.Reward),
			"staked":      formatAmount(e.Staked),
			"totalStaked": formatAmount(e.TotalStaked),
			"height":      formatUint(e.Height),
		},
	}
}

// FarmEmergencyWithdraw records principal returned and reward forfeited.
type FarmEmergencyWithdraw struct {
	Participant common.Address
	Amount      *big.Int
	Forfeited   *big.Int
	Height      uint64
}

// EventType satisfies the Event interface.
func (FarmEmergencyWithdraw) EventType() string { return TypeFarmEmergencyWithdraw }

// Event converts the structured payload into a broadcastable event.
func (e FarmEmergencyWithdraw) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmEmergencyWithdraw,
		Attributes: map[string]string{
			"participant": formatAddress(e.Participant),
			"amount":      formatAmount(e.Amount),
			"forfeited":   formatAmount(e.Forfeited),
			"height":      formatUint(e.Height),
		},
	}
}

// FarmScheduleUpdated records the checkpoint taken before a schedule swap.
type FarmScheduleUpdated struct {
	PerBlockRate      *big.Int
	StartHeight       uint64
	FinalEndHeight    uint64
	CheckpointHeight  uint64
	AccRewardPerShare *big.Int
}

// EventType satisfies the Event interface.
func (FarmScheduleUpdated) EventType() string { return TypeFarmScheduleUpdated }

// Event converts the structured payload into a broadcastable event.
func (e FarmScheduleUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeFarmScheduleUpdated,
		Attributes: map[string]string{
			"perBlockRate":      formatAmount(e.PerBlockRate),
			"startHeight":       formatUint(e.StartHeight),
			"finalEndHeight":    formatUint(e.FinalEndHeight),
			"checkpointHeight":  formatUint(e.CheckpointHeight),
			"accRewardPerShare": formatAmount(e.AccRewardPerShare),
		},
	}
}
