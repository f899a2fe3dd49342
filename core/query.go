package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	yieldstate "yieldchain/core/state"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
)

// PoolView is the accumulator as the next mutation at Height would see it.
type PoolView struct {
	Height     uint64                 `json:"height"`
	Multiplier uint64                 `json:"multiplier"`
	Pool       *farm.PoolState        `json:"pool"`
	Schedule   *farm.EmissionSchedule `json:"schedule"`
}

// StakeView is a participant position with its pending reward at Height.
type StakeView struct {
	Height      uint64         `json:"height"`
	Participant common.Address `json:"participant"`
	Amount      *big.Int       `json:"amount"`
	RewardDebt  *big.Int       `json:"rewardDebt"`
	Pending     *big.Int       `json:"pending"`
}

// AssetView is an asset record with both pending streams evaluated at At.
type AssetView struct {
	At            uint64               `json:"at"`
	Record        *ferment.AssetRecord `json:"record"`
	PendingReward *big.Int             `json:"pendingReward"`
	PendingXP     *big.Int             `json:"pendingXp"`
	Tier          ferment.Tier         `json:"tier"`
}

// Head returns the stored head.
func (n *Node) Head() (yieldstate.Head, error) {
	var head yieldstate.Head
	err := n.state.View(func(manager *yieldstate.Manager) error {
		var err error
		head, err = manager.HeadGet()
		return err
	})
	return head, err
}

// Balance returns a token balance.
func (n *Node) Balance(token string, addr common.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.state.View(func(manager *yieldstate.Manager) error {
		var err error
		balance, err = manager.Balance(token, addr)
		return err
	})
	return balance, err
}

// FarmPool evaluates the pool at height. Zero means the current head.
func (n *Node) FarmPool(height uint64) (*PoolView, error) {
	var out *PoolView
	err := n.view(func(eng *engines) error {
		if height == 0 {
			height = eng.farm.BlockHeight()
		}
		pool, err := eng.farm.PoolAt(height)
		if err != nil {
			return err
		}
		schedule, err := eng.farm.Schedule()
		if err != nil {
			return err
		}
		out = &PoolView{Height: height, Multiplier: schedule.MultiplierAt(height), Pool: pool, Schedule: schedule}
		return nil
	})
	return out, err
}

// FarmStake evaluates a participant's position at height. Zero means the
// current head.
func (n *Node) FarmStake(participant common.Address, height uint64) (*StakeView, error) {
	var out *StakeView
	err := n.view(func(eng *engines) error {
		if height == 0 {
			height = eng.farm.BlockHeight()
		}
		stake, err := eng.farm.Stake(participant)
		if err != nil {
			return err
		}
		pending, err := eng.farm.PendingRewardAt(participant, height)
		if err != nil {
			return err
		}
		out = &StakeView{
			Height:      height,
			Participant: participant,
			Amount:      stake.Amount,
			RewardDebt:  stake.RewardDebt,
			Pending:     pending,
		}
		return nil
	})
	return out, err
}

// FermentAsset evaluates an asset at timestamp. Zero means the current head.
func (n *Node) FermentAsset(id uint64, timestamp uint64) (*AssetView, error) {
	var out *AssetView
	err := n.view(func(eng *engines) error {
		if timestamp == 0 {
			timestamp = eng.ferment.BlockTime()
		}
		record, err := eng.ferment.Asset(id)
		if err != nil {
			return err
		}
		reward, err := eng.ferment.PendingRewardAt(id, timestamp)
		if err != nil {
			return err
		}
		xp, err := eng.ferment.PendingXPAt(id, timestamp)
		if err != nil {
			return err
		}
		_, tier, err := eng.ferment.Tier(id)
		if err != nil {
			return err
		}
		out = &AssetView{At: timestamp, Record: record, PendingReward: reward, PendingXP: xp, Tier: tier}
		return nil
	})
	return out, err
}

// FermentTiers returns the tier table.
func (n *Node) FermentTiers() ([]ferment.Tier, error) {
	var tiers []ferment.Tier
	err := n.view(func(eng *engines) error {
		var err error
		tiers, err = eng.ferment.Tiers()
		return err
	})
	return tiers, err
}

// FermentParameters returns the accrual parameters.
func (n *Node) FermentParameters() (*ferment.Parameters, error) {
	var p *ferment.Parameters
	err := n.view(func(eng *engines) error {
		var err error
		p, err = eng.ferment.Parameters()
		return err
	})
	return p, err
}

// FermentTradingEnabled reports whether asset transfers are open.
func (n *Node) FermentTradingEnabled() (bool, error) {
	var enabled bool
	err := n.view(func(eng *engines) error {
		var err error
		enabled, err = eng.ferment.TradingEnabled()
		return err
	})
	return enabled, err
}
