package rpc

import (
	"yieldchain/core"
	"yieldchain/native/ferment"
)

// Amounts are rendered as base-10 strings so clients never lose precision.

type HeadResult struct {
	Height uint64 `json:"height"`
	Time   uint64 `json:"time"`
}

type BalanceResult struct {
	Token   string `json:"token"`
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type AmountResult struct {
	Amount string `json:"amount"`
}

type ScheduleResult struct {
	PerBlockRate         string `json:"perBlockRate"`
	StartHeight          uint64 `json:"startHeight"`
	FirstPhaseEndHeight  uint64 `json:"firstPhaseEndHeight"`
	SecondPhaseEndHeight uint64 `json:"secondPhaseEndHeight"`
	FinalEndHeight       uint64 `json:"finalEndHeight"`
	FirstMultiplier      uint64 `json:"firstMultiplier"`
	SecondMultiplier     uint64 `json:"secondMultiplier"`
}

type PoolResult struct {
	Height            uint64         `json:"height"`
	Multiplier        uint64         `json:"multiplier"`
	TotalStaked       string         `json:"totalStaked"`
	AccRewardPerShare string         `json:"accRewardPerShare"`
	LastAccrualHeight uint64         `json:"lastAccrualHeight"`
	Schedule          ScheduleResult `json:"schedule"`
}

type StakeResult struct {
	Height      uint64 `json:"height"`
	Participant string `json:"participant"`
	Amount      string `json:"amount"`
	RewardDebt  string `json:"rewardDebt"`
	Pending     string `json:"pending"`
}

type TierResult struct {
	Index      int    `json:"index"`
	Threshold  string `json:"threshold"`
	DailyYield string `json:"dailyYield"`
}

type AssetResult struct {
	ID             uint64 `json:"id"`
	Owner          string `json:"owner"`
	Name           string `json:"name"`
	TierIndex      uint64 `json:"tierIndex"`
	CumulativeXP   string `json:"cumulativeXp"`
	LastClaimed    uint64 `json:"lastClaimed"`
	TotalYieldPaid string `json:"totalYieldPaid"`
	CreatedAt      uint64 `json:"createdAt"`
	Approved       string `json:"approved,omitempty"`
	At             uint64 `json:"at,omitempty"`
	PendingReward  string `json:"pendingReward,omitempty"`
	PendingXP      string `json:"pendingXp,omitempty"`
	DailyYield     string `json:"dailyYield,omitempty"`
}

type ParametersResult struct {
	FermentationPeriod  uint64 `json:"fermentationPeriod"`
	ExperiencePerSecond string `json:"experiencePerSecond"`
	GlobalStartTime     uint64 `json:"globalStartTime"`
	TradingEnabled      bool   `json:"tradingEnabled"`
}

type ClaimResult struct {
	Gross    string `json:"gross"`
	Tax      string `json:"tax"`
	Net      string `json:"net"`
	XPGained string `json:"xpGained"`
	Tier     uint64 `json:"tier"`
}

type CompoundResult struct {
	Minted      []uint64 `json:"minted"`
	Cost        string   `json:"cost"`
	TreasuryFee string   `json:"treasuryFee"`
	Leftover    string   `json:"leftover"`
	Tax         string   `json:"tax"`
	Net         string   `json:"net"`
	XPGained    string   `json:"xpGained"`
	Tier        uint64   `json:"tier"`
}

func poolResult(view *core.PoolView) PoolResult {
	out := PoolResult{Height: view.Height, Multiplier: view.Multiplier}
	if view.Pool != nil {
		out.TotalStaked = amountString(view.Pool.TotalStaked)
		out.AccRewardPerShare = amountString(view.Pool.AccRewardPerShare)
		out.LastAccrualHeight = view.Pool.LastAccrualHeight
	}
	if s := view.Schedule; s != nil {
		out.Schedule = ScheduleResult{
			PerBlockRate:         amountString(s.PerBlockRate),
			StartHeight:          s.StartHeight,
			FirstPhaseEndHeight:  s.FirstPhaseEndHeight,
			SecondPhaseEndHeight: s.SecondPhaseEndHeight,
			FinalEndHeight:       s.FinalEndHeight,
			FirstMultiplier:      s.FirstMultiplier,
			SecondMultiplier:     s.SecondMultiplier,
		}
	}
	return out
}

func assetResult(record *ferment.AssetRecord) AssetResult {
	out := AssetResult{
		ID:             record.ID,
		Owner:          record.Owner.Hex(),
		Name:           record.Name,
		TierIndex:      record.TierIndex,
		CumulativeXP:   amountString(record.CumulativeXP),
		LastClaimed:    record.LastClaimed,
		TotalYieldPaid: amountString(record.TotalYieldPaid),
		CreatedAt:      record.CreatedAt,
	}
	if record.Encumbered() {
		out.Approved = record.Approved.Hex()
	}
	return out
}

func claimResult(res *ferment.ClaimResult) ClaimResult {
	return ClaimResult{
		Gross:    amountString(res.Gross),
		Tax:      amountString(res.Tax),
		Net:      amountString(res.Net),
		XPGained: amountString(res.XPGained),
		Tier:     res.Tier,
	}
}

func compoundResult(res *ferment.CompoundResult) CompoundResult {
	minted := append([]uint64{}, res.Minted...)
	return CompoundResult{
		Minted:      minted,
		Cost:        amountString(res.Cost),
		TreasuryFee: amountString(res.TreasuryFee),
		Leftover:    amountString(res.Leftover),
		Tax:         amountString(res.Tax),
		Net:         amountString(res.Net),
		XPGained:    amountString(res.XPGained),
		Tier:        res.Tier,
	}
}
