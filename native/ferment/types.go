package ferment

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "yieldchain/native/common"
)

// AssetRecord is the accrual state attached to one collectible.
type AssetRecord struct {
	ID             uint64         `json:"id"`
	Owner          common.Address `json:"owner"`
	Name           string         `json:"name"`
	TierIndex      uint64         `json:"tierIndex"`
	CumulativeXP   *big.Int       `json:"cumulativeXp"`
	LastClaimed    uint64         `json:"lastClaimed"`
	TotalYieldPaid *big.Int       `json:"totalYieldPaid"`
	CreatedAt      uint64         `json:"createdAt"`
	// Approved is the operator allowed to move the asset. A non-zero value
	// encumbers the asset and blocks claims.
	Approved common.Address `json:"approved"`
	// AccruedUnpaid is reward banked at an earlier tier and not yet paid.
	// RewardCheckpoint is when it was banked; the reward stream resumes from
	// there while the experience clock keeps running from LastClaimed.
	AccruedUnpaid    *big.Int `json:"accruedUnpaid" rlp:"optional"`
	RewardCheckpoint uint64   `json:"rewardCheckpoint" rlp:"optional"`
}

// Clone returns a deep copy of the record.
func (r *AssetRecord) Clone() *AssetRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.CumulativeXP = nativecommon.CopyBig(r.CumulativeXP)
	out.TotalYieldPaid = nativecommon.CopyBig(r.TotalYieldPaid)
	out.AccruedUnpaid = nativecommon.CopyBig(r.AccruedUnpaid)
	return &out
}

// Encumbered reports whether an operator approval is active.
func (r *AssetRecord) Encumbered() bool {
	return r != nil && r.Approved != (common.Address{})
}

// Tier is one row of the tier table.
type Tier struct {
	Threshold  *big.Int `json:"threshold"`
	DailyYield *big.Int `json:"dailyYield"`
}

// Parameters drive both accrual clocks.
type Parameters struct {
	// FermentationPeriod is the delay in seconds before experience accrues.
	FermentationPeriod  uint64   `json:"fermentationPeriod"`
	ExperiencePerSecond *big.Int `json:"experiencePerSecond"`
	// GlobalStartTime gates both streams: nothing accrues before it.
	GlobalStartTime uint64 `json:"globalStartTime"`
}

// Clone returns a deep copy.
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	out := *p
	out.ExperiencePerSecond = nativecommon.CopyBig(p.ExperiencePerSecond)
	return &out
}

// Validate rejects unusable parameters.
func (p *Parameters) Validate() error {
	if p == nil {
		return ErrInvalidParameters
	}
	if p.ExperiencePerSecond == nil || p.ExperiencePerSecond.Sign() < 0 {
		return ErrInvalidParameters
	}
	return nil
}

// ClaimResult describes a settled claim.
type ClaimResult struct {
	Gross    *big.Int
	Tax      *big.Int
	Net      *big.Int
	XPGained *big.Int
	Tier     uint64
}

// CompoundResult describes a settled compound.
type CompoundResult struct {
	Minted      []uint64
	Cost        *big.Int
	TreasuryFee *big.Int
	Leftover    *big.Int
	Tax         *big.Int
	Net         *big.Int
	XPGained    *big.Int
	Tier        uint64
}
