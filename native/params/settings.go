package params

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "yieldchain/native/common"
	"yieldchain/native/reputation"
)

var (
	ErrInvalidSettings = errors.New("params: invalid settings")
	ErrSettingsUnset   = errors.New("params: settings not configured")
)

// Settings are the registry values read by the fermentation engine at call
// time. ClaimTaxBps[i] applies to owners whose reputation class is i.
type Settings struct {
	Treasury             common.Address `json:"treasury"`
	RewardsPool          common.Address `json:"rewardsPool"`
	ClaimTaxBps          []uint32       `json:"claimTaxBps"`
	ReputationThresholds []uint64       `json:"reputationThresholds"`
	AssetCost            *big.Int       `json:"assetCost"`
	TreasuryFeeBps       uint32         `json:"treasuryFeeBps"`
	WalletLimit          uint64         `json:"walletLimit"`
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	out := s
	out.ClaimTaxBps = append([]uint32(nil), s.ClaimTaxBps...)
	out.ReputationThresholds = append([]uint64(nil), s.ReputationThresholds...)
	if s.AssetCost != nil {
		out.AssetCost = new(big.Int).Set(s.AssetCost)
	}
	return out
}

// Validate checks the settings before they are persisted.
func (s Settings) Validate() error {
	if s.Treasury == (common.Address{}) {
		return fmt.Errorf("%w: treasury address required", ErrInvalidSettings)
	}
	if s.RewardsPool == (common.Address{}) {
		return fmt.Errorf("%w: rewards pool address required", ErrInvalidSettings)
	}
	if len(s.ClaimTaxBps) == 0 {
		return fmt.Errorf("%w: at least one claim tax rate required", ErrInvalidSettings)
	}
	if len(s.ClaimTaxBps) != len(s.ReputationThresholds) {
		return fmt.Errorf("%w: %d claim tax rates for %d reputation classes", ErrInvalidSettings, len(s.ClaimTaxBps), len(s.ReputationThresholds))
	}
	for i, bps := range s.ClaimTaxBps {
		if bps > nativecommon.BasisPoints {
			return fmt.Errorf("%w: claim tax %d is %d bps", ErrInvalidSettings, i, bps)
		}
	}
	if err := reputation.ValidateThresholds(s.ReputationThresholds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if s.AssetCost == nil || s.AssetCost.Sign() <= 0 {
		return fmt.Errorf("%w: asset cost must be positive", ErrInvalidSettings)
	}
	if s.TreasuryFeeBps > nativecommon.BasisPoints {
		return fmt.Errorf("%w: treasury fee is %d bps", ErrInvalidSettings, s.TreasuryFeeBps)
	}
	if s.WalletLimit == 0 {
		return fmt.Errorf("%w: wallet limit must be positive", ErrInvalidSettings)
	}
	return nil
}
