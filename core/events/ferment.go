package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/types"
)

const (
	// TypeFermentMinted is emitted for every newly created asset.
	TypeFermentMinted = "ferment.minted"
	// TypeFermentClaimed is emitted when an asset's yield is claimed.
	TypeFermentClaimed = "ferment.claimed"
	// TypeFermentCompounded is emitted when yield is converted into new assets.
	TypeFermentCompounded = "ferment.compounded"
	// TypeFermentTierChanged is emitted when accumulated XP moves an asset to a new tier.
	TypeFermentTierChanged = "ferment.tierChanged"
	// TypeFermentApproval is emitted when an asset encumbrance is set or cleared.
	TypeFermentApproval = "ferment.approval"
	// TypeFermentTransferred is emitted when an asset changes hands.
	TypeFermentTransferred = "ferment.transferred"
)

// FermentMinted announces a new asset.
type FermentMinted struct {
	AssetID   uint64
	Owner     common.Address
	Name      string
	CreatedAt uint64
}

// EventType satisfies the Event interface.
func (FermentMinted) EventType() string { return TypeFermentMinted }

// Event converts the structured payload into a broadcastable event.
func (e FermentMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentMinted,
		Attributes: map[string]string{
			"assetId":   formatUint(e.AssetID),
			"owner":     formatAddress(e.Owner),
			"name":      e.Name,
			"createdAt": formatUint(e.CreatedAt),
		},
	}
}

// FermentClaimed records the gross reward, the tax routed to the treasury and
// the XP credited by a claim.
type FermentClaimed struct {
	AssetID  uint64
	Owner    common.Address
	Gross    *big.Int
	Tax      *big.Int
	Net      *big.Int
	XPGained *big.Int
	Tier     uint64
	At       uint64
}

// EventType satisfies the Event interface.
func (FermentClaimed) EventType() string { return TypeFermentClaimed }

// Event converts the structured payload into a broadcastable event.
func (e FermentClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentClaimed,
		Attributes: map[string]string{
			"assetId":  formatUint(e.AssetID),
			"owner":    formatAddress(e.Owner),
			"gross":    formatAmount(e.Gross),
			"tax":      formatAmount(e.Tax),
			"net":      formatAmount(e.Net),
			"xpGained": formatAmount(e.XPGained),
			"tier":     formatUint(e.Tier),
			"at":       formatUint(e.At),
		},
	}
}

// FermentCompounded records the assets minted from pending yield.
type FermentCompounded struct {
	AssetID     uint64
	Owner       common.Address
	Count       uint64
	Cost        *big.Int
	TreasuryFee *big.Int
	Leftover    *big.Int
	LeftoverTax *big.Int
	FirstMinted uint64
	At          uint64
}

// EventType satisfies the Event interface.
func (FermentCompounded) EventType() string { return TypeFermentCompounded }

// Event converts the structured payload into a broadcastable event.
func (e FermentCompounded) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentCompounded,
		Attributes: map[string]string{
			"assetId":     formatUint(e.AssetID),
			"owner":       formatAddress(e.Owner),
			"count":       formatUint(e.Count),
			"cost":        formatAmount(e.Cost),
			"treasuryFee": formatAmount(e.TreasuryFee),
			"leftover":    formatAmount(e.Leftover),
			"leftoverTax": formatAmount(e.LeftoverTax),
			"firstMinted": formatUint(e.FirstMinted),
			"at":          formatUint(e.At),
		},
	}
}

// FermentTierChanged records a tier transition.
type FermentTierChanged struct {
	AssetID uint64
	From    uint64
	To      uint64
	XP      *big.Int
}

// EventType satisfies the Event interface.
func (FermentTierChanged) EventType() string { return TypeFermentTierChanged }

// Event converts the structured payload into a broadcastable event.
func (e FermentTierChanged) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentTierChanged,
		Attributes: map[string]string{
			"assetId": formatUint(e.AssetID),
			"from":    formatUint(e.From),
			"to":      formatUint(e.To),
			"xp":      formatAmount(e.XP),
		},
	}
}

// FermentApproval records the operator allowed to move an asset. A zero
// operator clears the encumbrance.
type FermentApproval struct {
	AssetID  uint64
	Owner    common.Address
	Operator common.Address
}

// EventType satisfies the Event interface.
func (FermentApproval) EventType() string { return TypeFermentApproval }

// Event converts the structured payload into a broadcastable event.
func (e FermentApproval) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentApproval,
		Attributes: map[string]string{
			"assetId":  formatUint(e.AssetID),
			"owner":    formatAddress(e.Owner),
			"operator": formatAddress(e.Operator),
		},
	}
}

// FermentTransferred records an ownership change.
type FermentTransferred struct {
	AssetID uint64
	From    common.Address
	To      common.Address
}

// EventType satisfies the Event interface.
func (FermentTransferred) EventType() string { return TypeFermentTransferred }

// Event converts the structured payload into a broadcastable event.
func (e FermentTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeFermentTransferred,
		Attributes: map[string]string{
			"assetId": formatUint(e.AssetID),
			"from":    formatAddress(e.From),
			"to":      formatAddress(e.To),
		},
	}
}
