package ferment

import "errors"

var (
	ErrNilState           = errors.New("ferment engine: state not configured")
	ErrNilLedger          = errors.New("ferment engine: ledger not configured")
	ErrNilRegistry        = errors.New("ferment engine: registry not configured")
	ErrNotConfigured      = errors.New("ferment engine: parameters or tiers not configured")
	ErrAssetNotFound      = errors.New("ferment engine: asset not found")
	ErrNotOwner           = errors.New("ferment engine: caller does not control asset")
	ErrAssetEncumbered    = errors.New("ferment engine: asset has an active approval")
	ErrWalletLimit        = errors.New("ferment engine: wallet limit reached")
	ErrInsufficientReward = errors.New("ferment engine: pending reward below compound cost")
	ErrTradingDisabled    = errors.New("ferment engine: trading disabled")
	ErrInvalidAmount      = errors.New("ferment engine: amount must be positive")
	ErrInvalidRecipient   = errors.New("ferment engine: invalid recipient")
	ErrInvalidTier        = errors.New("ferment engine: invalid tier")
	ErrInvalidParameters  = errors.New("ferment engine: invalid parameters")
	// ErrInvariantViolation signals that the rewards pool cannot cover a
	// computed payout.
	ErrInvariantViolation = errors.New("ferment engine: invariant violation")
)
