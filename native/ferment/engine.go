package ferment

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/events"
	nativecommon "yieldchain/native/common"
	"yieldchain/native/params"
	"yieldchain/observability/metrics"
)

const moduleName = nativecommon.ModuleFerment

type engineState interface {
	FermentAssetGet(id uint64) (*AssetRecord, bool, error)
	FermentAssetPut(record *AssetRecord) error
	FermentOwnerCount(owner common.Address) (uint64, error)
	FermentSetOwnerCount(owner common.Address, count uint64) error
	FermentNextAssetID() (uint64, error)
	FermentTiersGet() ([]Tier, error)
	FermentTiersPut(tiers []Tier) error
	FermentParametersGet() (*Parameters, bool, error)
	FermentParametersPut(p *Parameters) error
	FermentTradingEnabled() (bool, error)
	FermentSetTradingEnabled(enabled bool) error
}

// Registry exposes the settings read at the moment of each call.
type Registry interface {
	Settings() (params.Settings, error)
	ClaimTaxBps(owner common.Address) (uint32, error)
}

// Engine runs the tiered fermentation accrual for every asset. Payouts are
// drawn from the rewards pool named by the registry.
type Engine struct {
	state       engineState
	ledger      nativecommon.Ledger
	registry    Registry
	emitter     events.Emitter
	logger      *slog.Logger
	telemetry   *metrics.YieldMetrics
	pauses      nativecommon.PauseView
	rewardToken string
	now         uint64
}

// NewEngine constructs an engine paying rewardToken.
func NewEngine(rewardToken string) *Engine {
	return &Engine{
		rewardToken: rewardToken,
		emitter:     events.NoopEmitter{},
		logger:      slog.Default(),
		telemetry:   metrics.Yield(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the balance ledger used for payouts.
func (e *Engine) SetLedger(ledger nativecommon.Ledger) { e.ledger = ledger }

// SetRegistry configures the settings source.
func (e *Engine) SetRegistry(registry Registry) { e.registry = registry }

// SetEmitter configures the event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetLogger overrides the logger used to report invariant violations.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetBlockTime records the timestamp, in seconds, used by subsequent calls.
func (e *Engine) SetBlockTime(ts uint64) {
	if e == nil {
		return
	}
	e.now = ts
}

// BlockTime returns the configured timestamp.
func (e *Engine) BlockTime() uint64 {
	if e == nil {
		return 0
	}
	return e.now
}

// Mint creates a fresh asset for owner. Both accrual clocks start now.
func (e *Engine) Mint(owner common.Address, name string) (record *AssetRecord, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "mint", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	if owner == (common.Address{}) {
		return nil, ErrInvalidRecipient
	}
	settings, err := e.registry.Settings()
	if err != nil {
		return nil, err
	}
	if err := e.reserveSlots(owner, 1, settings.WalletLimit); err != nil {
		return nil, err
	}
	record, err = e.mintOne(owner, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Claim pays the owner's pending reward net of claim tax and folds pending
// experience into the asset.
func (e *Engine) Claim(caller common.Address, id uint64) (result *ClaimResult, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "claim", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	record, err := e.ownedUnencumbered(caller, id)
	if err != nil {
		return nil, err
	}
	tiers, p, err := e.config()
	if err != nil {
		return nil, err
	}
	settings, err := e.registry.Settings()
	if err != nil {
		return nil, err
	}
	gross := pendingReward(record, tiers, p, e.now)
	xp := pendingXP(record, p, e.now)
	tax, net, err := e.taxed(record.Owner, gross)
	if err != nil {
		return nil, err
	}
	if err := e.ensureFunded(settings.RewardsPool, gross); err != nil {
		return nil, err
	}
	if err := e.pay(settings.RewardsPool, record.Owner, net); err != nil {
		return nil, err
	}
	if err := e.pay(settings.RewardsPool, settings.Treasury, tax); err != nil {
		return nil, err
	}
	tier, err := e.settle(record, tiers, gross, xp)
	if err != nil {
		return nil, err
	}
	e.telemetry.ObservePayout(moduleName, "reward", net)
	e.telemetry.ObservePayout(moduleName, "tax", tax)
	e.emitter.Emit(events.FermentClaimed{
		AssetID:  id,
		Owner:    record.Owner,
		Gross:    gross,
		Tax:      tax,
		Net:      net,
		XPGained: xp,
		Tier:     tier,
		At:       e.now,
	})
	return &ClaimResult{Gross: gross, Tax: tax, Net: net, XPGained: xp, Tier: tier}, nil
}

// Compound spends count times the asset cost out of the pending reward to
// mint new assets for the owner. The remainder is paid out like a claim.
func (e *Engine) Compound(caller common.Address, id uint64, count uint64) (result *CompoundResult, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "compound", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrInvalidAmount
	}
	return e.compound(caller, id, func(gross *big.Int, settings params.Settings, held uint64) (uint64, error) {
		return count, nil
	})
}

// CompoundAll compounds as many assets as the pending reward pays for,
// capped by the owner's remaining wallet capacity.
func (e *Engine) CompoundAll(caller common.Address, id uint64) (result *CompoundResult, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "compoundAll", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.compound(caller, id, func(gross *big.Int, settings params.Settings, held uint64) (uint64, error) {
		affordable := new(big.Int).Quo(gross, settings.AssetCost)
		if affordable.Sign() == 0 {
			return 0, ErrInsufficientReward
		}
		if held >= settings.WalletLimit {
			return 0, ErrWalletLimit
		}
		capacity := settings.WalletLimit - held
		if affordable.IsUint64() && affordable.Uint64() < capacity {
			return affordable.Uint64(), nil
		}
		return capacity, nil
	})
}

type countFunc func(gross *big.Int, settings params.Settings, held uint64) (uint64, error)

func (e *Engine) compound(caller common.Address, id uint64, pick countFunc) (*CompoundResult, error) {
	record, err := e.ownedUnencumbered(caller, id)
	if err != nil {
		return nil, err
	}
	tiers, p, err := e.config()
	if err != nil {
		return nil, err
	}
	settings, err := e.registry.Settings()
	if err != nil {
		return nil, err
	}
	gross := pendingReward(record, tiers, p, e.now)
	xp := pendingXP(record, p, e.now)
	held, err := e.state.FermentOwnerCount(record.Owner)
	if err != nil {
		return nil, err
	}
	count, err := pick(gross, settings, held)
	if err != nil {
		return nil, err
	}
	cost, err := nativecommon.Mul(settings.AssetCost, new(big.Int).SetUint64(count))
	if err != nil {
		return nil, err
	}
	if gross.Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: pending %s, cost %s", ErrInsufficientReward, gross, cost)
	}
	if err := e.reserveSlots(record.Owner, count, settings.WalletLimit); err != nil {
		return nil, err
	}
	fee, err := nativecommon.ApplyBps(cost, settings.TreasuryFeeBps)
	if err != nil {
		return nil, err
	}
	leftover := new(big.Int).Sub(gross, cost)
	tax, net, err := e.taxed(record.Owner, leftover)
	if err != nil {
		return nil, err
	}
	// The unspent part of the cost never leaves the pool.
	if err := e.ensureFunded(settings.RewardsPool, new(big.Int).Add(fee, leftover)); err != nil {
		return nil, err
	}
	if err := e.pay(settings.RewardsPool, settings.Treasury, new(big.Int).Add(fee, tax)); err != nil {
		return nil, err
	}
	if err := e.pay(settings.RewardsPool, record.Owner, net); err != nil {
		return nil, err
	}
	minted := make([]uint64, 0, count)
	for i := uint64(0); i < count; i++ {
		child, err := e.mintOne(record.Owner, fmt.Sprintf("%s #%d", record.Name, i+1))
		if err != nil {
			return nil, err
		}
		minted = append(minted, child.ID)
	}
	tier, err := e.settle(record, tiers, gross, xp)
	if err != nil {
		return nil, err
	}
	e.telemetry.ObservePayout(moduleName, "treasuryFee", fee)
	e.telemetry.ObservePayout(moduleName, "reward", net)
	e.telemetry.ObservePayout(moduleName, "tax", tax)
	e.emitter.Emit(events.FermentCompounded{
		AssetID:     id,
		Owner:       record.Owner,
		Count:       count,
		Cost:        cost,
		TreasuryFee: fee,
		Leftover:    leftover,
		LeftoverTax: tax,
		FirstMinted: minted[0],
		At:          e.now,
	})
	return &CompoundResult{
		Minted:      minted,
		Cost:        cost,
		TreasuryFee: fee,
		Leftover:    leftover,
		Tax:         tax,
		Net:         net,
		XPGained:    xp,
		Tier:        tier,
	}, nil
}

// AddXP grants experience directly and re-resolves the tier.
func (e *Engine) AddXP(id uint64, amount *big.Int) (record *AssetRecord, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "addXp", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	record, err = e.asset(id)
	if err != nil {
		return nil, err
	}
	tiers, err := e.state.FermentTiersGet()
	if err != nil {
		return nil, err
	}
	if err := e.checkpointReward(record, tiers); err != nil {
		return nil, err
	}
	record.CumulativeXP = new(big.Int).Add(record.CumulativeXP, amount)
	e.retier(record, tiers)
	if err := e.state.FermentAssetPut(record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Approve lets operator move the asset. It requires trading to be enabled.
// The asset cannot be claimed or compounded while the approval stands.
func (e *Engine) Approve(caller common.Address, id uint64, operator common.Address) (err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "approve", err) }()
	if err := e.guard(); err != nil {
		return err
	}
	enabled, err := e.state.FermentTradingEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrTradingDisabled
	}
	record, err := e.owned(caller, id)
	if err != nil {
		return err
	}
	if operator == (common.Address{}) || operator == record.Owner {
		return ErrInvalidRecipient
	}
	record.Approved = operator
	if err := e.state.FermentAssetPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.FermentApproval{AssetID: id, Owner: record.Owner, Operator: operator})
	return nil
}

// RevokeApproval clears any operator approval.
func (e *Engine) RevokeApproval(caller common.Address, id uint64) (err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "revokeApproval", err) }()
	if err := e.guard(); err != nil {
		return err
	}
	record, err := e.owned(caller, id)
	if err != nil {
		return err
	}
	record.Approved = common.Address{}
	if err := e.state.FermentAssetPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.FermentApproval{AssetID: id, Owner: record.Owner})
	return nil
}

// SetTradingEnabled toggles whether assets may change hands.
func (e *Engine) SetTradingEnabled(enabled bool) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	return e.state.FermentSetTradingEnabled(enabled)
}

// Transfer moves the asset to a new owner. The accrual clock is preserved so
// unclaimed reward travels with the asset.
func (e *Engine) Transfer(caller, to common.Address, id uint64) (err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "transfer", err) }()
	if err := e.guard(); err != nil {
		return err
	}
	enabled, err := e.state.FermentTradingEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return ErrTradingDisabled
	}
	record, err := e.asset(id)
	if err != nil {
		return err
	}
	if caller != record.Owner && (!record.Encumbered() || caller != record.Approved) {
		return ErrNotOwner
	}
	if to == (common.Address{}) || to == record.Owner {
		return ErrInvalidRecipient
	}
	settings, err := e.registry.Settings()
	if err != nil {
		return err
	}
	if err := e.reserveSlots(to, 1, settings.WalletLimit); err != nil {
		return err
	}
	held, err := e.state.FermentOwnerCount(record.Owner)
	if err != nil {
		return err
	}
	if held == 0 {
		return e.violation(fmt.Errorf("%w: owner count underflow for asset %d", ErrInvariantViolation, id))
	}
	if err := e.state.FermentSetOwnerCount(record.Owner, held-1); err != nil {
		return err
	}
	from := record.Owner
	record.Owner = to
	record.Approved = common.Address{}
	if err := e.state.FermentAssetPut(record); err != nil {
		return err
	}
	e.emitter.Emit(events.FermentTransferred{AssetID: id, From: from, To: to})
	return nil
}

// AddTier appends a row to the tier table.
func (e *Engine) AddTier(threshold, dailyYield *big.Int) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	tiers, err := e.state.FermentTiersGet()
	if err != nil {
		return err
	}
	next := Tier{Threshold: threshold, DailyYield: dailyYield}
	if err := validateNext(tiers, next); err != nil {
		return err
	}
	return e.state.FermentTiersPut(append(cloneTiers(tiers), cloneTiers([]Tier{next})...))
}

// SetParameters replaces the accrual parameters.
func (e *Engine) SetParameters(p *Parameters) error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return e.state.FermentParametersPut(p.Clone())
}

// Parameters returns the configured accrual parameters.
func (e *Engine) Parameters() (*Parameters, error) {
	_, p, err := e.config()
	return p, err
}

// Asset returns a snapshot of the record.
func (e *Engine) Asset(id uint64) (*AssetRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.asset(id)
}

// Tier returns the tier row the asset currently earns at.
func (e *Engine) Tier(id uint64) (uint64, Tier, error) {
	record, err := e.Asset(id)
	if err != nil {
		return 0, Tier{}, err
	}
	tiers, err := e.state.FermentTiersGet()
	if err != nil {
		return 0, Tier{}, err
	}
	if len(tiers) == 0 {
		return 0, Tier{}, ErrNotConfigured
	}
	idx := record.TierIndex
	if idx >= uint64(len(tiers)) {
		idx = uint64(len(tiers) - 1)
	}
	return idx, cloneTiers(tiers[idx : idx+1])[0], nil
}

// Tiers returns the tier table.
func (e *Engine) Tiers() ([]Tier, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	tiers, err := e.state.FermentTiersGet()
	if err != nil {
		return nil, err
	}
	return cloneTiers(tiers), nil
}

// TradingEnabled reports the trading flag.
func (e *Engine) TradingEnabled() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrNilState
	}
	return e.state.FermentTradingEnabled()
}

// PendingReward reports the gross reward a claim would pay now.
func (e *Engine) PendingReward(id uint64) (*big.Int, error) { return e.PendingRewardAt(id, e.now) }

// PendingRewardAt evaluates the gross reward as of ts without writing.
func (e *Engine) PendingRewardAt(id uint64, ts uint64) (*big.Int, error) {
	record, err := e.Asset(id)
	if err != nil {
		return nil, err
	}
	tiers, p, err := e.config()
	if err != nil {
		return nil, err
	}
	return pendingReward(record, tiers, p, ts), nil
}

// PendingXP reports the experience a claim would add now.
func (e *Engine) PendingXP(id uint64) (*big.Int, error) { return e.PendingXPAt(id, e.now) }

// PendingXPAt evaluates pending experience as of ts without writing.
func (e *Engine) PendingXPAt(id uint64, ts uint64) (*big.Int, error) {
	record, err := e.Asset(id)
	if err != nil {
		return nil, err
	}
	_, p, err := e.config()
	if err != nil {
		return nil, err
	}
	return pendingXP(record, p, ts), nil
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	if e.registry == nil {
		return ErrNilRegistry
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) config() ([]Tier, *Parameters, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	tiers, err := e.state.FermentTiersGet()
	if err != nil {
		return nil, nil, err
	}
	p, ok, err := e.state.FermentParametersGet()
	if err != nil {
		return nil, nil, err
	}
	if !ok || p == nil || len(tiers) == 0 {
		return nil, nil, ErrNotConfigured
	}
	return tiers, p, nil
}

func (e *Engine) asset(id uint64) (*AssetRecord, error) {
	record, ok, err := e.state.FermentAssetGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return nil, fmt.Errorf("%w: %d", ErrAssetNotFound, id)
	}
	record.CumulativeXP = nativecommon.CopyBig(record.CumulativeXP)
	record.TotalYieldPaid = nativecommon.CopyBig(record.TotalYieldPaid)
	return record, nil
}

func (e *Engine) owned(caller common.Address, id uint64) (*AssetRecord, error) {
	record, err := e.asset(id)
	if err != nil {
		return nil, err
	}
	if record.Owner != caller {
		return nil, ErrNotOwner
	}
	return record, nil
}

func (e *Engine) ownedUnencumbered(caller common.Address, id uint64) (*AssetRecord, error) {
	record, err := e.owned(caller, id)
	if err != nil {
		return nil, err
	}
	if record.Encumbered() {
		return nil, ErrAssetEncumbered
	}
	return record, nil
}

// reserveSlots checks the wallet limit and bumps the owner's count.
func (e *Engine) reserveSlots(owner common.Address, n, limit uint64) error {
	held, err := e.state.FermentOwnerCount(owner)
	if err != nil {
		return err
	}
	if n > limit || held > limit-n {
		return fmt.Errorf("%w: holding %d of %d", ErrWalletLimit, held, limit)
	}
	return e.state.FermentSetOwnerCount(owner, held+n)
}

func (e *Engine) mintOne(owner common.Address, name string) (*AssetRecord, error) {
	id, err := e.state.FermentNextAssetID()
	if err != nil {
		return nil, err
	}
	record := &AssetRecord{
		ID:             id,
		Owner:          owner,
		Name:           name,
		CumulativeXP:   big.NewInt(0),
		LastClaimed:    e.now,
		TotalYieldPaid: big.NewInt(0),
		CreatedAt:      e.now,
	}
	if err := e.state.FermentAssetPut(record); err != nil {
		return nil, err
	}
	e.telemetry.AddMinted(1)
	e.emitter.Emit(events.FermentMinted{AssetID: id, Owner: owner, Name: name, CreatedAt: e.now})
	return record, nil
}

// settle applies the bookkeeping shared by claim and compound.
func (e *Engine) settle(record *AssetRecord, tiers []Tier, gross, xp *big.Int) (uint64, error) {
	record.CumulativeXP = new(big.Int).Add(record.CumulativeXP, xp)
	record.TotalYieldPaid = new(big.Int).Add(record.TotalYieldPaid, gross)
	record.LastClaimed = e.now
	record.AccruedUnpaid = big.NewInt(0)
	record.RewardCheckpoint = 0
	e.retier(record, tiers)
	if err := e.state.FermentAssetPut(record); err != nil {
		return 0, err
	}
	return record.TierIndex, nil
}

// checkpointReward banks the reward earned so far at the current tier so a
// tier change only reprices later accrual. LastClaimed is left alone.
func (e *Engine) checkpointReward(record *AssetRecord, tiers []Tier) error {
	p, ok, err := e.state.FermentParametersGet()
	if err != nil {
		return err
	}
	if !ok || p == nil {
		return nil
	}
	record.AccruedUnpaid = pendingReward(record, tiers, p, e.now)
	if e.now > record.RewardCheckpoint {
		record.RewardCheckpoint = e.now
	}
	return nil
}

func (e *Engine) retier(record *AssetRecord, tiers []Tier) {
	next := ResolveTier(tiers, record.CumulativeXP)
	if next == record.TierIndex {
		return
	}
	e.emitter.Emit(events.FermentTierChanged{
		AssetID: record.ID,
		From:    record.TierIndex,
		To:      next,
		XP:      nativecommon.CopyBig(record.CumulativeXP),
	})
	record.TierIndex = next
}

func (e *Engine) taxed(owner common.Address, amount *big.Int) (*big.Int, *big.Int, error) {
	bps, err := e.registry.ClaimTaxBps(owner)
	if err != nil {
		return nil, nil, err
	}
	tax, err := nativecommon.ApplyBps(amount, bps)
	if err != nil {
		return nil, nil, err
	}
	return tax, new(big.Int).Sub(amount, tax), nil
}

func (e *Engine) ensureFunded(pool common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := e.ledger.Balance(e.rewardToken, pool)
	if err != nil {
		return err
	}
	if nativecommon.CopyBig(balance).Cmp(amount) < 0 {
		return e.violation(fmt.Errorf("%w: rewards pool %s cannot cover payout %s", ErrInvariantViolation, nativecommon.CopyBig(balance), amount))
	}
	return nil
}

func (e *Engine) pay(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	return e.ledger.Transfer(e.rewardToken, from, to, amount)
}

func (e *Engine) violation(err error) error {
	if errors.Is(err, ErrInvariantViolation) {
		e.logger.Error("ferment invariant violated", slog.String("module", moduleName), slog.Uint64("time", e.now), slog.Any("error", err))
		e.telemetry.IncInvariantViolation(moduleName)
	}
	return err
}
