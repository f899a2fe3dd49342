package core

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/events"
	yieldstate "yieldchain/core/state"
	"yieldchain/core/types"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
	"yieldchain/native/params"
	"yieldchain/native/reputation"
	"yieldchain/observability"
	"yieldchain/observability/metrics"
)

var ErrHeadRegression = errors.New("core: head may not move backwards")

// Options names the accounts and tokens the engines operate on.
type Options struct {
	FarmCustody     common.Address
	FarmRewardToken string
	FarmStakeToken  string
	FermentToken    string
	Emitter         events.Emitter
	Logger          *slog.Logger
}

// Node owns the state manager and runs every engine call inside one atomic
// section. Events are only forwarded once the section commits.
type Node struct {
	state   *yieldstate.Manager
	opts    Options
	emitter events.Emitter
	logger  *slog.Logger
}

// NewNode wires a node over mgr.
func NewNode(mgr *yieldstate.Manager, opts Options) (*Node, error) {
	if mgr == nil {
		return nil, fmt.Errorf("core: state manager required")
	}
	if opts.FarmCustody == (common.Address{}) {
		return nil, fmt.Errorf("core: farm custody address required")
	}
	if opts.FarmRewardToken == "" || opts.FarmStakeToken == "" || opts.FermentToken == "" {
		return nil, fmt.Errorf("core: token symbols required")
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{state: mgr, opts: opts, emitter: emitter, logger: logger}, nil
}

// State exposes the underlying manager.
func (n *Node) State() *yieldstate.Manager { return n.state }

type eventBuffer struct {
	pending []events.Event
}

func (b *eventBuffer) Emit(evt events.Event) {
	if evt != nil {
		b.pending = append(b.pending, evt)
	}
}

// engines bundles the per-call engine instances bound to one manager.
type engines struct {
	farm       *farm.Engine
	ferment    *ferment.Engine
	store      *params.Store
	reputation *reputation.Ledger
	emitter    events.Emitter
}

func (n *Node) newEngines(manager *yieldstate.Manager, emitter events.Emitter) (*engines, error) {
	head, err := manager.HeadGet()
	if err != nil {
		return nil, err
	}
	store := params.NewStore(manager)
	ledger := reputation.NewLedger(manager)
	ledger.SetNowFunc(func() int64 { return int64(head.Time) })
	registry := params.NewRegistry(store, ledger)

	farmEngine := farm.NewEngine(n.opts.FarmCustody, n.opts.FarmRewardToken, n.opts.FarmStakeToken)
	farmEngine.SetState(manager)
	farmEngine.SetLedger(manager)
	farmEngine.SetEmitter(emitter)
	farmEngine.SetLogger(n.logger)
	farmEngine.SetPauses(registry)
	farmEngine.SetBlockHeight(head.Height)

	fermentEngine := ferment.NewEngine(n.opts.FermentToken)
	fermentEngine.SetState(manager)
	fermentEngine.SetLedger(manager)
	fermentEngine.SetRegistry(registry)
	fermentEngine.SetEmitter(emitter)
	fermentEngine.SetLogger(n.logger)
	fermentEngine.SetPauses(registry)
	fermentEngine.SetBlockTime(head.Time)

	return &engines{farm: farmEngine, ferment: fermentEngine, store: store, reputation: ledger, emitter: emitter}, nil
}

// mutate runs fn atomically and publishes the events it produced on success.
func (n *Node) mutate(fn func(*engines) error) error {
	buffer := &eventBuffer{}
	err := n.state.Atomic(func(manager *yieldstate.Manager) error {
		eng, err := n.newEngines(manager, buffer)
		if err != nil {
			return err
		}
		return fn(eng)
	})
	if err != nil {
		return err
	}
	farmTouched := false
	for _, evt := range buffer.pending {
		n.emitter.Emit(evt)
		observability.Events().RecordCommitted(evt.EventType())
		if strings.HasPrefix(evt.EventType(), farmEventPrefix) {
			farmTouched = true
		}
	}
	if farmTouched {
		n.refreshPoolGauges()
	}
	return nil
}

const farmEventPrefix = "farm."

// refreshPoolGauges exports the committed pool totals.
func (n *Node) refreshPoolGauges() {
	var pool *farm.PoolState
	err := n.state.View(func(manager *yieldstate.Manager) error {
		stored, ok, err := manager.FarmPoolGet()
		if ok {
			pool = stored
		}
		return err
	})
	if err != nil {
		n.logger.Warn("read committed farm pool", slog.Any("error", err))
		return
	}
	if pool != nil {
		metrics.Yield().SetPool(pool.TotalStaked, pool.AccRewardPerShare)
	}
}

// view runs fn under the read lock with engines that cannot write.
func (n *Node) view(fn func(*engines) error) error {
	return n.state.View(func(manager *yieldstate.Manager) error {
		eng, err := n.newEngines(manager, events.NoopEmitter{})
		if err != nil {
			return err
		}
		return fn(eng)
	})
}

// Advance moves the head the engines accrue against. Neither height nor time
// may decrease.
func (n *Node) Advance(height, timestamp uint64) error {
	return n.state.Atomic(func(manager *yieldstate.Manager) error {
		head, err := manager.HeadGet()
		if err != nil {
			return err
		}
		if height < head.Height || timestamp < head.Time {
			return fmt.Errorf("%w: %d/%d behind %d/%d", ErrHeadRegression, height, timestamp, head.Height, head.Time)
		}
		return manager.HeadPut(yieldstate.Head{Height: height, Time: timestamp})
	})
}

// Credit mints token to addr. It is how custody and the rewards pool are
// funded.
func (n *Node) Credit(token string, addr common.Address, amount *big.Int) error {
	return n.state.Atomic(func(manager *yieldstate.Manager) error {
		return manager.Credit(token, addr, amount)
	})
}

// SetSettings validates and stores the registry settings.
func (n *Node) SetSettings(settings params.Settings) error {
	return n.mutate(func(eng *engines) error { return eng.store.SetSettings(settings) })
}

// SetPauses stores the module pause table.
func (n *Node) SetPauses(pauses params.Pauses) error {
	return n.mutate(func(eng *engines) error { return eng.store.SetPauses(pauses) })
}

// SetReputation overwrites an account's reputation score.
func (n *Node) SetReputation(addr common.Address, score uint64) error {
	return n.mutate(func(eng *engines) error {
		record, err := eng.reputation.SetScore(addr, score)
		if err != nil {
			return err
		}
		eng.emitter.Emit(payloadEvent{reputation.NewScoreUpdatedEvent(addr, record)})
		return nil
	})
}

// payloadEvent adapts a prebuilt payload to the Event interface.
type payloadEvent struct {
	payload *types.Event
}

func (p payloadEvent) EventType() string   { return p.payload.Type }
func (p payloadEvent) Event() *types.Event { return p.payload }

func (n *Node) FarmInitialize(schedule *farm.EmissionSchedule) error {
	return n.mutate(func(eng *engines) error { return eng.farm.Initialize(schedule) })
}

func (n *Node) FarmReconfigure(schedule *farm.EmissionSchedule) error {
	return n.mutate(func(eng *engines) error { return eng.farm.Reconfigure(schedule) })
}

func (n *Node) FarmDeposit(participant common.Address, amount *big.Int) (*big.Int, error) {
	var reward *big.Int
	err := n.mutate(func(eng *engines) error {
		var err error
		reward, err = eng.farm.Deposit(participant, amount)
		return err
	})
	return reward, err
}

func (n *Node) FarmWithdraw(participant common.Address, amount *big.Int) (*big.Int, error) {
	var reward *big.Int
	err := n.mutate(func(eng *engines) error {
		var err error
		reward, err = eng.farm.Withdraw(participant, amount)
		return err
	})
	return reward, err
}

func (n *Node) FarmHarvest(participant common.Address) (*big.Int, error) {
	var reward *big.Int
	err := n.mutate(func(eng *engines) error {
		var err error
		reward, err = eng.farm.Harvest(participant)
		return err
	})
	return reward, err
}

func (n *Node) FarmEmergencyWithdraw(participant common.Address) (*big.Int, error) {
	var amount *big.Int
	err := n.mutate(func(eng *engines) error {
		var err error
		amount, err = eng.farm.EmergencyWithdraw(participant)
		return err
	})
	return amount, err
}

func (n *Node) FermentMint(owner common.Address, name string) (*ferment.AssetRecord, error) {
	var record *ferment.AssetRecord
	err := n.mutate(func(eng *engines) error {
		var err error
		record, err = eng.ferment.Mint(owner, name)
		return err
	})
	return record, err
}

func (n *Node) FermentClaim(caller common.Address, id uint64) (*ferment.ClaimResult, error) {
	var result *ferment.ClaimResult
	err := n.mutate(func(eng *engines) error {
		var err error
		result, err = eng.ferment.Claim(caller, id)
		return err
	})
	return result, err
}

func (n *Node) FermentCompound(caller common.Address, id, count uint64) (*ferment.CompoundResult, error) {
	var result *ferment.CompoundResult
	err := n.mutate(func(eng *engines) error {
		var err error
		result, err = eng.ferment.Compound(caller, id, count)
		return err
	})
	return result, err
}

func (n *Node) FermentCompoundAll(caller common.Address, id uint64) (*ferment.CompoundResult, error) {
	var result *ferment.CompoundResult
	err := n.mutate(func(eng *engines) error {
		var err error
		result, err = eng.ferment.CompoundAll(caller, id)
		return err
	})
	return result, err
}

func (n *Node) FermentAddXP(id uint64, amount *big.Int) (*ferment.AssetRecord, error) {
	var record *ferment.AssetRecord
	err := n.mutate(func(eng *engines) error {
		var err error
		record, err = eng.ferment.AddXP(id, amount)
		return err
	})
	return record, err
}

func (n *Node) FermentApprove(caller common.Address, id uint64, operator common.Address) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.Approve(caller, id, operator) })
}

func (n *Node) FermentRevokeApproval(caller common.Address, id uint64) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.RevokeApproval(caller, id) })
}

func (n *Node) FermentTransfer(caller, to common.Address, id uint64) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.Transfer(caller, to, id) })
}

func (n *Node) FermentSetTradingEnabled(enabled bool) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.SetTradingEnabled(enabled) })
}

func (n *Node) FermentAddTier(threshold, dailyYield *big.Int) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.AddTier(threshold, dailyYield) })
}

func (n *Node) FermentSetParameters(p *ferment.Parameters) error {
	return n.mutate(func(eng *engines) error { return eng.ferment.SetParameters(p) })
}
