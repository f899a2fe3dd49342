package farm

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core/events"
	nativecommon "yieldchain/native/common"
	"yieldchain/observability/metrics"
)

const moduleName = nativecommon.ModuleFarm

type engineState interface {
	FarmScheduleGet() (*EmissionSchedule, bool, error)
	FarmSchedulePut(schedule *EmissionSchedule) error
	FarmPoolGet() (*PoolState, bool, error)
	FarmPoolPut(pool *PoolState) error
	FarmStakeGet(participant common.Address) (*ParticipantStake, bool, error)
	FarmStakePut(participant common.Address, stake *ParticipantStake) error
}

// Engine runs the pool accumulator. The custody account holds both staked
// principal and the pre-funded reward balance.
type Engine struct {
	state       engineState
	ledger      nativecommon.Ledger
	emitter     events.Emitter
	logger      *slog.Logger
	telemetry   *metrics.YieldMetrics
	pauses      nativecommon.PauseView
	custody     common.Address
	rewardToken string
	stakeToken  string
	height      uint64
}

// NewEngine constructs a farm engine paying rewardToken for staked stakeToken
// out of the custody account.
func NewEngine(custody common.Address, rewardToken, stakeToken string) *Engine {
	return &Engine{
		custody:     custody,
		rewardToken: rewardToken,
		stakeToken:  stakeToken,
		emitter:     events.NoopEmitter{},
		logger:      slog.Default(),
		telemetry:   metrics.Yield(),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the balance ledger used for token movements.
func (e *Engine) SetLedger(ledger nativecommon.Ledger) { e.ledger = ledger }

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

// SetBlockHeight records the height at which subsequent operations accrue.
func (e *Engine) SetBlockHeight(height uint64) {
	if e == nil {
		return
	}
	e.height = height
}

// BlockHeight returns the configured height.
func (e *Engine) BlockHeight() uint64 {
	if e == nil {
		return 0
	}
	return e.height
}

// Custody returns the account holding principal and reward reserves.
func (e *Engine) Custody() common.Address { return e.custody }

// Initialize installs the first emission schedule and an empty pool anchored
// at the current height.
func (e *Engine) Initialize(schedule *EmissionSchedule) (err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "initialize", err) }()
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	if _, ok, err := e.state.FarmScheduleGet(); err != nil {
		return err
	} else if ok {
		return ErrAlreadyInitialised
	}
	pool := NewPoolState(e.height)
	if err := e.state.FarmSchedulePut(schedule.Clone()); err != nil {
		return err
	}
	if err := e.state.FarmPoolPut(pool); err != nil {
		return err
	}
	e.emitter.Emit(events.FarmScheduleUpdated{
		PerBlockRate:      schedule.PerBlockRate,
		StartHeight:       schedule.StartHeight,
		FinalEndHeight:    schedule.FinalEndHeight,
		CheckpointHeight:  pool.LastAccrualHeight,
		AccRewardPerShare: pool.AccRewardPerShare,
	})
	return nil
}

// Reconfigure checkpoints the accumulator under the current schedule and then
// installs the replacement. Accrual before the checkpoint is never
// recomputed under the new rates.
func (e *Engine) Reconfigure(schedule *EmissionSchedule) (err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "reconfigure", err) }()
	if err := schedule.Validate(); err != nil {
		return err
	}
	current, pool, err := e.load()
	if err != nil {
		return err
	}
	pool, err = accrue(pool, current, e.height)
	if err != nil {
		return err
	}
	if err := e.state.FarmPoolPut(pool); err != nil {
		return err
	}
	if err := e.state.FarmSchedulePut(schedule.Clone()); err != nil {
		return err
	}
	e.emitter.Emit(events.FarmScheduleUpdated{
		PerBlockRate:      schedule.PerBlockRate,
		StartHeight:       schedule.StartHeight,
		FinalEndHeight:    schedule.FinalEndHeight,
		CheckpointHeight:  pool.LastAccrualHeight,
		AccRewardPerShare: pool.AccRewardPerShare,
	})
	return nil
}

// Deposit settles the participant's pending reward and moves amount of the
// stake token into custody. The paid reward is returned.
func (e *Engine) Deposit(participant common.Address, amount *big.Int) (reward *big.Int, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "deposit", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	balance, err := e.ledger.Balance(e.stakeToken, participant)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}
	return e.apply(events.TypeFarmDeposit, participant, amount)
}

// Withdraw settles the participant's pending reward and returns amount of
// principal from custody.
func (e *Engine) Withdraw(participant common.Address, amount *big.Int) (reward *big.Int, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "withdraw", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	return e.apply(events.TypeFarmWithdraw, participant, new(big.Int).Neg(amount))
}

// Harvest settles pending reward without moving stake.
func (e *Engine) Harvest(participant common.Address) (reward *big.Int, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "harvest", err) }()
	if err := e.guard(); err != nil {
		return nil, err
	}
	return e.apply(events.TypeFarmHarvest, participant, big.NewInt(0))
}

// apply runs accrue, pay, mutate and persist for a signed stake delta.
func (e *Engine) apply(kind string, participant common.Address, delta *big.Int) (*big.Int, error) {
	schedule, pool, err := e.load()
	if err != nil {
		return nil, err
	}
	stake, err := e.stake(participant)
	if err != nil {
		return nil, err
	}
	if delta.Sign() < 0 && stake.Amount.CmpAbs(delta) < 0 {
		return nil, ErrInsufficientStake
	}
	pool, err = accrue(pool, schedule, e.height)
	if err != nil {
		return nil, err
	}
	pending, err := pendingOf(pool, stake)
	if err != nil {
		return nil, e.violation(err)
	}
	if err := e.payReward(participant, pending, pool.TotalStaked); err != nil {
		return nil, err
	}
	switch delta.Sign() {
	case 1:
		if err := e.ledger.Transfer(e.stakeToken, participant, e.custody, delta); err != nil {
			return nil, err
		}
	case -1:
		if err := e.ledger.Transfer(e.stakeToken, e.custody, participant, new(big.Int).Neg(delta)); err != nil {
			return nil, err
		}
	}
	pool, stake, err = settle(pool, stake, delta)
	if err != nil {
		return nil, err
	}
	if err := e.persist(participant, pool, stake); err != nil {
		return nil, err
	}
	e.telemetry.ObservePayout(moduleName, "reward", pending)
	e.emitter.Emit(events.FarmStakeChanged{
		Kind:        kind,
		Participant: participant,
		Amount:      new(big.Int).Abs(delta),
		Reward:      pending,
		Staked:      stake.Amount,
		TotalStaked: pool.TotalStaked,
		Height:      e.height,
	})
	return pending, nil
}

// EmergencyWithdraw returns the participant's whole principal and forfeits
// any pending reward. It stays available while the module is paused.
func (e *Engine) EmergencyWithdraw(participant common.Address) (amount *big.Int, err error) {
	defer func() { e.telemetry.ObserveOperation(moduleName, "emergencyWithdraw", err) }()
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if e.ledger == nil {
		return nil, ErrNilLedger
	}
	schedule, pool, err := e.load()
	if err != nil {
		return nil, err
	}
	stake, err := e.stake(participant)
	if err != nil {
		return nil, err
	}
	if stake.Amount.Sign() == 0 {
		return nil, ErrInsufficientStake
	}
	pool, err = accrue(pool, schedule, e.height)
	if err != nil {
		return nil, err
	}
	// A broken reward debt is reported but never blocks the principal exit.
	forfeited, err := pendingOf(pool, stake)
	if err != nil {
		_ = e.violation(err)
		forfeited = big.NewInt(0)
	}
	amount = new(big.Int).Set(stake.Amount)
	if err := e.ledger.Transfer(e.stakeToken, e.custody, participant, amount); err != nil {
		return nil, err
	}
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)
	if err := e.persist(participant, pool, NewParticipantStake()); err != nil {
		return nil, err
	}
	e.emitter.Emit(events.FarmEmergencyWithdraw{
		Participant: participant,
		Amount:      amount,
		Forfeited:   forfeited,
		Height:      e.height,
	})
	return amount, nil
}

// PendingReward reports what Harvest would pay at the current height.
func (e *Engine) PendingReward(participant common.Address) (*big.Int, error) {
	return e.PendingRewardAt(participant, e.height)
}

// PendingRewardAt evaluates the pending reward as of height without writing.
func (e *Engine) PendingRewardAt(participant common.Address, height uint64) (*big.Int, error) {
	pool, err := e.PoolAt(height)
	if err != nil {
		return nil, err
	}
	stake, err := e.stake(participant)
	if err != nil {
		return nil, err
	}
	return pendingOf(pool, stake)
}

// Pool returns the pool as the next mutation at the current height would see
// it.
func (e *Engine) Pool() (*PoolState, error) { return e.PoolAt(e.height) }

// PoolAt returns a hypothetical pool accrued to height. Heights before the
// stored checkpoint cannot be reconstructed and are rejected.
func (e *Engine) PoolAt(height uint64) (*PoolState, error) {
	schedule, pool, err := e.load()
	if err != nil {
		return nil, err
	}
	if height < pool.LastAccrualHeight {
		return nil, fmt.Errorf("%w: %d before %d", ErrHeightBeforeCheckpoint, height, pool.LastAccrualHeight)
	}
	return accrue(pool, schedule, height)
}

// Stake returns the participant's stored position.
func (e *Engine) Stake(participant common.Address) (*ParticipantStake, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	return e.stake(participant)
}

// Schedule returns the active emission schedule.
func (e *Engine) Schedule() (*EmissionSchedule, error) {
	schedule, _, err := e.load()
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return ErrNilState
	}
	if e.ledger == nil {
		return ErrNilLedger
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) load() (*EmissionSchedule, *PoolState, error) {
	if e == nil || e.state == nil {
		return nil, nil, ErrNilState
	}
	schedule, ok, err := e.state.FarmScheduleGet()
	if err != nil {
		return nil, nil, err
	}
	if !ok || schedule == nil {
		return nil, nil, ErrNotInitialised
	}
	pool, ok, err := e.state.FarmPoolGet()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		pool = NewPoolState(e.height)
	}
	return schedule, ensurePool(pool), nil
}

func (e *Engine) stake(participant common.Address) (*ParticipantStake, error) {
	stake, ok, err := e.state.FarmStakeGet(participant)
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewParticipantStake(), nil
	}
	return ensureStake(stake), nil
}

func (e *Engine) persist(participant common.Address, pool *PoolState, stake *ParticipantStake) error {
	if err := e.state.FarmPoolPut(pool); err != nil {
		return err
	}
	return e.state.FarmStakePut(participant, stake)
}

// payReward moves pending from custody to the participant. When the reward and
// stake tokens coincide the staked principal is not part of the reserve.
func (e *Engine) payReward(participant common.Address, pending, totalStaked *big.Int) error {
	if pending.Sign() == 0 {
		return nil
	}
	reserve, err := e.ledger.Balance(e.rewardToken, e.custody)
	if err != nil {
		return err
	}
	reserve = nativecommon.CopyBig(reserve)
	if e.rewardToken == e.stakeToken {
		reserve.Sub(reserve, totalStaked)
	}
	if reserve.Cmp(pending) < 0 {
		return e.violation(fmt.Errorf("%w: reward reserve %s cannot cover payout %s", ErrInvariantViolation, reserve, pending))
	}
	return e.ledger.Transfer(e.rewardToken, e.custody, participant, pending)
}

func (e *Engine) violation(err error) error {
	if errors.Is(err, ErrInvariantViolation) {
		e.logger.Error("farm invariant violated", slog.String("module", moduleName), slog.Uint64("height", e.height), slog.Any("error", err))
		e.telemetry.IncInvariantViolation(moduleName)
	}
	return err
}
