package farm

import (
	"bytes"
	"log/slog"
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldchain/core/events"
	nativecommon "yieldchain/native/common"
)

const (
	rewardToken = "BREW"
	stakeToken  = "LP"
)

type mockState struct {
	schedule *EmissionSchedule
	pool     *PoolState
	stakes   map[common.Address]*ParticipantStake
}

func newMockState() *mockState {
	return &mockState{stakes: make(map[common.Address]*ParticipantStake)}
}

func (m *mockState) FarmScheduleGet() (*EmissionSchedule, bool, error) {
	if m.schedule == nil {
		return nil, false, nil
	}
	return m.schedule.Clone(), true, nil
}

func (m *mockState) FarmSchedulePut(schedule *EmissionSchedule) error {
	m.schedule = schedule.Clone()
	return nil
}

func (m *mockState) FarmPoolGet() (*PoolState, bool, error) {
	if m.pool == nil {
		return nil, false, nil
	}
	return m.pool.Clone(), true, nil
}

func (m *mockState) FarmPoolPut(pool *PoolState) error {
	m.pool = pool.Clone()
	return nil
}

func (m *mockState) FarmStakeGet(addr common.Address) (*ParticipantStake, bool, error) {
	stake, ok := m.stakes[addr]
	if !ok {
		return nil, false, nil
	}
	return stake.Clone(), true, nil
}

func (m *mockState) FarmStakePut(addr common.Address, stake *ParticipantStake) error {
	m.stakes[addr] = stake.Clone()
	return nil
}

type mockLedger struct {
	balances map[string]map[common.Address]*big.Int
}

func newMockLedger() *mockLedger {
	return &mockLedger{balances: make(map[string]map[common.Address]*big.Int)}
}

func (l *mockLedger) Balance(token string, addr common.Address) (*big.Int, error) {
	if bal, ok := l.balances[token][addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (l *mockLedger) Transfer(token string, from, to common.Address, amount *big.Int) error {
	bal, _ := l.Balance(token, from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	l.credit(token, from, new(big.Int).Neg(amount))
	l.credit(token, to, amount)
	return nil
}

func (l *mockLedger) credit(token string, addr common.Address, amount *big.Int) {
	if l.balances[token] == nil {
		l.balances[token] = make(map[common.Address]*big.Int)
	}
	bal, _ := l.Balance(token, addr)
	l.balances[token][addr] = bal.Add(bal, amount)
}

var (
	custody = common.HexToAddress("0x00000000000000000000000000000000000fa4a1")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob     = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000000c4")
)

// testSchedule starts at 100 with 6x until 200, 3x until 300, then base rate.
func testSchedule() *EmissionSchedule {
	return &EmissionSchedule{
		PerBlockRate:         big.NewInt(100),
		StartHeight:          100,
		FirstPhaseEndHeight:  200,
		SecondPhaseEndHeight: 300,
		FirstMultiplier:      6,
		SecondMultiplier:     3,
	}
}

type harness struct {
	engine   *Engine
	state    *mockState
	ledger   *mockLedger
	recorder *events.Recorder
}

func newHarness(t *testing.T, reward string) *harness {
	t.Helper()
	h := &harness{state: newMockState(), ledger: newMockLedger(), recorder: &events.Recorder{}}
	h.engine = NewEngine(custody, reward, stakeToken)
	h.engine.SetState(h.state)
	h.engine.SetLedger(h.ledger)
	h.engine.SetEmitter(h.recorder)
	require.NoError(t, h.engine.Initialize(testSchedule()))
	h.ledger.credit(reward, custody, big.NewInt(10_000_000))
	for _, addr := range []common.Address{alice, bob, carol} {
		h.ledger.credit(stakeToken, addr, big.NewInt(1_000))
	}
	return h
}

func (h *harness) at(height uint64) *Engine {
	h.engine.SetBlockHeight(height)
	return h.engine
}

func (h *harness) rewardOf(addr common.Address) int64 {
	bal, _ := h.ledger.Balance(h.engine.rewardToken, addr)
	return bal.Int64()
}

func TestDepositBeforeStartEarnsFirstPhaseRate(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(99).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)

	reward, err := h.at(110).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(100*6*10), reward.Int64())

	// 110..200 at 6x plus 200..250 at 3x, summed per window.
	reward, err = h.at(250).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(90*600+50*300), reward.Int64())

	reward, err = h.at(350).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(50*300+50*100), reward.Int64())
	require.Equal(t, int64(6000+69000+20000), h.rewardOf(alice))
}

func TestMultipleStakersShareEmission(t *testing.T) {
	h := newHarness(t, rewardToken)
	steps := []struct {
		height uint64
		who    common.Address
		amount int64
		reward int64
	}{
		{110, alice, 10, 0},
		{114, bob, 20, 0},
		{118, carol, 30, 0},
		{120, alice, 10, 3400},
		{130, bob, -5, 3714},
		{140, alice, -20, 3560},
		{150, bob, -15, 3385},
		{160, carol, -30, 15940},
	}
	for _, step := range steps {
		engine := h.at(step.height)
		var (
			reward *big.Int
			err    error
		)
		if step.amount > 0 {
			reward, err = engine.Deposit(step.who, big.NewInt(step.amount))
		} else {
			reward, err = engine.Withdraw(step.who, big.NewInt(-step.amount))
		}
		require.NoError(t, err, "height %d", step.height)
		require.Equal(t, step.reward, reward.Int64(), "height %d", step.height)
	}

	require.Equal(t, int64(6960), h.rewardOf(alice))
	require.Equal(t, int64(7099), h.rewardOf(bob))
	require.Equal(t, int64(15940), h.rewardOf(carol))
	// Flooring leaves at most one unit per settlement undistributed.
	require.Equal(t, int64(600*50-1), h.rewardOf(alice)+h.rewardOf(bob)+h.rewardOf(carol))

	pool, err := h.engine.Pool()
	require.NoError(t, err)
	require.Zero(t, pool.TotalStaked.Sign())
	for _, addr := range []common.Address{alice, bob, carol} {
		bal, _ := h.ledger.Balance(stakeToken, addr)
		require.Equal(t, int64(1_000), bal.Int64())
	}
}

func TestPendingRewardMatchesHarvest(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(105).Deposit(alice, big.NewInt(7))
	require.NoError(t, err)
	_, err = h.at(133).Deposit(bob, big.NewInt(13))
	require.NoError(t, err)
	_, err = h.at(197).Withdraw(alice, big.NewInt(3))
	require.NoError(t, err)

	for _, height := range []uint64{198, 251, 307, 1_000} {
		for _, addr := range []common.Address{alice, bob} {
			h.at(height)
			pending, err := h.engine.PendingReward(addr)
			require.NoError(t, err)
			paid, err := h.engine.Harvest(addr)
			require.NoError(t, err)
			require.Equal(t, pending.String(), paid.String(), "height %d", height)
		}
	}
}

func TestPendingRewardAtDoesNotWrite(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(150).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)
	before := h.state.pool.Clone()

	pending, err := h.engine.PendingRewardAt(alice, 160)
	require.NoError(t, err)
	require.Equal(t, int64(6000), pending.Int64())
	require.Equal(t, before, h.state.pool)
}

func TestEmptyPoolDoesNotBankEmission(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(150).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)

	reward, err := h.at(160).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(6000), reward.Int64())
}

func TestEmergencyWithdrawForfeitsPending(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(110).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)
	_, err = h.at(110).Deposit(bob, big.NewInt(10))
	require.NoError(t, err)
	h.engine.SetPauses(nativecommon.StaticPauses{nativecommon.ModuleFarm: true})

	_, err = h.at(120).Harvest(alice)
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)

	amount, err := h.at(120).EmergencyWithdraw(alice)
	require.NoError(t, err)
	require.Equal(t, int64(10), amount.Int64())
	require.Zero(t, h.rewardOf(alice))
	bal, _ := h.ledger.Balance(stakeToken, alice)
	require.Equal(t, int64(1_000), bal.Int64())

	stake, err := h.engine.Stake(alice)
	require.NoError(t, err)
	require.True(t, stake.IsZero())
	pending, err := h.engine.PendingReward(alice)
	require.NoError(t, err)
	require.Zero(t, pending.Sign())

	exits := h.recorder.OfType(events.TypeFarmEmergencyWithdraw)
	require.Len(t, exits, 1)
	require.Equal(t, "3000", exits[0].Attributes["forfeited"])

	// Bob keeps only his own share of the span before the exit.
	h.engine.SetPauses(nil)
	reward, err := h.at(130).Harvest(bob)
	require.NoError(t, err)
	require.Equal(t, int64(3000+6000), reward.Int64())
}

func TestRejectsZeroAndExcessAmounts(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(110).Deposit(alice, big.NewInt(0))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = h.engine.Withdraw(alice, nil)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = h.engine.Deposit(alice, big.NewInt(5_000))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = h.engine.Deposit(alice, big.NewInt(10))
	require.NoError(t, err)
	_, err = h.at(120).Withdraw(alice, big.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientStake)
	_, err = h.engine.EmergencyWithdraw(bob)
	require.ErrorIs(t, err, ErrInsufficientStake)
}

func TestUnderfundedRewardReserveIsInvariantViolation(t *testing.T) {
	h := newHarness(t, "DRY")
	h.ledger.balances["DRY"][custody] = big.NewInt(100)
	_, err := h.at(110).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)
	before := h.state.stakes[alice].Clone()

	_, err = h.at(120).Harvest(alice)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.Equal(t, before, h.state.stakes[alice])
	require.Equal(t, uint64(110), h.state.pool.LastAccrualHeight)
}

func TestSharedTokenExcludesPrincipalFromReserve(t *testing.T) {
	h := newHarness(t, stakeToken)
	h.ledger.balances[stakeToken][custody] = big.NewInt(0)
	_, err := h.at(110).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)

	_, err = h.at(111).Harvest(alice)
	require.ErrorIs(t, err, ErrInvariantViolation)

	h.ledger.credit(stakeToken, custody, big.NewInt(600))
	reward, err := h.at(111).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), reward.Int64())
}

func TestReconfigureCheckpointsOldRates(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(110).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)

	next := testSchedule()
	next.PerBlockRate = big.NewInt(1)
	next.FirstMultiplier = 1
	next.SecondMultiplier = 1
	require.NoError(t, h.at(120).Reconfigure(next))

	reward, err := h.at(130).Harvest(alice)
	require.NoError(t, err)
	require.Equal(t, int64(10*600+10*1), reward.Int64())

	invalid := testSchedule()
	invalid.SecondPhaseEndHeight = invalid.FirstPhaseEndHeight
	require.ErrorIs(t, h.engine.Reconfigure(invalid), ErrInvalidSchedule)
	require.ErrorIs(t, h.engine.Initialize(testSchedule()), ErrAlreadyInitialised)
}

func TestPaidNeverExceedsEmitted(t *testing.T) {
	h := newHarness(t, rewardToken)
	rng := rand.New(rand.NewSource(7))
	people := []common.Address{alice, bob, carol}
	for _, addr := range people {
		h.ledger.credit(stakeToken, addr, big.NewInt(100_000))
	}
	height := uint64(90)
	for i := 0; i < 300; i++ {
		height += uint64(rng.Intn(4))
		who := people[rng.Intn(len(people))]
		engine := h.at(height)
		stake, err := engine.Stake(who)
		require.NoError(t, err)
		switch op := rng.Intn(3); {
		case op == 0:
			_, err = engine.Deposit(who, big.NewInt(int64(1+rng.Intn(20))))
		case op == 1 && stake.Amount.Sign() > 0:
			_, err = engine.Withdraw(who, big.NewInt(1+rng.Int63n(stake.Amount.Int64())))
		default:
			_, err = engine.Harvest(who)
		}
		require.NoError(t, err)
	}
	paid := h.rewardOf(alice) + h.rewardOf(bob) + h.rewardOf(carol)
	emitted := testSchedule().EmittedSince(0, height)
	require.LessOrEqual(t, paid, emitted.Int64())
}

func TestNotInitialised(t *testing.T) {
	engine := NewEngine(custody, rewardToken, stakeToken)
	engine.SetState(newMockState())
	engine.SetLedger(newMockLedger())
	_, err := engine.Harvest(alice)
	require.ErrorIs(t, err, ErrNotInitialised)
	_, err = engine.Pool()
	require.ErrorIs(t, err, ErrNotInitialised)
}

func TestEmergencyWithdrawReportsBrokenDebt(t *testing.T) {
	h := newHarness(t, rewardToken)
	var logs bytes.Buffer
	h.engine.SetLogger(slog.New(slog.NewJSONHandler(&logs, nil)))
	_, err := h.at(110).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)
	h.state.stakes[alice].RewardDebt = big.NewInt(1_000_000_000)

	amount, err := h.at(120).EmergencyWithdraw(alice)
	require.NoError(t, err)
	require.Equal(t, int64(10), amount.Int64())
	require.Contains(t, logs.String(), "farm invariant violated")

	exits := h.recorder.OfType(events.TypeFarmEmergencyWithdraw)
	require.Len(t, exits, 1)
	require.Equal(t, "0", exits[0].Attributes["forfeited"])
}

func TestQueriesRejectHeightsBeforeCheckpoint(t *testing.T) {
	h := newHarness(t, rewardToken)
	_, err := h.at(150).Deposit(alice, big.NewInt(10))
	require.NoError(t, err)

	_, err = h.engine.PoolAt(149)
	require.ErrorIs(t, err, ErrHeightBeforeCheckpoint)
	_, err = h.engine.PendingRewardAt(alice, 120)
	require.ErrorIs(t, err, ErrHeightBeforeCheckpoint)

	pool, err := h.engine.PoolAt(150)
	require.NoError(t, err)
	require.Equal(t, uint64(150), pool.LastAccrualHeight)
}
