package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldchain/native/farm"
	"yieldchain/native/ferment"
	"yieldchain/storage"
)

var (
	alice = common.HexToAddress("0xa1")
	bob   = common.HexToAddress("0xb0")
)

func TestAtomicRollsBackOnError(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.NoError(t, mgr.Atomic(func(m *Manager) error {
		return m.Credit("BREW", alice, big.NewInt(100))
	}))

	boom := errors.New("boom")
	err := mgr.Atomic(func(m *Manager) error {
		if err := m.Transfer("BREW", alice, bob, big.NewInt(60)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := mgr.Balance("BREW", alice)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance.Int64())
	balance, err = mgr.Balance("brew", bob)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestTransferRequiresFunds(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	err := mgr.Atomic(func(m *Manager) error {
		if err := m.Credit("LP", alice, big.NewInt(5)); err != nil {
			return err
		}
		if err := m.Transfer("LP", alice, bob, big.NewInt(6)); !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("expected ErrInsufficientBalance, got %v", err)
		}
		if err := m.Transfer("LP", alice, bob, big.NewInt(-1)); !errors.Is(err, ErrInvalidTransfer) {
			t.Fatalf("expected ErrInvalidTransfer, got %v", err)
		}
		return m.Transfer("LP", alice, bob, big.NewInt(5))
	})
	require.NoError(t, err)
	balance, err := mgr.Balance("LP", bob)
	require.NoError(t, err)
	require.Equal(t, int64(5), balance.Int64())
}

func TestRecordsSurviveLevelDBReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := storage.NewLevelDB(dir)
	require.NoError(t, err)
	mgr := NewManager(db)

	schedule := &farm.EmissionSchedule{
		PerBlockRate:         big.NewInt(100),
		StartHeight:          10,
		FirstPhaseEndHeight:  20,
		SecondPhaseEndHeight: 30,
		FirstMultiplier:      6,
		SecondMultiplier:     3,
	}
	var firstID uint64
	require.NoError(t, mgr.Atomic(func(m *Manager) error {
		if err := m.FarmSchedulePut(schedule); err != nil {
			return err
		}
		if err := m.FarmStakePut(alice, &farm.ParticipantStake{Amount: big.NewInt(7), RewardDebt: big.NewInt(2)}); err != nil {
			return err
		}
		id, err := m.FermentNextAssetID()
		if err != nil {
			return err
		}
		firstID = id
		if err := m.FermentAssetPut(&ferment.AssetRecord{ID: id, Owner: bob, Name: "cask", CumulativeXP: big.NewInt(42), TotalYieldPaid: big.NewInt(0), LastClaimed: 99}); err != nil {
			return err
		}
		if err := m.FermentTiersPut([]ferment.Tier{{Threshold: big.NewInt(0), DailyYield: big.NewInt(86_400)}}); err != nil {
			return err
		}
		if err := m.FermentSetTradingEnabled(true); err != nil {
			return err
		}
		return m.HeadPut(Head{Height: 12, Time: 1_700_000_000})
	}))
	require.Equal(t, uint64(1), firstID)
	db.Close()

	db, err = storage.NewLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()
	mgr = NewManager(db)

	require.NoError(t, mgr.View(func(m *Manager) error {
		loaded, ok, err := m.FarmScheduleGet()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "100", loaded.PerBlockRate.String())
		require.Equal(t, uint64(30), loaded.SecondPhaseEndHeight)

		stake, ok, err := m.FarmStakeGet(alice)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, int64(7), stake.Amount.Int64())

		record, ok, err := m.FermentAssetGet(firstID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, bob, record.Owner)
		require.Equal(t, int64(42), record.CumulativeXP.Int64())

		tiers, err := m.FermentTiersGet()
		require.NoError(t, err)
		require.Len(t, tiers, 1)

		trading, err := m.FermentTradingEnabled()
		require.NoError(t, err)
		require.True(t, trading)

		head, err := m.HeadGet()
		require.NoError(t, err)
		require.Equal(t, uint64(12), head.Height)

		count, err := m.FermentAssetCount()
		require.NoError(t, err)
		require.Equal(t, uint64(1), count)
		return nil
	}))
}

func TestZeroStakeIsDeleted(t *testing.T) {
	mgr := NewManager(storage.NewMemDB())
	require.NoError(t, mgr.Atomic(func(m *Manager) error {
		if err := m.FarmStakePut(alice, &farm.ParticipantStake{Amount: big.NewInt(1), RewardDebt: big.NewInt(0)}); err != nil {
			return err
		}
		return m.FarmStakePut(alice, farm.NewParticipantStake())
	}))
	_, ok, err := mgr.FarmStakeGet(alice)
	require.NoError(t, err)
	require.False(t, ok)
}
