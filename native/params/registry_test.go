package params

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldchain/native/reputation"
)

type memoryParams map[string][]byte

func (m memoryParams) ParamStoreSet(name string, value []byte) error {
	m[name] = append([]byte(nil), value...)
	return nil
}

func (m memoryParams) ParamStoreGet(name string) ([]byte, bool, error) {
	value, ok := m[name]
	return value, ok, nil
}

type fixedScores map[common.Address]uint64

func (f fixedScores) ClassOf(addr common.Address, thresholds []uint64) (int, error) {
	return reputation.Classify(f[addr], thresholds), nil
}

func sampleSettings() Settings {
	return Settings{
		Treasury:             common.HexToAddress("0x7e"),
		RewardsPool:          common.HexToAddress("0x9a"),
		ClaimTaxBps:          []uint32{1_000, 500, 200},
		ReputationThresholds: []uint64{0, 100, 200},
		AssetCost:            big.NewInt(1_000),
		TreasuryFeeBps:       2_000,
		WalletLimit:          50,
	}
}

func TestRegistryResolvesClaimTaxByClass(t *testing.T) {
	store := NewStore(memoryParams{})
	_, err := store.Settings()
	require.ErrorIs(t, err, ErrSettingsUnset)
	require.NoError(t, store.SetSettings(sampleSettings()))

	newbie := common.HexToAddress("0x01")
	regular := common.HexToAddress("0x02")
	veteran := common.HexToAddress("0x03")
	registry := NewRegistry(store, fixedScores{regular: 150, veteran: 10_000})

	for addr, want := range map[common.Address]uint32{newbie: 1_000, regular: 500, veteran: 200} {
		got, err := registry.ClaimTaxBps(addr)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	got, err := NewRegistry(store, nil).ClaimTaxBps(veteran)
	require.NoError(t, err)
	require.Equal(t, uint32(1_000), got)

	settings, err := registry.Settings()
	require.NoError(t, err)
	require.Equal(t, int64(1_000), settings.AssetCost.Int64())
}

func TestSettingsValidation(t *testing.T) {
	cases := map[string]func(*Settings){
		"no treasury":       func(s *Settings) { s.Treasury = common.Address{} },
		"mismatched tables": func(s *Settings) { s.ClaimTaxBps = s.ClaimTaxBps[:2] },
		"tax too high":      func(s *Settings) { s.ClaimTaxBps[0] = 10_001 },
		"bad thresholds":    func(s *Settings) { s.ReputationThresholds = []uint64{0, 200, 100} },
		"zero cost":         func(s *Settings) { s.AssetCost = big.NewInt(0) },
		"fee too high":      func(s *Settings) { s.TreasuryFeeBps = 10_001 },
		"zero wallet limit": func(s *Settings) { s.WalletLimit = 0 },
	}
	for name, mutate := range cases {
		settings := sampleSettings()
		mutate(&settings)
		require.ErrorIs(t, NewStore(memoryParams{}).SetSettings(settings), ErrInvalidSettings, name)
	}
}

func TestRegistryPauses(t *testing.T) {
	raw := memoryParams{}
	store := NewStore(raw)
	registry := NewRegistry(store, nil)
	require.False(t, registry.IsPaused("farm"))

	require.NoError(t, store.SetPauses(Pauses{"farm": true}))
	require.True(t, registry.IsPaused("farm"))
	require.False(t, registry.IsPaused("ferment"))

	raw[ParamsKeyPauses] = []byte("{")
	require.True(t, registry.IsPaused("ferment"))
}
