package common

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulDivUsesWideIntermediate(t *testing.T) {
	// (2^255 * 4) / 8 overflows 256 bits in the product but not in the result.
	a := new(big.Int).Lsh(big.NewInt(1), 255)
	got, err := MulDiv(a, big.NewInt(4), big.NewInt(8))
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Lsh(big.NewInt(1), 254).String(), got.String())

	_, err = MulDiv(a, big.NewInt(4), big.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.ErrorIs(t, err, ErrDivideByZero)

	_, err = MulDiv(big.NewInt(-1), big.NewInt(1), big.NewInt(1))
	require.ErrorIs(t, err, ErrNegative)
}

func TestApplyBpsFloors(t *testing.T) {
	got, err := ApplyBps(big.NewInt(999), 1000)
	require.NoError(t, err)
	require.Equal(t, int64(99), got.Int64())

	got, err = ApplyBps(nil, 500)
	require.NoError(t, err)
	require.Zero(t, got.Sign())

	_, err = ApplyBps(big.NewInt(1), BasisPoints+1)
	require.ErrorIs(t, err, ErrBpsOutOfBounds)
}

func TestStepIndexIsMonotone(t *testing.T) {
	thresholds := []*big.Int{big.NewInt(0), big.NewInt(99), big.NewInt(249)}
	cases := map[int64]int{0: 0, 10: 0, 98: 0, 99: 1, 100: 1, 248: 1, 249: 2, 1_000_000: 2}
	for value, want := range cases {
		require.Equal(t, want, StepIndex(thresholds, big.NewInt(value)), "value %d", value)
	}

	prev := 0
	for v := int64(0); v < 400; v++ {
		idx := StepIndex(thresholds, big.NewInt(v))
		require.GreaterOrEqual(t, idx, prev)
		prev = idx
	}
	require.Equal(t, 0, StepIndex(nil, big.NewInt(5)))
}

func TestGuardHonoursPauses(t *testing.T) {
	pauses := StaticPauses{ModuleFarm: true}
	require.ErrorIs(t, Guard(pauses, ModuleFarm), ErrModulePaused)
	require.NoError(t, Guard(pauses, ModuleFerment))
	require.NoError(t, Guard(nil, ModuleFarm))
}
