package farm

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmittedSincePartitionsWindows(t *testing.T) {
	s := testSchedule()
	require.Zero(t, s.EmittedSince(0, 100).Sign())
	require.Equal(t, int64(600), s.EmittedSince(99, 101).Int64())
	require.Equal(t, int64(2*600+3*300), s.EmittedSince(198, 203).Int64())
	require.Equal(t, int64(100*600+100*300+50*100), s.EmittedSince(0, 350).Int64())
	require.Zero(t, s.EmittedSince(300, 300).Sign())

	// Splitting a range never changes the sum.
	whole := s.EmittedSince(50, 420)
	split := new(big.Int).Add(s.EmittedSince(50, 233), s.EmittedSince(233, 420))
	require.Equal(t, whole.String(), split.String())

	s.FinalEndHeight = 320
	require.Equal(t, int64(20*100), s.EmittedSince(300, 1_000).Int64())
	require.Equal(t, uint64(0), s.MultiplierAt(320))
	require.Equal(t, uint64(1), s.MultiplierAt(319))
	require.Equal(t, uint64(3), s.MultiplierAt(200))
	require.Equal(t, uint64(6), s.MultiplierAt(100))
	require.Equal(t, uint64(0), s.MultiplierAt(99))
}

func TestScheduleValidate(t *testing.T) {
	require.NoError(t, testSchedule().Validate())

	cases := map[string]func(*EmissionSchedule){
		"zero rate":        func(s *EmissionSchedule) { s.PerBlockRate = big.NewInt(0) },
		"zero multiplier":  func(s *EmissionSchedule) { s.SecondMultiplier = 0 },
		"start after end":  func(s *EmissionSchedule) { s.StartHeight = 200 },
		"phases unordered": func(s *EmissionSchedule) { s.SecondPhaseEndHeight = 150 },
		"final too early":  func(s *EmissionSchedule) { s.FinalEndHeight = 300 },
	}
	for name, mutate := range cases {
		s := testSchedule()
		mutate(s)
		require.ErrorIs(t, s.Validate(), ErrInvalidSchedule, name)
	}
}

func TestLoadSchedule(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "perBlockRate": "100",
  "startHeight": 100,
  "firstPhaseEndHeight": 200,
  "secondPhaseEndHeight": 300,
  "firstMultiplier": 6,
  "secondMultiplier": 3
}`), 0o600))
	loaded, err := LoadSchedule(jsonPath)
	require.NoError(t, err)
	require.Equal(t, testSchedule(), loaded)

	tomlPath := filepath.Join(dir, "schedule.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
perBlockRate = "100"
startHeight = 100
firstPhaseEndHeight = 200
secondPhaseEndHeight = 300
finalEndHeight = 400
firstMultiplier = 6
secondMultiplier = 3
`), 0o600))
	loaded, err = LoadSchedule(tomlPath)
	require.NoError(t, err)
	require.Equal(t, uint64(400), loaded.FinalEndHeight)

	unknown := filepath.Join(dir, "unknown.toml")
	require.NoError(t, os.WriteFile(unknown, []byte("perBlockRate = \"1\"\nbonus = 2\n"), 0o600))
	_, err = LoadSchedule(unknown)
	require.ErrorContains(t, err, "unknown schedule fields")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"perBlockRate":"abc"}`), 0o600))
	_, err = LoadSchedule(bad)
	require.ErrorIs(t, err, ErrInvalidSchedule)

	yamlPath := filepath.Join(dir, "schedule.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`perBlockRate: "100"
startHeight: 100
firstPhaseEndHeight: 200
secondPhaseEndHeight: 300
firstMultiplier: 6
secondMultiplier: 3
`), 0o600))
	loaded, err = LoadSchedule(yamlPath)
	require.NoError(t, err)
	require.Equal(t, testSchedule(), loaded)

	require.NoError(t, os.WriteFile(yamlPath, []byte("perBlockRate: \"1\"\nbonus: 2\n"), 0o600))
	_, err = LoadSchedule(yamlPath)
	require.Error(t, err)

	_, err = LoadSchedule(filepath.Join(dir, "schedule.ini"))
	require.Error(t, err)
}
