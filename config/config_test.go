package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesValidDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	_, err = os.Stat(path)
	require.NoError(t, err)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Farm.Schedule, reloaded.Farm.Schedule)
	require.Len(t, reloaded.Ferment.Tiers, 3)
}

func TestLoadParsesSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `RPCAddress = "127.0.0.1:9000"
DataDir = "/var/lib/yield"

[Logging]
Environment = "prod"

[RateLimit]
RequestsPerSecond = 5.5
Burst = 10

[Pauses]
Ferment = true

[Registry]
Treasury = "0x00000000000000000000000000000000000007e5"
RewardsPool = "0x000000000000000000000000000000000000b0b1"
ClaimTaxBps = [1000]
ReputationThresholds = [0]
AssetCost = "500"
TreasuryFeeBps = 100
WalletLimit = 3

[Farm]
Custody = "0x00000000000000000000000000000000000fa4a1"
RewardToken = "brew"
StakeToken = "lp"

[Farm.Schedule]
PerBlockRate = "100"
StartHeight = 100
FirstPhaseEndHeight = 200
SecondPhaseEndHeight = 300
FinalEndHeight = 400
FirstMultiplier = 6
SecondMultiplier = 3

[Ferment]
Token = "brew"
FermentationPeriod = 60
ExperiencePerSecond = "2"
GlobalStartTime = 10

[[Ferment.Tiers]]
Threshold = "0"
DailyYield = "86400"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Logging.Environment)
	require.True(t, cfg.ModulePauses().IsPaused("ferment"))
	require.False(t, cfg.ModulePauses().IsPaused("farm"))

	opts, err := cfg.FarmOptions()
	require.NoError(t, err)
	require.Equal(t, "BREW", opts.FarmRewardToken)
	require.Equal(t, "LP", opts.FarmStakeToken)

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, uint64(400), schedule.FinalEndHeight)

	settings, err := cfg.Settings()
	require.NoError(t, err)
	require.Equal(t, int64(500), settings.AssetCost.Int64())

	tiers, err := cfg.Tiers()
	require.NoError(t, err)
	require.Len(t, tiers, 1)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ListenAddress = \":6001\"\n"), 0o600))
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown keys")
}

func TestValidateRejectsBrokenSections(t *testing.T) {
	cases := map[string]func(*Config){
		"bad custody":        func(c *Config) { c.Farm.Custody = "nope" },
		"zero custody":       func(c *Config) { c.Farm.Custody = "0x0000000000000000000000000000000000000000" },
		"unordered schedule": func(c *Config) { c.Farm.Schedule.SecondPhaseEndHeight = 1 },
		"negative rate":      func(c *Config) { c.Farm.Schedule.PerBlockRate = "-1" },
		"tier not from zero": func(c *Config) { c.Ferment.Tiers[0].Threshold = "5" },
		"mismatched taxes":   func(c *Config) { c.Registry.ClaimTaxBps = []uint32{1} },
		"no rate limit":      func(c *Config) { c.RateLimit.RequestsPerSecond = 0 },
		"missing token":      func(c *Config) { c.Ferment.Token = " " },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
}

func TestScheduleFileOverridesInline(t *testing.T) {
	dir := t.TempDir()
	schedulePath := filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(schedulePath, []byte(`{"perBlockRate":"7","startHeight":1,"firstPhaseEndHeight":2,"secondPhaseEndHeight":3,"firstMultiplier":1,"secondMultiplier":1}`), 0o600))
	cfg := Default()
	cfg.Farm.ScheduleFile = schedulePath
	cfg.Farm.Schedule = Schedule{}
	require.NoError(t, cfg.Validate())

	schedule, err := cfg.Schedule()
	require.NoError(t, err)
	require.Equal(t, "7", schedule.PerBlockRate.String())

	cfg.Farm.ScheduleFile = filepath.Join(dir, "missing.json")
	_, err = cfg.Schedule()
	require.Error(t, err)
}
