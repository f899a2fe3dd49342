package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress string    `toml:"RPCAddress"`
	DataDir    string    `toml:"DataDir"`
	Logging    Logging   `toml:"Logging"`
	RateLimit  RateLimit `toml:"RateLimit"`
	Auth       Auth      `toml:"Auth"`
	Telemetry  Telemetry `toml:"Telemetry"`
	Pauses     Pauses    `toml:"Pauses"`
	Registry   Registry  `toml:"Registry"`
	Farm       Farm      `toml:"Farm"`
	Ferment    Ferment   `toml:"Ferment"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration for a local single-node setup.
func Default() *Config {
	return &Config{
		RPCAddress: ":8080",
		DataDir:    "./yield-data",
		Logging:    Logging{Environment: "dev", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 28},
		RateLimit:  RateLimit{RequestsPerSecond: 20, Burst: 40},
		Auth:       Auth{HMACSecretEnv: "YIELD_RPC_JWT_SECRET", Issuer: "yieldctl", ClockSkewSeconds: 120},
		Telemetry:  Telemetry{Endpoint: "localhost:4318", Insecure: true},
		Registry: Registry{
			Treasury:             "0x00000000000000000000000000000000000007e5",
			RewardsPool:          "0x000000000000000000000000000000000000b0b1",
			ClaimTaxBps:          []uint32{1_000, 500, 200},
			ReputationThresholds: []uint64{0, 100, 200},
			AssetCost:            "10000000000000000000",
			TreasuryFeeBps:       2_000,
			WalletLimit:          100,
		},
		Farm: Farm{
			Custody:     "0x00000000000000000000000000000000000fa4a1",
			RewardToken: "BREW",
			StakeToken:  "BREW-LP",
			Schedule: Schedule{
				PerBlockRate:         "100000000000000000",
				StartHeight:          1,
				FirstPhaseEndHeight:  201_600,
				SecondPhaseEndHeight: 403_200,
				FirstMultiplier:      6,
				SecondMultiplier:     3,
			},
		},
		Ferment: Ferment{
			Token:               "BREW",
			FermentationPeriod:  1_209_600,
			ExperiencePerSecond: "1157407",
			Tiers: []Tier{
				{Threshold: "0", DailyYield: "1000000000000000000"},
				{Threshold: "1400000000000", DailyYield: "1500000000000000000"},
				{Threshold: "2800000000000", DailyYield: "2000000000000000000"},
			},
		},
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8080"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./yield-data"
	}
	if strings.TrimSpace(c.Logging.Environment) == "" {
		c.Logging.Environment = "dev"
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
	if strings.TrimSpace(c.Auth.HMACSecretEnv) == "" {
		c.Auth.HMACSecretEnv = "YIELD_RPC_JWT_SECRET"
	}
	if c.Auth.ClockSkewSeconds <= 0 {
		c.Auth.ClockSkewSeconds = 120
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
