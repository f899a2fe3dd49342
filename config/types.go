package config

// Farm configures the pool accumulator.
type Farm struct {
	Custody     string `toml:"Custody"`
	RewardToken string `toml:"RewardToken"`
	StakeToken  string `toml:"StakeToken"`
	// ScheduleFile, when set, replaces the inline schedule.
	ScheduleFile string   `toml:"ScheduleFile"`
	Schedule     Schedule `toml:"Schedule"`
}

// Schedule is the inline emission schedule. Amounts are decimal strings.
type Schedule struct {
	PerBlockRate         string `toml:"PerBlockRate"`
	StartHeight          uint64 `toml:"StartHeight"`
	FirstPhaseEndHeight  uint64 `toml:"FirstPhaseEndHeight"`
	SecondPhaseEndHeight uint64 `toml:"SecondPhaseEndHeight"`
	FinalEndHeight       uint64 `toml:"FinalEndHeight"`
	FirstMultiplier      uint64 `toml:"FirstMultiplier"`
	SecondMultiplier     uint64 `toml:"SecondMultiplier"`
}

// Ferment configures the fermentation engine.
type Ferment struct {
	Token               string `toml:"Token"`
	FermentationPeriod  uint64 `toml:"FermentationPeriod"`
	ExperiencePerSecond string `toml:"ExperiencePerSecond"`
	GlobalStartTime     uint64 `toml:"GlobalStartTime"`
	Tiers               []Tier `toml:"Tiers"`
}

// Tier is one row of the tier table.
type Tier struct {
	Threshold  string `toml:"Threshold"`
	DailyYield string `toml:"DailyYield"`
}

// Registry holds the settings the engines read at call time.
type Registry struct {
	Treasury             string   `toml:"Treasury"`
	RewardsPool          string   `toml:"RewardsPool"`
	ClaimTaxBps          []uint32 `toml:"ClaimTaxBps"`
	ReputationThresholds []uint64 `toml:"ReputationThresholds"`
	AssetCost            string   `toml:"AssetCost"`
	TreasuryFeeBps       uint32   `toml:"TreasuryFeeBps"`
	WalletLimit          uint64   `toml:"WalletLimit"`
}

// Pauses halts mutating flows per module.
type Pauses struct {
	Farm    bool `toml:"Farm"`
	Ferment bool `toml:"Ferment"`
}

// RateLimit bounds query traffic per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Logging selects the log destination.
type Logging struct {
	Environment string `toml:"Environment"`
	// File, when set, receives logs through a rotating writer.
	File       string `toml:"File"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}

// Auth guards mutating RPC methods with HS256 bearer tokens. The secret is
// read from the environment variable named by HMACSecretEnv.
type Auth struct {
	HMACSecretEnv    string `toml:"HMACSecretEnv"`
	Issuer           string `toml:"Issuer"`
	Audience         string `toml:"Audience"`
	ClockSkewSeconds int    `toml:"ClockSkewSeconds"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}
