package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"yieldchain/core"
	nativecommon "yieldchain/native/common"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
	"yieldchain/native/params"
)

// Validate checks every section and the conversions the node relies on.
func (c *Config) Validate() error {
	if c.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("ratelimit: RequestsPerSecond must be positive")
	}
	if _, err := c.FarmOptions(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Farm.ScheduleFile) == "" {
		if _, err := c.Schedule(); err != nil {
			return err
		}
	}
	if _, err := c.Settings(); err != nil {
		return err
	}
	if _, err := c.FermentParameters(); err != nil {
		return err
	}
	if _, err := c.Tiers(); err != nil {
		return err
	}
	return nil
}

// FarmOptions converts the account and token fields into node options.
func (c *Config) FarmOptions() (core.Options, error) {
	custody, err := parseAddress("farm.Custody", c.Farm.Custody)
	if err != nil {
		return core.Options{}, err
	}
	opts := core.Options{
		FarmCustody:     custody,
		FarmRewardToken: strings.ToUpper(strings.TrimSpace(c.Farm.RewardToken)),
		FarmStakeToken:  strings.ToUpper(strings.TrimSpace(c.Farm.StakeToken)),
		FermentToken:    strings.ToUpper(strings.TrimSpace(c.Ferment.Token)),
	}
	if opts.FarmRewardToken == "" || opts.FarmStakeToken == "" {
		return core.Options{}, fmt.Errorf("farm: RewardToken and StakeToken required")
	}
	if opts.FermentToken == "" {
		return core.Options{}, fmt.Errorf("ferment: Token required")
	}
	return opts, nil
}

// Schedule returns the farm schedule, reading ScheduleFile when configured.
func (c *Config) Schedule() (*farm.EmissionSchedule, error) {
	if path := strings.TrimSpace(c.Farm.ScheduleFile); path != "" {
		return farm.LoadSchedule(path)
	}
	rate, err := parseAmount("farm.Schedule.PerBlockRate", c.Farm.Schedule.PerBlockRate)
	if err != nil {
		return nil, err
	}
	schedule := &farm.EmissionSchedule{
		PerBlockRate:         rate,
		StartHeight:          c.Farm.Schedule.StartHeight,
		FirstPhaseEndHeight:  c.Farm.Schedule.FirstPhaseEndHeight,
		SecondPhaseEndHeight: c.Farm.Schedule.SecondPhaseEndHeight,
		FinalEndHeight:       c.Farm.Schedule.FinalEndHeight,
		FirstMultiplier:      c.Farm.Schedule.FirstMultiplier,
		SecondMultiplier:     c.Farm.Schedule.SecondMultiplier,
	}
	if err := schedule.Validate(); err != nil {
		return nil, fmt.Errorf("farm.Schedule: %w", err)
	}
	return schedule, nil
}

// Settings converts the registry section.
func (c *Config) Settings() (params.Settings, error) {
	treasury, err := parseAddress("registry.Treasury", c.Registry.Treasury)
	if err != nil {
		return params.Settings{}, err
	}
	pool, err := parseAddress("registry.RewardsPool", c.Registry.RewardsPool)
	if err != nil {
		return params.Settings{}, err
	}
	cost, err := parseAmount("registry.AssetCost", c.Registry.AssetCost)
	if err != nil {
		return params.Settings{}, err
	}
	settings := params.Settings{
		Treasury:             treasury,
		RewardsPool:          pool,
		ClaimTaxBps:          append([]uint32(nil), c.Registry.ClaimTaxBps...),
		ReputationThresholds: append([]uint64(nil), c.Registry.ReputationThresholds...),
		AssetCost:            cost,
		TreasuryFeeBps:       c.Registry.TreasuryFeeBps,
		WalletLimit:          c.Registry.WalletLimit,
	}
	if err := settings.Validate(); err != nil {
		return params.Settings{}, err
	}
	return settings, nil
}

// FermentParameters converts the accrual parameters.
func (c *Config) FermentParameters() (*ferment.Parameters, error) {
	xp, err := parseAmount("ferment.ExperiencePerSecond", c.Ferment.ExperiencePerSecond)
	if err != nil {
		return nil, err
	}
	p := &ferment.Parameters{
		FermentationPeriod:  c.Ferment.FermentationPeriod,
		ExperiencePerSecond: xp,
		GlobalStartTime:     c.Ferment.GlobalStartTime,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Tiers converts and validates the tier table.
func (c *Config) Tiers() ([]ferment.Tier, error) {
	if len(c.Ferment.Tiers) == 0 {
		return nil, fmt.Errorf("ferment: at least one tier required")
	}
	tiers := make([]ferment.Tier, len(c.Ferment.Tiers))
	for i, tier := range c.Ferment.Tiers {
		threshold, err := parseAmount(fmt.Sprintf("ferment.Tiers[%d].Threshold", i), tier.Threshold)
		if err != nil {
			return nil, err
		}
		yield, err := parseAmount(fmt.Sprintf("ferment.Tiers[%d].DailyYield", i), tier.DailyYield)
		if err != nil {
			return nil, err
		}
		tiers[i] = ferment.Tier{Threshold: threshold, DailyYield: yield}
	}
	if err := ferment.ValidateTiers(tiers); err != nil {
		return nil, err
	}
	return tiers, nil
}

// ModulePauses converts the pause section.
func (c *Config) ModulePauses() params.Pauses {
	return params.Pauses{nativecommon.ModuleFarm: c.Pauses.Farm, nativecommon.ModuleFerment: c.Pauses.Ferment}
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("invalid %s: %q is not a hex address", field, value)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("invalid %s: zero address", field)
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("invalid %s: value required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s: %q is not an integer", field, value)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s: must not be negative", field)
	}
	return amount, nil
}
