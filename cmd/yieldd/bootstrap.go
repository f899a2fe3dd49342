package main

import (
	"errors"
	"fmt"
	"log/slog"

	"yieldchain/config"
	"yieldchain/core"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
)

// bootstrap applies the configured registry, pauses, schedule, parameters and
// tiers. Settings and pauses are rewritten on every start. The schedule is
// initialised once and reconfigured when the file disagrees with state. Tiers
// are append-only, so only rows beyond the stored table are added.
func bootstrap(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	if err := node.SetSettings(settings); err != nil {
		return fmt.Errorf("apply settings: %w", err)
	}
	if err := node.SetPauses(cfg.ModulePauses()); err != nil {
		return fmt.Errorf("apply pauses: %w", err)
	}

	schedule, err := cfg.Schedule()
	if err != nil {
		return err
	}
	pool, err := node.FarmPool(0)
	switch {
	case errors.Is(err, farm.ErrNotInitialised):
		if err := node.FarmInitialize(schedule); err != nil {
			return fmt.Errorf("initialise farm: %w", err)
		}
		logger.Info("farm initialised", "startHeight", schedule.StartHeight, "perBlockRate", schedule.PerBlockRate.String())
	case err != nil:
		return err
	case !sameSchedule(pool.Schedule, schedule):
		if err := node.FarmReconfigure(schedule); err != nil {
			return fmt.Errorf("reconfigure farm: %w", err)
		}
		logger.Info("farm schedule reconfigured", "height", pool.Height)
	}

	p, err := cfg.FermentParameters()
	if err != nil {
		return err
	}
	if err := node.FermentSetParameters(p); err != nil {
		return fmt.Errorf("apply ferment parameters: %w", err)
	}
	return syncTiers(node, cfg, logger)
}

func syncTiers(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	want, err := cfg.Tiers()
	if err != nil {
		return err
	}
	have, err := node.FermentTiers()
	if err != nil {
		return err
	}
	for i := range have {
		if i >= len(want) || !sameTier(have[i], want[i]) {
			logger.Warn("stored tier table diverges from config; keeping stored rows", "index", i)
			return nil
		}
	}
	for _, tier := range want[len(have):] {
		if err := node.FermentAddTier(tier.Threshold, tier.DailyYield); err != nil {
			return fmt.Errorf("add tier: %w", err)
		}
	}
	if added := len(want) - len(have); added > 0 {
		logger.Info("ferment tiers added", "count", added)
	}
	return nil
}

func sameSchedule(a, b *farm.EmissionSchedule) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.PerBlockRate.Cmp(b.PerBlockRate) == 0 &&
		a.StartHeight == b.StartHeight &&
		a.FirstPhaseEndHeight == b.FirstPhaseEndHeight &&
		a.SecondPhaseEndHeight == b.SecondPhaseEndHeight &&
		a.FinalEndHeight == b.FinalEndHeight &&
		a.FirstMultiplier == b.FirstMultiplier &&
		a.SecondMultiplier == b.SecondMultiplier
}

func sameTier(a, b ferment.Tier) bool {
	return a.Threshold.Cmp(b.Threshold) == 0 && a.DailyYield.Cmp(b.DailyYield) == 0
}
