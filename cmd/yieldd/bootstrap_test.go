package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldchain/config"
	"yieldchain/core"
	yieldstate "yieldchain/core/state"
	nativecommon "yieldchain/native/common"
	"yieldchain/storage"
)

func newBootstrapNode(t *testing.T, cfg *config.Config) *core.Node {
	t.Helper()
	opts, err := cfg.FarmOptions()
	require.NoError(t, err)
	node, err := core.NewNode(yieldstate.NewManager(storage.NewMemDB()), opts)
	require.NoError(t, err)
	return node
}

func TestBootstrapIsIdempotent(t *testing.T) {
	cfg := config.Default()
	node := newBootstrapNode(t, cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, bootstrap(node, cfg, logger))
	require.NoError(t, bootstrap(node, cfg, logger))

	tiers, err := node.FermentTiers()
	require.NoError(t, err)
	require.Len(t, tiers, len(cfg.Ferment.Tiers))

	pool, err := node.FarmPool(0)
	require.NoError(t, err)
	require.Equal(t, cfg.Farm.Schedule.PerBlockRate, pool.Schedule.PerBlockRate.String())
}

func TestBootstrapReconfiguresAndAppendsTiers(t *testing.T) {
	cfg := config.Default()
	node := newBootstrapNode(t, cfg)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, bootstrap(node, cfg, logger))

	cfg.Farm.Schedule.PerBlockRate = "42"
	cfg.Ferment.Tiers = append(cfg.Ferment.Tiers, config.Tier{Threshold: "9000000000000", DailyYield: "3000000000000000000"})
	cfg.Pauses.Ferment = true
	require.NoError(t, bootstrap(node, cfg, logger))

	pool, err := node.FarmPool(0)
	require.NoError(t, err)
	require.Equal(t, "42", pool.Schedule.PerBlockRate.String())

	tiers, err := node.FermentTiers()
	require.NoError(t, err)
	require.Len(t, tiers, 4)

	_, err = node.FermentMint(common.HexToAddress("0x00000000000000000000000000000000000000a1"), "paused")
	require.ErrorIs(t, err, nativecommon.ErrModulePaused)
}
