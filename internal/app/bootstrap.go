package app

import (
	"fmt"
	"log/slog"

	"escrow_go/internal/domain"
	"escrow_go/internal/engine"
	"escrow_go/internal/infra"
	"escrow_go/internal/infra/feed"
	"escrow_go/internal/infra/storage"
	"escrow_go/internal/infra/transfer"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config   *infra.Config
	Storage  *storage.Store
	Registry *engine.Registry
	Governor *engine.Governor
	Feed     *feed.Hub
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize wires the engine: config, logger, storage, governance state,
// notification fan-out, and the order registry.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	store, err := storage.NewStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("database initialized", slog.String("path", cfg.Storage.Path))

	b.Feed = feed.NewHub()
	notifier := infra.MultiNotifier{infra.NewLogNotifier(logger), b.Feed}

	gov := engine.NewGovernor(cfg.Engine.AdminAddress, cfg.Engine.AggregatorAddress, notifier)
	b.Governor = gov

	cfgRegistry := engine.NewConfigRegistry(gov, store, notifier)
	err = cfgRegistry.Load(cfg.Engine.ProtocolFeeBPS, cfg.Engine.TreasuryAddress, cfg.Engine.Tokens, cfg.SeedInstitutions())
	if err != nil {
		return fmt.Errorf("failed to load governance state: %w", err)
	}

	// The in-memory ledger stands in for the token collaborator until a
	// production integration is configured.
	var transferor domain.Transferor = transfer.NewLedger()

	b.Registry = engine.NewRegistry(store, cfgRegistry, gov, engine.NewAllocator(store), transferor, notifier)
	slog.Info("order registry ready",
		slog.String("aggregator", gov.Aggregator()),
		slog.Uint64("fee_rate_bps", cfgRegistry.FeeRate()),
	)
	return nil
}
