package cmd

import (
	"context"
	"fmt"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/netbox"
	"netbox-sync/core/storage"
	syncFeature "netbox-sync/feature/sync"
	"netbox-sync/feature/sync/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// checkCmd runs the preflight checks without starting any sync.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify external dependencies before syncing",
	Long: `Check that every external dependency of a sync run is usable:
the NetBox API answers, the inventory database carries the columns the
configured profile reads, and the report bucket is reachable.

The command exits non-zero when any check fails.`,
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	// Dependencies that cannot even be constructed become failed checks
	// instead of aborting, so one bad setting does not hide the rest.
	var results []syncFeature.CheckResult
	preflight := &syncFeature.Preflight{Bucket: cfg.Storage.Bucket}

	if client, err := netbox.New(cfg.NetBox, l); err != nil {
		results = append(results, syncFeature.CheckResult{Name: "netbox", Detail: err.Error()})
	} else {
		preflight.Client = client
	}

	if profile, err := inventory.LookupProfile(cfg.Sync.Profile); err != nil {
		results = append(results, syncFeature.CheckResult{Name: "inventory", Detail: err.Error()})
	} else if db, err := database.Connect(cfg.Database); err != nil {
		results = append(results, syncFeature.CheckResult{Name: "inventory", Detail: err.Error()})
	} else {
		preflight.DB = db
		preflight.Profile = profile
	}

	if store, err := storage.NewClient(cfg.Storage); err != nil {
		results = append(results, syncFeature.CheckResult{Name: "storage", Detail: err.Error()})
	} else {
		preflight.Store = store
	}

	results = append(results, preflight.Run(ctx)...)

	for _, r := range results {
		if r.OK {
			l.Info("Check passed", zap.String("check", r.Name))
		} else {
			l.Warn("Check failed",
				zap.String("check", r.Name),
				zap.String("detail", r.Detail))
		}
	}

	if !syncFeature.OK(results) {
		return fmt.Errorf("preflight failed")
	}

	l.Info("All preflight checks passed", zap.Int("checks", len(results)))
	return nil
}
