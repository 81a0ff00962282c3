package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/logger"
	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/storage"
	syncFeature "netbox-sync/feature/sync"
	"netbox-sync/feature/sync/collections"
	"netbox-sync/feature/sync/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the sync command
	applyChanges bool
	yesConfirm   bool
)

// syncCmd reconciles one collection (or all of them) from the CLI.
var syncCmd = &cobra.Command{
	Use:   "sync [collection]",
	Short: "Reconcile inventory collections against NetBox",
	Long: `Reconcile the local inventory against NetBox, one collection at a time.

Without --apply the command only plans: it fetches both sides, diffs them
and reports what would change. With --apply it dispatches the mutations.
Runs with pending deletions ask for confirmation unless --yes is given.

Examples:
  # Plan every collection (read-only)
  netbox-sync sync

  # Plan a single collection
  netbox-sync sync devices

  # Apply one collection (with interactive confirmation of deletions)
  netbox-sync sync ipaddrs --apply

  # Apply everything non-interactively
  netbox-sync sync --apply --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&applyChanges, "apply", false, "Dispatch mutations (default is plan only)")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm deletions (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
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

	service, _, err := buildSyncService(ctx, cfg, l, 0)
	if err != nil {
		return err
	}

	// Default is the full set in sync order: reference data before the
	// records that point at it.
	names := collections.Names()
	if len(args) == 1 && args[0] != "all" {
		names = []string{args[0]}
	}

	failed := false
	for _, name := range names {
		plan, err := service.Plan(ctx, name)
		if err != nil {
			return fmt.Errorf("plan %s: %w", name, err)
		}
		printRunReport(l, plan)

		if !applyChanges {
			continue
		}
		if plan.InSync() {
			continue
		}

		// Deletions are the only irreversible partition; everything else
		// can be re-planned and corrected.
		if plan.Extra > 0 && !confirmDeletions(name, plan.Extra) {
			l.Warn("Apply cancelled by user. No changes were made.",
				zap.String("collection", name))
			continue
		}

		report, err := service.Run(ctx, name)
		if err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		printRunReport(l, report)
		if !report.Clean {
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("sync finished with failures, see the report above")
	}
	return nil
}

// buildSyncService wires the full dependency chain of a sync run: the
// inventory database, the NetBox client and the report archive. Storage
// is optional; a missing archive only costs the run history. lookupTTL
// controls how long slug reference tables are reused across runs — zero
// (one-shot CLI runs) still dedupes concurrent fetches within one run.
func buildSyncService(ctx context.Context, cfg *config.Config, l *zap.Logger, lookupTTL time.Duration) (*syncFeature.Service, *syncFeature.Archive, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to inventory database: %w", err)
	}

	client, err := netbox.New(cfg.NetBox, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create netbox client: %w", err)
	}

	origin, err := inventory.NewLoader(db, cfg.Sync.Profile, cfg.Sync.StripDomainList())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create inventory loader: %w", err)
	}

	var archive *syncFeature.Archive
	if store, err := storage.NewClient(cfg.Storage); err != nil {
		l.Warn("Optional report archive unavailable", zap.Error(err))
	} else {
		archive = syncFeature.NewArchive(store, cfg.Storage.Bucket, cfg.Storage.Retention, l)
		if err := archive.Ensure(ctx); err != nil {
			l.Warn("Optional report archive unavailable", zap.Error(err))
			archive = nil
		}
	}

	lookups := collections.NewLookupCache(lookupTTL)
	factory := func(name string) (reconcile.Collection, error) {
		return collections.New(name, collections.Options{
			Client:       client,
			Log:          l,
			Lookups:      lookups,
			StripDomains: cfg.Sync.StripDomainList(),
		})
	}

	driver := reconcile.NewDriver(cfg.Sync.TaskLimit, l)
	return syncFeature.NewService(origin, factory, driver, archive, l), archive, nil
}

// printRunReport prints a formatted run report using logger.
func printRunReport(l *zap.Logger, report *syncFeature.RunReport) {
	l.Info("Run report",
		zap.String("collection", report.Collection),
		zap.String("mode", report.Mode),
		zap.Int("origin", report.Origin),
		zap.Int("target", report.Target),
		zap.Int("missing", report.Missing),
		zap.Int("changed", report.Changed),
		zap.Int("extra", report.Extra),
		zap.Bool("in_sync", report.InSync()),
		zap.Float64("duration_seconds", report.DurationSeconds),
	)

	for _, p := range report.Partitions {
		if p.Planned == 0 && p.Error == "" {
			continue
		}
		l.Info("Partition outcome",
			zap.String("collection", report.Collection),
			zap.String("operation", p.Operation),
			zap.Int("planned", p.Planned),
			zap.Int("succeeded", p.Succeeded),
			zap.Int("failed", p.Failed),
			zap.Int("skipped", p.Skipped),
		)
		if p.Error != "" {
			l.Warn("Partition not dispatched",
				zap.String("operation", p.Operation),
				zap.String("error", p.Error))
		}
		for key, msg := range p.Failures {
			l.Warn("Task failed",
				zap.String("operation", p.Operation),
				zap.String("key", key),
				zap.String("error", msg))
		}
	}
}

// confirmDeletions prompts the user for confirmation or uses the --yes flag.
func confirmDeletions(collection string, count int) bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Printf("\n⚠️  Applying %s will retire %d record(s) from NetBox. Type 'yes' to confirm: ", collection, count)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
