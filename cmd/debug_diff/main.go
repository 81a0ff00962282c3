package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"netbox-sync/core/config"
	"netbox-sync/core/database"
	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"
	"netbox-sync/feature/sync/collections"
	"netbox-sync/feature/sync/inventory"

	"go.uber.org/zap"
)

// Standalone diff probe: fetches both sides of one collection and dumps
// the partitions without dispatching anything. Useful when a sync run
// reports unexpected drift and the question is which keys disagree.
func main() {
	name := collections.NameDevices
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	if !collections.Known(name) {
		log.Fatalf("unknown collection %q (known: %v)", name, collections.Names())
	}

	// Load config
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	// Connect to DB
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	// Create API client
	client, err := netbox.New(cfg.NetBox, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	strip := cfg.Sync.StripDomainList()

	// Side 1: inventory origin
	fmt.Println("=== ORIGIN: inventory ===")
	origin, err := inventory.NewLoader(db, cfg.Sync.Profile, strip)
	if err != nil {
		log.Fatal(err)
	}
	originSet, err := origin.Load(ctx, name)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Origin items loaded: %d\n", originSet.Len())

	// Side 2: NetBox target
	fmt.Println("\n=== TARGET: netbox ===")
	collection, err := collections.New(name, collections.Options{
		Client:       client,
		StripDomains: strip,
	})
	if err != nil {
		log.Fatal(err)
	}

	var scope reconcile.Scope
	if name == collections.NameInterfaces || name == collections.NamePortChannels {
		scope.Devices, err = origin.Hostnames(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Scoped to %d devices\n", len(scope.Devices))
	}

	if err := collection.Fetch(ctx, scope); err != nil {
		log.Fatal(err)
	}
	targetSet, err := collection.ItemSet()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Target items loaded: %d\n", targetSet.Len())

	// Diff
	fmt.Println("\n=== DIFF ===")
	diff := reconcile.Diff(originSet, targetSet, collection.CompareFields())
	missing, changed, extra := diff.Counts()
	fmt.Printf("missing=%d changed=%d extra=%d\n", missing, changed, extra)

	printSample("MISSING (would create)", diff.Missing)
	printSample("CHANGED (would update)", diff.Changed)
	printSample("EXTRA (would delete)", diff.Extra)

	// Save detailed output
	output := map[string]interface{}{
		"collection": name,
		"origin":     originSet.Len(),
		"target":     targetSet.Len(),
		"missing":    diff.Missing,
		"changed":    diff.Changed,
		"extra":      diff.Extra,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	os.WriteFile("debug_diff.json", data, 0644)

	fmt.Println("\nDebug complete. Check debug_diff.json for details.")
}

func printSample(title string, partition map[reconcile.Key]reconcile.Fields) {
	if len(partition) == 0 {
		return
	}
	fmt.Printf("\n%s: %d item(s)\n", title, len(partition))
	shown := 0
	for key, fields := range partition {
		if shown >= 5 {
			fmt.Printf("... and %d more\n", len(partition)-shown)
			break
		}
		fmt.Printf("  %s %v\n", key, fields)
		shown++
	}
}
