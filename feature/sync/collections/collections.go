package collections

import (
	"context"
	"fmt"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"
	"netbox-sync/core/utils"

	"go.uber.org/zap"
)

// Collection names, as used in CLI arguments, API routes and reports.
const (
	NameDevices      = "devices"
	NameInterfaces   = "interfaces"
	NameIPAddresses  = "ipaddrs"
	NameSites        = "sites"
	NamePortChannels = "portchans"
)

// Options carries the shared dependencies of every collection.
type Options struct {
	// Client is the NetBox API client.
	Client *netbox.Client

	// Log receives skip decisions and fetch progress. Nil disables logging.
	Log *zap.Logger

	// Lookups caches slug reference tables across runs. Nil fetches
	// tables fresh on every plan.
	Lookups *LookupCache

	// StripDomains lists DNS suffixes removed during hostname
	// normalization, so inventory short names and NetBox FQDNs key alike.
	StripDomains []string
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

func (o Options) hostname(name string) string {
	return utils.NormalizeHostname(name, o.StripDomains...)
}

func (o Options) slugTable(ctx context.Context, path string) (map[string]int, error) {
	if o.Lookups != nil {
		return o.Lookups.SlugTable(ctx, o.Client, path)
	}
	return o.Client.SlugTable(ctx, path)
}

// New constructs the named collection. Collections hold per-run state
// (fetched records, LAG caches); construct a fresh one for every run.
func New(name string, opts Options) (reconcile.Collection, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("collection %s: nil netbox client", name)
	}
	switch name {
	case NameDevices:
		return NewDevices(opts), nil
	case NameInterfaces:
		return NewInterfaces(opts), nil
	case NameIPAddresses:
		return NewIPAddresses(opts), nil
	case NameSites:
		return NewSites(opts), nil
	case NamePortChannels:
		return NewPortChannels(opts), nil
	default:
		return nil, fmt.Errorf("unknown collection %q", name)
	}
}

// Names lists the supported collections in sync order: reference data
// first, then the resources that depend on it.
func Names() []string {
	return []string{NameSites, NameDevices, NameInterfaces, NameIPAddresses, NamePortChannels}
}

// Known reports whether name is a supported collection.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}
