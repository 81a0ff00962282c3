package sync

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"netbox-sync/core/database"
	"netbox-sync/core/netbox"
	"netbox-sync/core/storage"
	"netbox-sync/feature/sync/inventory"

	"gorm.io/gorm"
)

// CheckResult is one preflight verdict.
type CheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Preflight verifies every external dependency of a sync run before any
// reconciliation starts: the NetBox API answers, the inventory schema
// carries the columns the profile reads, and the report bucket is
// reachable. Nil dependencies are skipped, so the check adapts to
// partial deployments (e.g. no archive configured).
type Preflight struct {
	Client  *netbox.Client
	DB      *gorm.DB
	Profile inventory.Profile
	Store   storage.Client
	Bucket  string
}

// Run executes all applicable checks and returns their verdicts.
// It never aborts early: one broken dependency must not mask another.
func (p *Preflight) Run(ctx context.Context) []CheckResult {
	var results []CheckResult

	if p.Client != nil {
		results = append(results, p.checkNetBox(ctx))
	}
	if p.DB != nil {
		results = append(results, p.checkInventory()...)
	}
	if p.Store != nil {
		results = append(results, p.checkStorage(ctx))
	}

	return results
}

// OK reports whether every verdict passed.
func OK(results []CheckResult) bool {
	for _, r := range results {
		if !r.OK {
			return false
		}
	}
	return true
}

func (p *Preflight) checkNetBox(ctx context.Context) CheckResult {
	check := CheckResult{Name: "netbox"}

	params := url.Values{}
	params.Set("limit", "1")
	if _, err := p.Client.Get(ctx, netbox.PathDevices, params); err != nil {
		check.Detail = err.Error()
		return check
	}

	check.OK = true
	return check
}

func (p *Preflight) checkInventory() []CheckResult {
	required := p.Profile.RequiredColumns()

	tables := make([]string, 0, len(required))
	for table := range required {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	results := make([]CheckResult, 0, len(tables))
	for _, table := range tables {
		check := CheckResult{Name: "inventory:" + table}

		missing, err := database.MissingColumns(p.DB, table, required[table]...)
		switch {
		case err != nil:
			check.Detail = err.Error()
		case len(missing) > 0:
			check.Detail = fmt.Sprintf("missing columns: %s", strings.Join(missing, ", "))
		default:
			check.OK = true
		}
		results = append(results, check)
	}
	return results
}

func (p *Preflight) checkStorage(ctx context.Context) CheckResult {
	check := CheckResult{Name: "storage"}

	exists, err := p.Store.BucketExists(ctx, p.Bucket)
	switch {
	case err != nil:
		check.Detail = err.Error()
	case !exists:
		check.Detail = fmt.Sprintf("bucket %q does not exist", p.Bucket)
	default:
		check.OK = true
	}
	return check
}
