package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"netbox-sync/core/logger"
	"netbox-sync/core/reconcile"
	"netbox-sync/feature/sync/collections"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Origin supplies the local side of every diff. The inventory loader is
// the production implementation.
type Origin interface {
	// Load builds the origin item set for the named collection.
	Load(ctx context.Context, collection string) (*reconcile.ItemSet, error)
	// Hostnames returns the normalized device names, used to scope
	// per-device fetches on the remote side.
	Hostnames(ctx context.Context) ([]string, error)
}

// CollectionFactory builds a fresh target collection for one run.
type CollectionFactory func(name string) (reconcile.Collection, error)

// Service runs sync cycles. It is safe for concurrent use; the driver
// serializes the cycles themselves.
type Service struct {
	origin        Origin
	newCollection CollectionFactory
	driver        *reconcile.Driver
	archive       *Archive
	log           *zap.Logger

	mu   sync.RWMutex
	last map[string]*RunReport
}

// NewService wires a sync service. archive may be nil to disable
// report archiving.
func NewService(origin Origin, factory CollectionFactory, driver *reconcile.Driver, archive *Archive, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		origin:        origin,
		newCollection: factory,
		driver:        driver,
		archive:       archive,
		log:           log,
		last:          make(map[string]*RunReport),
	}
}

// State returns the driver's current phase for the status endpoint.
func (s *Service) State() reconcile.State {
	return s.driver.State()
}

// LastReports returns the most recent report per collection.
func (s *Service) LastReports() map[string]*RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*RunReport, len(s.last))
	for name, report := range s.last {
		out[name] = report
	}
	return out
}

// scope builds the remote fetch scope for a collection. Interface-level
// collections cannot be enumerated globally at acceptable cost, so they
// fan out over the inventory's device names.
func (s *Service) scope(ctx context.Context, name string) (reconcile.Scope, error) {
	switch name {
	case collections.NameInterfaces, collections.NamePortChannels:
		hostnames, err := s.origin.Hostnames(ctx)
		if err != nil {
			return reconcile.Scope{}, err
		}
		return reconcile.Scope{Devices: hostnames}, nil
	default:
		return reconcile.Scope{}, nil
	}
}

// Plan fetches and diffs one collection without dispatching anything.
func (s *Service) Plan(ctx context.Context, name string) (*RunReport, error) {
	runID := uuid.NewString()
	log := logger.WithRun(s.log, runID)
	started := time.Now()

	origin, collection, scope, err := s.prepare(ctx, name)
	if err != nil {
		return nil, err
	}

	log.Info("planning sync", zap.String("collection", name))

	if err := collection.Fetch(ctx, scope); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	target, err := collection.ItemSet()
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", name, err)
	}

	diff := reconcile.Diff(origin, target, collection.CompareFields())
	missing, changed, extra := diff.Counts()

	report := &RunReport{
		RunID:      runID,
		Collection: name,
		Mode:       ModePlan,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Origin:     origin.Len(),
		Target:     target.Len(),
		Missing:    missing,
		Changed:    changed,
		Extra:      extra,
		Clean:      true,
	}
	report.DurationSeconds = report.FinishedAt.Sub(report.StartedAt).Seconds()

	s.finish(ctx, log, report)
	return report, nil
}

// Run executes a full sync cycle for one collection: fetch, diff and
// dispatch all partitions through the driver.
func (s *Service) Run(ctx context.Context, name string) (*RunReport, error) {
	runID := uuid.NewString()
	log := logger.WithRun(s.log, runID)

	origin, collection, scope, err := s.prepare(ctx, name)
	if err != nil {
		return nil, err
	}

	log.Info("running sync", zap.String("collection", name))

	result, err := s.driver.Run(ctx, origin, collection, scope)
	if err != nil {
		return nil, err
	}

	// The driver does not return the target set; its size follows from
	// the diff arithmetic: target = origin - missing + extra.
	target := origin.Len() - result.Missing + result.Extra
	report := newRunReport(runID, ModeApply, origin.Len(), target, result)

	s.finish(ctx, log, report)
	return report, nil
}

func (s *Service) prepare(ctx context.Context, name string) (*reconcile.ItemSet, reconcile.Collection, reconcile.Scope, error) {
	if !collections.Known(name) {
		return nil, nil, reconcile.Scope{}, fmt.Errorf("unknown collection %q", name)
	}

	origin, err := s.origin.Load(ctx, name)
	if err != nil {
		return nil, nil, reconcile.Scope{}, fmt.Errorf("load origin %s: %w", name, err)
	}

	collection, err := s.newCollection(name)
	if err != nil {
		return nil, nil, reconcile.Scope{}, err
	}

	scope, err := s.scope(ctx, name)
	if err != nil {
		return nil, nil, reconcile.Scope{}, fmt.Errorf("scope %s: %w", name, err)
	}

	return origin, collection, scope, nil
}

// finish records the report and archives it. Archiving failures are
// logged, never propagated: the run itself succeeded.
func (s *Service) finish(ctx context.Context, log *zap.Logger, report *RunReport) {
	s.mu.Lock()
	s.last[report.Collection] = report
	s.mu.Unlock()

	log.Info("sync finished",
		zap.String("collection", report.Collection),
		zap.String("mode", report.Mode),
		zap.Int("missing", report.Missing),
		zap.Int("changed", report.Changed),
		zap.Int("extra", report.Extra),
		zap.Bool("clean", report.Clean),
		zap.Float64("duration_seconds", report.DurationSeconds))

	if s.archive == nil {
		return
	}
	if err := s.archive.Store(ctx, report); err != nil {
		log.Warn("report archiving failed", zap.Error(err))
	}
}
