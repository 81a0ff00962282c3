package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the driver's current phase, observable while a run is in
// progress. A driver outside a run reports StateIdle.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateDiffing   State = "diffing"
	StateCreating  State = "creating"
	StateUpdating  State = "updating"
	StateDeleting  State = "deleting"
	StateReporting State = "reporting"
)

// Operation names one mutation partition of a run.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Scope narrows what a collection fetches from the remote side.
type Scope struct {
	// Filters are passed through to the remote list queries.
	Filters map[string]string

	// Devices restricts device-scoped collections to the named devices.
	// Empty means all devices in the origin inventory.
	Devices []string
}

// Collection ties one kind of inventory item to its remote counterpart.
// A collection is fetched once per run and then projected for diffing.
type Collection interface {
	// Name identifies the collection in logs, metrics and reports.
	Name() string

	// CompareFields lists the item fields consulted for change detection.
	CompareFields() []string

	// Fetch loads the remote records for the given scope.
	Fetch(ctx context.Context, scope Scope) error

	// ItemSet projects the fetched records into keyed items. Valid only
	// after a successful Fetch.
	ItemSet() (*ItemSet, error)
}

// Creator plans create tasks for items missing from the remote side.
// Plan methods run once per partition before any dispatch: they resolve
// whatever shared lookups the tasks need and return the per-item
// constructor. A collection that does not implement a capability gets
// ErrNotSupported recorded for that partition when it is non-empty.
type Creator interface {
	PlanCreate(ctx context.Context, items map[Key]Fields) (TaskConstructor, error)
}

// Updater plans update tasks for items whose remote fields drifted.
type Updater interface {
	PlanUpdate(ctx context.Context, items map[Key]Fields) (TaskConstructor, error)
}

// Deleter plans delete tasks for remote items absent from the inventory.
type Deleter interface {
	PlanDelete(ctx context.Context, items map[Key]Fields) (TaskConstructor, error)
}

// PartitionResult is the outcome of one mutation partition.
type PartitionResult struct {
	// Operation is the partition's mutation kind.
	Operation Operation

	// Planned is the partition size the diff produced.
	Planned int

	// Outcomes maps every planned key to its terminal outcome. Empty
	// when Err is set: a partition that failed planning dispatched nothing.
	Outcomes map[Key]Outcome

	// Err is set when the whole partition failed before dispatch, either
	// because the collection lacks the capability or because its plan
	// step errored. Other partitions are unaffected.
	Err error
}

// Counts tallies the partition's outcomes by status.
func (p *PartitionResult) Counts() (succeeded, failed, skipped int) {
	for _, outcome := range p.Outcomes {
		switch outcome.Status {
		case StatusSucceeded:
			succeeded++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return succeeded, failed, skipped
}

// Result is the report of one reconciliation run.
type Result struct {
	// Collection is the collection the run reconciled.
	Collection string

	// Started and Finished bound the run's wall time.
	Started  time.Time
	Finished time.Time

	// Missing, Changed and Extra are the diff's partition sizes.
	Missing int
	Changed int
	Extra   int

	// Partitions holds one entry per non-empty partition, in
	// create, update, delete order.
	Partitions []*PartitionResult
}

// Partition returns the result for the given operation, or nil if that
// partition was empty.
func (r *Result) Partition(op Operation) *PartitionResult {
	for _, p := range r.Partitions {
		if p.Operation == op {
			return p
		}
	}
	return nil
}

// Clean reports whether the run finished with no partition errors and no
// failed tasks. Skipped items do not count against a clean run.
func (r *Result) Clean() bool {
	for _, p := range r.Partitions {
		if p.Err != nil {
			return false
		}
		_, failed, _ := p.Counts()
		if failed > 0 {
			return false
		}
	}
	return true
}

// Driver runs the reconciliation cycle for one collection at a time:
// fetch the remote records, diff them against the resident origin set,
// dispatch the three mutation partitions, and assemble the result.
// A driver is reusable across runs; concurrent Run calls are serialized.
type Driver struct {
	limit    int
	log      *zap.Logger
	onResult Callback

	runMu sync.Mutex

	stateMu sync.RWMutex
	state   State
}

// NewDriver returns a driver dispatching at most limit tasks at once.
// Zero or negative limit falls back to DefaultTaskLimit.
func NewDriver(limit int, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{limit: limit, log: log, state: StateIdle}
}

// OnResult registers a callback invoked once per item after the item's
// partition has fully settled. Callback errors are logged, never fatal.
func (d *Driver) OnResult(callback Callback) {
	d.onResult = callback
}

// State returns the driver's current phase.
func (d *Driver) State() State {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.stateMu.Lock()
	d.state = s
	d.stateMu.Unlock()
}

func dispatchState(op Operation) State {
	switch op {
	case OpCreate:
		return StateCreating
	case OpUpdate:
		return StateUpdating
	case OpDelete:
		return StateDeleting
	}
	return StateIdle
}

// Run reconciles origin against the collection's remote records.
// A fetch or projection error aborts the run before any dispatch. After
// the diff, each non-empty partition is planned and dispatched in
// create, update, delete order; a partition that is unsupported or fails
// planning is recorded in the result and does not stop its siblings.
func (d *Driver) Run(ctx context.Context, origin *ItemSet, collection Collection, scope Scope) (*Result, error) {
	if origin == nil {
		return nil, fmt.Errorf("%s: origin: %w", collection.Name(), ErrNilItemSet)
	}

	d.runMu.Lock()
	defer d.runMu.Unlock()
	defer d.setState(StateIdle)

	name := collection.Name()
	started := time.Now()
	defer func() {
		runDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	}()

	d.setState(StateFetching)
	if err := collection.Fetch(ctx, scope); err != nil {
		runsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	target, err := collection.ItemSet()
	if err != nil {
		runsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("project %s: %w", name, err)
	}

	d.setState(StateDiffing)
	diff := Diff(origin, target, collection.CompareFields())
	missing, changed, extra := diff.Counts()
	diffItems.WithLabelValues(name, "missing").Set(float64(missing))
	diffItems.WithLabelValues(name, "changed").Set(float64(changed))
	diffItems.WithLabelValues(name, "extra").Set(float64(extra))

	d.log.Info("diff computed",
		zap.String("collection", name),
		zap.Int("origin", origin.Len()),
		zap.Int("target", target.Len()),
		zap.Int("missing", missing),
		zap.Int("changed", changed),
		zap.Int("extra", extra))

	result := &Result{
		Collection: name,
		Started:    started,
		Missing:    missing,
		Changed:    changed,
		Extra:      extra,
	}

	var planCreate, planUpdate, planDelete func(context.Context, map[Key]Fields) (TaskConstructor, error)
	if c, ok := collection.(Creator); ok {
		planCreate = c.PlanCreate
	}
	if u, ok := collection.(Updater); ok {
		planUpdate = u.PlanUpdate
	}
	if del, ok := collection.(Deleter); ok {
		planDelete = del.PlanDelete
	}

	partitions := []struct {
		op    Operation
		items map[Key]Fields
		plan  func(context.Context, map[Key]Fields) (TaskConstructor, error)
	}{
		{OpCreate, diff.Missing, planCreate},
		{OpUpdate, diff.Changed, planUpdate},
		{OpDelete, diff.Extra, planDelete},
	}

	runner := &Runner{Limit: d.limit, Log: d.log}

	for _, part := range partitions {
		if len(part.items) == 0 {
			continue
		}

		pr := &PartitionResult{Operation: part.op, Planned: len(part.items)}
		result.Partitions = append(result.Partitions, pr)

		if part.plan == nil {
			pr.Err = fmt.Errorf("%s %s: %w", name, part.op, ErrNotSupported)
			d.log.Warn("partition skipped",
				zap.String("collection", name),
				zap.String("operation", string(part.op)),
				zap.Int("items", pr.Planned),
				zap.Error(ErrNotSupported))
			continue
		}

		d.setState(dispatchState(part.op))
		construct, err := part.plan(ctx, part.items)
		if err != nil {
			pr.Err = fmt.Errorf("plan %s %s: %w", name, part.op, err)
			d.log.Error("partition planning failed",
				zap.String("collection", name),
				zap.String("operation", string(part.op)),
				zap.Error(err))
			continue
		}

		pr.Outcomes = runner.Run(ctx, part.items, construct, d.onResult)
		for _, outcome := range pr.Outcomes {
			taskOutcomesTotal.WithLabelValues(name, string(part.op), string(outcome.Status)).Inc()
		}
	}

	d.setState(StateReporting)
	result.Finished = time.Now()

	if result.Clean() {
		runsTotal.WithLabelValues(name, "ok").Inc()
	} else {
		runsTotal.WithLabelValues(name, "partial").Inc()
	}

	return result, nil
}
