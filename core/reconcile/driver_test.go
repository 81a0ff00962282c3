package reconcile

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCollection is a fully capable in-memory collection for driver tests.
type fakeCollection struct {
	name       string
	compare    []string
	target     *ItemSet
	fetchErr   error
	projectErr error

	fetched   bool
	scopeSeen Scope

	planErr  map[Operation]error
	skipKeys map[Key]bool
	failTask map[Key]error

	mu      sync.Mutex
	created []Key
	updated []Key
	deleted []Key
}

func (f *fakeCollection) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeCollection) CompareFields() []string { return f.compare }

func (f *fakeCollection) Fetch(_ context.Context, scope Scope) error {
	f.fetched = true
	f.scopeSeen = scope
	return f.fetchErr
}

func (f *fakeCollection) ItemSet() (*ItemSet, error) {
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	if f.target == nil {
		return NewItemSet(), nil
	}
	return f.target, nil
}

func (f *fakeCollection) plan(op Operation, applied *[]Key) (TaskConstructor, error) {
	if err := f.planErr[op]; err != nil {
		return nil, err
	}
	return func(key Key, item Fields) Task {
		if f.skipKeys[key] {
			return nil
		}
		return func(ctx context.Context) (any, error) {
			if err := f.failTask[key]; err != nil {
				return nil, err
			}
			f.mu.Lock()
			*applied = append(*applied, key)
			f.mu.Unlock()
			return map[string]any{"key": key.String()}, nil
		}
	}, nil
}

func (f *fakeCollection) PlanCreate(_ context.Context, _ map[Key]Fields) (TaskConstructor, error) {
	return f.plan(OpCreate, &f.created)
}

func (f *fakeCollection) PlanUpdate(_ context.Context, _ map[Key]Fields) (TaskConstructor, error) {
	return f.plan(OpUpdate, &f.updated)
}

func (f *fakeCollection) PlanDelete(_ context.Context, _ map[Key]Fields) (TaskConstructor, error) {
	return f.plan(OpDelete, &f.deleted)
}

// readOnlyCollection implements fetch and projection but no mutations.
type readOnlyCollection struct {
	target *ItemSet
}

func (r *readOnlyCollection) Name() string                       { return "readonly" }
func (r *readOnlyCollection) CompareFields() []string            { return []string{"value"} }
func (r *readOnlyCollection) Fetch(context.Context, Scope) error { return nil }
func (r *readOnlyCollection) ItemSet() (*ItemSet, error)         { return r.target, nil }

// createOnlyCollection supports creation but neither update nor delete.
type createOnlyCollection struct {
	readOnlyCollection

	mu      sync.Mutex
	created []Key
}

func (c *createOnlyCollection) Name() string { return "createonly" }

func (c *createOnlyCollection) PlanCreate(_ context.Context, _ map[Key]Fields) (TaskConstructor, error) {
	return func(key Key, item Fields) Task {
		return func(ctx context.Context) (any, error) {
			c.mu.Lock()
			c.created = append(c.created, key)
			c.mu.Unlock()
			return nil, nil
		}
	}, nil
}

func TestDriverFullCycle(t *testing.T) {
	origin := setOf(map[string]string{"A": "1", "B": "2"})
	target := setOf(map[string]string{"B": "3", "C": "4"})

	coll := &fakeCollection{target: target, compare: []string{"value"}}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, coll.fetched)
	assert.Equal(t, 1, result.Missing)
	assert.Equal(t, 1, result.Changed)
	assert.Equal(t, 1, result.Extra)

	assert.Equal(t, []Key{MakeKey("A")}, coll.created)
	assert.Equal(t, []Key{MakeKey("B")}, coll.updated)
	assert.Equal(t, []Key{MakeKey("C")}, coll.deleted)

	require.Len(t, result.Partitions, 3)
	assert.Equal(t, OpCreate, result.Partitions[0].Operation)
	assert.Equal(t, OpUpdate, result.Partitions[1].Operation)
	assert.Equal(t, OpDelete, result.Partitions[2].Operation)

	for _, p := range result.Partitions {
		require.NoError(t, p.Err)
		succeeded, failed, skipped := p.Counts()
		assert.Equal(t, 1, succeeded)
		assert.Zero(t, failed)
		assert.Zero(t, skipped)
	}

	assert.True(t, result.Clean())
	assert.Equal(t, StateIdle, driver.State())
	assert.False(t, result.Finished.Before(result.Started))
}

func TestDriverNothingToDo(t *testing.T) {
	origin := setOf(map[string]string{"A": "1", "B": "2"})
	target := setOf(map[string]string{"A": "1", "B": "2"})

	coll := &fakeCollection{target: target, compare: []string{"value"}}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)

	assert.Empty(t, result.Partitions)
	assert.True(t, result.Clean())
	assert.Empty(t, coll.created)
	assert.Empty(t, coll.updated)
	assert.Empty(t, coll.deleted)
}

func TestDriverFetchErrorAbortsRun(t *testing.T) {
	origin := setOf(map[string]string{"A": "1"})

	coll := &fakeCollection{fetchErr: assert.AnError}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, result)
	assert.Empty(t, coll.created)
	assert.Equal(t, StateIdle, driver.State())
}

func TestDriverProjectionErrorAbortsRun(t *testing.T) {
	origin := setOf(map[string]string{"A": "1"})

	coll := &fakeCollection{projectErr: assert.AnError}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestDriverNilOrigin(t *testing.T) {
	driver := NewDriver(4, nil)
	_, err := driver.Run(context.Background(), nil, &fakeCollection{}, Scope{})
	assert.ErrorIs(t, err, ErrNilItemSet)
}

func TestDriverUnsupportedPartitions(t *testing.T) {
	origin := setOf(map[string]string{"A": "1"})
	target := setOf(map[string]string{"B": "2"})

	coll := &readOnlyCollection{target: target}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)

	require.Len(t, result.Partitions, 2)
	for _, p := range result.Partitions {
		assert.ErrorIs(t, p.Err, ErrNotSupported)
		assert.Empty(t, p.Outcomes)
	}
	assert.False(t, result.Clean())
}

func TestDriverUnsupportedEmptyPartitionIgnored(t *testing.T) {
	// Identical sides: a collection with no mutation support runs clean
	// because no partition has items to act on.
	origin := setOf(map[string]string{"A": "1"})
	target := setOf(map[string]string{"A": "1"})

	coll := &readOnlyCollection{target: target}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)
	assert.Empty(t, result.Partitions)
	assert.True(t, result.Clean())
}

func TestDriverPartialCapability(t *testing.T) {
	origin := setOf(map[string]string{"A": "1", "B": "2"})
	target := setOf(map[string]string{"B": "changed"})

	coll := &createOnlyCollection{readOnlyCollection: readOnlyCollection{target: target}}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)

	// The create partition ran even though update is unsupported.
	assert.Equal(t, []Key{MakeKey("A")}, coll.created)

	create := result.Partition(OpCreate)
	require.NotNil(t, create)
	assert.NoError(t, create.Err)

	update := result.Partition(OpUpdate)
	require.NotNil(t, update)
	assert.ErrorIs(t, update.Err, ErrNotSupported)

	assert.Nil(t, result.Partition(OpDelete))
}

func TestDriverPlanErrorIsolatedToPartition(t *testing.T) {
	origin := setOf(map[string]string{"A": "1"})
	target := setOf(map[string]string{"C": "4"})

	coll := &fakeCollection{
		target:  target,
		compare: []string{"value"},
		planErr: map[Operation]error{OpCreate: assert.AnError},
	}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)

	create := result.Partition(OpCreate)
	require.NotNil(t, create)
	assert.ErrorIs(t, create.Err, assert.AnError)
	assert.Empty(t, create.Outcomes)
	assert.Empty(t, coll.created)

	// The delete partition was planned and dispatched regardless.
	assert.Equal(t, []Key{MakeKey("C")}, coll.deleted)
	assert.False(t, result.Clean())
}

func TestDriverTaskFailuresReported(t *testing.T) {
	origin := setOf(map[string]string{"A": "1", "B": "2"})
	target := setOf(map[string]string{"B": "drifted"})

	coll := &fakeCollection{
		target:   target,
		compare:  []string{"value"},
		failTask: map[Key]error{MakeKey("B"): assert.AnError},
	}
	driver := NewDriver(4, nil)

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)

	update := result.Partition(OpUpdate)
	require.NotNil(t, update)
	_, failed, _ := update.Counts()
	assert.Equal(t, 1, failed)

	create := result.Partition(OpCreate)
	require.NotNil(t, create)
	succeeded, _, _ := create.Counts()
	assert.Equal(t, 1, succeeded)

	assert.False(t, result.Clean())
}

func TestDriverCallbackPerItem(t *testing.T) {
	origin := setOf(map[string]string{"A": "1", "B": "2"})
	target := setOf(map[string]string{"B": "drifted", "C": "4"})

	coll := &fakeCollection{
		target:   target,
		compare:  []string{"value"},
		skipKeys: map[Key]bool{MakeKey("A"): true},
	}
	driver := NewDriver(4, nil)

	seen := make(map[Key]Status)
	driver.OnResult(func(key Key, item Fields, outcome Outcome) error {
		seen[key] = outcome.Status
		return nil
	})

	result, err := driver.Run(context.Background(), origin, coll, Scope{})
	require.NoError(t, err)
	require.Len(t, result.Partitions, 3)

	assert.Equal(t, StatusSkipped, seen[MakeKey("A")])
	assert.Equal(t, StatusSucceeded, seen[MakeKey("B")])
	assert.Equal(t, StatusSucceeded, seen[MakeKey("C")])
}

func TestDriverScopePassedThrough(t *testing.T) {
	origin := setOf(map[string]string{"A": "1"})
	coll := &fakeCollection{target: setOf(map[string]string{"A": "1"}), compare: []string{"value"}}
	driver := NewDriver(4, nil)

	scope := Scope{
		Filters: map[string]string{"site": "atl"},
		Devices: []string{"sw1", "sw2"},
	}

	_, err := driver.Run(context.Background(), origin, coll, scope)
	require.NoError(t, err)
	assert.Equal(t, scope, coll.scopeSeen)
}
