package sync_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"netbox-sync/core/reconcile"
	syncfeature "netbox-sync/feature/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minio/minio-go/v7"

	storagemocks "netbox-sync/core/storage/mocks"
)

// stubOrigin serves canned item sets per collection.
type stubOrigin struct {
	sets      map[string]*reconcile.ItemSet
	hostnames []string
	err       error
}

func (o *stubOrigin) Load(_ context.Context, collection string) (*reconcile.ItemSet, error) {
	if o.err != nil {
		return nil, o.err
	}
	set, ok := o.sets[collection]
	if !ok {
		set = reconcile.NewItemSet()
	}
	return set, nil
}

func (o *stubOrigin) Hostnames(context.Context) ([]string, error) {
	return o.hostnames, nil
}

// stubCollection is a target collection over a fixed remote item set,
// with create/update capabilities that record what they dispatched.
type stubCollection struct {
	name     string
	compare  []string
	fetchErr error
	items    map[reconcile.Key]reconcile.Fields

	mu        sync.Mutex
	created   []reconcile.Key
	updated   []reconcile.Key
	gotScope  reconcile.Scope
}

func (c *stubCollection) Name() string            { return c.name }
func (c *stubCollection) CompareFields() []string { return c.compare }

func (c *stubCollection) Fetch(_ context.Context, scope reconcile.Scope) error {
	c.mu.Lock()
	c.gotScope = scope
	c.mu.Unlock()
	return c.fetchErr
}

func (c *stubCollection) ItemSet() (*reconcile.ItemSet, error) {
	set := reconcile.NewItemSet()
	for key, item := range c.items {
		set.Put(key, item, nil)
	}
	return set, nil
}

func (c *stubCollection) PlanCreate(context.Context, map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	return func(key reconcile.Key, _ reconcile.Fields) reconcile.Task {
		return func(context.Context) (any, error) {
			c.mu.Lock()
			c.created = append(c.created, key)
			c.mu.Unlock()
			return nil, nil
		}
	}, nil
}

func (c *stubCollection) PlanUpdate(context.Context, map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	return func(key reconcile.Key, _ reconcile.Fields) reconcile.Task {
		return func(context.Context) (any, error) {
			c.mu.Lock()
			c.updated = append(c.updated, key)
			c.mu.Unlock()
			return nil, nil
		}
	}, nil
}

func itemSet(items map[reconcile.Key]reconcile.Fields) *reconcile.ItemSet {
	set := reconcile.NewItemSet()
	for key, item := range items {
		set.Put(key, item, nil)
	}
	return set
}

func newTestService(origin *stubOrigin, col *stubCollection, archive *syncfeature.Archive) *syncfeature.Service {
	factory := func(name string) (reconcile.Collection, error) {
		if col == nil {
			return nil, errors.New("no collection")
		}
		return col, nil
	}
	driver := reconcile.NewDriver(4, zap.NewNop())
	return syncfeature.NewService(origin, factory, driver, archive, zap.NewNop())
}

func TestService_Plan(t *testing.T) {
	origin := &stubOrigin{sets: map[string]*reconcile.ItemSet{
		"devices": itemSet(map[reconcile.Key]reconcile.Fields{
			"A": {"hostname": "A", "status": "active"},
			"B": {"hostname": "B", "status": "active"},
		}),
	}}
	col := &stubCollection{
		name:    "devices",
		compare: []string{"status"},
		items: map[reconcile.Key]reconcile.Fields{
			"B": {"hostname": "B", "status": "offline"},
			"C": {"hostname": "C", "status": "active"},
		},
	}

	svc := newTestService(origin, col, nil)

	report, err := svc.Plan(context.Background(), "devices")
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, syncfeature.ModePlan, report.Mode)
	assert.Equal(t, 2, report.Origin)
	assert.Equal(t, 2, report.Target)
	assert.Equal(t, 1, report.Missing)
	assert.Equal(t, 1, report.Changed)
	assert.Equal(t, 1, report.Extra)
	assert.False(t, report.InSync())
	assert.True(t, report.Clean)
	assert.Empty(t, report.Partitions, "a plan must not dispatch anything")
	assert.Empty(t, col.created)

	last := svc.LastReports()
	require.Contains(t, last, "devices")
	assert.Equal(t, report.RunID, last["devices"].RunID)
}

func TestService_Run(t *testing.T) {
	origin := &stubOrigin{sets: map[string]*reconcile.ItemSet{
		"devices": itemSet(map[reconcile.Key]reconcile.Fields{
			"A": {"hostname": "A", "status": "active"},
			"B": {"hostname": "B", "status": "active"},
		}),
	}}
	col := &stubCollection{
		name:    "devices",
		compare: []string{"status"},
		items: map[reconcile.Key]reconcile.Fields{
			"B": {"hostname": "B", "status": "offline"},
			"C": {"hostname": "C", "status": "active"},
		},
	}

	svc := newTestService(origin, col, nil)

	report, err := svc.Run(context.Background(), "devices")
	require.NoError(t, err)

	assert.Equal(t, syncfeature.ModeApply, report.Mode)
	assert.Equal(t, 2, report.Target)
	assert.Equal(t, []reconcile.Key{"A"}, col.created)
	assert.Equal(t, []reconcile.Key{"B"}, col.updated)

	// The stub has no delete capability: the extra partition must be
	// recorded as unsupported without stopping create and update.
	require.Len(t, report.Partitions, 3)
	var deletePartition *syncfeature.PartitionReport
	for i := range report.Partitions {
		if report.Partitions[i].Operation == "delete" {
			deletePartition = &report.Partitions[i]
		}
	}
	require.NotNil(t, deletePartition)
	assert.Contains(t, deletePartition.Error, "not supported")
	assert.False(t, report.Clean)
}

func TestService_RunInSync(t *testing.T) {
	items := map[reconcile.Key]reconcile.Fields{
		"A": {"hostname": "A", "status": "active"},
	}
	origin := &stubOrigin{sets: map[string]*reconcile.ItemSet{"devices": itemSet(items)}}
	col := &stubCollection{name: "devices", compare: []string{"status"}, items: items}

	svc := newTestService(origin, col, nil)

	report, err := svc.Run(context.Background(), "devices")
	require.NoError(t, err)
	assert.True(t, report.InSync())
	assert.True(t, report.Clean)
	assert.Empty(t, report.Partitions)
}

func TestService_FetchErrorAbortsCycle(t *testing.T) {
	origin := &stubOrigin{}
	col := &stubCollection{name: "devices", fetchErr: errors.New("netbox down")}

	svc := newTestService(origin, col, nil)

	report, err := svc.Run(context.Background(), "devices")
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "netbox down")
	assert.Empty(t, svc.LastReports(), "an aborted cycle must not leave a report")
}

func TestService_UnknownCollection(t *testing.T) {
	svc := newTestService(&stubOrigin{}, nil, nil)

	_, err := svc.Plan(context.Background(), "vlans")
	assert.ErrorContains(t, err, "unknown collection")
}

func TestService_DeviceScopedCollections(t *testing.T) {
	origin := &stubOrigin{hostnames: []string{"sw1", "sw2"}}
	col := &stubCollection{name: "interfaces", compare: []string{"description"}}

	svc := newTestService(origin, col, nil)

	_, err := svc.Plan(context.Background(), "interfaces")
	require.NoError(t, err)
	assert.Equal(t, []string{"sw1", "sw2"}, col.gotScope.Devices,
		"interface fetches must be scoped to the inventory's devices")
}

func TestService_ArchivesReports(t *testing.T) {
	store := &storagemocks.Client{}
	store.On("PutObject", mock.Anything, "reports-bucket", mock.MatchedBy(func(name string) bool {
		return len(name) > 0
	}), mock.Anything, mock.Anything, mock.Anything).Return(minio.UploadInfo{}, nil)

	archive := syncfeature.NewArchive(store, "reports-bucket", 0, zap.NewNop())

	origin := &stubOrigin{}
	col := &stubCollection{name: "sites", compare: []string{"name"}}

	svc := newTestService(origin, col, archive)

	_, err := svc.Plan(context.Background(), "sites")
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "PutObject", 1)
}

func TestService_ArchiveFailureDoesNotFailRun(t *testing.T) {
	store := &storagemocks.Client{}
	store.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("storage down"))

	archive := syncfeature.NewArchive(store, "reports-bucket", 0, zap.NewNop())

	origin := &stubOrigin{}
	col := &stubCollection{name: "sites", compare: []string{"name"}}

	svc := newTestService(origin, col, archive)

	report, err := svc.Plan(context.Background(), "sites")
	require.NoError(t, err, "archiving is best effort")
	assert.NotNil(t, report)
}
