package collections

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var interfaceCompareFields = []string{FieldDescription}

// Interfaces reconciles inventory interfaces against NetBox dcim
// interfaces. NetBox cannot enumerate interfaces efficiently without a
// device filter, so fetches fan out per device from the scope.
type Interfaces struct {
	opts Options

	mu      sync.Mutex
	records []netbox.Record
	set     *reconcile.ItemSet
}

// NewInterfaces returns an interface collection for one run.
func NewInterfaces(opts Options) *Interfaces {
	return &Interfaces{opts: opts}
}

func (i *Interfaces) Name() string { return NameInterfaces }

func (i *Interfaces) CompareFields() []string { return interfaceCompareFields }

// Fetch loads interface records per scope device concurrently. An empty
// device scope falls back to one global listing.
func (i *Interfaces) Fetch(ctx context.Context, scope reconcile.Scope) error {
	i.records = nil
	i.set = nil

	if len(scope.Devices) == 0 {
		records, err := i.opts.Client.Paginate(ctx, netbox.PathInterfaces, filterValues(scope.Filters))
		if err != nil {
			return err
		}
		i.records = records
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, device := range scope.Devices {
		if device == "" {
			continue
		}
		device := device
		g.Go(func() error {
			params := filterValues(scope.Filters)
			params.Set("device", device)
			records, err := i.opts.Client.Paginate(ctx, netbox.PathInterfaces, params)
			if err != nil {
				return err
			}
			i.mu.Lock()
			i.records = append(i.records, records...)
			i.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

func (i *Interfaces) ItemSet() (*reconcile.ItemSet, error) {
	if i.set == nil {
		i.set = reconcile.Build(i.records, i.itemize, InterfaceKey)
	}
	return i.set, nil
}

func (i *Interfaces) itemize(rec netbox.Record) reconcile.Fields {
	host := rec.Str("device", "name")
	name := rec.Str("name")
	if host == "" || name == "" {
		return nil
	}
	return reconcile.Fields{
		FieldHostname:    i.opts.hostname(host),
		FieldInterface:   name,
		FieldDescription: rec.Str("description"),
	}
}

// PlanCreate resolves the parent device ids once, then hands out POST
// tasks. Items whose device does not exist in NetBox yet are skipped; a
// device sync run has to land first.
func (i *Interfaces) PlanCreate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	hostnames := make([]string, 0, len(items))
	for _, item := range items {
		hostnames = append(hostnames, item[FieldHostname])
	}
	devices, err := i.opts.Client.DeviceTable(ctx, hostnames)
	if err != nil {
		return nil, err
	}

	log := i.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		device, ok := devices[item[FieldHostname]]
		if !ok {
			log.Warn("interface create skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "device not in netbox"))
			return nil
		}

		payload := map[string]any{
			"device":      device.ID(),
			"name":        item[FieldInterface],
			"description": item[FieldDescription],
			"type":        interfaceType(item[FieldInterface]),
		}
		return func(ctx context.Context) (any, error) {
			resp, err := i.opts.Client.Post(ctx, netbox.PathInterfaces, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

// PlanUpdate patches the description, the only mutable interface field.
func (i *Interfaces) PlanUpdate(_ context.Context, _ map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	log := i.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		rec, ok := i.record(key)
		if !ok {
			log.Warn("interface update skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "no fetched record"))
			return nil
		}

		path := fmt.Sprintf("%s%d/", netbox.PathInterfaces, rec.ID())
		payload := map[string]any{"description": item[FieldDescription]}
		return func(ctx context.Context) (any, error) {
			resp, err := i.opts.Client.Patch(ctx, path, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

func (i *Interfaces) record(key reconcile.Key) (netbox.Record, bool) {
	if i.set == nil {
		return nil, false
	}
	rec, ok := i.set.Record(key).(netbox.Record)
	return rec, ok
}

// filterValues converts scope filters into query parameters.
func filterValues(filters map[string]string) url.Values {
	params := url.Values{}
	for k, v := range filters {
		params.Set(k, v)
	}
	return params
}
