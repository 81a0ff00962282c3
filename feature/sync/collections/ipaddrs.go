package collections

import (
	"context"
	"fmt"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
)

var ipAddressCompareFields = []string{FieldInterface}

// IPAddresses reconciles inventory IP addresses against NetBox IPAM.
// The address keeps its prefix length; the assignment (hostname,
// interface) is what updates move around.
type IPAddresses struct {
	opts Options

	records []netbox.Record
	set     *reconcile.ItemSet
}

// NewIPAddresses returns an address collection for one run.
func NewIPAddresses(opts Options) *IPAddresses {
	return &IPAddresses{opts: opts}
}

func (a *IPAddresses) Name() string { return NameIPAddresses }

func (a *IPAddresses) CompareFields() []string { return ipAddressCompareFields }

func (a *IPAddresses) Fetch(ctx context.Context, scope reconcile.Scope) error {
	records, err := a.opts.Client.Paginate(ctx, netbox.PathIPAddresses, filterValues(scope.Filters))
	if err != nil {
		return err
	}
	a.records = records
	a.set = nil
	return nil
}

func (a *IPAddresses) ItemSet() (*reconcile.ItemSet, error) {
	if a.set == nil {
		a.set = reconcile.Build(a.records, a.itemize, IPAddressKey)
	}
	return a.set, nil
}

// itemize leaves the assignment fields empty when the address is not
// bound to an interface; such records key under a bare hostname and
// surface as extra until something claims them.
func (a *IPAddresses) itemize(rec netbox.Record) reconcile.Fields {
	addr := rec.Str("address")
	if addr == "" {
		return nil
	}
	if !rec.Has("assigned_object") {
		return reconcile.Fields{
			FieldIPAddr:    addr,
			FieldHostname:  "",
			FieldInterface: "",
		}
	}
	return reconcile.Fields{
		FieldIPAddr:    addr,
		FieldHostname:  a.opts.hostname(rec.Str("assigned_object", "device", "name")),
		FieldInterface: rec.Str("assigned_object", "name"),
	}
}

// PlanCreate resolves the target interfaces once, then hands out POST
// tasks that create the address already assigned. Loopback interfaces
// get the loopback address role.
func (a *IPAddresses) PlanCreate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	table, err := a.interfaceTable(ctx, items)
	if err != nil {
		return nil, err
	}

	log := a.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		ifRec, ok := table[netbox.InterfaceRef{Device: item[FieldHostname], Name: item[FieldInterface]}]
		if !ok {
			log.Warn("ip address create skipped",
				zap.String("ipaddr", item[FieldIPAddr]),
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "interface not in netbox"))
			return nil
		}

		payload := map[string]any{
			"address":              item[FieldIPAddr],
			"assigned_object_type": "dcim.interface",
			"assigned_object_id":   ifRec.ID(),
		}
		if isLoopback(item[FieldInterface]) {
			payload["role"] = "loopback"
		}
		return func(ctx context.Context) (any, error) {
			resp, err := a.opts.Client.Post(ctx, netbox.PathIPAddresses, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

// PlanUpdate supports exactly one kind of change: re-assigning the
// address to another interface.
func (a *IPAddresses) PlanUpdate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	table, err := a.interfaceTable(ctx, items)
	if err != nil {
		return nil, err
	}

	log := a.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		ifRec, ok := table[netbox.InterfaceRef{Device: item[FieldHostname], Name: item[FieldInterface]}]
		if !ok {
			log.Warn("ip address update skipped",
				zap.String("ipaddr", item[FieldIPAddr]),
				zap.String("hostname", item[FieldHostname]),
				zap.String("interface", item[FieldInterface]),
				zap.String("reason", "interface not in netbox"))
			return nil
		}

		rec, ok := a.record(key)
		if !ok {
			log.Warn("ip address update skipped",
				zap.String("ipaddr", item[FieldIPAddr]),
				zap.String("reason", "no fetched record"))
			return nil
		}

		payload := map[string]any{
			"address":              item[FieldIPAddr],
			"assigned_object_type": "dcim.interface",
			"assigned_object_id":   ifRec.ID(),
		}
		path := fmt.Sprintf("%s%d/", netbox.PathIPAddresses, rec.ID())
		return func(ctx context.Context) (any, error) {
			resp, err := a.opts.Client.Patch(ctx, path, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

// PlanDelete removes addresses the inventory no longer claims.
func (a *IPAddresses) PlanDelete(_ context.Context, _ map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	log := a.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		rec, ok := a.record(key)
		if !ok {
			log.Warn("ip address delete skipped",
				zap.String("ipaddr", item[FieldIPAddr]),
				zap.String("reason", "no fetched record"))
			return nil
		}

		path := fmt.Sprintf("%s%d/", netbox.PathIPAddresses, rec.ID())
		return func(ctx context.Context) (any, error) {
			if _, err := a.opts.Client.Delete(ctx, path); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}, nil
}

func (a *IPAddresses) interfaceTable(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (map[netbox.InterfaceRef]netbox.Record, error) {
	refs := make([]netbox.InterfaceRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, netbox.InterfaceRef{
			Device: item[FieldHostname],
			Name:   item[FieldInterface],
		})
	}
	return a.opts.Client.InterfaceTable(ctx, refs)
}

func (a *IPAddresses) record(key reconcile.Key) (netbox.Record, bool) {
	if a.set == nil {
		return nil, false
	}
	rec, ok := a.set.Record(key).(netbox.Record)
	return rec, ok
}
