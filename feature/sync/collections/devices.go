package collections

import (
	"context"
	"fmt"
	"net/url"

	"netbox-sync/core/netbox"
	"netbox-sync/core/reconcile"

	"go.uber.org/zap"
)

// deviceCompareFields drives device change detection. Hostname is the
// key, so it never appears here.
var deviceCompareFields = []string{
	FieldSerial, FieldIPAddr, FieldSite, FieldOSName,
	FieldVendor, FieldModel, FieldStatus,
}

// Devices reconciles inventory devices against NetBox dcim devices.
// Creation resolves reference tables once per run; updates can act only
// on the primary IP, other drift is skipped neutrally; deletion is not
// supported, decommissioning stays a manual decision.
type Devices struct {
	opts Options

	records []netbox.Record
	set     *reconcile.ItemSet
}

// NewDevices returns a device collection for one run.
func NewDevices(opts Options) *Devices {
	return &Devices{opts: opts}
}

func (d *Devices) Name() string { return NameDevices }

func (d *Devices) CompareFields() []string { return deviceCompareFields }

// Fetch loads every named device. Unnamed records cannot be keyed and
// config contexts would bloat each record with data nothing compares.
func (d *Devices) Fetch(ctx context.Context, scope reconcile.Scope) error {
	params := url.Values{}
	params.Set("exclude", "config_context")
	params.Set("name__n", "null")
	for k, v := range scope.Filters {
		params.Set(k, v)
	}

	records, err := d.opts.Client.Paginate(ctx, netbox.PathDevices, params)
	if err != nil {
		return err
	}
	d.records = records
	d.set = nil
	return nil
}

func (d *Devices) ItemSet() (*reconcile.ItemSet, error) {
	if d.set == nil {
		d.set = reconcile.Build(d.records, d.itemize, DeviceKey)
	}
	return d.set, nil
}

func (d *Devices) itemize(rec netbox.Record) reconcile.Fields {
	name := rec.Str("name")
	if name == "" {
		return nil
	}
	return reconcile.Fields{
		FieldSerial:   rec.Str("serial"),
		FieldHostname: d.opts.hostname(name),
		FieldIPAddr:   netbox.BareAddress(rec.Str("primary_ip", "address")),
		FieldSite:     rec.Str("site", "slug"),
		FieldOSName:   rec.Str("platform", "slug"),
		FieldVendor:   rec.Str("device_type", "manufacturer", "slug"),
		FieldModel:    rec.Str("device_type", "slug"),
		FieldStatus:   rec.Str("status", "value"),
	}
}

// PlanCreate resolves the reference tables a device document needs, then
// hands out POST tasks. Items whose model, site or platform has no
// NetBox counterpart are skipped; creating those references is out of
// scope for a sync run.
func (d *Devices) PlanCreate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	deviceTypes, err := d.opts.slugTable(ctx, netbox.PathDeviceTypes)
	if err != nil {
		return nil, err
	}
	sites, err := d.opts.slugTable(ctx, netbox.PathSites)
	if err != nil {
		return nil, err
	}
	platforms, err := d.opts.slugTable(ctx, netbox.PathPlatforms)
	if err != nil {
		return nil, err
	}
	roleID, err := d.unassignedRoleID(ctx)
	if err != nil {
		return nil, err
	}

	log := d.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		typeID, ok := deviceTypes[item[FieldModel]]
		if !ok {
			log.Warn("device create skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("reason", "unknown device type"),
				zap.String("model", item[FieldModel]))
			return nil
		}
		siteID, ok := sites[item[FieldSite]]
		if !ok {
			log.Warn("device create skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("reason", "unknown site"),
				zap.String("site", item[FieldSite]))
			return nil
		}
		platformID, ok := platforms[item[FieldOSName]]
		if !ok {
			log.Warn("device create skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("reason", "unknown platform"),
				zap.String("platform", item[FieldOSName]))
			return nil
		}

		payload := map[string]any{
			"name":        item[FieldHostname],
			"serial":      item[FieldSerial],
			"device_role": roleID,
			"platform":    platformID,
			"site":        siteID,
			"device_type": typeID,
		}
		return func(ctx context.Context) (any, error) {
			resp, err := d.opts.Client.Post(ctx, netbox.PathDevices, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

// PlanUpdate acts on primary IP drift only. The changed addresses are
// resolved to IPAM records up front; items whose address is not in IPAM
// yet, or whose drift is in a field updates cannot fix, are skipped.
func (d *Devices) PlanUpdate(ctx context.Context, items map[reconcile.Key]reconcile.Fields) (reconcile.TaskConstructor, error) {
	addrs := make([]string, 0, len(items))
	for _, item := range items {
		if addr := item[FieldIPAddr]; addr != "" {
			addrs = append(addrs, addr)
		}
	}
	ipRecords, err := d.opts.Client.IPAddressTable(ctx, addrs)
	if err != nil {
		return nil, err
	}

	log := d.opts.logger()
	return func(key reconcile.Key, item reconcile.Fields) reconcile.Task {
		payload := map[string]any{}

		if addr := item[FieldIPAddr]; addr != "" {
			ipRec, ok := ipRecords[addr]
			if !ok {
				log.Warn("device update skipped",
					zap.String("hostname", item[FieldHostname]),
					zap.String("reason", "primary ip not in ipam"),
					zap.String("ipaddr", addr))
				return nil
			}
			payload["primary_ip4"] = ipRec.ID()
		}

		if len(payload) == 0 {
			log.Debug("device update skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("reason", "no actionable field drift"))
			return nil
		}

		rec, ok := d.record(key)
		if !ok {
			log.Warn("device update skipped",
				zap.String("hostname", item[FieldHostname]),
				zap.String("reason", "no fetched record"))
			return nil
		}

		path := fmt.Sprintf("%s%d/", netbox.PathDevices, rec.ID())
		return func(ctx context.Context) (any, error) {
			resp, err := d.opts.Client.Patch(ctx, path, payload)
			if err != nil {
				return nil, err
			}
			return resp.Record()
		}
	}, nil
}

func (d *Devices) record(key reconcile.Key) (netbox.Record, bool) {
	if d.set == nil {
		return nil, false
	}
	rec, ok := d.set.Record(key).(netbox.Record)
	return rec, ok
}

func (d *Devices) unassignedRoleID(ctx context.Context) (int, error) {
	records, err := d.opts.Client.Paginate(ctx, netbox.PathDeviceRoles, url.Values{"slug": []string{"unassigned"}})
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, fmt.Errorf("device role %q not defined in netbox", "unassigned")
	}
	return records[0].ID(), nil
}
