package inventory

import (
	"context"
	"fmt"

	"netbox-sync/core/reconcile"
	"netbox-sync/core/utils"
	"netbox-sync/feature/sync/collections"

	"gorm.io/gorm"
)

// Loader builds origin item sets from the inventory database. It is
// read-only: reconciliation never writes back to the inventory.
type Loader struct {
	db      *gorm.DB
	profile Profile
	strip   []string
}

// NewLoader returns a loader for the named schema profile.
func NewLoader(db *gorm.DB, profileName string, stripDomains []string) (*Loader, error) {
	profile, err := LookupProfile(profileName)
	if err != nil {
		return nil, err
	}
	return &Loader{db: db, profile: profile, strip: stripDomains}, nil
}

// Profile returns the loader's schema profile.
func (l *Loader) Profile() Profile {
	return l.profile
}

// Load builds the origin item set for the named collection.
func (l *Loader) Load(ctx context.Context, collection string) (*reconcile.ItemSet, error) {
	switch collection {
	case collections.NameDevices:
		return l.Devices(ctx)
	case collections.NameInterfaces:
		return l.Interfaces(ctx)
	case collections.NameIPAddresses:
		return l.IPAddresses(ctx)
	case collections.NameSites:
		return l.Sites(ctx)
	case collections.NamePortChannels:
		return l.PortChannels(ctx)
	default:
		return nil, fmt.Errorf("inventory: unknown collection %q", collection)
	}
}

func (l *Loader) hostname(name string) string {
	return utils.NormalizeHostname(name, l.strip...)
}

// Devices loads the device origin set. The primary address is stored
// bare in the inventory, matching the prefix-stripped NetBox projection.
func (l *Loader) Devices(ctx context.Context) (*reconcile.ItemSet, error) {
	var rows []DeviceRow
	if err := l.db.WithContext(ctx).Table(l.profile.DeviceTable).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory: load devices: %w", err)
	}

	return reconcile.Build(rows, func(row DeviceRow) reconcile.Fields {
		host := l.hostname(row.Hostname)
		if host == "" {
			return nil
		}
		return reconcile.Fields{
			collections.FieldHostname: host,
			collections.FieldSerial:   row.Serial,
			collections.FieldIPAddr:   row.IPAddr,
			collections.FieldSite:     utils.Slugify(row.Site),
			collections.FieldOSName:   row.OSName,
			collections.FieldVendor:   row.Vendor,
			collections.FieldModel:    row.Model,
			collections.FieldStatus:   row.Status,
		}
	}, collections.DeviceKey), nil
}

// Interfaces loads the interface origin set.
func (l *Loader) Interfaces(ctx context.Context) (*reconcile.ItemSet, error) {
	var rows []InterfaceRow
	if err := l.db.WithContext(ctx).Table(l.profile.InterfaceTable).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory: load interfaces: %w", err)
	}

	return reconcile.Build(rows, func(row InterfaceRow) reconcile.Fields {
		host := l.hostname(row.Hostname)
		if host == "" || row.IfName == "" {
			return nil
		}
		return reconcile.Fields{
			collections.FieldHostname:    host,
			collections.FieldInterface:   row.IfName,
			collections.FieldDescription: row.Description,
		}
	}, collections.InterfaceKey), nil
}

// IPAddresses loads the address origin set.
func (l *Loader) IPAddresses(ctx context.Context) (*reconcile.ItemSet, error) {
	var rows []IPAddressRow
	if err := l.db.WithContext(ctx).Table(l.profile.IPAddressTable).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory: load ip addresses: %w", err)
	}

	return reconcile.Build(rows, func(row IPAddressRow) reconcile.Fields {
		host := l.hostname(row.Hostname)
		if host == "" || row.IPAddr == "" {
			return nil
		}
		return reconcile.Fields{
			collections.FieldIPAddr:    row.IPAddr,
			collections.FieldHostname:  host,
			collections.FieldInterface: row.IfName,
		}
	}, collections.IPAddressKey), nil
}

// Sites derives the site origin set from the distinct device sites; the
// inventory has no site table of its own.
func (l *Loader) Sites(ctx context.Context) (*reconcile.ItemSet, error) {
	var sites []string
	err := l.db.WithContext(ctx).
		Table(l.profile.DeviceTable).
		Distinct("site").
		Where("site <> ''").
		Pluck("site", &sites).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: load sites: %w", err)
	}

	return reconcile.Build(sites, func(site string) reconcile.Fields {
		slug := utils.Slugify(site)
		if slug == "" {
			return nil
		}
		return reconcile.Fields{collections.FieldName: slug}
	}, collections.SiteKey), nil
}

// PortChannels loads the LAG membership origin set.
func (l *Loader) PortChannels(ctx context.Context) (*reconcile.ItemSet, error) {
	var rows []PortChannelRow
	if err := l.db.WithContext(ctx).Table(l.profile.PortChannelTable).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("inventory: load port channels: %w", err)
	}

	return reconcile.Build(rows, func(row PortChannelRow) reconcile.Fields {
		host := l.hostname(row.Hostname)
		if host == "" || row.IfName == "" {
			return nil
		}
		return reconcile.Fields{
			collections.FieldHostname:    host,
			collections.FieldInterface:   row.IfName,
			collections.FieldPortChannel: row.PortChan,
		}
	}, collections.PortChannelKey), nil
}

// Hostnames returns the normalized device hostnames, used to scope
// per-device fetches on the NetBox side.
func (l *Loader) Hostnames(ctx context.Context) ([]string, error) {
	var names []string
	err := l.db.WithContext(ctx).
		Table(l.profile.DeviceTable).
		Where("hostname <> ''").
		Pluck("hostname", &names).Error
	if err != nil {
		return nil, fmt.Errorf("inventory: load hostnames: %w", err)
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		host := l.hostname(name)
		if host == "" {
			continue
		}
		if _, dup := seen[host]; dup {
			continue
		}
		seen[host] = struct{}{}
		out = append(out, host)
	}
	return out, nil
}
