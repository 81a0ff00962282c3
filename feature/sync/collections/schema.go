package collections

import (
	"strings"

	"netbox-sync/core/reconcile"
)

// Canonical item field names. The origin inventory and the NetBox
// projections must emit exactly these names for the same meanings, or
// keys and compare fields stop lining up.
const (
	FieldHostname    = "hostname"
	FieldInterface   = "interface"
	FieldIPAddr      = "ipaddr"
	FieldSerial      = "sn"
	FieldSite        = "site"
	FieldOSName      = "os_name"
	FieldVendor      = "vendor"
	FieldModel       = "model"
	FieldStatus      = "status"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPortChannel = "portchan"
)

// Key builders, shared by both sides of every diff.

// DeviceKey keys a device item by hostname.
func DeviceKey(item reconcile.Fields) reconcile.Key {
	return reconcile.MakeKey(item[FieldHostname])
}

// InterfaceKey keys an interface item by (hostname, interface).
func InterfaceKey(item reconcile.Fields) reconcile.Key {
	return reconcile.MakeKey(item[FieldHostname], item[FieldInterface])
}

// IPAddressKey keys an address item by (hostname, ipaddr). The interface
// is deliberately not part of the key: re-assigning an address to another
// interface is an update, not a delete plus create.
func IPAddressKey(item reconcile.Fields) reconcile.Key {
	return reconcile.MakeKey(item[FieldHostname], item[FieldIPAddr])
}

// SiteKey keys a site item by its slug.
func SiteKey(item reconcile.Fields) reconcile.Key {
	return reconcile.MakeKey(item[FieldName])
}

// PortChannelKey keys a member item by (hostname, interface). The LAG
// name is the compared field: moving a member between port-channels is
// an update of that member.
func PortChannelKey(item reconcile.Fields) reconcile.Key {
	return reconcile.MakeKey(item[FieldHostname], item[FieldInterface])
}

// interfaceType maps an interface name to the NetBox interface type slug.
// Name-prefix heuristics: vlans and loopbacks are virtual, port-channels
// are LAGs, everything else is reported as other.
func interfaceType(name string) string {
	if name == "" {
		return "other"
	}
	switch strings.ToLower(name[:1]) {
	case "v", "l":
		return "virtual"
	case "p":
		return "lag"
	default:
		return "other"
	}
}

// isLoopback reports whether the interface name denotes a loopback.
func isLoopback(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "loopback")
}
