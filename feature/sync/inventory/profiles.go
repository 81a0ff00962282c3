package inventory

import "fmt"

// Profile names the inventory tables one collector layout writes.
// Column names are identical across profiles; only table naming differs
// between collector generations.
type Profile struct {
	// Name identifies the profile in configuration.
	Name string

	// DeviceTable holds one row per device.
	DeviceTable string
	// InterfaceTable holds one row per device interface.
	InterfaceTable string
	// IPAddressTable holds one row per assigned address.
	IPAddressTable string
	// PortChannelTable holds one row per LAG member interface.
	PortChannelTable string
}

const (
	// ProfileStandard is the layout the current collector writes.
	ProfileStandard = "standard"
	// ProfileLegacy is the pre-migration layout with net_-prefixed tables.
	ProfileLegacy = "legacy"
)

var profiles = map[string]Profile{
	ProfileStandard: {
		Name:             ProfileStandard,
		DeviceTable:      "devices",
		InterfaceTable:   "interfaces",
		IPAddressTable:   "ip_addresses",
		PortChannelTable: "port_channel_members",
	},
	ProfileLegacy: {
		Name:             ProfileLegacy,
		DeviceTable:      "net_devices",
		InterfaceTable:   "net_interfaces",
		IPAddressTable:   "net_ip_addresses",
		PortChannelTable: "net_port_channel_members",
	},
}

// LookupProfile resolves a configured profile name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown inventory profile %q", name)
	}
	return p, nil
}

// ProfileNames lists the known profiles.
func ProfileNames() []string {
	return []string{ProfileStandard, ProfileLegacy}
}

// RequiredColumns maps each profile table to the columns the loader
// reads. The preflight check verifies these before a sync run so a
// schema drift surfaces as a clear report, not an empty origin set.
func (p Profile) RequiredColumns() map[string][]string {
	return map[string][]string{
		p.DeviceTable:      {"hostname", "serial", "ip_addr", "site", "os_name", "vendor", "model", "status"},
		p.InterfaceTable:   {"hostname", "if_name", "description"},
		p.IPAddressTable:   {"hostname", "if_name", "ip_addr"},
		p.PortChannelTable: {"hostname", "if_name", "portchan"},
	}
}
