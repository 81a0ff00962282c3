package inventory

// Row types for the collector tables. The table name is supplied per
// profile at query time, so these carry column mappings only.

// DeviceRow is one inventory device.
type DeviceRow struct {
	ID       int    `gorm:"primaryKey;column:id"`
	Hostname string `gorm:"column:hostname"`
	Serial   string `gorm:"column:serial"`
	IPAddr   string `gorm:"column:ip_addr"`
	Site     string `gorm:"column:site"`
	OSName   string `gorm:"column:os_name"`
	Vendor   string `gorm:"column:vendor"`
	Model    string `gorm:"column:model"`
	Status   string `gorm:"column:status"`
}

// InterfaceRow is one inventory interface.
type InterfaceRow struct {
	ID          int    `gorm:"primaryKey;column:id"`
	Hostname    string `gorm:"column:hostname"`
	IfName      string `gorm:"column:if_name"`
	Description string `gorm:"column:description"`
}

// IPAddressRow is one assigned address. IPAddr keeps its prefix length,
// matching the address form NetBox stores.
type IPAddressRow struct {
	ID       int    `gorm:"primaryKey;column:id"`
	Hostname string `gorm:"column:hostname"`
	IfName   string `gorm:"column:if_name"`
	IPAddr   string `gorm:"column:ip_addr"`
}

// PortChannelRow is one LAG member interface.
type PortChannelRow struct {
	ID       int    `gorm:"primaryKey;column:id"`
	Hostname string `gorm:"column:hostname"`
	IfName   string `gorm:"column:if_name"`
	PortChan string `gorm:"column:portchan"`
}
