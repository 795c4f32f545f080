package model

// DeviceType is the kind of uplink hardware.
type DeviceType string

const (
	DeviceManage DeviceType = "Manage"
	DeviceRouter DeviceType = "Router"
	DevicePOE    DeviceType = "POE"
)

// IsSwitch reports whether the device counts as a primary switch in zone
// summaries.
func (t DeviceType) IsSwitch() bool {
	return t == DeviceManage || t == DeviceRouter
}

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	return t == DeviceManage || t == DeviceRouter || t == DevicePOE
}

// Status is the connectivity state of a workstation.
type Status string

const (
	StatusConnected Status = "connected"
	StatusOffline   Status = "offline"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusConnected || s == StatusOffline
}

// Default layout applied to newly created cabins and tables.
const (
	DefaultTablesPerCabin = 8
	DefaultPCsPerTable    = 6
)

// Device is a switch or router mounted in a cabin.
type Device struct {
	ID    string     `json:"id"`
	Type  DeviceType `json:"type"`
	Name  string     `json:"name"`
	Ports string     `json:"ports"`
}

// PC is a single workstation. SourceDeviceName joins to Device.Name, not to
// Device.ID, so renaming a device leaves existing references stale.
type PC struct {
	Status           Status `json:"status"`
	Port             string `json:"port,omitempty"`
	SourceDeviceName string `json:"sourceDeviceName,omitempty"`

	// Index is the numeric suffix of the workstation key.
	Index int `json:"-"`
}

// Table is a row of seats inside a cabin.
type Table struct {
	Name string        `json:"name"`
	PCs  map[string]PC `json:"pcs"`

	Index int `json:"-"`
}

// Cabin is a physical rack holding tables and uplink devices.
type Cabin struct {
	Number    string           `json:"number"`
	Type      Zone             `json:"type"`
	CreatedAt int64            `json:"createdAt"`
	Devices   []Device         `json:"devices"`
	Tables    map[string]Table `json:"tables"`
}

// DeviceByName resolves a workstation uplink reference against the cabin's
// device list.
func (c Cabin) DeviceByName(name string) (Device, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}

// Snapshot is the normalized view of the whole inventory. Every collection
// is non-nil.
type Snapshot struct {
	Zones map[Zone]map[string]Cabin `json:"zones"`
}

// EmptySnapshot returns a snapshot with both zones present and empty.
func EmptySnapshot() Snapshot {
	return Snapshot{Zones: map[Zone]map[string]Cabin{
		ZoneA: {},
		ZoneB: {},
	}}
}

// Zone returns the cabins of z, never nil.
func (s Snapshot) Zone(z Zone) map[string]Cabin {
	if c, ok := s.Zones[z]; ok && c != nil {
		return c
	}
	return map[string]Cabin{}
}

// DeviceTemplate describes a device kind offered in the cabin wizard.
type DeviceTemplate struct {
	Label       string     `json:"label"`
	Type        DeviceType `json:"type"`
	Ports       []string   `json:"ports"`
	DefaultName string     `json:"defaultName"`
}

// DeviceTemplates is the catalogue of supported uplink hardware.
var DeviceTemplates = []DeviceTemplate{
	{Label: "Manage Switch", Type: DeviceManage, Ports: []string{"12", "24", "48"}, DefaultName: "SW-Manage"},
	{Label: "Router", Type: DeviceRouter, Ports: []string{"12"}, DefaultName: "Router-Main"},
	{Label: "POE Switch", Type: DevicePOE, Ports: []string{"12", "24", "48"}, DefaultName: "SW-POE"},
}

// TemplateFor returns the catalogue entry for t.
func TemplateFor(t DeviceType) (DeviceTemplate, bool) {
	for _, tmpl := range DeviceTemplates {
		if tmpl.Type == t {
			return tmpl, true
		}
	}
	return DeviceTemplate{}, false
}

// SupportsPorts reports whether ports is one of the template's port counts.
func (t DeviceTemplate) SupportsPorts(ports string) bool {
	for _, p := range t.Ports {
		if p == ports {
			return true
		}
	}
	return false
}
