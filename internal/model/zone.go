package model

// Zone identifies one of the two top-level partitions of the venue.
type Zone string

const (
	ZoneA Zone = "RA"
	ZoneB Zone = "RB"
)

// Zones lists every zone in traversal order.
var Zones = []Zone{ZoneA, ZoneB}

// ParseZone accepts the store key ("RA"), the side label ("A-side") or the
// bare letter ("A").
func ParseZone(s string) (Zone, bool) {
	switch s {
	case "RA", "A-side", "A", "a":
		return ZoneA, true
	case "RB", "B-side", "B", "b":
		return ZoneB, true
	}
	return "", false
}

// Valid reports whether z is one of the known zones.
func (z Zone) Valid() bool {
	return z == ZoneA || z == ZoneB
}

// Side returns the human label of the zone.
func (z Zone) Side() string {
	if z == ZoneB {
		return "B-side"
	}
	return "A-side"
}

// Suffix is the letter appended to default table names.
func (z Zone) Suffix() string {
	if z == ZoneB {
		return "B"
	}
	return "A"
}

// Descending reports whether workstations in this zone are laid out right
// to left, mirroring the physical room.
func (z Zone) Descending() bool {
	return z == ZoneB
}
