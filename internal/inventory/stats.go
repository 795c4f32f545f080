package inventory

import (
	"sort"

	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/parse"
)

// Stats is the overview of the whole inventory.
type Stats struct {
	TotalCabins    int `json:"totalCabins"`
	TotalDevices   int `json:"totalDevices"`
	ConnectedCount int `json:"connectedCount"`
	OfflineCount   int `json:"offlineCount"`
}

// Workstations is the total number of workstations counted.
func (s Stats) Workstations() int {
	return s.ConnectedCount + s.OfflineCount
}

// ComputeStats walks both zones once.
func ComputeStats(snap model.Snapshot) Stats {
	var s Stats
	for _, z := range model.Zones {
		cabins := snap.Zone(z)
		s.TotalCabins += len(cabins)
		for _, c := range cabins {
			s.TotalDevices += len(c.Devices)
			for _, t := range c.Tables {
				for _, pc := range t.PCs {
					if pc.Status == model.StatusConnected {
						s.ConnectedCount++
					} else {
						s.OfflineCount++
					}
				}
			}
		}
	}
	return s
}

// CabinProgress is the share of connected workstations in one cabin.
type CabinProgress struct {
	ActiveCount int     `json:"activeCount"`
	TotalCount  int     `json:"totalCount"`
	Percent     float64 `json:"percent"`
}

// ComputeCabinProgress reports 0 percent for a cabin without workstations.
func ComputeCabinProgress(c model.Cabin) CabinProgress {
	var p CabinProgress
	for _, t := range c.Tables {
		p.TotalCount += len(t.PCs)
		for _, pc := range t.PCs {
			if pc.Status == model.StatusConnected {
				p.ActiveCount++
			}
		}
	}
	if p.TotalCount > 0 {
		p.Percent = 100 * float64(p.ActiveCount) / float64(p.TotalCount)
	}
	return p
}

// CabinSummary is one line of the per-zone network summary.
type CabinSummary struct {
	CabinID      string         `json:"cabinId"`
	DisplayName  string         `json:"displayName"`
	TableCount   int            `json:"tableCount"`
	OnlineCount  int            `json:"onlineCount"`
	OfflineCount int            `json:"offlineCount"`
	UsedPorts    []string       `json:"usedPorts"`
	Switches     []model.Device `json:"switches"`
}

// ComputeZoneSummary summarizes every cabin of z, ordered naturally by
// display name.
func ComputeZoneSummary(snap model.Snapshot, z model.Zone) []CabinSummary {
	cabins := snap.Zone(z)
	out := make([]CabinSummary, 0, len(cabins))
	for id, c := range cabins {
		sum := CabinSummary{
			CabinID:     id,
			DisplayName: c.Number,
			TableCount:  len(c.Tables),
			UsedPorts:   []string{},
			Switches:    []model.Device{},
		}
		for _, d := range c.Devices {
			if d.Type.IsSwitch() {
				sum.Switches = append(sum.Switches, d)
			}
		}
		var ports []string
		for _, t := range c.Tables {
			for _, pc := range t.PCs {
				if pc.Status == model.StatusConnected {
					sum.OnlineCount++
				} else {
					sum.OfflineCount++
				}
				if pc.Port != "" {
					ports = append(ports, pc.Port)
				}
			}
		}
		sum.UsedPorts = sortPorts(ports)
		out = append(out, sum)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := parse.NaturalCompare(out[i].DisplayName, out[j].DisplayName); c != 0 {
			return c < 0
		}
		return out[i].CabinID < out[j].CabinID
	})
	return out
}

// sortPorts orders port labels numerically when both parse as integers and
// lexicographically otherwise, then drops duplicates.
func sortPorts(ports []string) []string {
	sort.SliceStable(ports, func(i, j int) bool { return portLess(ports[i], ports[j]) })
	out := []string{}
	seen := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func portLess(a, b string) bool {
	na, okA := parse.LeadingInt(a)
	nb, okB := parse.LeadingInt(b)
	if okA && okB {
		if na != nb {
			return na < nb
		}
		return a < b
	}
	return a < b
}
