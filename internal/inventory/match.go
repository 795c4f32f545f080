package inventory

import (
	"sort"
	"strings"

	"cabin-network-backend/internal/model"
)

// FilterAll is the no-op value of the type and status filters.
const FilterAll = "all"

// Filters narrows the grid independently of the search text.
type Filters struct {
	Type   string `form:"type" json:"type"`
	Port   string `form:"port" json:"port"`
	Status string `form:"status" json:"status"`
}

// DefaultFilters lets every workstation through.
func DefaultFilters() Filters {
	return Filters{Type: FilterAll, Status: FilterAll}
}

// withDefaults maps empty type/status to "all".
func (f Filters) withDefaults() Filters {
	if f.Type == "" {
		f.Type = FilterAll
	}
	if f.Status == "" {
		f.Status = FilterAll
	}
	return f
}

// IsDefault reports whether no filter is set.
func (f Filters) IsDefault() bool {
	f = f.withDefaults()
	return f.Type == FilterAll && f.Port == "" && f.Status == FilterAll
}

// Query is the search text and filters currently applied to the grid.
type Query struct {
	Text    string  `form:"q" json:"q"`
	Filters Filters `json:"filters"`
}

// Matcher decides which workstations and cabins satisfy a Query. Build one
// per query and reuse it across the snapshot.
type Matcher struct {
	raw     string
	q       string
	filters Filters
}

// NewMatcher cleans the query text once.
func NewMatcher(q Query) *Matcher {
	return &Matcher{
		raw:     q.Text,
		q:       Clean(q.Text),
		filters: q.Filters.withDefaults(),
	}
}

// Active reports whether non-matching workstations should be suppressed.
func (m *Matcher) Active() bool {
	return m.raw != "" || !m.filters.IsDefault()
}

// CabinDirect reports whether the cabin identifier contains the query. An
// empty query never matches directly.
func (m *Matcher) CabinDirect(c model.Cabin) bool {
	return m.q != "" && strings.Contains(Clean(c.Number), m.q)
}

// DeviceDirect reports whether any device name of the cabin contains the
// query. An empty query never matches directly.
func (m *Matcher) DeviceDirect(c model.Cabin) bool {
	if m.q == "" {
		return false
	}
	for _, d := range c.Devices {
		if strings.Contains(Clean(d.Name), m.q) {
			return true
		}
	}
	return false
}

// TextMatch checks the workstation's own fields against the query.
func (m *Matcher) TextMatch(t model.Table, pcKey string, pc model.PC) bool {
	if m.q == "" {
		return true
	}
	if strings.Contains(CompositeID(t.Name, pcKey), m.q) || strings.Contains(pcKey, m.q) {
		return true
	}
	return pc.SourceDeviceName != "" && strings.Contains(Clean(pc.SourceDeviceName), m.q)
}

// TypeMatch resolves the uplink by exact device name inside the cabin. A
// stale reference never passes a non-"all" filter.
func (m *Matcher) TypeMatch(c model.Cabin, pc model.PC) bool {
	if m.filters.Type == FilterAll {
		return true
	}
	if pc.SourceDeviceName == "" {
		return false
	}
	d, ok := c.DeviceByName(pc.SourceDeviceName)
	return ok && string(d.Type) == m.filters.Type
}

// PortMatch compares port labels verbatim.
func (m *Matcher) PortMatch(pc model.PC) bool {
	return m.filters.Port == "" || pc.Port == m.filters.Port
}

// StatusMatch compares the status verbatim.
func (m *Matcher) StatusMatch(pc model.PC) bool {
	return m.filters.Status == FilterAll || string(pc.Status) == m.filters.Status
}

// FiltersMatch combines the type, port and status filters.
func (m *Matcher) FiltersMatch(c model.Cabin, pc model.PC) bool {
	return m.TypeMatch(c, pc) && m.PortMatch(pc) && m.StatusMatch(pc)
}

// Match is the effective match of a workstation: its own text match, or
// the cabin matching directly, combined with every filter.
func (m *Matcher) Match(c model.Cabin, t model.Table, pcKey string, pc model.PC) bool {
	text := m.TextMatch(t, pcKey, pc) || m.CabinDirect(c)
	return text && m.FiltersMatch(c, pc)
}

// CabinQualifies decides whether the cabin is listed at all.
func (m *Matcher) CabinQualifies(c model.Cabin) bool {
	if m.CabinDirect(c) || m.DeviceDirect(c) {
		return true
	}
	for _, t := range c.Tables {
		for key, pc := range t.PCs {
			if m.Match(c, t, key, pc) {
				return true
			}
		}
	}
	return false
}

// Hit locates one workstation found by the global search.
type Hit struct {
	Zone         model.Zone     `json:"zone"`
	CabinID      string         `json:"cabinId"`
	CabinNumber  string         `json:"cabin"`
	TableID      string         `json:"tableId"`
	TableName    string         `json:"table"`
	PCID         string         `json:"pcId"`
	PC           model.PC       `json:"pc"`
	Path         string         `json:"path"`
	CabinDevices []model.Device `json:"cabinDevices"`
}

// Ref returns the store reference of the hit.
func (h Hit) Ref() model.PCRef {
	return model.PCRef{
		TableRef: model.TableRef{
			CabinRef: model.CabinRef{Zone: h.Zone, CabinID: h.CabinID},
			TableID:  h.TableID,
		},
		PCID: h.PCID,
	}
}

// FindExact returns the first workstation whose composite id equals the
// cleaned query. Zones are scanned RA then RB, cabins and tables by key,
// workstations by index, and the scan stops at the first hit.
func FindExact(snap model.Snapshot, query string) (Hit, bool) {
	q := Clean(query)
	if q == "" {
		return Hit{}, false
	}
	var found Hit
	ok := Walk(snap, func(w Workstation) bool {
		if CompositeID(w.Table.Name, w.PCID) != q {
			return true
		}
		found = w.Hit()
		return false
	})
	return found, !ok
}

// Workstation is one visited position during a Walk.
type Workstation struct {
	Zone    model.Zone
	CabinID string
	Cabin   model.Cabin
	TableID string
	Table   model.Table
	PCID    string
	PC      model.PC
}

// Hit converts the position into a search result.
func (w Workstation) Hit() Hit {
	h := Hit{
		Zone:         w.Zone,
		CabinID:      w.CabinID,
		CabinNumber:  w.Cabin.Number,
		TableID:      w.TableID,
		TableName:    w.Table.Name,
		PCID:         w.PCID,
		PC:           w.PC,
		CabinDevices: w.Cabin.Devices,
	}
	h.Path = h.Ref().Path()
	return h
}

// Walk visits every workstation in deterministic order until fn returns
// false. It reports whether the walk ran to completion.
func Walk(snap model.Snapshot, fn func(Workstation) bool) bool {
	for _, z := range model.Zones {
		cabins := snap.Zone(z)
		for _, cid := range sortedKeys(cabins) {
			c := cabins[cid]
			for _, tid := range sortedKeys(c.Tables) {
				t := c.Tables[tid]
				for _, pid := range pcKeys(t.PCs, false) {
					w := Workstation{Zone: z, CabinID: cid, Cabin: c, TableID: tid, Table: t, PCID: pid, PC: t.PCs[pid]}
					if !fn(w) {
						return false
					}
				}
			}
		}
	}
	return true
}

// ListByStatus returns every workstation with the given status.
func ListByStatus(snap model.Snapshot, status model.Status) []Hit {
	out := []Hit{}
	Walk(snap, func(w Workstation) bool {
		if w.PC.Status == status {
			out = append(out, w.Hit())
		}
		return true
	})
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pcKeys orders workstation keys by their numeric index, then by key.
func pcKeys(pcs map[string]model.PC, descending bool) []string {
	keys := sortedKeys(pcs)
	sort.SliceStable(keys, func(i, j int) bool {
		a, b := pcs[keys[i]].Index, pcs[keys[j]].Index
		if descending {
			return a > b
		}
		return a < b
	})
	return keys
}
