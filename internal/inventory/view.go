package inventory

import (
	"sort"

	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/parse"
)

// PCView is one workstation cell of the grid.
type PCView struct {
	ID     string   `json:"id"`
	Number string   `json:"number"`
	PC     model.PC `json:"pc"`
	Path   string   `json:"path"`
	Match  bool     `json:"match"`
	Dimmed bool     `json:"dimmed"`
}

// TableView is one row of workstations.
type TableView struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Path string   `json:"path"`
	PCs  []PCView `json:"pcs"`
}

// CabinView is a cabin card with its derived state.
type CabinView struct {
	ID            string         `json:"id"`
	Number        string         `json:"number"`
	Zone          model.Zone     `json:"zone"`
	CreatedAt     int64          `json:"createdAt"`
	Devices       []model.Device `json:"devices"`
	PrimarySwitch *model.Device  `json:"primarySwitch,omitempty"`
	Progress      CabinProgress  `json:"progress"`
	DirectMatch   bool           `json:"directMatch"`
	Expanded      bool           `json:"expanded"`
	Tables        []TableView    `json:"tables"`
}

// ZoneView is the grid of one zone for the current query.
type ZoneView struct {
	Zone         model.Zone  `json:"zone"`
	Side         string      `json:"side"`
	SearchActive bool        `json:"searchActive"`
	Cabins       []CabinView `json:"cabins"`
}

// BuildZoneView lists the qualifying cabins of z, ordered naturally by
// number, with tables and workstations in display order.
func BuildZoneView(snap model.Snapshot, z model.Zone, q Query) ZoneView {
	m := NewMatcher(q)
	view := ZoneView{Zone: z, Side: z.Side(), SearchActive: m.Active(), Cabins: []CabinView{}}

	cabins := snap.Zone(z)
	for _, id := range sortedKeys(cabins) {
		c := cabins[id]
		if !m.CabinQualifies(c) {
			continue
		}
		view.Cabins = append(view.Cabins, buildCabinView(m, z, id, c))
	}
	sort.SliceStable(view.Cabins, func(i, j int) bool {
		return parse.NaturalLess(view.Cabins[i].Number, view.Cabins[j].Number)
	})
	return view
}

func buildCabinView(m *Matcher, z model.Zone, id string, c model.Cabin) CabinView {
	ref := model.CabinRef{Zone: z, CabinID: id}
	cv := CabinView{
		ID:          id,
		Number:      c.Number,
		Zone:        z,
		CreatedAt:   c.CreatedAt,
		Devices:     c.Devices,
		Progress:    ComputeCabinProgress(c),
		DirectMatch: m.CabinDirect(c),
		Expanded:    m.Active(),
		Tables:      []TableView{},
	}
	for i := range c.Devices {
		if c.Devices[i].Type.IsSwitch() {
			d := c.Devices[i]
			cv.PrimarySwitch = &d
			break
		}
	}

	for _, tid := range SortedTableIDs(c) {
		t := c.Tables[tid]
		tref := model.TableRef{CabinRef: ref, TableID: tid}
		tv := TableView{ID: tid, Name: t.Name, Path: tref.Path(), PCs: []PCView{}}
		for _, pid := range pcKeys(t.PCs, z.Descending()) {
			pc := t.PCs[pid]
			match := m.Match(c, t, pid, pc)
			tv.PCs = append(tv.PCs, PCView{
				ID:     pid,
				Number: pcNumber(pid),
				PC:     pc,
				Path:   model.PCRef{TableRef: tref, PCID: pid}.Path(),
				Match:  match,
				Dimmed: m.Active() && !match,
			})
		}
		cv.Tables = append(cv.Tables, tv)
	}
	return cv
}

// SortedTableIDs orders the cabin's tables naturally by name, then by the
// index embedded in the key, then by key.
func SortedTableIDs(c model.Cabin) []string {
	ids := sortedKeys(c.Tables)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := c.Tables[ids[i]], c.Tables[ids[j]]
		if cmp := parse.NaturalCompare(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.Index < b.Index
	})
	return ids
}

// pcNumber is the display label of a workstation key ("pc3" -> "3").
func pcNumber(key string) string {
	if len(key) > 2 && key[:2] == "pc" {
		return key[2:]
	}
	return key
}
