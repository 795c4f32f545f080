package inventory

import (
	"encoding/csv"
	"io"
	"sort"

	"cabin-network-backend/internal/model"
)

// Placeholder shown for an unset uplink or port.
const emptyCell = "-"

// ReportHeader is the header row of the CSV export.
var ReportHeader = []string{"Zone", "Cabin ID", "Table", "PC", "Status", "Uplink Device", "Port"}

// Row is one workstation in the flat inventory report.
type Row struct {
	Zone    model.Zone   `json:"zone"`
	CabinID string       `json:"cabinId"`
	Table   string       `json:"table"`
	PC      string       `json:"pc"`
	Status  model.Status `json:"status"`
	Uplink  string       `json:"uplink"`
	Port    string       `json:"port"`
}

// Rows flattens the snapshot into one row per workstation.
func Rows(snap model.Snapshot) []Row {
	rows := []Row{}
	Walk(snap, func(w Workstation) bool {
		r := Row{
			Zone:    w.Zone,
			CabinID: w.Cabin.Number,
			Table:   w.Table.Name,
			PC:      w.PCID,
			Status:  w.PC.Status,
			Uplink:  w.PC.SourceDeviceName,
			Port:    w.PC.Port,
		}
		if r.Uplink == "" {
			r.Uplink = emptyCell
		}
		if r.Port == "" {
			r.Port = emptyCell
		}
		rows = append(rows, r)
		return true
	})
	return rows
}

// ReportFilter selects rows of the report.
type ReportFilter struct {
	Zone   string `form:"zone" json:"zone"`
	Switch string `form:"switch" json:"switch"`
	Status string `form:"status" json:"status"`
}

// Match reports whether r passes the filter. Empty fields and "all" zone or
// status mean no filter. Switch is matched literally since "all" is a valid
// device name.
func (f ReportFilter) Match(r Row) bool {
	if f.Zone != "" && f.Zone != FilterAll && string(r.Zone) != f.Zone {
		return false
	}
	if f.Switch != "" && r.Uplink != f.Switch {
		return false
	}
	if f.Status != "" && f.Status != FilterAll && string(r.Status) != f.Status {
		return false
	}
	return true
}

// FilterRows keeps the rows that pass f.
func FilterRows(rows []Row, f ReportFilter) []Row {
	out := []Row{}
	for _, r := range rows {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// UniqueSwitches lists the distinct uplink names in use, sorted.
func UniqueSwitches(rows []Row) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		if r.Uplink != emptyCell {
			seen[r.Uplink] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ReportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{string(r.Zone), r.CabinID, r.Table, r.PC, string(r.Status), r.Uplink, r.Port}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
