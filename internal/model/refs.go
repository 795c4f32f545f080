package model

import "strings"

// ZonesPath is the root of the inventory in the store.
const ZonesPath = "zones"

// ValidKey reports whether key can name a single node in the tree. Dot
// segments are rejected because they would address an ancestor, and the
// remaining characters are the ones realtime-database keys may not hold.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/.$#[]")
}

// ZonePath is the cabin collection of z.
func ZonePath(z Zone) string {
	return ZonesPath + "/" + string(z)
}

// CabinRef addresses one cabin.
type CabinRef struct {
	Zone    Zone   `json:"zone"`
	CabinID string `json:"cabinId"`
}

// Path joins the segments verbatim; callers validate ids with ValidKey.
func (r CabinRef) Path() string {
	return ZonePath(r.Zone) + "/" + r.CabinID
}

// TableRef addresses one table.
type TableRef struct {
	CabinRef
	TableID string `json:"tableId"`
}

func (r TableRef) Path() string {
	return r.CabinRef.Path() + "/tables/" + r.TableID
}

// PCsPath is the workstation collection of the table.
func (r TableRef) PCsPath() string {
	return r.Path() + "/pcs"
}

// PCRef addresses one workstation.
type PCRef struct {
	TableRef
	PCID string `json:"pcId"`
}

func (r PCRef) Path() string {
	return r.TableRef.PCsPath() + "/" + r.PCID
}
