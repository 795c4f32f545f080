package inventory

import "cabin-network-backend/internal/model"

// Transition is a workstation whose status changed between two snapshots.
type Transition struct {
	Hit
	From model.Status `json:"from"`
	To   model.Status `json:"to"`
}

// Transitions lists the workstations present in both snapshots whose status
// differs. Added or removed workstations are not transitions.
func Transitions(prev, next model.Snapshot) []Transition {
	var out []Transition
	Walk(next, func(w Workstation) bool {
		before, ok := lookup(prev, w)
		if ok && before.Status != w.PC.Status {
			out = append(out, Transition{Hit: w.Hit(), From: before.Status, To: w.PC.Status})
		}
		return true
	})
	return out
}

func lookup(snap model.Snapshot, w Workstation) (model.PC, bool) {
	c, ok := snap.Zone(w.Zone)[w.CabinID]
	if !ok {
		return model.PC{}, false
	}
	t, ok := c.Tables[w.TableID]
	if !ok {
		return model.PC{}, false
	}
	pc, ok := t.PCs[w.PCID]
	return pc, ok
}
