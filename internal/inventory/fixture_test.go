package inventory

import (
	"fmt"

	"cabin-network-backend/internal/model"
)

// pcs builds n offline workstations keyed pc1..pcN.
func pcs(n int) map[string]any {
	out := make(map[string]any, n)
	for i := 1; i <= n; i++ {
		out[fmt.Sprintf("pc%d", i)] = map[string]any{"status": "offline"}
	}
	return out
}

func table(name string, workstations map[string]any) map[string]any {
	return map[string]any{"name": name, "pcs": workstations}
}

func cabin(number string, devices []any, tables map[string]any) map[string]any {
	return map[string]any{"number": number, "devices": devices, "tables": tables}
}

func device(id, typ, name string) map[string]any {
	return map[string]any{"id": id, "type": typ, "name": name, "ports": "24"}
}

// sampleSnapshot is a two-zone inventory used across the tests.
func sampleSnapshot() model.Snapshot {
	row2B := pcs(6)
	row2B["pc4"] = map[string]any{"status": "connected", "port": "7", "sourceDeviceName": "SW-Manage-1"}
	row2B["pc5"] = map[string]any{"status": "connected", "port": "12", "sourceDeviceName": "SW-POE"}

	return model.Normalize(map[string]any{
		"RA": map[string]any{
			"a1": cabin("R-01", []any{device("d1", "Router", "Router-Main")}, map[string]any{
				"table1": table("Row 1A", pcs(6)),
				"table2": table("Row 2A", pcs(6)),
			}),
			"a2": cabin("R-10", nil, map[string]any{}),
		},
		"RB": map[string]any{
			"b1": cabin("R-02", []any{
				device("d2", "Manage", "SW-Manage-1"),
				device("d3", "POE", "SW-POE"),
			}, map[string]any{
				"table2": table("Row 2B", row2B),
			}),
		},
	})
}
