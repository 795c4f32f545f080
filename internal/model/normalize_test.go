package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmptyInputs(t *testing.T) {
	testCases := []struct {
		name string
		raw  any
	}{
		{name: "nil", raw: nil},
		{name: "empty map", raw: map[string]any{}},
		{name: "wrong type", raw: "zones"},
		{name: "zone is null", raw: map[string]any{"RA": nil, "RB": nil}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := Normalize(tc.raw)
			require.NotNil(t, snap.Zones[ZoneA])
			require.NotNil(t, snap.Zones[ZoneB])
			assert.Empty(t, snap.Zones[ZoneA])
			assert.Empty(t, snap.Zones[ZoneB])
		})
	}
}

func TestNormalize_PartialCabin(t *testing.T) {
	raw := map[string]any{
		"RA": map[string]any{
			"c1": map[string]any{"number": "R-01"},
			"c2": map[string]any{
				"number":    float64(7),
				"type":      "RB",
				"createdAt": float64(1700000000000),
				"tables": map[string]any{
					"table1": map[string]any{"name": "Row 1A"},
					"table2": map[string]any{
						"name": "Row 2A",
						"pcs": map[string]any{
							"pc1": map[string]any{"status": "connected", "port": "7", "sourceDeviceName": "SW-1"},
							"pc2": map[string]any{},
							"pc3": map[string]any{"status": "idle"},
						},
					},
				},
			},
		},
	}

	snap := Normalize(raw)

	c1 := snap.Zones[ZoneA]["c1"]
	assert.Equal(t, "R-01", c1.Number)
	assert.NotNil(t, c1.Tables)
	assert.NotNil(t, c1.Devices)
	assert.Empty(t, c1.Devices)

	c2 := snap.Zones[ZoneA]["c2"]
	assert.Equal(t, "7", c2.Number)
	assert.Equal(t, ZoneA, c2.Type, "zone tag follows the containing zone")
	assert.Equal(t, int64(1700000000000), c2.CreatedAt)
	assert.NotNil(t, c2.Tables["table1"].PCs)
	assert.Equal(t, 1, c2.Tables["table1"].Index)

	pcs := c2.Tables["table2"].PCs
	assert.Equal(t, PC{Status: StatusConnected, Port: "7", SourceDeviceName: "SW-1", Index: 1}, pcs["pc1"])
	assert.Equal(t, StatusOffline, pcs["pc2"].Status)
	assert.Equal(t, StatusOffline, pcs["pc3"].Status)
	assert.Equal(t, 3, pcs["pc3"].Index)
}

func TestNormalize_DevicesAsListOrSparseMap(t *testing.T) {
	list := []any{
		map[string]any{"id": "x1", "type": "Manage", "name": "SW-Manage-1", "ports": "24"},
		nil,
		map[string]any{"id": "x2", "type": "POE", "name": "SW-POE", "ports": float64(12)},
	}
	sparse := map[string]any{
		"10": map[string]any{"id": "x3", "name": "third"},
		"2":  map[string]any{"id": "x2", "name": "second"},
		"0":  map[string]any{"id": "x1", "name": "first"},
	}

	fromList := normalizeDevices(list)
	require.Len(t, fromList, 2)
	assert.Equal(t, Device{ID: "x2", Type: DevicePOE, Name: "SW-POE", Ports: "12"}, fromList[1])

	fromMap := normalizeDevices(sparse)
	require.Len(t, fromMap, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{fromMap[0].Name, fromMap[1].Name, fromMap[2].Name})
}

func TestToTree(t *testing.T) {
	v, err := ToTree(Table{Name: "Row 1A", PCs: map[string]PC{"pc1": {Status: StatusOffline, Index: 1}}})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name": "Row 1A",
		"pcs": map[string]any{
			"pc1": map[string]any{"status": "offline"},
		},
	}, v)
}

func TestRefs_Path(t *testing.T) {
	pc := PCRef{TableRef: TableRef{CabinRef: CabinRef{Zone: ZoneB, CabinID: "c9"}, TableID: "table2"}, PCID: "pc4"}
	assert.Equal(t, "zones/RB", ZonePath(ZoneB))
	assert.Equal(t, "zones/RB/c9", pc.CabinRef.Path())
	assert.Equal(t, "zones/RB/c9/tables/table2", pc.TableRef.Path())
	assert.Equal(t, "zones/RB/c9/tables/table2/pcs/pc4", pc.Path())
}

func TestRefs_PathKeepsDotSegments(t *testing.T) {
	ref := TableRef{CabinRef: CabinRef{Zone: ZoneA, CabinID: "."}, TableID: ".."}
	assert.Equal(t, "zones/RA/./tables/..", ref.Path())
}

func TestValidKey(t *testing.T) {
	testCases := []struct {
		key  string
		want bool
	}{
		{"0190c7a2-5f3e-7c3a-9d1e-2b4f6a8c0e12", true},
		{"table1700000000001", true},
		{"pc12", true},
		{"", false},
		{".", false},
		{"..", false},
		{"a/b", false},
		{"a.b", false},
		{"$key", false},
		{"a#b", false},
		{"a[0]", false},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidKey(tc.key))
		})
	}
}

func TestTemplateFor(t *testing.T) {
	tmpl, ok := TemplateFor(DeviceRouter)
	require.True(t, ok)
	assert.Equal(t, "12", tmpl.Ports[0])
	assert.True(t, tmpl.SupportsPorts("12"))
	assert.False(t, tmpl.SupportsPorts("24"))

	_, ok = TemplateFor(DeviceType("Hub"))
	assert.False(t, ok)
}

func TestParseZone(t *testing.T) {
	z, ok := ParseZone("A-side")
	assert.True(t, ok)
	assert.Equal(t, ZoneA, z)
	z, ok = ParseZone("RB")
	assert.True(t, ok)
	assert.Equal(t, ZoneB, z)
	_, ok = ParseZone("RC")
	assert.False(t, ok)
	assert.Equal(t, "B", ZoneB.Suffix())
	assert.True(t, ZoneB.Descending())
	assert.False(t, ZoneA.Descending())
}
