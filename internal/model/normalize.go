package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"cabin-network-backend/internal/parse"
)

// Normalize turns a raw value read from the tree at ZonesPath into a total
// Snapshot. Missing or malformed substructure becomes the empty state;
// Normalize never fails.
func Normalize(raw any) Snapshot {
	snap := EmptySnapshot()
	zones := asMap(raw)
	for _, z := range Zones {
		for id, c := range asMap(zones[string(z)]) {
			snap.Zones[z][id] = normalizeCabin(z, c)
		}
	}
	return snap
}

// NormalizeCabin normalizes a single cabin subtree.
func NormalizeCabin(z Zone, raw any) Cabin {
	return normalizeCabin(z, raw)
}

func normalizeCabin(z Zone, raw any) Cabin {
	m := asMap(raw)
	c := Cabin{
		Number:    asString(m["number"]),
		Type:      z,
		CreatedAt: asInt64(m["createdAt"]),
		Devices:   normalizeDevices(m["devices"]),
		Tables:    make(map[string]Table),
	}
	for id, t := range asMap(m["tables"]) {
		c.Tables[id] = normalizeTable(id, t)
	}
	return c
}

func normalizeTable(key string, raw any) Table {
	m := asMap(raw)
	t := Table{
		Name: asString(m["name"]),
		PCs:  make(map[string]PC),
	}
	t.Index, _ = parse.KeyIndex(key)
	for id, p := range asMap(m["pcs"]) {
		t.PCs[id] = normalizePC(id, p)
	}
	return t
}

func normalizePC(key string, raw any) PC {
	m := asMap(raw)
	pc := PC{
		Status:           StatusOffline,
		Port:             asString(m["port"]),
		SourceDeviceName: asString(m["sourceDeviceName"]),
	}
	// Anything other than "connected" counts as offline; there is no third state.
	if Status(asString(m["status"])) == StatusConnected {
		pc.Status = StatusConnected
	}
	pc.Index, _ = parse.KeyIndex(key)
	return pc
}

// normalizeDevices accepts a list or a sparse index map, which is how
// array-valued nodes come back from tree stores once an element is removed.
func normalizeDevices(raw any) []Device {
	devices := []Device{}
	switch v := raw.(type) {
	case []any:
		for _, d := range v {
			if d == nil {
				continue
			}
			devices = append(devices, normalizeDevice(d))
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return parse.NaturalLess(keys[i], keys[j]) })
		for _, k := range keys {
			if v[k] == nil {
				continue
			}
			devices = append(devices, normalizeDevice(v[k]))
		}
	}
	return devices
}

func normalizeDevice(raw any) Device {
	m := asMap(raw)
	return Device{
		ID:    asString(m["id"]),
		Type:  DeviceType(asString(m["type"])),
		Name:  asString(m["name"]),
		Ports: asString(m["ports"]),
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int, int64, bool:
		return fmt.Sprint(x)
	}
	return ""
}

func asInt64(v any) int64 {
	switch x := v.(type) {
	case float64:
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case json.Number:
		n, _ := x.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(x, 10, 64)
		return n
	}
	return 0
}

// ToTree converts a typed value into the JSON-like form stored in the tree:
// map[string]any, []any, string, float64, bool or nil.
func ToTree(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree value: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("failed to decode tree value: %w", err)
	}
	return out, nil
}
