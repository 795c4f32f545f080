package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJoin(t *testing.T) {
	assert.Equal(t, []string{"zones", "RA", "c1"}, Split("/zones//RA/c1/"))
	assert.Empty(t, Split(""))
	assert.Equal(t, "zones/RA/c1", Join("zones", "/RA/", "c1"))
	assert.Equal(t, "", Join())
}

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Get(ctx, "zones")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "zones/RA/c1", map[string]any{"number": "R-01"}))
	v, err := m.Get(ctx, "zones/RA/c1/number")
	require.NoError(t, err)
	assert.Equal(t, "R-01", v)

	// Values returned from Get are copies.
	got, err := m.Get(ctx, "zones/RA/c1")
	require.NoError(t, err)
	got.(map[string]any)["number"] = "changed"
	v, _ = m.Get(ctx, "zones/RA/c1/number")
	assert.Equal(t, "R-01", v)
}

func TestMemory_SetNormalizesStructs(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	type pc struct {
		Status string `json:"status"`
		Port   int    `json:"port"`
	}
	require.NoError(t, m.Set(ctx, "pcs/pc1", pc{Status: "connected", Port: 7}))

	v, err := m.Get(ctx, "pcs/pc1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "connected", "port": float64(7)}, v)
}

func TestMemory_UpdateMergesFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "pc", map[string]any{"status": "offline", "port": "", "sourceDeviceName": ""}))

	require.NoError(t, m.Update(ctx, "pc", map[string]any{"status": "connected"}))

	v, err := m.Get(ctx, "pc")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "connected", "port": "", "sourceDeviceName": ""}, v)

	require.NoError(t, m.Update(ctx, "", map[string]any{"pc/port": "12"}))
	v, _ = m.Get(ctx, "pc/port")
	assert.Equal(t, "12", v)
}

func TestMemory_RemovePrunesEmptyParents(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "zones/RA/c1/tables/t1/name", "Row 1A"))
	require.NoError(t, m.Set(ctx, "zones/RB/c2/number", "R-02"))

	require.NoError(t, m.Remove(ctx, "zones/RA/c1/tables/t1/name"))

	_, err := m.Get(ctx, "zones/RA")
	assert.ErrorIs(t, err, ErrNotFound)
	v, err := m.Get(ctx, "zones/RB/c2/number")
	require.NoError(t, err)
	assert.Equal(t, "R-02", v)

	// Removing something absent is not an error.
	assert.NoError(t, m.Remove(ctx, "zones/RA/nothing/here"))
}

func TestMemory_PushKeysAreOrdered(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.Push(ctx, "zones/RA", map[string]any{"number": "R-01"})
	require.NoError(t, err)
	second, err := m.Push(ctx, "zones/RA", map[string]any{"number": "R-02"})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)

	v, err := m.Get(ctx, Join("zones/RA", second, "number"))
	require.NoError(t, err)
	assert.Equal(t, "R-02", v)
}

func TestMemory_Subscribe(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Set(ctx, "zones/RA/c1/number", "R-01"))

	var seen []any
	unsubscribe, err := m.Subscribe("zones", func(v any) { seen = append(seen, v) })
	require.NoError(t, err)

	// Initial value is delivered synchronously.
	require.Len(t, seen, 1)
	assert.Equal(t, map[string]any{"RA": map[string]any{"c1": map[string]any{"number": "R-01"}}}, seen[0])

	require.NoError(t, m.Set(ctx, "zones/RA/c1/number", "R-09"))
	require.NoError(t, m.Set(ctx, "other/path", "ignored"))
	require.NoError(t, m.Remove(ctx, "zones"))
	require.Len(t, seen, 3)
	assert.Equal(t, "R-09", seen[1].(map[string]any)["RA"].(map[string]any)["c1"].(map[string]any)["number"])
	assert.Nil(t, seen[2])

	unsubscribe()
	require.NoError(t, m.Set(ctx, "zones/RA/c1/number", "R-10"))
	assert.Len(t, seen, 3)
}

func TestMemory_SubscribeAncestorWrite(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var seen []any
	_, err := m.Subscribe("zones/RA", func(v any) { seen = append(seen, v) })
	require.NoError(t, err)

	require.NoError(t, m.Set(ctx, "", map[string]any{"zones": map[string]any{"RA": map[string]any{"c1": "x"}}}))
	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, map[string]any{"c1": "x"}, seen[1])
}

func TestMemory_ExportImport(t *testing.T) {
	src := NewMemory()
	ctx := context.Background()
	require.NoError(t, src.Set(ctx, "zones/RB/c1/number", "R-02"))

	body, err := src.Export()
	require.NoError(t, err)

	dst := NewMemory()
	var seen []any
	_, err = dst.Subscribe("zones/RB/c1/number", func(v any) { seen = append(seen, v) })
	require.NoError(t, err)

	require.NoError(t, dst.Import(ctx, body))
	assert.Equal(t, []any{nil, "R-02"}, seen)

	assert.Error(t, dst.Import(ctx, []byte("not json")))
}

func TestMemory_CanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Set(ctx, "a", 1), context.Canceled)
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
}
