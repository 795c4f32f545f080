package mutation

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cabin-network-backend/internal/inventory"
	"cabin-network-backend/internal/metrics"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/session"
	"cabin-network-backend/internal/tree"
)

type fixture struct {
	tree    *tree.Memory
	session *session.Session
	facade  *Facade
	metrics *metrics.Metrics
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		tree:    tree.NewMemory(),
		metrics: metrics.New(prometheus.NewRegistry()),
		clock:   time.UnixMilli(1700000000000),
	}
	f.session = session.New(f.tree, zap.NewNop())
	require.NoError(t, f.session.Start())
	t.Cleanup(f.session.Stop)

	// Every reading of the clock advances it, so generated keys never collide.
	f.facade = New(f.tree, zap.NewNop(), f.metrics, WithClock(func() time.Time {
		f.clock = f.clock.Add(time.Millisecond)
		return f.clock
	}))
	return f
}

func (f *fixture) cabin(ref model.CabinRef) model.Cabin {
	return f.session.Snapshot().Zone(ref.Zone)[ref.CabinID]
}

func tableNames(c model.Cabin) []string {
	var names []string
	for _, t := range c.Tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func TestCreateCabin_DefaultLayout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)

	c := f.cabin(ref)
	assert.Equal(t, "R-01", c.Number)
	assert.Equal(t, model.ZoneA, c.Type)
	assert.Equal(t, int64(1700000000001), c.CreatedAt)
	assert.Empty(t, c.Devices)
	require.Len(t, c.Tables, 8)
	assert.Equal(t, []string{"Row 1A", "Row 2A", "Row 3A", "Row 4A", "Row 5A", "Row 6A", "Row 7A", "Row 8A"}, tableNames(c))
	for _, tbl := range c.Tables {
		require.Len(t, tbl.PCs, 6)
		for _, pc := range tbl.PCs {
			assert.Equal(t, model.StatusOffline, pc.Status)
		}
	}

	stats := inventory.ComputeStats(f.session.Snapshot())
	assert.Equal(t, 48, stats.OfflineCount)
	assert.Equal(t, 0, stats.ConnectedCount)

	// Deleting one table removes exactly its six workstations.
	var row3 string
	for id, tbl := range c.Tables {
		if tbl.Name == "Row 3A" {
			row3 = id
		}
	}
	require.NoError(t, f.facade.DeleteTable(ctx, model.TableRef{CabinRef: ref, TableID: row3}))
	c = f.cabin(ref)
	assert.Len(t, c.Tables, 7)
	assert.NotContains(t, tableNames(c), "Row 3A")
	assert.Equal(t, 42, inventory.ComputeStats(f.session.Snapshot()).OfflineCount)
}

func TestCreateCabin_ZoneBNamesAndDevices(t *testing.T) {
	f := newFixture(t)

	devices := []model.Device{
		{Type: model.DeviceManage, Name: "SW-Manage-1", Ports: "24"},
		{ID: "fixed", Type: model.DevicePOE, Name: "SW-POE", Ports: "12"},
	}
	ref, err := f.facade.CreateCabin(context.Background(), "R-02", model.ZoneB, devices)
	require.NoError(t, err)

	c := f.cabin(ref)
	assert.Contains(t, tableNames(c), "Row 1B")
	require.Len(t, c.Devices, 2)
	assert.Regexp(t, regexp.MustCompile(`^\d{13}[0-9a-z]{5}$`), c.Devices[0].ID)
	assert.Equal(t, "fixed", c.Devices[1].ID)
	assert.Equal(t, "SW-Manage-1", c.Devices[0].Name)
}

func TestCreateCabin_DefaultsDevicePorts(t *testing.T) {
	f := newFixture(t)

	devices := []model.Device{
		{Type: model.DevicePOE, Name: "SW-POE"},
		{Type: model.DeviceManage, Name: "SW-Manage", Ports: "48"},
	}
	ref, err := f.facade.CreateCabin(context.Background(), "R-03", model.ZoneA, devices)
	require.NoError(t, err)

	c := f.cabin(ref)
	require.Len(t, c.Devices, 2)
	assert.Equal(t, "12", c.Devices[0].Ports)
	assert.Equal(t, "48", c.Devices[1].Ports)
}

func TestCreateCabin_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.facade.CreateCabin(ctx, "  ", model.ZoneA, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.facade.CreateCabin(ctx, "R-01", model.Zone("RC"), nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.facade.CreateCabin(ctx, "R-01", model.ZoneA, []model.Device{{Type: "Hub", Name: "x"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.facade.CreateCabin(ctx, "R-01", model.ZoneA, []model.Device{{Type: model.DeviceRouter}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Routers only come with 12 ports.
	_, err = f.facade.CreateCabin(ctx, "R-01", model.ZoneA, []model.Device{{Type: model.DeviceRouter, Name: "Router-Main", Ports: "24"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.facade.CreateCabin(ctx, "R-01", model.ZoneA, []model.Device{{Type: model.DeviceManage, Name: "SW-Manage", Ports: "999"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Empty(t, f.session.Snapshot().Zone(model.ZoneA))
	assert.Equal(t, 6.0, testutil.ToFloat64(f.metrics.MutationsTotal.WithLabelValues("create_cabin", "invalid")))
}

func TestRenameCabin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, f.facade.RenameCabin(ctx, ref, ""), ErrInvalidArgument)
	assert.ErrorIs(t, f.facade.RenameCabin(ctx, ref, "R-01"), ErrInvalidArgument)
	assert.ErrorIs(t, f.facade.RenameCabin(ctx, model.CabinRef{Zone: model.ZoneA, CabinID: "missing"}, "R-09"), ErrNotFound)

	require.NoError(t, f.facade.RenameCabin(ctx, ref, "R-09"))
	c := f.cabin(ref)
	assert.Equal(t, "R-09", c.Number)
	assert.Len(t, c.Tables, 8)
}

func TestDeleteCabin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)

	require.NoError(t, f.facade.DeleteCabin(ctx, ref))
	assert.Empty(t, f.session.Snapshot().Zone(model.ZoneA))

	assert.ErrorIs(t, f.facade.DeleteCabin(ctx, model.CabinRef{Zone: model.ZoneA, CabinID: "a/b"}), ErrInvalidArgument)
}

func TestDotSegmentsNeverReachAncestors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)
	tbl := model.TableRef{CabinRef: ref, TableID: "table1"}

	for _, id := range []string{".", ".."} {
		assert.ErrorIs(t, f.facade.DeleteCabin(ctx, model.CabinRef{Zone: model.ZoneA, CabinID: id}), ErrInvalidArgument, id)
		assert.ErrorIs(t, f.facade.DeleteTable(ctx, model.TableRef{CabinRef: ref, TableID: id}), ErrInvalidArgument, id)
		assert.ErrorIs(t, f.facade.DeleteWorkstation(ctx, model.PCRef{TableRef: tbl, PCID: id}), ErrInvalidArgument, id)
		assert.ErrorIs(t, f.facade.RenameTable(ctx, model.TableRef{CabinRef: model.CabinRef{Zone: model.ZoneA, CabinID: id}, TableID: ".."}, "x"), ErrInvalidArgument, id)

		_, err := f.facade.AddWorkstation(ctx, model.TableRef{CabinRef: ref, TableID: id})
		assert.ErrorIs(t, err, ErrInvalidArgument, id)
	}

	c := f.cabin(ref)
	assert.Equal(t, "R-01", c.Number)
	require.Len(t, c.Tables, 8)
	assert.Len(t, c.Tables["table1"].PCs, 6)
	assert.Len(t, f.session.Snapshot().Zone(model.ZoneA), 1)
}

func TestAddAndRenameTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)

	_, err = f.facade.AddTable(ctx, ref, "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	tbl, err := f.facade.AddTable(ctx, ref, "Row 9A")
	require.NoError(t, err)
	assert.Regexp(t, `^table\d{13}$`, tbl.TableID)

	c := f.cabin(ref)
	require.Len(t, c.Tables, 9)
	added := c.Tables[tbl.TableID]
	assert.Equal(t, "Row 9A", added.Name)
	assert.Len(t, added.PCs, 6)

	require.NoError(t, f.facade.RenameTable(ctx, tbl, "Spare Row"))
	c = f.cabin(ref)
	assert.Equal(t, "Spare Row", c.Tables[tbl.TableID].Name)
	assert.Len(t, c.Tables[tbl.TableID].PCs, 6)
}

func TestAddWorkstation_NextSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)
	tbl := model.TableRef{CabinRef: ref, TableID: "table1"}

	require.NoError(t, f.facade.DeleteWorkstation(ctx, model.PCRef{TableRef: tbl, PCID: "pc3"}))
	pc, err := f.facade.AddWorkstation(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, "pc7", pc.PCID)

	require.NoError(t, f.tree.Set(ctx, tbl.PCsPath()+"/pc12", map[string]any{"status": "connected"}))
	pc, err = f.facade.AddWorkstation(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, "pc13", pc.PCID)

	raw, err := f.tree.Get(ctx, pc.Path())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "offline", "sourceDeviceName": "", "port": ""}, raw)

	pcs := f.cabin(ref).Tables["table1"].PCs
	assert.Len(t, pcs, 8)
	assert.Equal(t, 13, pcs["pc13"].Index)
}

func TestAddWorkstation_EmptyTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := model.TableRef{CabinRef: model.CabinRef{Zone: model.ZoneB, CabinID: "c1"}, TableID: "t1"}

	pc, err := f.facade.AddWorkstation(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, "pc1", pc.PCID)
}

func TestUpdateWorkstation_Partial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-02", model.ZoneB, nil)
	require.NoError(t, err)
	pcRef := model.PCRef{TableRef: model.TableRef{CabinRef: ref, TableID: "table2"}, PCID: "pc4"}

	connected := model.StatusConnected
	uplink, port := "SW-Manage-1", "7"
	require.NoError(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{Status: &connected, SourceDeviceName: &uplink, Port: &port}))

	port = "12"
	require.NoError(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{Status: &connected, Port: &port}))

	pc := f.cabin(ref).Tables["table2"].PCs["pc4"]
	assert.Equal(t, model.StatusConnected, pc.Status)
	assert.Equal(t, "12", pc.Port)
	assert.Equal(t, "SW-Manage-1", pc.SourceDeviceName)

	bad := model.Status("idle")
	assert.ErrorIs(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{Status: &bad}), ErrInvalidArgument)
	assert.ErrorIs(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{}), ErrInvalidArgument)
}

func TestResetWorkstation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-02", model.ZoneB, nil)
	require.NoError(t, err)
	pcRef := model.PCRef{TableRef: model.TableRef{CabinRef: ref, TableID: "table1"}, PCID: "pc1"}

	connected := model.StatusConnected
	uplink, port := "SW-POE", "3"
	require.NoError(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{Status: &connected, SourceDeviceName: &uplink, Port: &port}))
	require.NoError(t, f.facade.ResetWorkstation(ctx, pcRef))

	pc := f.cabin(ref).Tables["table1"].PCs["pc1"]
	assert.Equal(t, model.PC{Status: model.StatusOffline, Index: 1}, pc)
}

func TestRenameDevice_LeavesStaleReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-02", model.ZoneB, []model.Device{
		{ID: "d1", Type: model.DeviceManage, Name: "SW-Manage-1", Ports: "24"},
	})
	require.NoError(t, err)
	pcRef := model.PCRef{TableRef: model.TableRef{CabinRef: ref, TableID: "table2"}, PCID: "pc4"}

	connected := model.StatusConnected
	uplink, port := "SW-Manage-1", "7"
	require.NoError(t, f.facade.UpdateWorkstation(ctx, pcRef, WorkstationPatch{Status: &connected, SourceDeviceName: &uplink, Port: &port}))

	m := inventory.NewMatcher(inventory.Query{Filters: inventory.Filters{Type: string(model.DeviceManage)}})
	c := f.cabin(ref)
	assert.True(t, m.TypeMatch(c, c.Tables["table2"].PCs["pc4"]))

	require.NoError(t, f.facade.RenameDevice(ctx, ref, "d1", "SW-Manage-1-old"))

	c = f.cabin(ref)
	pc := c.Tables["table2"].PCs["pc4"]
	assert.Equal(t, "SW-Manage-1", pc.SourceDeviceName)
	assert.Equal(t, "SW-Manage-1-old", c.Devices[0].Name)
	assert.False(t, m.TypeMatch(c, pc))

	assert.ErrorIs(t, f.facade.RenameDevice(ctx, ref, "nope", "x"), ErrNotFound)
	assert.ErrorIs(t, f.facade.RenameDevice(ctx, ref, "d1", ""), ErrInvalidArgument)
}

func TestSetDevices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref, err := f.facade.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.NoError(t, err)

	router := f.facade.NewDevice(model.DeviceRouter, "Router-Main", "12")
	require.NoError(t, f.facade.SetDevices(ctx, ref, []model.Device{router}))
	assert.Equal(t, []model.Device{router}, f.cabin(ref).Devices)

	require.NoError(t, f.facade.SetDevices(ctx, ref, nil))
	assert.Empty(t, f.cabin(ref).Devices)

	missing := model.CabinRef{Zone: model.ZoneA, CabinID: "missing"}
	assert.ErrorIs(t, f.facade.SetDevices(ctx, missing, nil), ErrNotFound)
}

type brokenTree struct{ *tree.Memory }

func (brokenTree) Push(context.Context, string, any) (string, error) {
	return "", errors.New("permission denied")
}

func (brokenTree) Update(context.Context, string, map[string]any) error {
	return errors.New("permission denied")
}

func TestStoreFailureIsReported(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	backing := tree.NewMemory()
	s := session.New(backing, zap.NewNop())
	require.NoError(t, s.Start())
	defer s.Stop()
	f := New(brokenTree{backing}, zap.NewNop(), m)
	ctx := context.Background()

	_, err := f.CreateCabin(ctx, "R-01", model.ZoneA, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorContains(t, err, "permission denied")

	pcRef := model.PCRef{TableRef: model.TableRef{CabinRef: model.CabinRef{Zone: model.ZoneA, CabinID: "c"}, TableID: "t"}, PCID: "pc1"}
	assert.Error(t, f.ResetWorkstation(ctx, pcRef))

	assert.Equal(t, uint64(1), s.Revision())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("create_cabin", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MutationsTotal.WithLabelValues("reset_workstation", "error")))
}
