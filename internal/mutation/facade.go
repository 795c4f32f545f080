// Package mutation turns operator intents into writes against the tree.
// Nothing here touches the session snapshot; changes become visible once
// the tree echoes them back through the subscription.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cabin-network-backend/internal/metrics"
	"cabin-network-backend/internal/model"
	"cabin-network-backend/internal/parse"
	"cabin-network-backend/internal/tree"
)

// ErrInvalidArgument marks a request rejected before reaching the tree.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrNotFound is returned when the addressed entity does not exist.
var ErrNotFound = errors.New("not found")

// Facade issues inventory mutations.
type Facade struct {
	tree    tree.Tree
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Facade.
type Option func(*Facade)

// WithClock overrides the time source used for timestamps and generated keys.
func WithClock(now func() time.Time) Option {
	return func(f *Facade) { f.now = now }
}

// New creates a facade writing to t. m may be nil.
func New(t tree.Tree, log *zap.Logger, m *metrics.Metrics, opts ...Option) *Facade {
	f := &Facade{tree: t, log: log, metrics: m, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WorkstationPatch lists the workstation fields to change. Nil fields are
// left as they are.
type WorkstationPatch struct {
	Status           *model.Status `json:"status"`
	SourceDeviceName *string       `json:"sourceDeviceName"`
	Port             *string       `json:"port"`
}

// CreateCabin adds a cabin with the default table grid to zone.
func (f *Facade) CreateCabin(ctx context.Context, number string, zone model.Zone, devices []model.Device) (ref model.CabinRef, err error) {
	defer func() { f.record("create_cabin", err, zap.String("zone", string(zone)), zap.String("number", number)) }()

	if strings.TrimSpace(number) == "" {
		return model.CabinRef{}, invalid("cabin number is required")
	}
	if !zone.Valid() {
		return model.CabinRef{}, invalid("unknown zone %q", zone)
	}
	devices, err = f.prepareDevices(devices)
	if err != nil {
		return model.CabinRef{}, err
	}

	tables := make(map[string]model.Table, model.DefaultTablesPerCabin)
	for i := 1; i <= model.DefaultTablesPerCabin; i++ {
		tables[fmt.Sprintf("table%d", i)] = model.Table{
			Name: fmt.Sprintf("Row %d%s", i, zone.Suffix()),
			PCs:  defaultPCs(),
		}
	}
	cabin := model.Cabin{
		Number:    number,
		Type:      zone,
		CreatedAt: f.now().UnixMilli(),
		Devices:   devices,
		Tables:    tables,
	}

	id, err := f.tree.Push(ctx, model.ZonePath(zone), cabin)
	if err != nil {
		return model.CabinRef{}, fmt.Errorf("failed to create cabin: %w", err)
	}
	return model.CabinRef{Zone: zone, CabinID: id}, nil
}

// RenameCabin changes the cabin number.
func (f *Facade) RenameCabin(ctx context.Context, ref model.CabinRef, number string) (err error) {
	defer func() { f.record("rename_cabin", err, zap.String("path", ref.Path())) }()

	if strings.TrimSpace(number) == "" {
		return invalid("cabin number is required")
	}
	cabin, err := f.cabin(ctx, ref)
	if err != nil {
		return err
	}
	if cabin.Number == number {
		return invalid("cabin number is unchanged")
	}
	if err := f.tree.Update(ctx, ref.Path(), map[string]any{"number": number}); err != nil {
		return fmt.Errorf("failed to rename cabin: %w", err)
	}
	return nil
}

// DeleteCabin removes the cabin with all its tables and devices.
func (f *Facade) DeleteCabin(ctx context.Context, ref model.CabinRef) (err error) {
	defer func() { f.record("delete_cabin", err, zap.String("path", ref.Path())) }()

	if err := validCabinRef(ref); err != nil {
		return err
	}
	if err := f.tree.Remove(ctx, ref.Path()); err != nil {
		return fmt.Errorf("failed to delete cabin: %w", err)
	}
	return nil
}

// AddTable creates a table with the default workstations under a
// time-derived key.
func (f *Facade) AddTable(ctx context.Context, ref model.CabinRef, name string) (table model.TableRef, err error) {
	defer func() { f.record("add_table", err, zap.String("path", ref.Path())) }()

	if strings.TrimSpace(name) == "" {
		return model.TableRef{}, invalid("table name is required")
	}
	if err := validCabinRef(ref); err != nil {
		return model.TableRef{}, err
	}

	table = model.TableRef{CabinRef: ref, TableID: fmt.Sprintf("table%d", f.now().UnixMilli())}
	if err := f.tree.Set(ctx, table.Path(), model.Table{Name: name, PCs: defaultPCs()}); err != nil {
		return model.TableRef{}, fmt.Errorf("failed to add table: %w", err)
	}
	return table, nil
}

// RenameTable changes the table name.
func (f *Facade) RenameTable(ctx context.Context, ref model.TableRef, name string) (err error) {
	defer func() { f.record("rename_table", err, zap.String("path", ref.Path())) }()

	if err := validTableRef(ref); err != nil {
		return err
	}
	if err := f.tree.Update(ctx, ref.Path(), map[string]any{"name": name}); err != nil {
		return fmt.Errorf("failed to rename table: %w", err)
	}
	return nil
}

// DeleteTable removes the table and its workstations.
func (f *Facade) DeleteTable(ctx context.Context, ref model.TableRef) (err error) {
	defer func() { f.record("delete_table", err, zap.String("path", ref.Path())) }()

	if err := validTableRef(ref); err != nil {
		return err
	}
	if err := f.tree.Remove(ctx, ref.Path()); err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	return nil
}

// AddWorkstation appends an offline workstation keyed one past the highest
// existing numeric suffix.
func (f *Facade) AddWorkstation(ctx context.Context, ref model.TableRef) (pc model.PCRef, err error) {
	defer func() { f.record("add_workstation", err, zap.String("path", ref.Path())) }()

	if err := validTableRef(ref); err != nil {
		return model.PCRef{}, err
	}
	raw, err := f.tree.Get(ctx, ref.PCsPath())
	if err != nil && !errors.Is(err, tree.ErrNotFound) {
		return model.PCRef{}, fmt.Errorf("failed to read workstations: %w", err)
	}

	next := nextWorkstationNumber(raw)
	pc = model.PCRef{TableRef: ref, PCID: "pc" + strconv.Itoa(next)}
	err = f.tree.Set(ctx, pc.Path(), map[string]any{
		"status":           string(model.StatusOffline),
		"sourceDeviceName": "",
		"port":             "",
	})
	if err != nil {
		return model.PCRef{}, fmt.Errorf("failed to add workstation: %w", err)
	}
	return pc, nil
}

// UpdateWorkstation writes only the fields set in patch.
func (f *Facade) UpdateWorkstation(ctx context.Context, ref model.PCRef, patch WorkstationPatch) (err error) {
	defer func() { f.record("update_workstation", err, zap.String("path", ref.Path())) }()

	if err := validPCRef(ref); err != nil {
		return err
	}
	fields := map[string]any{}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return invalid("unknown status %q", *patch.Status)
		}
		fields["status"] = string(*patch.Status)
	}
	if patch.SourceDeviceName != nil {
		fields["sourceDeviceName"] = *patch.SourceDeviceName
	}
	if patch.Port != nil {
		fields["port"] = *patch.Port
	}
	if len(fields) == 0 {
		return invalid("nothing to update")
	}
	if err := f.tree.Update(ctx, ref.Path(), fields); err != nil {
		return fmt.Errorf("failed to update workstation: %w", err)
	}
	return nil
}

// ResetWorkstation marks the workstation offline and clears its wiring.
func (f *Facade) ResetWorkstation(ctx context.Context, ref model.PCRef) (err error) {
	defer func() { f.record("reset_workstation", err, zap.String("path", ref.Path())) }()

	if err := validPCRef(ref); err != nil {
		return err
	}
	err = f.tree.Update(ctx, ref.Path(), map[string]any{
		"status":           string(model.StatusOffline),
		"sourceDeviceName": "",
		"port":             "",
	})
	if err != nil {
		return fmt.Errorf("failed to reset workstation: %w", err)
	}
	return nil
}

// DeleteWorkstation removes one workstation.
func (f *Facade) DeleteWorkstation(ctx context.Context, ref model.PCRef) (err error) {
	defer func() { f.record("delete_workstation", err, zap.String("path", ref.Path())) }()

	if err := validPCRef(ref); err != nil {
		return err
	}
	if err := f.tree.Remove(ctx, ref.Path()); err != nil {
		return fmt.Errorf("failed to delete workstation: %w", err)
	}
	return nil
}

// SetDevices replaces the cabin's device list. Devices without an id get one.
// Workstations pointing at a removed device keep their stale name.
func (f *Facade) SetDevices(ctx context.Context, ref model.CabinRef, devices []model.Device) (err error) {
	defer func() { f.record("set_devices", err, zap.String("path", ref.Path())) }()

	if err := validCabinRef(ref); err != nil {
		return err
	}
	devices, err = f.prepareDevices(devices)
	if err != nil {
		return err
	}
	if _, err := f.cabin(ctx, ref); err != nil {
		return err
	}
	if err := f.tree.Set(ctx, ref.Path()+"/devices", devices); err != nil {
		return fmt.Errorf("failed to set devices: %w", err)
	}
	return nil
}

// RenameDevice changes one device name. Workstations are not updated, so any
// that referenced the old name no longer resolve to a device.
func (f *Facade) RenameDevice(ctx context.Context, ref model.CabinRef, deviceID, name string) (err error) {
	defer func() {
		f.record("rename_device", err, zap.String("path", ref.Path()), zap.String("device", deviceID))
	}()

	if strings.TrimSpace(name) == "" {
		return invalid("device name is required")
	}
	cabin, err := f.cabin(ctx, ref)
	if err != nil {
		return err
	}
	found := false
	for i, d := range cabin.Devices {
		if d.ID == deviceID {
			cabin.Devices[i].Name = name
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("device %q: %w", deviceID, ErrNotFound)
	}
	if err := f.tree.Set(ctx, ref.Path()+"/devices", cabin.Devices); err != nil {
		return fmt.Errorf("failed to rename device: %w", err)
	}
	return nil
}

// NewDevice builds a device with a fresh id.
func (f *Facade) NewDevice(t model.DeviceType, name, ports string) model.Device {
	return model.Device{ID: f.deviceID(), Type: t, Name: name, Ports: ports}
}

// deviceID is the creation time in unix millis followed by five random
// base36 characters.
func (f *Facade) deviceID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	b.WriteString(strconv.FormatInt(f.now().UnixMilli(), 10))
	for i := 0; i < 5; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

func (f *Facade) prepareDevices(devices []model.Device) ([]model.Device, error) {
	out := make([]model.Device, 0, len(devices))
	for i, d := range devices {
		tmpl, ok := model.TemplateFor(d.Type)
		if !ok {
			return nil, invalid("device %d: unknown type %q", i, d.Type)
		}
		if strings.TrimSpace(d.Name) == "" {
			return nil, invalid("device %d: name is required", i)
		}
		if d.Ports == "" {
			d.Ports = tmpl.Ports[0]
		} else if !tmpl.SupportsPorts(d.Ports) {
			return nil, invalid("device %d: %s does not come with %q ports", i, tmpl.Label, d.Ports)
		}
		if d.ID == "" {
			d.ID = f.deviceID()
		}
		out = append(out, d)
	}
	return out, nil
}

func (f *Facade) cabin(ctx context.Context, ref model.CabinRef) (model.Cabin, error) {
	if err := validCabinRef(ref); err != nil {
		return model.Cabin{}, err
	}
	raw, err := f.tree.Get(ctx, ref.Path())
	if errors.Is(err, tree.ErrNotFound) {
		return model.Cabin{}, fmt.Errorf("cabin %s: %w", ref.Path(), ErrNotFound)
	}
	if err != nil {
		return model.Cabin{}, fmt.Errorf("failed to read cabin: %w", err)
	}
	return model.NormalizeCabin(ref.Zone, raw), nil
}

func (f *Facade) record(op string, err error, fields ...zap.Field) {
	result := "ok"
	switch {
	case err == nil:
		f.log.Info("mutation applied", append(fields, zap.String("op", op))...)
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrNotFound):
		result = "invalid"
		f.log.Info("mutation rejected", append(fields, zap.String("op", op), zap.Error(err))...)
	default:
		result = "error"
		f.log.Error("mutation failed", append(fields, zap.String("op", op), zap.Error(err))...)
	}
	if f.metrics != nil {
		f.metrics.RecordMutation(op, result)
	}
}

// nextWorkstationNumber parses every key the way the dashboard always has:
// drop the first "pc" and read a leading integer.
func nextWorkstationNumber(raw any) int {
	pcs, _ := raw.(map[string]any)
	highest := 0
	for k := range pcs {
		if n, ok := parse.LeadingInt(strings.Replace(k, "pc", "", 1)); ok && n > highest {
			highest = n
		}
	}
	return highest + 1
}

func defaultPCs() map[string]model.PC {
	pcs := make(map[string]model.PC, model.DefaultPCsPerTable)
	for i := 1; i <= model.DefaultPCsPerTable; i++ {
		pcs[fmt.Sprintf("pc%d", i)] = model.PC{Status: model.StatusOffline}
	}
	return pcs
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func validCabinRef(ref model.CabinRef) error {
	if !ref.Zone.Valid() {
		return invalid("unknown zone %q", ref.Zone)
	}
	if !model.ValidKey(ref.CabinID) {
		return invalid("invalid cabin id %q", ref.CabinID)
	}
	return nil
}

func validTableRef(ref model.TableRef) error {
	if err := validCabinRef(ref.CabinRef); err != nil {
		return err
	}
	if !model.ValidKey(ref.TableID) {
		return invalid("invalid table id %q", ref.TableID)
	}
	return nil
}

func validPCRef(ref model.PCRef) error {
	if err := validTableRef(ref.TableRef); err != nil {
		return err
	}
	if !model.ValidKey(ref.PCID) {
		return invalid("invalid workstation id %q", ref.PCID)
	}
	return nil
}
