package hubitat

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/nerrad567/hubibot/internal/device"
	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

func testHubitatConfig() config.HubitatConfig {
	return config.HubitatConfig{
		URL:                 "http://hub.local",
		AppID:               1,
		Token:               "t",
		CaseInsensitive:     true,
		DeviceNameSeparator: ",",
		HSMArmValues:        []string{"armAway", "armHome", "disarm"},
		EnabledDeviceGroups: []string{"lights", "locks"},
		DeviceGroups: map[string]config.DeviceGroupConfig{
			"lights": {AllowedDeviceIDs: []int{1, 2, 3}},
			"locks":  {AllowedDeviceIDs: []int{4, 5}, RejectedDeviceIDs: []int{5}},
			"unused": {},
		},
		DeviceDescriptions: map[string]string{"1": "over the sink"},
		Aliases: map[string][][]string{
			"device": {{"^the (.+)$", `\1`}, {"^(.+)s$", `\1`}},
			"mode":   {{"^(.+) mode$", `\1`}},
			"alarm":  {{"^away$", "armAway"}, {"^(off|disarmed)$", "disarm"}},
		},
	}
}

func testInventory() []device.Record {
	return []device.Record{
		{ID: 1, Label: "Kitchen Lamp", Commands: []string{"on", "off", "setLevel"}},
		{ID: 2, Label: "Kitchen Fan", Commands: []string{"on", "off"}},
		{ID: 3, Label: "Porch Light", Commands: []string{"on", "off"}},
		{ID: 4, Label: "Front Door", Commands: []string{"lock", "unlock"}},
		{ID: 5, Label: "Back Door", Commands: []string{"lock", "unlock"}},
		{ID: 6, Label: "Garage", Commands: []string{"open", "close"}},
	}
}

type countingFetch struct {
	records []device.Record
	err     error
	calls   atomic.Int64
}

func (f *countingFetch) fetch(context.Context) ([]device.Record, error) {
	f.calls.Add(1)
	return f.records, f.err
}

func newTestRegistry(t *testing.T) (*Registry, *countingFetch) {
	t.Helper()
	f := &countingFetch{records: testInventory()}
	r, err := NewRegistry(testHubitatConfig(), f.fetch, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r, f
}

func ids(s device.Set) []int {
	var out []int
	for _, d := range s.Sorted() {
		out = append(out, d.ID)
	}
	return out
}

func TestNewRegistry_Validation(t *testing.T) {
	fetch := (&countingFetch{}).fetch

	cfg := testHubitatConfig()
	cfg.EnabledDeviceGroups = nil
	if _, err := NewRegistry(cfg, fetch, nil); !errors.Is(err, ErrNoDeviceGroups) {
		t.Errorf("no groups: error = %v, want ErrNoDeviceGroups", err)
	}

	cfg = testHubitatConfig()
	cfg.EnabledDeviceGroups = []string{"lights", "garage"}
	if _, err := NewRegistry(cfg, fetch, nil); !errors.Is(err, ErrUndefinedGroup) {
		t.Errorf("undefined group: error = %v, want ErrUndefinedGroup", err)
	}

	cfg = testHubitatConfig()
	cfg.EnabledDeviceGroups = []string{"lights", "locks", "lights"}
	if _, err := NewRegistry(cfg, fetch, nil); !errors.Is(err, ErrDuplicateGroup) {
		t.Errorf("duplicate group: error = %v, want ErrDuplicateGroup", err)
	}

	cfg = testHubitatConfig()
	cfg.Aliases = map[string][][]string{"device": {{"(", "x"}}}
	if _, err := NewRegistry(cfg, fetch, nil); err == nil {
		t.Error("invalid alias pattern accepted")
	}
}

func TestRegistry_Groups(t *testing.T) {
	r, _ := newTestRegistry(t)

	groups := r.Groups()
	if len(groups) != 2 || groups[0].Name() != "lights" || groups[1].Name() != "locks" {
		t.Errorf("Groups() = %v, want enabled groups in order", groups)
	}
	if _, ok := r.Group("unused"); ok {
		t.Error("a defined but not enabled group should not be built")
	}
}

func TestRegistry_ResolveDevices(t *testing.T) {
	r, _ := newTestRegistry(t)
	all := r.Groups()
	lights, _ := r.Group("lights")
	ctx := context.Background()

	tests := []struct {
		name   string
		names  string
		groups []*device.Group
		want   []int
	}{
		{"exact", "kitchen lamp", all, []int{1}},
		{"case folded", "KITCHEN LAMP", all, []int{1}},
		{"alias", "the porch light", all, []int{3}},
		{"plural alias", "front doors", all, []int{4}},
		{"multiple", "kitchen lamp, porch light", all, []int{1, 3}},
		{"all or nothing", "kitchen lamp, attic", all, nil},
		{"duplicates collapse", "kitchen lamp, Kitchen Lamp", all, []int{1}},
		{"alias and exact same device", "the kitchen lamp,kitchen lamp", all, []int{1}},
		{"regex fallback", "kitchen .*", all, []int{2, 1}},
		{"regex across groups", ".*n.*", all, []int{4, 2, 1}},
		{"invalid regex is a miss", "kitchen (", all, nil},
		{"denied device", "back door", all, nil},
		{"outside groups", "garage", all, nil},
		{"outside the given groups", "front door", []*device.Group{lights}, nil},
		{"empty tokens skipped", " , kitchen fan ,", all, []int{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ResolveDevices(ctx, tt.names, tt.groups)
			if err != nil {
				t.Fatalf("ResolveDevices() error = %v", err)
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("ResolveDevices(%q) = %v, want %v", tt.names, ids(got), tt.want)
			}
		})
	}
}

func TestRegistry_ResolveDevices_FirstGroupWins(t *testing.T) {
	cfg := testHubitatConfig()
	cfg.EnabledDeviceGroups = []string{"a", "b"}
	cfg.DeviceGroups = map[string]config.DeviceGroupConfig{
		"a": {AllowedDeviceIDs: []int{10}},
		"b": {AllowedDeviceIDs: []int{11}},
	}
	f := &countingFetch{records: []device.Record{
		{ID: 10, Label: "Lamp"},
		{ID: 11, Label: "Lamp"},
	}}
	r, err := NewRegistry(cfg, f.fetch, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	got, err := r.ResolveDevices(context.Background(), "lamp", r.Groups())
	if err != nil {
		t.Fatalf("ResolveDevices() error = %v", err)
	}
	if !reflect.DeepEqual(ids(got), []int{10}) {
		t.Errorf("ResolveDevices() = %v, want only the first group's device", ids(got))
	}
}

func TestRegistry_ResolveDevices_FetchError(t *testing.T) {
	boom := errors.New("hub offline")
	f := &countingFetch{err: boom}
	r, err := NewRegistry(testHubitatConfig(), f.fetch, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if _, err := r.ResolveDevices(context.Background(), "kitchen lamp", r.Groups()); !errors.Is(err, boom) {
		t.Errorf("ResolveDevices() error = %v, want %v", err, boom)
	}
}

func TestRegistry_Descriptions(t *testing.T) {
	r, _ := newTestRegistry(t)
	got, _ := r.ResolveDevices(context.Background(), "kitchen lamp", r.Groups())
	if d := got[1]; d == nil || d.Description != "over the sink" {
		t.Errorf("description not attached: %+v", d)
	}
}

func TestRegistry_Refresh(t *testing.T) {
	r, f := newTestRegistry(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := r.ResolveDevices(ctx, "kitchen lamp", r.Groups()); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls.Load() != 1 {
		t.Errorf("fetch called %d times before refresh, want 1", f.calls.Load())
	}

	f.records = testInventory()
	f.records[1].Label = "Ceiling Fan"
	r.Refresh()

	got, _ := r.ResolveDevices(ctx, "ceiling fan", r.Groups())
	if !reflect.DeepEqual(ids(got), []int{2}) {
		t.Errorf("after refresh ResolveDevices() = %v, want [2]", ids(got))
	}
	if f.calls.Load() != 2 {
		t.Errorf("fetch called %d times after refresh, want 2", f.calls.Load())
	}
}

func TestRegistry_ResolveMode(t *testing.T) {
	r, _ := newTestRegistry(t)
	modes := []Mode{{ID: 1, Name: "Day"}, {ID: 2, Name: "Night", Active: true}, {ID: 3, Name: "Away"}}

	tests := []struct {
		name   string
		wantID int
		found  bool
	}{
		{"night", 2, true},
		{"NIGHT", 2, true},
		{"away mode", 3, true},
		{"vacation", 0, false},
	}
	for _, tt := range tests {
		m, ok := r.ResolveMode(tt.name, modes)
		if ok != tt.found || m.ID != tt.wantID {
			t.Errorf("ResolveMode(%q) = %+v, %v; want id %d, %v", tt.name, m, ok, tt.wantID, tt.found)
		}
	}
}

// The aliases shipped in the bundled template use regexp's $1 form.
func TestRegistry_BundledTemplateAliases(t *testing.T) {
	noEnv := func(string) (string, bool) { return "", false }
	tree, err := config.NewResolver(config.EnvPrefix,
		config.WithEnv(noEnv),
		config.WithOverridePath(filepath.Join(t.TempDir(), "missing.yaml")),
		config.WithArgs([]string{"HUBIBOT_HUBITAT_ENABLED_DEVICE_GROUPS=[all]"}),
	).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	cfg, err := config.Decode(tree)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	f := &countingFetch{records: testInventory()}
	r, err := NewRegistry(cfg.Hubitat, f.fetch, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, name := range []string{"the garage", "garages", "Garage"} {
		set, err := r.ResolveDevices(context.Background(), name, r.Groups())
		if err != nil {
			t.Fatalf("ResolveDevices(%q) error = %v", name, err)
		}
		if got := ids(set); !reflect.DeepEqual(got, []int{6}) {
			t.Errorf("ResolveDevices(%q) = %v, want [6]", name, got)
		}
	}

	modes := []Mode{{ID: 1, Name: "Day"}, {ID: 2, Name: "Night"}}
	if m, ok := r.ResolveMode("Night mode", modes); !ok || m.ID != 2 {
		t.Errorf("ResolveMode(%q) = %+v, %v; want id 2", "Night mode", m, ok)
	}
	if state, ok := r.ResolveAlarmState("night"); !ok || state != "armNight" {
		t.Errorf("ResolveAlarmState(night) = %q, %v; want armNight", state, ok)
	}
}

func TestRegistry_ResolveAlarmState(t *testing.T) {
	r, _ := newTestRegistry(t)

	tests := map[string]string{
		"armaway":  "armAway",
		"ARMHOME":  "armHome",
		"away":     "armAway",
		"off":      "disarm",
		"disarmed": "disarm",
		"panic":    "",
	}
	for in, want := range tests {
		got, ok := r.ResolveAlarmState(in)
		if got != want || ok != (want != "") {
			t.Errorf("ResolveAlarmState(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}

	if got := r.AlarmStates(); !reflect.DeepEqual(got, []string{"armAway", "armHome", "disarm"}) {
		t.Errorf("AlarmStates() = %v", got)
	}
}
