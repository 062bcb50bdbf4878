package device

import (
	"context"
	"fmt"
	"sort"

	"github.com/nerrad567/hubibot/internal/fold"
)

// Group is a named, access-scoped view over the inventory.
//
// A device is visible iff (the allow list is empty OR its id is allowed)
// AND its id is not denied. The deny list always wins.
//
// The filtered view is keyed by folded label and cached until Invalidate.
// All public methods are thread-safe.
type Group struct {
	name     string
	allowed  map[int]struct{}
	denied   map[int]struct{}
	source   Source
	commands CommandMap
	folder   fold.Folder
	cache    lazy[map[string]*Device]
	logger   Logger
}

// GroupOption configures a Group.
type GroupOption func(*Group)

// WithCommands replaces DefaultCommands.
func WithCommands(m CommandMap) GroupOption {
	return func(g *Group) { g.commands = m }
}

// WithGroupLogger sets the group's logger.
func WithGroupLogger(logger Logger) GroupOption {
	return func(g *Group) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGroup creates a device group over source.
func NewGroup(name string, allowed, denied []int, source Source, folder fold.Folder, opts ...GroupOption) *Group {
	g := &Group{
		name:     name,
		allowed:  idSet(allowed),
		denied:   idSet(denied),
		source:   source,
		commands: DefaultCommands(),
		folder:   folder,
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger.Debug("device group created", "group", name, "allowed", allowed, "rejected", denied)
	return g
}

func idSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// Visible reports whether the device id passes the allow and deny lists.
func (g *Group) Visible(id int) bool {
	if len(g.allowed) > 0 {
		if _, ok := g.allowed[id]; !ok {
			return false
		}
	}
	_, denied := g.denied[id]
	return !denied
}

// Devices returns the group's devices keyed by folded label.
//
// Repeated calls return the same map until Invalidate. The map and its
// devices must not be modified.
func (g *Group) Devices(ctx context.Context) (map[string]*Device, error) {
	return g.cache.get(ctx, g.build)
}

func (g *Group) build(ctx context.Context) (map[string]*Device, error) {
	all, err := g.source.Devices(ctx)
	if err != nil {
		return nil, err
	}

	devices := make(map[string]*Device, len(all))
	for _, d := range all {
		if !g.Visible(d.ID) {
			g.logger.Debug("device hidden from group", "group", g.name, "device", d.String())
			continue
		}
		cpy := d.DeepCopy()
		cpy.SupportedCommands = g.commands.Supported(d.Commands)

		key := g.folder.Fold(d.Label)
		if prev, dup := devices[key]; dup {
			g.logger.Warn("device label collision, later device wins",
				"group", g.name, "label", key, "replaced", prev.ID, "kept", d.ID)
		}
		devices[key] = cpy
	}

	g.logger.Debug("device group cache rebuilt", "group", g.name, "count", len(devices))
	return devices, nil
}

// Device looks up a device by label.
func (g *Group) Device(ctx context.Context, name string) (*Device, bool, error) {
	devices, err := g.Devices(ctx)
	if err != nil {
		return nil, false, err
	}
	d, ok := devices[g.folder.Fold(name)]
	return d, ok, nil
}

// RegexSearch returns every device whose folded label fully matches
// pattern, sorted by label. A pattern that does not compile yields
// ErrInvalidPattern.
func (g *Group) RegexSearch(ctx context.Context, pattern string) ([]*Device, error) {
	re, err := g.folder.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	devices, err := g.Devices(ctx)
	if err != nil {
		return nil, err
	}

	var out []*Device
	for label, d := range devices {
		if re.MatchString(label) {
			out = append(out, d)
		}
	}
	sortDevices(out)
	return out, nil
}

// Sorted returns the group's devices sorted by label.
func (g *Group) Sorted(ctx context.Context) ([]*Device, error) {
	devices, err := g.Devices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	sortDevices(out)
	return out, nil
}

// Invalidate drops the cached view; the next access rebuilds it from the
// source.
func (g *Group) Invalidate() {
	g.cache.invalidate()
}

func sortDevices(devices []*Device) {
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Label != devices[j].Label {
			return devices[i].Label < devices[j].Label
		}
		return devices[i].ID < devices[j].ID
	})
}
