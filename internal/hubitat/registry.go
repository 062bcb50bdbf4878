package hubitat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/hubibot/internal/alias"
	"github.com/nerrad567/hubibot/internal/device"
	"github.com/nerrad567/hubibot/internal/fold"
	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

// Logger defines the logging interface used by Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry turns free-text names into hub entities: devices within a set of
// device groups, location modes and alarm states.
//
// Thread Safety:
//   - Safe for concurrent use. Only the device caches change after
//     construction, and they are replaced atomically.
type Registry struct {
	inventory  *device.Inventory
	groups     map[string]*device.Group
	groupOrder []string
	aliases    *alias.Resolver
	folder     fold.Folder
	separator  string
	alarms     map[string]string // folded -> hub spelling
	alarmOrder []string
	logger     Logger
}

// NewRegistry builds the inventory cache, the enabled device groups and the
// alias rules from the hubitat settings. fetch supplies the hub inventory,
// normally Client.ListInventory.
func NewRegistry(cfg config.HubitatConfig, fetch device.FetchFunc, logger Logger) (*Registry, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if len(cfg.EnabledDeviceGroups) == 0 {
		return nil, ErrNoDeviceGroups
	}

	folder := fold.New(cfg.CaseInsensitive)
	aliases, err := alias.NewResolver(cfg.Aliases, folder)
	if err != nil {
		return nil, err
	}
	aliases.SetLogger(logger)

	separator := cfg.DeviceNameSeparator
	if separator == "" {
		separator = ","
	}

	r := &Registry{
		inventory: device.NewInventory(fetch, cfg.Descriptions()),
		groups:    make(map[string]*device.Group, len(cfg.EnabledDeviceGroups)),
		aliases:   aliases,
		folder:    folder,
		separator: separator,
		alarms:    make(map[string]string, len(cfg.HSMArmValues)),
		logger:    logger,
	}
	r.inventory.SetLogger(logger)

	for _, name := range cfg.EnabledDeviceGroups {
		if _, dup := r.groups[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
		}
		gc, ok := cfg.DeviceGroups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedGroup, name)
		}
		r.groups[name] = device.NewGroup(name, gc.AllowedDeviceIDs, gc.RejectedDeviceIDs, r.inventory, folder,
			device.WithGroupLogger(logger))
		r.groupOrder = append(r.groupOrder, name)
	}

	for _, v := range cfg.HSMArmValues {
		key := folder.Fold(v)
		if _, dup := r.alarms[key]; dup {
			continue
		}
		r.alarms[key] = v
		r.alarmOrder = append(r.alarmOrder, v)
	}

	return r, nil
}

// Folder returns the configured case folder.
func (r *Registry) Folder() fold.Folder {
	return r.folder
}

// Separator returns the multi-name separator.
func (r *Registry) Separator() string {
	return r.separator
}

// Inventory returns the shared inventory cache.
func (r *Registry) Inventory() *device.Inventory {
	return r.inventory
}

// Group returns an enabled device group by name.
func (r *Registry) Group(name string) (*device.Group, bool) {
	g, ok := r.groups[name]
	return g, ok
}

// Groups returns the enabled device groups in configuration order.
func (r *Registry) Groups() []*device.Group {
	out := make([]*device.Group, 0, len(r.groupOrder))
	for _, name := range r.groupOrder {
		out = append(out, r.groups[name])
	}
	return out
}

// Refresh drops the inventory and every group cache.
func (r *Registry) Refresh() {
	r.inventory.Invalidate()
	for _, g := range r.groups {
		g.Invalidate()
	}
	r.logger.Info("device caches cleared", "groups", len(r.groups))
}

// ResolveDevices resolves a separator-joined list of names against groups.
//
// Each non-empty name is resolved on its own: an exact or alias hit in the
// first group that has one, otherwise the union of a full-match regex
// search across all groups. If any name resolves to nothing, the result is
// empty. The result is the union of every name's devices, so a device
// reached through several names appears once.
//
// Errors from the inventory fetch are returned; a name that is not a valid
// pattern is a miss, not an error.
func (r *Registry) ResolveDevices(ctx context.Context, names string, groups []*device.Group) (device.Set, error) {
	result := device.NewSet()
	for _, name := range strings.Split(names, r.separator) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		m, err := alias.ResolveWithFallback(r.aliases, alias.DomainDevice, name,
			r.exactLookup(ctx, groups), r.regexLookup(ctx, groups))
		if err != nil {
			return nil, err
		}
		if !m.Found() {
			r.logger.Debug("device name not resolved", "name", name)
			return device.NewSet(), nil
		}
		r.logger.Debug("device name resolved", "name", name, "stage", m.Stage.String(), "count", len(m.Value))
		result.Union(m.Value)
	}
	return result, nil
}

func (r *Registry) exactLookup(ctx context.Context, groups []*device.Group) alias.LookupFunc[device.Set] {
	return func(name string) (device.Set, bool, error) {
		for _, g := range groups {
			d, ok, err := g.Device(ctx, name)
			if err != nil {
				return nil, false, err
			}
			if ok {
				return device.NewSet(d), true, nil
			}
		}
		return nil, false, nil
	}
}

func (r *Registry) regexLookup(ctx context.Context, groups []*device.Group) alias.LookupFunc[device.Set] {
	return func(pattern string) (device.Set, bool, error) {
		found := device.NewSet()
		for _, g := range groups {
			matches, err := g.RegexSearch(ctx, pattern)
			if errors.Is(err, device.ErrInvalidPattern) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			found.Add(matches...)
		}
		return found, len(found) > 0, nil
	}
}

// ResolveMode resolves a mode name against the hub's current modes.
func (r *Registry) ResolveMode(name string, modes []Mode) (Mode, bool) {
	table := make(map[string]Mode, len(modes))
	for _, m := range modes {
		table[r.folder.Fold(m.Name)] = m
	}
	m, _ := alias.Resolve(r.aliases, alias.DomainMode, strings.TrimSpace(name), func(key string) (Mode, bool, error) {
		mode, ok := table[key]
		return mode, ok, nil
	})
	return m.Value, m.Found()
}

// ResolveAlarmState resolves an arm request to the hub's spelling of a
// configured arm value.
func (r *Registry) ResolveAlarmState(name string) (string, bool) {
	m, _ := alias.Resolve(r.aliases, alias.DomainAlarm, strings.TrimSpace(name), func(key string) (string, bool, error) {
		state, ok := r.alarms[key]
		return state, ok, nil
	})
	return m.Value, m.Found()
}

// AlarmStates returns the configured arm values in configuration order.
func (r *Registry) AlarmStates() []string {
	return append([]string(nil), r.alarmOrder...)
}
