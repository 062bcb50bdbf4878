package auth

import (
	"fmt"
	"sort"

	"github.com/nerrad567/hubibot/internal/device"
	"github.com/nerrad567/hubibot/internal/infrastructure/config"
)

// NobodyID identifies the zero-privilege principal returned for unknown ids.
const NobodyID int64 = -1

// Logger defines the logging interface used by Users.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// GroupLookup returns an enabled device group by name.
type GroupLookup func(name string) (*device.Group, bool)

// User is an authenticated chat principal.
type User struct {
	ID           int64
	Level        AccessLevel
	Group        string          // user group the principal was configured in
	DeviceGroups []*device.Group // in configuration order
}

// HasAccess reports whether the user may perform an operation gated at
// required.
func (u *User) HasAccess(required AccessLevel) bool {
	return u.Level.Allows(required)
}

// GroupNames returns the names of the user's device groups.
func (u *User) GroupNames() []string {
	names := make([]string, len(u.DeviceGroups))
	for i, g := range u.DeviceGroups {
		names[i] = g.Name()
	}
	return names
}

// Users is the principal registry. It is built once at startup and is
// read-only afterwards, so it is safe for concurrent use.
type Users struct {
	byID   map[int64]*User
	nobody *User
	logger Logger
}

// NewUsers builds the registry from the enabled telegram user groups.
//
// Construction fails if no user group is enabled, an enabled group is not
// defined or is enabled twice, a group has an invalid access level, no ids, or references a
// device group that groups cannot supply, or if a principal id appears in
// more than one group.
func NewUsers(cfg config.TelegramConfig, groups GroupLookup) (*Users, error) {
	if len(cfg.EnabledUserGroups) == 0 {
		return nil, ErrNoUserGroups
	}

	u := &Users{
		byID:   make(map[int64]*User),
		nobody: &User{ID: NobodyID, Level: LevelNone, Group: "nobody"},
		logger: noopLogger{},
	}

	enabled := make(map[string]struct{}, len(cfg.EnabledUserGroups))
	for _, name := range cfg.EnabledUserGroups {
		if _, dup := enabled[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
		}
		enabled[name] = struct{}{}

		gc, ok := cfg.UserGroups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedGroup, name)
		}

		level, err := ParseAccessLevel(gc.AccessLevel)
		if err != nil {
			return nil, fmt.Errorf("user group %q: %w", name, err)
		}

		deviceGroups := make([]*device.Group, 0, len(gc.DeviceGroups))
		for _, dg := range gc.DeviceGroups {
			g, ok := groups(dg)
			if !ok {
				return nil, fmt.Errorf("user group %q: %w: %q", name, ErrUnknownDeviceGroup, dg)
			}
			deviceGroups = append(deviceGroups, g)
		}

		if len(gc.IDs) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrEmptyUserGroup, name)
		}
		for _, id := range gc.IDs {
			if prev, dup := u.byID[id]; dup {
				return nil, fmt.Errorf("%w: id %d in %q and %q", ErrDuplicatePrincipal, id, prev.Group, name)
			}
			u.byID[id] = &User{ID: id, Level: level, Group: name, DeviceGroups: deviceGroups}
		}
	}

	return u, nil
}

// SetLogger sets the logger for the registry.
func (u *Users) SetLogger(logger Logger) {
	if logger != nil {
		u.logger = logger
	}
}

// Get returns the configured user for id. Unknown ids get a zero-privilege
// user with no device groups, never nil.
func (u *Users) Get(id int64) *User {
	if user, ok := u.byID[id]; ok {
		return user
	}
	u.logger.Warn("unknown principal", "user_id", id)
	return u.nobody
}

// Known reports whether id is a configured principal.
func (u *Users) Known(id int64) bool {
	_, ok := u.byID[id]
	return ok
}

// IDs returns every configured principal id in ascending order.
func (u *Users) IDs() []int64 {
	ids := make([]int64, 0, len(u.byID))
	for id := range u.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// All returns every configured user ordered by id.
func (u *Users) All() []*User {
	ids := u.IDs()
	out := make([]*User, len(ids))
	for i, id := range ids {
		out[i] = u.byID[id]
	}
	return out
}
