package auth

import (
	"fmt"
	"strings"
)

// AccessLevel is a permission tier. Levels are totally ordered and each
// level includes every capability of the levels below it.
type AccessLevel int

// Access levels, lowest to highest.
const (
	LevelNone AccessLevel = iota
	LevelDevice
	LevelSecurity
	LevelAdmin
)

var levelNames = [...]string{
	LevelNone:     "NONE",
	LevelDevice:   "DEVICE",
	LevelSecurity: "SECURITY",
	LevelAdmin:    "ADMIN",
}

// Levels returns every access level in ascending order.
func Levels() []AccessLevel {
	return []AccessLevel{LevelNone, LevelDevice, LevelSecurity, LevelAdmin}
}

// ParseAccessLevel parses a level name such as "security". Matching is
// case-insensitive.
func ParseAccessLevel(s string) (AccessLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for lvl, n := range levelNames {
		if n == name {
			return AccessLevel(lvl), nil
		}
	}
	return LevelNone, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Valid reports whether l is one of the defined levels.
func (l AccessLevel) Valid() bool {
	return l >= LevelNone && l <= LevelAdmin
}

// Allows reports whether a principal at level l may perform an operation
// gated at required.
func (l AccessLevel) Allows(required AccessLevel) bool {
	return l >= required
}

func (l AccessLevel) String() string {
	if !l.Valid() {
		return fmt.Sprintf("AccessLevel(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalText encodes the level by name.
func (l AccessLevel) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, int(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText decodes a level name.
func (l *AccessLevel) UnmarshalText(text []byte) error {
	lvl, err := ParseAccessLevel(string(text))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}
