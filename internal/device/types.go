package device

import (
	"fmt"
	"slices"
	"sort"
)

// Record is one entry of the hub inventory as reported by the hub.
type Record struct {
	ID       int
	Label    string
	Type     string
	Commands []string
}

// Device is a hub device as seen by hubibot.
//
// Two Devices with the same ID are interchangeable; Label is the primary
// lookup key. SupportedCommands is only populated on devices returned by a
// Group.
type Device struct {
	ID                int      `json:"id"`
	Label             string   `json:"label"`
	Type              string   `json:"type"`
	Commands          []string `json:"commands"`
	Description       string   `json:"description,omitempty"`
	SupportedCommands []string `json:"supported_commands"`
}

// NewDevice converts an inventory record.
func NewDevice(r Record) *Device {
	return &Device{
		ID:       r.ID,
		Label:    r.Label,
		Type:     r.Type,
		Commands: slices.Clone(r.Commands),
	}
}

// Supports reports whether command (an exposed name such as "dim") is in
// the device's supported set.
func (d *Device) Supports(command string) bool {
	return slices.Contains(d.SupportedCommands, command)
}

// String returns "label:id", the form used in logs.
func (d *Device) String() string {
	return fmt.Sprintf("%s:%d", d.Label, d.ID)
}

// DeepCopy returns an independent copy of the Device.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cpy := *d
	cpy.Commands = slices.Clone(d.Commands)
	cpy.SupportedCommands = slices.Clone(d.SupportedCommands)
	return &cpy
}

// CommandMap maps a native hub command to the command name hubibot exposes
// for it. Native commands absent from the map are not exposed.
type CommandMap map[string]string

// DefaultCommands returns the standard mapping. setLevel is exposed as
// "dim"; the others keep their native name.
func DefaultCommands() CommandMap {
	return CommandMap{
		"on":       "on",
		"off":      "off",
		"setLevel": "dim",
		"open":     "open",
		"close":    "close",
		"lock":     "lock",
		"unlock":   "unlock",
	}
}

// Supported returns the sorted, de-duplicated image of native under m.
func (m CommandMap) Supported(native []string) []string {
	seen := make(map[string]struct{}, len(native))
	out := make([]string, 0, len(native))
	for _, c := range native {
		exposed, ok := m[c]
		if !ok {
			continue
		}
		if _, dup := seen[exposed]; dup {
			continue
		}
		seen[exposed] = struct{}{}
		out = append(out, exposed)
	}
	sort.Strings(out)
	return out
}

// Exposed returns the sorted set of every exposed command name.
func (m CommandMap) Exposed() []string {
	natives := make([]string, 0, len(m))
	for native := range m {
		natives = append(natives, native)
	}
	return m.Supported(natives)
}
