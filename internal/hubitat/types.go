package hubitat

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EventDateLayout is the layout of event timestamps, e.g.
// 2022-02-03T04:02:32+0000.
const EventDateLayout = "2006-01-02T15:04:05-0700"

// Mode is a hub location mode.
type Mode struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// UnmarshalJSON accepts the id as a number or a string.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID     flexInt `json:"id"`
		Name   string  `json:"name"`
		Active bool    `json:"active"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Mode{ID: int(aux.ID), Name: aux.Name, Active: aux.Active}
	return nil
}

// Attribute is one current attribute value of a device.
type Attribute struct {
	Name     string `json:"name"`
	Value    string `json:"currentValue"`
	DataType string `json:"dataType"`
}

// UnmarshalJSON accepts any JSON type for currentValue.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name     string     `json:"name"`
		Value    flexString `json:"currentValue"`
		DataType string     `json:"dataType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Attribute{Name: aux.Name, Value: string(aux.Value), DataType: aux.DataType}
	return nil
}

// DeviceInfo is the detailed description of one device.
type DeviceInfo struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Label      string      `json:"label"`
	Type       string      `json:"type"`
	Room       string      `json:"room,omitempty"`
	Attributes []Attribute `json:"attributes"`
	Commands   []string    `json:"commands"`
}

// UnmarshalJSON accepts the id as a number or a string, and commands as
// names or {"command": name} objects.
func (d *DeviceInfo) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID         flexInt     `json:"id"`
		Name       string      `json:"name"`
		Label      string      `json:"label"`
		Type       string      `json:"type"`
		Room       string      `json:"room"`
		Attributes []Attribute `json:"attributes"`
		Commands   commandList `json:"commands"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = DeviceInfo{
		ID:         int(aux.ID),
		Name:       aux.Name,
		Label:      aux.Label,
		Type:       aux.Type,
		Room:       aux.Room,
		Attributes: aux.Attributes,
		Commands:   aux.Commands,
	}
	return nil
}

// Fields returns the info as ordered name/value pairs for display.
func (d *DeviceInfo) Fields() [][2]string {
	fields := [][2]string{
		{"id", strconv.Itoa(d.ID)},
		{"name", d.Name},
		{"label", d.Label},
		{"type", d.Type},
	}
	if d.Room != "" {
		fields = append(fields, [2]string{"room", d.Room})
	}
	fields = append(fields, [2]string{"commands", strings.Join(d.Commands, ", ")})
	return fields
}

// Event is one entry of a device's event history.
type Event struct {
	DeviceID    int       `json:"device_id"`
	Label       string    `json:"label"`
	Name        string    `json:"name"`
	Value       string    `json:"value"`
	Unit        string    `json:"unit,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
}

// UnmarshalJSON parses the hub's timestamp layout and tolerates non-string
// values.
func (e *Event) UnmarshalJSON(data []byte) error {
	var aux struct {
		DeviceID    flexInt    `json:"device_id"`
		Label       string     `json:"label"`
		Name        string     `json:"name"`
		Value       flexString `json:"value"`
		Unit        flexString `json:"unit"`
		Description flexString `json:"descriptionText"`
		Date        string     `json:"date"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	date, err := parseEventDate(aux.Date)
	if err != nil {
		return err
	}
	*e = Event{
		DeviceID:    int(aux.DeviceID),
		Label:       aux.Label,
		Name:        aux.Name,
		Value:       string(aux.Value),
		Unit:        string(aux.Unit),
		Description: string(aux.Description),
		Date:        date,
	}
	return nil
}

func parseEventDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(EventDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("event date %q: %w", s, err)
	}
	return t, nil
}

// inventoryEntry is one element of /devices/all.
type inventoryEntry struct {
	ID       flexInt     `json:"id"`
	Name     string      `json:"name"`
	Label    string      `json:"label"`
	Type     string      `json:"type"`
	Commands commandList `json:"commands"`
}

// flexInt decodes a JSON number or numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("id %s: %w", data, err)
	}
	*f = flexInt(n)
	return nil
}

// flexString decodes any JSON scalar into its text form; null is "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(val)
	case float64:
		*f = flexString(strconv.FormatFloat(val, 'f', -1, 64))
	default:
		b, _ := json.Marshal(val)
		*f = flexString(b)
	}
	return nil
}

// commandList decodes ["on", "off"] as well as
// [{"command": "on"}, {"command": "off"}].
type commandList []string

func (c *commandList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		var name string
		if err := json.Unmarshal(elem, &name); err == nil {
			out = append(out, name)
			continue
		}
		var obj struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(elem, &obj); err != nil {
			return fmt.Errorf("command %s: %w", elem, err)
		}
		out = append(out, obj.Command)
	}
	*c = out
	return nil
}

// sortAttributes orders attributes by name.
func sortAttributes(attrs []Attribute) {
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
}
