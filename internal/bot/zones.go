package bot

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata" // timezone database for hosts and containers without one
)

const maxZoneSuggestions = 10

// commonZones are suggested when a requested timezone is unknown.
var commonZones = []string{
	"Africa/Cairo", "Africa/Johannesburg", "Africa/Lagos", "Africa/Nairobi",
	"America/Anchorage", "America/Argentina/Buenos_Aires", "America/Bogota",
	"America/Chicago", "America/Denver", "America/Halifax", "America/Los_Angeles",
	"America/Mexico_City", "America/New_York", "America/Phoenix", "America/Sao_Paulo",
	"America/St_Johns", "America/Toronto", "America/Vancouver",
	"Asia/Bangkok", "Asia/Dubai", "Asia/Hong_Kong", "Asia/Jakarta", "Asia/Jerusalem",
	"Asia/Karachi", "Asia/Kolkata", "Asia/Manila", "Asia/Seoul", "Asia/Shanghai",
	"Asia/Singapore", "Asia/Taipei", "Asia/Tehran", "Asia/Tokyo",
	"Atlantic/Azores", "Atlantic/Reykjavik",
	"Australia/Adelaide", "Australia/Brisbane", "Australia/Melbourne", "Australia/Perth",
	"Australia/Sydney",
	"Europe/Amsterdam", "Europe/Athens", "Europe/Berlin", "Europe/Brussels",
	"Europe/Dublin", "Europe/Helsinki", "Europe/Istanbul", "Europe/Lisbon",
	"Europe/London", "Europe/Madrid", "Europe/Moscow", "Europe/Oslo", "Europe/Paris",
	"Europe/Prague", "Europe/Rome", "Europe/Stockholm", "Europe/Vienna",
	"Europe/Warsaw", "Europe/Zurich",
	"Pacific/Auckland", "Pacific/Honolulu",
	"UTC",
}

// loadZone loads an IANA timezone by name. The process-local zone is not
// accepted.
func loadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimezone, name)
	}
	return loc, nil
}

// matchingZones returns the common zones containing s, ignoring case.
func matchingZones(s string) []string {
	s = strings.ToLower(s)
	var hits []string
	for _, z := range commonZones {
		if strings.Contains(strings.ToLower(z), s) {
			hits = append(hits, z)
		}
	}
	return hits
}

// zoneStore keeps each principal's timezone for the life of the process.
type zoneStore struct {
	mu    sync.RWMutex
	zones map[int64]*time.Location
}

func newZoneStore() *zoneStore {
	return &zoneStore{zones: make(map[int64]*time.Location)}
}

func (z *zoneStore) get(id int64) (*time.Location, bool) {
	z.mu.RLock()
	defer z.mu.RUnlock()
	loc, ok := z.zones[id]
	return loc, ok
}

func (z *zoneStore) set(id int64, loc *time.Location) {
	z.mu.Lock()
	z.zones[id] = loc
	z.mu.Unlock()
}
