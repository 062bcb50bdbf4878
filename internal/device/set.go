package device

// Set is a set of devices keyed by id.
type Set map[int]*Device

// NewSet returns a Set holding devices.
func NewSet(devices ...*Device) Set {
	s := make(Set, len(devices))
	s.Add(devices...)
	return s
}

// Add inserts devices; a device already present by id is kept.
func (s Set) Add(devices ...*Device) {
	for _, d := range devices {
		if _, ok := s[d.ID]; !ok {
			s[d.ID] = d
		}
	}
}

// Union adds every device of o to s.
func (s Set) Union(o Set) {
	for _, d := range o {
		s.Add(d)
	}
}

// Sorted returns the devices ordered by label, then id.
func (s Set) Sorted() []*Device {
	out := make([]*Device, 0, len(s))
	for _, d := range s {
		out = append(out, d)
	}
	sortDevices(out)
	return out
}

// Labels returns the device labels in Sorted order.
func (s Set) Labels() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, d := range sorted {
		out[i] = d.Label
	}
	return out
}
