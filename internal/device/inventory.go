package device

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Logger defines the logging interface used by the device package.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FetchFunc returns the full hub inventory.
type FetchFunc func(ctx context.Context) ([]Record, error)

// Source supplies the device list a Group filters.
type Source interface {
	Devices(ctx context.Context) ([]*Device, error)
}

// Inventory caches the hub's device list.
//
// The list is fetched on first use and kept until Invalidate. Fetch errors
// are returned to the caller unchanged (wrapped) and nothing is cached.
//
// All public methods are thread-safe.
type Inventory struct {
	fetch        FetchFunc
	descriptions map[int]string
	cache        lazy[[]*Device]
	fetches      atomic.Int64
	logger       Logger
}

// NewInventory creates an inventory cache over fetch. descriptions attaches
// a free-text description to devices by id; it may be nil.
func NewInventory(fetch FetchFunc, descriptions map[int]string) *Inventory {
	return &Inventory{
		fetch:        fetch,
		descriptions: descriptions,
		logger:       noopLogger{},
	}
}

// SetLogger sets the logger for the inventory.
func (i *Inventory) SetLogger(logger Logger) {
	i.logger = logger
}

// Devices returns every device in hub order.
//
// The returned slice and devices are shared with the cache and with other
// callers; they must not be modified.
func (i *Inventory) Devices(ctx context.Context) ([]*Device, error) {
	return i.cache.get(ctx, i.load)
}

func (i *Inventory) load(ctx context.Context) ([]*Device, error) {
	i.fetches.Add(1)
	records, err := i.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching device inventory: %w", err)
	}

	devices := make([]*Device, 0, len(records))
	for _, r := range records {
		d := NewDevice(r)
		d.Description = i.descriptions[d.ID]
		devices = append(devices, d)
	}

	i.logger.Info("device inventory refreshed", "count", len(devices))
	return devices, nil
}

// Invalidate drops the cached list; the next Devices call fetches again.
func (i *Inventory) Invalidate() {
	i.cache.invalidate()
	i.logger.Debug("device inventory invalidated")
}

// Cached reports whether the list is currently cached.
func (i *Inventory) Cached() bool {
	return i.cache.cached()
}

// Fetches returns how many times the inventory has been fetched.
func (i *Inventory) Fetches() int64 {
	return i.fetches.Load()
}
