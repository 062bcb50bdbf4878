package device

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// lazy holds a value that is built on first use and dropped by invalidate.
//
// Concurrent callers that miss share a single build. The build runs detached
// from any one caller's cancellation; each caller stops waiting when its own
// context ends. A build that started
// before an invalidate is returned to its callers but not stored, so a
// stale value never outlives the invalidation that superseded it. Readers
// see either the previous value or the new one, never a partial build.
type lazy[T any] struct {
	mu         sync.RWMutex
	value      T
	loaded     bool
	generation uint64
	flight     singleflight.Group
}

func (l *lazy[T]) get(ctx context.Context, build func(context.Context) (T, error)) (T, error) {
	l.mu.RLock()
	value, loaded, gen := l.value, l.loaded, l.generation
	l.mu.RUnlock()
	if loaded {
		return value, nil
	}

	ch := l.flight.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		built, err := build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		if l.generation == gen {
			l.value, l.loaded = built, true
		}
		l.mu.Unlock()
		return built, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (l *lazy[T]) invalidate() {
	l.mu.Lock()
	var zero T
	l.value, l.loaded = zero, false
	l.generation++
	l.mu.Unlock()
}

// cached reports whether a value is currently held.
func (l *lazy[T]) cached() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}
