package trail

import (
	"context"
	"sync"
	"time"
)

// Source loads the trail from durable storage.
type Source interface {
	Load(ctx context.Context) (Trail, error)
}

// Loader caches the loaded trail process-wide for a bounded TTL. The trail
// rarely changes, so concurrent readers may see a slightly stale copy; a
// failed reload falls back to the last good trail rather than erroring.
type Loader struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	cached   Trail
	loadedAt time.Time
	hasTrail bool
}

func NewLoader(source Source, ttl time.Duration, now func() time.Time) *Loader {
	if now == nil {
		now = time.Now
	}
	return &Loader{source: source, ttl: ttl, now: now}
}

func (l *Loader) Get(ctx context.Context) (Trail, error) {
	l.mu.RLock()
	if l.hasTrail && l.now().Sub(l.loadedAt) < l.ttl {
		t := l.cached
		l.mu.RUnlock()
		return t, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hasTrail && l.now().Sub(l.loadedAt) < l.ttl {
		return l.cached, nil
	}

	t, err := l.source.Load(ctx)
	if err != nil {
		if l.hasTrail {
			return l.cached, nil
		}
		return Trail{}, err
	}
	l.cached = t
	l.loadedAt = l.now()
	l.hasTrail = true
	return t, nil
}

// Invalidate drops the cached trail so the next Get reloads it, used after an
// admin trail replacement.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasTrail = false
}
