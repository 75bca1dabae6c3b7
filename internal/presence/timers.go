package presence

import (
	"sync"
	"time"
)

type timerKind int

const (
	timerGrace timerKind = iota
	timerIdle
	timerBotInactivity
)

func (k timerKind) String() string {
	switch k {
	case timerGrace:
		return "grace"
	case timerIdle:
		return "idle"
	case timerBotInactivity:
		return "bot_inactivity"
	}
	return "unknown"
}

type timerKey struct {
	userID string
	kind   timerKind
}

// timerRegistry manages single-shot callbacks keyed by (user, kind).
// Arming a key always cancels the previous timer for that key, so at most
// one timer is pending per key at any instant.
type timerRegistry struct {
	mu     sync.Mutex
	timers map[timerKey]*time.Timer
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{timers: make(map[timerKey]*time.Timer)}
}

// arm schedules fn to run after d, replacing any pending timer for the same
// (user, kind). fn runs on its own goroutine; the registry entry is cleared
// before fn is invoked. A timer that fires but is canceled or replaced
// before it reaches the registry lock never runs its callback.
func (r *timerRegistry) arm(userID string, kind timerKind, d time.Duration, fn func()) {
	key := timerKey{userID: userID, kind: kind}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.timers[key]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		r.mu.Lock()
		if r.timers[key] != t {
			// Canceled or replaced between fire and lock; this timer no
			// longer speaks for the key.
			r.mu.Unlock()
			return
		}
		delete(r.timers, key)
		r.mu.Unlock()
		fn()
	})
	r.timers[key] = t
}

func (r *timerRegistry) cancel(userID string, kind timerKind) {
	key := timerKey{userID: userID, kind: kind}
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[key]; ok {
		t.Stop()
		delete(r.timers, key)
	}
}

func (r *timerRegistry) cancelAll(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, kind := range []timerKind{timerGrace, timerIdle, timerBotInactivity} {
		key := timerKey{userID: userID, kind: kind}
		if t, ok := r.timers[key]; ok {
			t.Stop()
			delete(r.timers, key)
		}
	}
}

// stopAll cancels every pending timer. Used on shutdown.
func (r *timerRegistry) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, t := range r.timers {
		t.Stop()
		delete(r.timers, key)
	}
}

func (r *timerRegistry) pending(userID string, kind timerKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[timerKey{userID: userID, kind: kind}]
	return ok
}
