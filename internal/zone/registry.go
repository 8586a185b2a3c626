package zone

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Monte-Ntuli/trading-bot-3/internal/metrics"
)

// breakMargin is the fraction of zone height the price must clear beyond a
// band before the zone counts as broken.
const breakMargin = 0.1

// Registry is a bounded, insertion-ordered store of live zones (oldest
// first). It is owned by a single goroutine; see the engine's event loop.
type Registry struct {
	capacity int
	maxAge   time.Duration
	zones    []Zone
	log      zerolog.Logger
}

// NewRegistry builds a registry holding at most capacity zones, evicting any
// zone older than maxAge on purge.
func NewRegistry(capacity int, maxAge time.Duration, log zerolog.Logger) *Registry {
	if capacity < 1 {
		capacity = 1
	}
	return &Registry{
		capacity: capacity,
		maxAge:   maxAge,
		zones:    make([]Zone, 0, capacity),
		log:      log,
	}
}

// Insert appends the zone and reports whether it was accepted. A full
// registry drops the newcomer rather than evicting an older zone; the drop
// is deliberate backpressure, logged and counted but non-fatal.
func (r *Registry) Insert(z Zone) bool {
	if len(r.zones) >= r.capacity {
		r.log.Warn().
			Int("capacity", r.capacity).
			Time("bar", z.CreatedAt).
			Msg("zone registry full, dropping new zone")
		metrics.ZonesDropped.Inc()
		return false
	}
	r.zones = append(r.zones, z)
	return true
}

// Purge removes zones that exceeded maxAge or whose band the price has
// broken beyond the margin. Survivors keep their relative order. Calling it
// again with unchanged inputs removes nothing. Returns the eviction count.
func (r *Registry) Purge(now time.Time, price float64) int {
	kept := r.zones[:0]
	removed := 0
	for _, z := range r.zones {
		switch {
		case now.Sub(z.CreatedAt) > r.maxAge:
			r.evicted(z, "age")
			removed++
		case !z.Contains(price, breakMargin):
			r.evicted(z, "break")
			removed++
		default:
			kept = append(kept, z)
		}
	}
	r.zones = kept
	return removed
}

func (r *Registry) evicted(z Zone, reason string) {
	r.log.Debug().
		Str("direction", z.Dir.String()).
		Str("reason", reason).
		Time("bar", z.CreatedAt).
		Msg("zone purged")
	metrics.ZonesPurged.WithLabelValues(reason).Inc()
}

// Len reports the number of live zones.
func (r *Registry) Len() int { return len(r.zones) }

// At returns the zone at index i in insertion order.
func (r *Registry) At(i int) Zone { return r.zones[i] }

// Remove deletes the zone at index i, shifting later zones down so iteration
// order is preserved for callers that remove mid-scan.
func (r *Registry) Remove(i int) {
	r.zones = append(r.zones[:i], r.zones[i+1:]...)
}

// HasTimestamp reports whether any live zone was created at ts.
func (r *Registry) HasTimestamp(ts time.Time) bool {
	for _, z := range r.zones {
		if z.CreatedAt.Equal(ts) {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the live zones in insertion order.
func (r *Registry) Snapshot() []Zone {
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}
