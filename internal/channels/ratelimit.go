package channels

import (
	"sync"
	"time"
)

const (
	// maxTrackedSenders caps the number of tracked senders to prevent
	// memory exhaustion from attackers rotating sender IDs.
	maxTrackedSenders = 4096

	// rateLimitWindow is the sliding window duration for rate counting.
	rateLimitWindow = 60 * time.Second

	// rateLimitMaxHits is the max messages per sender within a window.
	rateLimitMaxHits = 30
)

type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// SenderRateLimiter bounds per-sender inbound message rates and caps the
// number of tracked senders to prevent memory exhaustion from rotating
// sender IDs. Safe for concurrent use.
type SenderRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
}

// NewSenderRateLimiter creates a bounded sender rate limiter.
func NewSenderRateLimiter() *SenderRateLimiter {
	return &SenderRateLimiter{entries: make(map[string]*rateLimitEntry)}
}

// Allow returns true if the sender is within rate limits.
// Automatically prunes stale entries and enforces a hard cap on tracked senders.
func (r *SenderRateLimiter) Allow(senderID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	// Prune stale entries when approaching the cap
	if len(r.entries) >= maxTrackedSenders {
		for k, e := range r.entries {
			if now.Sub(e.windowStart) >= rateLimitWindow {
				delete(r.entries, k)
			}
		}
		// Hard eviction if still at cap (FIFO-ish via map iteration)
		for len(r.entries) >= maxTrackedSenders {
			for k := range r.entries {
				delete(r.entries, k)
				break
			}
		}
	}

	e, ok := r.entries[senderID]
	if !ok || now.Sub(e.windowStart) >= rateLimitWindow {
		r.entries[senderID] = &rateLimitEntry{windowStart: now, count: 1}
		return true
	}

	e.count++
	return e.count <= rateLimitMaxHits
}
