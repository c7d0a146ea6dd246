// Package typing runs a platform typing indicator with keepalive and a TTL
// safety net. Discord's indicator expires after ~10s, so it must be refreshed
// while a slow backend call is in flight; the TTL guarantees a stuck request
// can't leave the indicator on forever.
package typing

import (
	"log/slog"
	"sync"
	"time"
)

// Options configures a Controller.
type Options struct {
	// MaxDuration auto-stops the indicator after this long.
	MaxDuration time.Duration
	// KeepaliveInterval is how often StartFn is re-invoked.
	KeepaliveInterval time.Duration
	// StartFn triggers the indicator once. Errors are logged and ignored;
	// a failed typing indicator never affects the message flow.
	StartFn func() error
}

// Controller manages one typing indicator lifecycle. Stop is idempotent and
// safe to call concurrently with the keepalive loop.
type Controller struct {
	opts Options
	stop chan struct{}
	once sync.Once
}

// New creates a Controller. Call Start to begin the keepalive loop.
func New(opts Options) *Controller {
	if opts.MaxDuration <= 0 {
		opts.MaxDuration = 60 * time.Second
	}
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = 9 * time.Second
	}
	return &Controller{opts: opts, stop: make(chan struct{})}
}

// Start fires the indicator immediately and keeps it alive until Stop or the
// TTL elapses.
func (c *Controller) Start() {
	go func() {
		if err := c.opts.StartFn(); err != nil {
			slog.Debug("typing indicator failed", "error", err)
		}
		ticker := time.NewTicker(c.opts.KeepaliveInterval)
		defer ticker.Stop()
		ttl := time.After(c.opts.MaxDuration)
		for {
			select {
			case <-c.stop:
				return
			case <-ttl:
				return
			case <-ticker.C:
				if err := c.opts.StartFn(); err != nil {
					slog.Debug("typing indicator failed", "error", err)
				}
			}
		}
	}()
}

// Stop ends the keepalive loop.
func (c *Controller) Stop() {
	c.once.Do(func() { close(c.stop) })
}
