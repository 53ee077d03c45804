package web

import (
	"context"
	"sync"

	"github.com/hpungsan/pockets/internal/host"
)

// Changes counts model changes and lets clients wait for the next one.
// It is registered with the engine as a host.Notifier.
type Changes struct {
	mu      sync.Mutex
	version uint64
	wait    chan struct{}
}

var _ host.Notifier = (*Changes)(nil)

// NewChanges returns a tracker at version 0.
func NewChanges() *Changes {
	return &Changes{wait: make(chan struct{})}
}

// ModelChanged bumps the version and wakes every waiter.
func (c *Changes) ModelChanged() {
	c.mu.Lock()
	c.version++
	close(c.wait)
	c.wait = make(chan struct{})
	c.mu.Unlock()
}

// Version returns the current version.
func (c *Changes) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Wait blocks until the version differs from since or ctx is done, and
// returns the version seen last.
func (c *Changes) Wait(ctx context.Context, since uint64) uint64 {
	for {
		c.mu.Lock()
		v, ch := c.version, c.wait
		c.mu.Unlock()
		if v != since {
			return v
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return v
		}
	}
}
