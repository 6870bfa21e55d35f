package cache

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Janitor runs Cleanup on a fixed interval until ctx is cancelled. Blocking;
// run it in its own goroutine.
func (c *Cache[V]) Janitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := c.Cleanup(); n > 0 {
				log.WithField("removed", n).Debug("cache cleanup")
			}
		}
	}
}
