package utils

import (
	"github.com/jamezpolley/stashboard/internal/logger"
)

type closer struct {
	name string
	fn   func() error
}

// Closers collects cleanups for connections opened during startup and runs
// them in reverse order.
type Closers struct {
	list []closer
}

// Add registers a cleanup that can fail.
func (c *Closers) Add(name string, fn func() error) {
	if fn == nil {
		return
	}
	c.list = append(c.list, closer{name: name, fn: fn})
}

// AddFunc registers a cleanup that cannot fail.
func (c *Closers) AddFunc(name string, fn func()) {
	if fn == nil {
		return
	}
	c.Add(name, func() error { fn(); return nil })
}

// Close runs every cleanup, last registered first, and logs failures.
// It returns the number of cleanups that failed. Close empties the list so
// a second call is a no-op.
func (c *Closers) Close(log logger.Logger) int {
	failed := 0
	for i := len(c.list) - 1; i >= 0; i-- {
		cl := c.list[i]
		if err := cl.fn(); err != nil {
			failed++
			log.Warn("failed to close", logger.String("resource", cl.name), logger.Error(err))
			continue
		}
		log.Debug("closed", logger.String("resource", cl.name))
	}
	c.list = nil
	return failed
}
