package engine

import (
	"sync"
	"time"
)

// Clock supplies timestamps for join dates and game lifecycle fields.
type Clock interface {
	Now() time.Time
}

// UniqueClock hands out strictly increasing UTC timestamps at microsecond
// precision, so no two join dates in a process collide and the ordering
// survives a round trip through Postgres.
type UniqueClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewClock() *UniqueClock {
	return &UniqueClock{now: time.Now}
}

func (c *UniqueClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}
