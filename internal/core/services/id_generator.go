package services

import (
	"sync"
	"time"
)

// MillisIDGenerator hands out millisecond timestamps as ids. When two calls land
// in the same millisecond (or the clock steps back) it returns last+1, so ids
// from one generator are strictly increasing.
type MillisIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMillisIDGenerator(now func() time.Time) *MillisIDGenerator {
	if now == nil {
		now = time.Now
	}
	return &MillisIDGenerator{now: now}
}

func (g *MillisIDGenerator) NextID() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}
