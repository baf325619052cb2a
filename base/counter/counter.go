package counter

import "sync/atomic"

// Counter hands out ledger ids: 0, 1, 2, ... with no gaps.
type Counter struct {
	next uint64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next() uint64 {
	return atomic.AddUint64(&c.next, 1) - 1
}

// Count is how many ids were handed out.
func (c *Counter) Count() uint64 {
	return atomic.LoadUint64(&c.next)
}
