// Package units is loaded by the gotypes tests.
package units

import "sync"

type Meters float64

func (m Meters) Km() float64 { return float64(m) / 1000 }

type Counter struct {
	mu sync.Mutex
	n  int
}

func (c *Counter) Inc() { c.mu.Lock(); c.n++; c.mu.Unlock() }

type Span struct {
	From, To Meters
}
