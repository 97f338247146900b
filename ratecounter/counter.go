// Package ratecounter keeps cumulative operation counters that many goroutines increment
// without coordination, and periodically converts them into per-second rates.
package ratecounter

import (
	"sync/atomic"
)

// Totals are cumulative counter values since the Counter was created.
type Totals struct {
	Writes int64 `json:"writes"`
	Reads  int64 `json:"reads"`
	Errors int64 `json:"errors"`
}

// Counter holds the cumulative write, read and error counts. The zero value is ready to use.
type Counter struct {
	writes atomic.Int64
	reads  atomic.Int64
	errors atomic.Int64
}

// NewCounter creates a Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// IncrementWrites counts one successful write.
func (c *Counter) IncrementWrites() {
	c.writes.Add(1)
}

// IncrementReads counts one successful read.
func (c *Counter) IncrementReads() {
	c.reads.Add(1)
}

// IncrementErrors counts one failed store call.
func (c *Counter) IncrementErrors() {
	c.errors.Add(1)
}

// Totals returns a snapshot of the counters. Each value is read atomically, the three together are not.
func (c *Counter) Totals() Totals {
	return Totals{
		Writes: c.writes.Load(),
		Reads:  c.reads.Load(),
		Errors: c.errors.Load(),
	}
}

func (t Totals) sub(other Totals) Totals {
	return Totals{
		Writes: t.Writes - other.Writes,
		Reads:  t.Reads - other.Reads,
		Errors: t.Errors - other.Errors,
	}
}
