package arena

import (
	"unsafe"

	"github.com/fagongzi/allocwrap"
	"go.uber.org/atomic"
)

var (
	_ allocwrap.RawAllocator = (*Counting)(nil)
)

// Stats counters of a Counting raw allocator
type Stats struct {
	// Outstanding blocks returned by Malloc and not yet freed
	Outstanding int64
	// Mallocs successful Malloc calls
	Mallocs uint64
	// Frees Free calls with a non nil pointer
	Frees uint64
	// Failures Malloc calls that returned nil
	Failures uint64
	// Bytes sum of sizes requested by successful Malloc calls
	Bytes uint64
}

// Counting wraps a raw allocator and counts its traffic. Counting is as safe for concurrent use
// as the wrapped allocator.
type Counting struct {
	raw allocwrap.RawAllocator

	outstanding atomic.Int64
	mallocs     atomic.Uint64
	frees       atomic.Uint64
	failures    atomic.Uint64
	bytes       atomic.Uint64
}

// NewCounting returns a Counting forwarding to raw
func NewCounting(raw allocwrap.RawAllocator) *Counting {
	return &Counting{raw: raw}
}

// Malloc implements allocwrap.RawAllocator
func (c *Counting) Malloc(size uintptr) unsafe.Pointer {
	p := c.raw.Malloc(size)
	if p == nil {
		c.failures.Inc()
		return nil
	}
	c.outstanding.Inc()
	c.mallocs.Inc()
	c.bytes.Add(uint64(size))
	return p
}

// Free implements allocwrap.RawAllocator
func (c *Counting) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	c.raw.Free(p)
	c.outstanding.Dec()
	c.frees.Inc()
}

// MaxSize implements allocwrap.RawAllocator
func (c *Counting) MaxSize() uintptr {
	return c.raw.MaxSize()
}

// Outstanding returns the number of live blocks
func (c *Counting) Outstanding() int64 {
	return c.outstanding.Load()
}

// Stats returns a snapshot of the counters
func (c *Counting) Stats() Stats {
	return Stats{
		Outstanding: c.outstanding.Load(),
		Mallocs:     c.mallocs.Load(),
		Frees:       c.frees.Load(),
		Failures:    c.failures.Load(),
		Bytes:       c.bytes.Load(),
	}
}
