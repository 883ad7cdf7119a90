package arena

import (
	"sync"
	"unsafe"

	"github.com/fagongzi/allocwrap"
)

var (
	_ allocwrap.RawAllocator = (*Locked)(nil)
)

// Locked serializes every call to the wrapped raw allocator, making it safe for adapters used
// from multiple goroutines.
type Locked struct {
	sync.Mutex
	raw allocwrap.RawAllocator
}

// NewLocked returns a Locked forwarding to raw
func NewLocked(raw allocwrap.RawAllocator) *Locked {
	return &Locked{raw: raw}
}

// Malloc implements allocwrap.RawAllocator
func (l *Locked) Malloc(size uintptr) unsafe.Pointer {
	l.Lock()
	defer l.Unlock()
	return l.raw.Malloc(size)
}

// Free implements allocwrap.RawAllocator
func (l *Locked) Free(p unsafe.Pointer) {
	l.Lock()
	defer l.Unlock()
	l.raw.Free(p)
}

// MaxSize implements allocwrap.RawAllocator
func (l *Locked) MaxSize() uintptr {
	l.Lock()
	defer l.Unlock()
	return l.raw.MaxSize()
}
