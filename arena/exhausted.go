package arena

import (
	"fmt"
	"unsafe"

	"github.com/fagongzi/allocwrap"
)

var (
	_ allocwrap.RawAllocator = (*Exhausted)(nil)
)

// Exhausted is a raw allocator that never has memory left. It is meant for testing the out of
// memory path of code using adapters.
type Exhausted struct {
	maxSize uintptr
}

// NewExhausted returns an Exhausted reporting maxSize as its MaxSize
func NewExhausted(maxSize uintptr) *Exhausted {
	return &Exhausted{maxSize: maxSize}
}

// Malloc implements allocwrap.RawAllocator, it always fails
func (e *Exhausted) Malloc(size uintptr) unsafe.Pointer {
	return nil
}

// Free implements allocwrap.RawAllocator. Nothing is ever allocated, so any non nil pointer
// panics.
func (e *Exhausted) Free(p unsafe.Pointer) {
	if p != nil {
		panic(fmt.Sprintf("exhausted: free of unknown block %#x", uintptr(p)))
	}
}

// MaxSize implements allocwrap.RawAllocator
func (e *Exhausted) MaxSize() uintptr {
	return e.maxSize
}
