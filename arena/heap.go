package arena

import (
	"fmt"
	"unsafe"

	"github.com/fagongzi/allocwrap"
	"go.uber.org/zap"
	"modernc.org/memory"
)

var (
	_ allocwrap.RawAllocator = (*Heap)(nil)
)

// Heap is an unbounded raw allocator over memory mapped outside the Go heap. Blocks are 16
// byte aligned.
//
// Heap is not safe for concurrent use, wrap it with NewLocked if needed.
type Heap struct {
	logger  *zap.Logger
	maxSize uintptr
	alloc   memory.Allocator
}

// NewHeap creates a Heap
func NewHeap(opts ...Option) *Heap {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.adjust()
	if o.maxSize == 0 {
		o.maxSize = defaultMaxSize
	}
	return &Heap{
		logger:  o.logger.Named("heap"),
		maxSize: o.maxSize,
	}
}

// Malloc implements allocwrap.RawAllocator
func (h *Heap) Malloc(size uintptr) unsafe.Pointer {
	if size > h.maxSize {
		return nil
	}
	if size == 0 {
		size = 1
	}
	p, err := h.alloc.UnsafeMalloc(int(size))
	if err != nil {
		h.logger.Debug("malloc failed", zap.Uintptr("size", size), zap.Error(err))
		return nil
	}
	return p
}

// Free implements allocwrap.RawAllocator
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if err := h.alloc.UnsafeFree(p); err != nil {
		panic(fmt.Sprintf("heap: free %#x: %v", uintptr(p), err))
	}
}

// MaxSize implements allocwrap.RawAllocator
func (h *Heap) MaxSize() uintptr {
	return h.maxSize
}

// Close unmaps all memory held by the heap, live blocks included.
func (h *Heap) Close() error {
	return h.alloc.Close()
}
