// Package arena provides raw allocators that can be bound to allocwrap adapters, and wrappers
// that add accounting or locking to any raw allocator.
package arena

import (
	"fmt"
	"slices"
	"sort"
	"unsafe"

	"github.com/fagongzi/allocwrap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	_ allocwrap.RawAllocator = (*Arena)(nil)
)

type span struct {
	off  uintptr
	size uintptr
}

// Arena is a fixed-capacity raw allocator over one contiguous region.
//
// Blocks are carved first-fit out of an address ordered free list and coalesced with their
// neighbours on Free. Block sizes are kept outside the region, so an empty Arena has all of its
// capacity available.
//
// Arena is not safe for concurrent use, wrap it with NewLocked if adapters bound to it are used
// from multiple goroutines.
type Arena struct {
	logger    *zap.Logger
	options   options
	base      unsafe.Pointer
	capacity  uintptr
	available uintptr
	free      []span             // sorted by off, never adjacent
	used      map[uintptr]uintptr // off -> size
	backing   []byte
	release   func() error
}

// NewArena creates an arena of capacity bytes, rounded down to the alignment.
func NewArena(capacity int, opts ...Option) (*Arena, error) {
	a := &Arena{}
	for _, opt := range opts {
		opt(&a.options)
	}
	a.options.adjust()

	align := a.options.alignment
	if align < 8 || align&(align-1) != 0 {
		return nil, errors.Wrapf(ErrInvalidAlignment, "alignment %d", align)
	}
	if capacity < int(align) {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d, alignment %d", capacity, align)
	}
	a.capacity = uintptr(capacity) &^ (align - 1)

	if a.options.mmap {
		data, err := mapAnonymous(int(a.capacity))
		if err != nil {
			return nil, err
		}
		a.backing = data
		a.release = func() error { return unmap(data) }
	} else {
		a.backing = alignedBytes(int(a.capacity), int(align))
	}
	a.base = unsafe.Pointer(unsafe.SliceData(a.backing))
	a.available = a.capacity
	a.free = []span{{off: 0, size: a.capacity}}
	a.used = make(map[uintptr]uintptr)
	a.logger = a.options.logger.Named("arena").With(zap.Uintptr("capacity", a.capacity),
		zap.Bool("mmap", a.options.mmap))
	return a, nil
}

// alignedBytes returns a Go heap slice of size bytes whose first byte is aligned to align.
func alignedBytes(size, align int) []byte {
	buf := make([]byte, size+align)
	addr := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	shift := (align - addr&(align-1)) & (align - 1)
	return buf[shift : shift+size : shift+size]
}

// Malloc implements allocwrap.RawAllocator
func (a *Arena) Malloc(size uintptr) unsafe.Pointer {
	if size > a.MaxSize() {
		a.logFailure(size)
		return nil
	}

	align := a.options.alignment
	need := (size + align - 1) &^ (align - 1)
	if need == 0 {
		need = align
	}

	for i, s := range a.free {
		if s.size < need {
			continue
		}
		if s.size == need {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = span{off: s.off + need, size: s.size - need}
		}
		a.used[s.off] = need
		a.available -= need
		return unsafe.Add(a.base, s.off)
	}

	a.logFailure(size)
	return nil
}

// Free implements allocwrap.RawAllocator. It panics if p was not returned by Malloc of this
// arena or was already freed.
func (a *Arena) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	off := uintptr(p) - uintptr(a.base)
	size, ok := a.used[off]
	if !ok {
		panic(fmt.Sprintf("arena: free of unknown block %#x", uintptr(p)))
	}
	delete(a.used, off)
	a.available += size

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off > off })
	mergePrev := i > 0 && a.free[i-1].off+a.free[i-1].size == off
	mergeNext := i < len(a.free) && off+size == a.free[i].off
	switch {
	case mergePrev && mergeNext:
		a.free[i-1].size += size + a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	case mergePrev:
		a.free[i-1].size += size
	case mergeNext:
		a.free[i] = span{off: off, size: size + a.free[i].size}
	default:
		a.free = slices.Insert(a.free, i, span{off: off, size: size})
	}
}

// MaxSize implements allocwrap.RawAllocator
func (a *Arena) MaxSize() uintptr {
	if a.options.maxSize > 0 && a.options.maxSize < a.capacity {
		return a.options.maxSize
	}
	return a.capacity
}

// Capacity returns the size of the region in bytes
func (a *Arena) Capacity() uintptr {
	return a.capacity
}

// Available returns the number of bytes not held by live blocks. Fragmentation may prevent a
// single block of this size from being allocated.
func (a *Arena) Available() uintptr {
	return a.available
}

// InUse returns the number of live blocks
func (a *Arena) InUse() int {
	return len(a.used)
}

// Close releases the region. Every pointer handed out by the arena becomes invalid, and later
// Malloc calls fail.
func (a *Arena) Close() error {
	if n := len(a.used); n > 0 {
		a.logger.Warn("arena closed with live blocks", zap.Int("blocks", n))
	}

	a.free = nil
	a.used = make(map[uintptr]uintptr)
	a.available = 0
	a.backing = nil
	if a.release == nil {
		return nil
	}
	release := a.release
	a.release = nil
	if err := release(); err != nil {
		a.logger.Error("release region failed", zap.Error(err))
		return err
	}
	return nil
}

func (a *Arena) logFailure(size uintptr) {
	if ce := a.logger.Check(zap.DebugLevel, "malloc failed"); ce != nil {
		ce.Write(zap.Uintptr("size", size),
			zap.Uintptr("available", a.available),
			zap.Int("free-spans", len(a.free)))
	}
}
