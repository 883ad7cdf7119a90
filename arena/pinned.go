package arena

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/awnumar/memcall"
	"github.com/fagongzi/allocwrap"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	_ allocwrap.RawAllocator = (*Pinned)(nil)
)

// Pinned is a raw allocator whose blocks are separate page mappings locked into RAM, so they
// are never written to swap. Every block takes at least one page, Pinned suits few long lived
// allocations holding sensitive data.
//
// Pinned is safe for concurrent use.
type Pinned struct {
	logger  *zap.Logger
	maxSize uintptr

	mu struct {
		sync.Mutex
		blocks map[uintptr][]byte
	}
}

// NewPinned creates a Pinned
func NewPinned(opts ...Option) *Pinned {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.adjust()
	if o.maxSize == 0 {
		o.maxSize = defaultMaxSize
	}
	p := &Pinned{
		logger:  o.logger.Named("pinned"),
		maxSize: o.maxSize,
	}
	p.mu.blocks = make(map[uintptr][]byte)
	return p
}

// Malloc implements allocwrap.RawAllocator. It fails if the pages can not be locked, for
// example because RLIMIT_MEMLOCK is reached.
func (p *Pinned) Malloc(size uintptr) unsafe.Pointer {
	if size > p.maxSize {
		return nil
	}
	if size == 0 {
		size = 1
	}

	b, err := memcall.Alloc(int(size))
	if err != nil {
		p.logger.Debug("alloc pages failed", zap.Uintptr("size", size), zap.Error(err))
		return nil
	}
	if err := memcall.Lock(b); err != nil {
		p.logger.Debug("lock pages failed", zap.Uintptr("size", size), zap.Error(err))
		if err := memcall.Free(b); err != nil {
			p.logger.Error("free pages failed", zap.Error(err))
		}
		return nil
	}

	addr := unsafe.Pointer(unsafe.SliceData(b))
	p.mu.Lock()
	p.mu.blocks[uintptr(addr)] = b
	p.mu.Unlock()
	return addr
}

// Free implements allocwrap.RawAllocator
func (p *Pinned) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	p.mu.Lock()
	b, ok := p.mu.blocks[uintptr(ptr)]
	delete(p.mu.blocks, uintptr(ptr))
	p.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("pinned: free of unknown block %#x", uintptr(ptr)))
	}

	if err := release(b); err != nil {
		p.logger.Error("release pages failed", zap.Error(err))
	}
}

// MaxSize implements allocwrap.RawAllocator
func (p *Pinned) MaxSize() uintptr {
	return p.maxSize
}

// InUse returns the number of live blocks
func (p *Pinned) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.mu.blocks)
}

// Close unlocks and frees every live block.
func (p *Pinned) Close() error {
	p.mu.Lock()
	blocks := p.mu.blocks
	p.mu.blocks = make(map[uintptr][]byte)
	p.mu.Unlock()

	var err error
	for _, b := range blocks {
		err = multierr.Append(err, release(b))
	}
	return err
}

func release(b []byte) error {
	return multierr.Append(memcall.Unlock(b), memcall.Free(b))
}
