package arena

import (
	"go.uber.org/zap"
)

const (
	// defaultAlignment alignment of every block handed out by an Arena
	defaultAlignment = 16
	// defaultMaxSize max single allocation of Heap and Pinned, 2GB
	defaultMaxSize = uintptr(0x80000000)
)

// Option raw allocator option
type Option func(*options)

type options struct {
	logger    *zap.Logger
	alignment uintptr
	maxSize   uintptr
	mmap      bool
}

func (opts *options) adjust() {
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
	if opts.alignment == 0 {
		opts.alignment = defaultAlignment
	}
}

// WithLogger set logger for the raw allocator
func WithLogger(logger *zap.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithAlignment set block alignment of an Arena, must be a power of two and at least 8.
func WithAlignment(value uintptr) Option {
	return func(opts *options) {
		opts.alignment = value
	}
}

// WithMaxSize set the largest size a single Malloc can take. By default an Arena uses its
// capacity, Heap and Pinned use 2GB.
func WithMaxSize(value uintptr) Option {
	return func(opts *options) {
		opts.maxSize = value
	}
}

// WithMmap back an Arena with an anonymous private mapping instead of Go heap memory. The
// mapping is released by Close.
func WithMmap() Option {
	return func(opts *options) {
		opts.mmap = true
	}
}
