package allocwrap

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfMemory the raw allocator could not satisfy a request, or the request can not be
	// expressed as a byte count the raw allocator accepts.
	ErrOutOfMemory = errors.New("allocwrap: out of memory")
)

// IsOutOfMemory returns true if err is, or wraps, ErrOutOfMemory
func IsOutOfMemory(err error) bool {
	return errors.Is(err, ErrOutOfMemory)
}

func outOfMemory(reason string, n int, size uintptr) error {
	return errors.Wrapf(ErrOutOfMemory, "%s: %d elements of %d bytes", reason, n, size)
}
