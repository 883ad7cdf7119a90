package arena

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidCapacity arena capacity is smaller than one aligned block
	ErrInvalidCapacity = errors.New("arena: invalid capacity")
	// ErrInvalidAlignment alignment is not a power of two or smaller than 8
	ErrInvalidAlignment = errors.New("arena: invalid alignment")
	// ErrMmapUnsupported anonymous mappings are not available on this platform
	ErrMmapUnsupported = errors.New("arena: mmap unsupported")
)
