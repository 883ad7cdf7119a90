package buf

import (
	"math"

	"github.com/fagongzi/allocwrap"
)

// Allocator memory allocation for ByteBuf
type Allocator interface {
	// Allocate allocate a []byte with len(data) == capacity, and the returned []byte cannot
	// be expanded in use.
	Allocate(capacity int) ([]byte, error)
	// Free free the allocated memory
	Free([]byte)
	// MaxCapacity returns the largest capacity a single Allocate can take
	MaxCapacity() int
}

type nonReusableAllocator struct {
}

func newNonReusableAllocator() Allocator {
	return &nonReusableAllocator{}
}

func (ma *nonReusableAllocator) Allocate(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (ma *nonReusableAllocator) Free([]byte) {

}

func (ma *nonReusableAllocator) MaxCapacity() int {
	return math.MaxInt
}

type adapterAllocator[A allocwrap.Capability] struct {
	adapter allocwrap.Adapter[byte, A]
}

// FromAdapter returns an Allocator that draws ByteBuf memory from the raw allocator bound to
// adapter.
func FromAdapter[A allocwrap.Capability](adapter allocwrap.Adapter[byte, A]) Allocator {
	return &adapterAllocator[A]{adapter: adapter}
}

func (aa *adapterAllocator[A]) Allocate(size int) ([]byte, error) {
	return aa.adapter.AllocateSlice(size)
}

func (aa *adapterAllocator[A]) Free(data []byte) {
	aa.adapter.DeallocateSlice(data)
}

func (aa *adapterAllocator[A]) MaxCapacity() int {
	return aa.adapter.MaxElements()
}
