// Package vector implements a growable contiguous array whose memory is drawn from an allocwrap
// adapter.
package vector

import (
	"fmt"
	"unsafe"

	"github.com/fagongzi/allocwrap"
	"github.com/pkg/errors"
)

const (
	minCapacity = 4
)

// Vector is a growable array of T. Elements [0, Len) are live, [Len, Cap) are allocated but
// uninitialized. The zero value is not usable, use New.
type Vector[T any, A allocwrap.Capability] struct {
	alloc allocwrap.Adapter[T, A]
	data  *T
	len   int
	cap   int
}

// New returns an empty vector allocating from alloc. No memory is allocated until the first
// element is appended.
func New[T any, A allocwrap.Capability](alloc allocwrap.Adapter[T, A]) *Vector[T, A] {
	return &Vector[T, A]{alloc: alloc}
}

// Allocator returns the adapter the vector was created with
func (v *Vector[T, A]) Allocator() allocwrap.Adapter[T, A] {
	return v.alloc
}

// Len returns the number of elements
func (v *Vector[T, A]) Len() int {
	return v.len
}

// Cap returns the number of elements that fit without growing
func (v *Vector[T, A]) Cap() int {
	return v.cap
}

// Get returns the element at i
func (v *Vector[T, A]) Get(i int) T {
	return *v.at(i)
}

// Set replaces the element at i, the old element is destroyed
func (v *Vector[T, A]) Set(i int, value T) {
	p := v.at(i)
	v.alloc.Destroy(p)
	v.alloc.Construct(p, value)
}

// Values returns the live elements as a slice. The slice is invalid after the next Append,
// Reserve or Release.
func (v *Vector[T, A]) Values() []T {
	if v.len == 0 {
		return nil
	}
	return unsafe.Slice(v.data, v.len)
}

// Append adds value to the end, growing the storage if needed.
func (v *Vector[T, A]) Append(value T) error {
	if v.len == v.cap {
		if err := v.grow(v.len + 1); err != nil {
			return err
		}
	}
	v.alloc.Construct(v.slot(v.len), value)
	v.len++
	return nil
}

// Pop removes and returns the last element
func (v *Vector[T, A]) Pop() T {
	p := v.at(v.len - 1)
	value := *p
	v.alloc.Destroy(p)
	v.len--
	return value
}

// Reserve makes sure n elements fit without growing
func (v *Vector[T, A]) Reserve(n int) error {
	if n <= v.cap {
		return nil
	}
	return v.realloc(n)
}

// Truncate destroys the elements from n to the end
func (v *Vector[T, A]) Truncate(n int) {
	if n < 0 || n > v.len {
		panic(fmt.Sprintf("vector: truncate to %d, len %d", n, v.len))
	}
	for i := n; i < v.len; i++ {
		v.alloc.Destroy(v.slot(i))
	}
	v.len = n
}

// Release destroys every element and gives the storage back to the allocator
func (v *Vector[T, A]) Release() {
	v.Truncate(0)
	v.alloc.Deallocate(v.data, v.cap)
	v.data = nil
	v.cap = 0
}

// Swap exchanges the contents of v and other. Both must draw from the same raw allocator,
// otherwise memory would later be freed into the wrong allocator.
func (v *Vector[T, A]) Swap(other *Vector[T, A]) {
	if !v.alloc.Equal(other.alloc) {
		panic("vector: swap between vectors with different allocators")
	}
	*v, *other = *other, *v
}

// MoveFrom takes over the contents of other, which is left empty. Storage is stolen when both
// vectors draw from the same raw allocator, otherwise the elements are copied.
func (v *Vector[T, A]) MoveFrom(other *Vector[T, A]) error {
	if v == other {
		return nil
	}
	if v.alloc.Equal(other.alloc) {
		v.Release()
		v.data, v.len, v.cap = other.data, other.len, other.cap
		other.data, other.len, other.cap = nil, 0, 0
		return nil
	}

	if err := v.Reserve(v.len + other.len); err != nil {
		return err
	}
	for _, value := range other.Values() {
		v.alloc.Construct(v.slot(v.len), value)
		v.len++
	}
	other.Release()
	return nil
}

func (v *Vector[T, A]) grow(need int) error {
	limit := v.alloc.MaxElements()
	if need > limit {
		return errors.Wrapf(allocwrap.ErrOutOfMemory, "vector: %d elements, max %d", need, limit)
	}

	target := v.cap * 2
	if target < minCapacity {
		target = minCapacity
	}
	if target < need {
		target = need
	}
	if target > limit || target < v.cap {
		target = limit
	}
	return v.realloc(target)
}

func (v *Vector[T, A]) realloc(n int) error {
	data, err := v.alloc.Allocate(n)
	if err != nil {
		return err
	}
	if v.len > 0 {
		src := unsafe.Slice(v.data, v.len)
		dst := unsafe.Slice(data, n)
		for i := range src {
			v.alloc.Construct(&dst[i], src[i])
			v.alloc.Destroy(&src[i])
		}
	}
	v.alloc.Deallocate(v.data, v.cap)
	v.data = data
	v.cap = n
	return nil
}

func (v *Vector[T, A]) at(i int) *T {
	if i < 0 || i >= v.len {
		panic(fmt.Sprintf("vector: index %d out of range, len %d", i, v.len))
	}
	return v.slot(i)
}

func (v *Vector[T, A]) slot(i int) *T {
	return (*T)(unsafe.Add(unsafe.Pointer(v.data), uintptr(i)*v.alloc.SizeOf()))
}
