// Package allocwrap adapts a custom raw allocator, one that only knows how to allocate and free
// bytes, into a typed allocator for generic containers.
//
// An Adapter[T, A] converts element counts to byte counts, places and removes values of T in raw
// memory, and can be rebound to any other element type while keeping the same raw allocator:
//
//	raw, _ := arena.NewArena(64 * 1024)
//	ints := allocwrap.New[int64](raw)
//	nodes := allocwrap.Rebind[node](ints) // same raw allocator, different element type
//	ints.Equal(nodes)                     // true
//
// Memory returned by a raw allocator is not scanned by the garbage collector unless the raw
// allocator hands out memory the collector already scans. Values placed with Construct must not
// hold the only reference to Go heap objects.
package allocwrap

import (
	"fmt"
	"math"
	"math/bits"
	"unsafe"

	"go.uber.org/zap"
)

// zerobase is the address handed out for zero-sized allocations.
var zerobase uintptr

// Binding is implemented by every Adapter bound to a raw allocator of type A, whatever its
// element type.
type Binding[A Capability] interface {
	Raw() A
}

// Adapter is a typed allocator for elements of type T drawing from the raw allocator A.
//
// The type declarations containers expect are: pointer *T, value T, size int and difference int.
//
// Adapter is a value: copies are free and interchangeable, it holds nothing but the reference to
// the raw allocator and never owns it. Adapter performs no locking, concurrent Allocate and
// Deallocate calls are exactly as safe as the raw allocator they are forwarded to.
type Adapter[T any, A Capability] struct {
	raw A
}

// New returns an adapter for T bound to raw. It panics if raw is a nil pointer or interface, or
// an interface holding a value that can not be compared with ==.
func New[T any, A Capability](raw A) Adapter[T, A] {
	mustBound(raw)
	return Adapter[T, A]{raw: raw}
}

// Rebind returns an adapter for U bound to the same raw allocator as a.
func Rebind[U any, T any, A Capability](a Adapter[T, A]) Adapter[U, A] {
	return Adapter[U, A]{raw: a.raw}
}

// Raw returns the bound raw allocator.
func (a Adapter[T, A]) Raw() A {
	return a.raw
}

// SizeOf returns the size in bytes of one element.
func (a Adapter[T, A]) SizeOf() uintptr {
	var v T
	return unsafe.Sizeof(v)
}

// AlignOf returns the required alignment of one element.
func (a Adapter[T, A]) AlignOf() uintptr {
	var v T
	return unsafe.Alignof(v)
}

// Allocate returns uninitialized memory for n contiguous elements. It returns an error wrapping
// ErrOutOfMemory if n*SizeOf() overflows, exceeds the raw allocator's MaxSize, or the raw
// allocator fails. Allocate(0) returns nil without touching the raw allocator.
func (a Adapter[T, A]) Allocate(n int) (*T, error) {
	if n < 0 {
		panic(fmt.Sprintf("allocwrap: allocate %d elements", n))
	}
	if n == 0 {
		return nil, nil
	}

	size := a.SizeOf()
	if size == 0 {
		return (*T)(unsafe.Pointer(&zerobase)), nil
	}

	hi, bytes := bits.Mul(uint(n), uint(size))
	if hi != 0 {
		return nil, a.fail("byte count overflow", n)
	}
	if uintptr(bytes) > a.raw.MaxSize() {
		return nil, a.fail("exceeds max size", n)
	}

	p := a.raw.Malloc(uintptr(bytes))
	if p == nil {
		return nil, a.fail("raw allocator failed", n)
	}
	if align := a.AlignOf(); uintptr(p)&(align-1) != 0 {
		a.raw.Free(p)
		panic(fmt.Sprintf("allocwrap: raw allocator %T returned %#x, not aligned to %d",
			a.raw, uintptr(p), align))
	}
	return (*T)(p), nil
}

// Deallocate releases memory returned by Allocate of this adapter, or of any adapter bound to
// the same raw allocator. n is the count passed to Allocate, it is not needed by the raw
// allocator.
func (a Adapter[T, A]) Deallocate(p *T, n int) {
	if p == nil || unsafe.Pointer(p) == unsafe.Pointer(&zerobase) {
		return
	}
	a.raw.Free(unsafe.Pointer(p))
}

// MaxElements returns how many elements a single Allocate can hold at most.
func (a Adapter[T, A]) MaxElements() int {
	size := a.SizeOf()
	if size == 0 {
		return math.MaxInt
	}
	n := a.raw.MaxSize() / size
	if n > math.MaxInt {
		return math.MaxInt
	}
	return int(n)
}

// Construct places a copy of value at p, which must point to uninitialized memory holding at
// least one element. No memory is allocated.
func (a Adapter[T, A]) Construct(p *T, value T) {
	mustAligned(unsafe.Pointer(p), a.AlignOf(), "construct")
	clearBytes(unsafe.Pointer(p), a.SizeOf())
	*p = value
}

// Destroy tears down the live value at p in place. If *T implements Destroyer it is called
// first. The memory stays allocated and is left zeroed.
func (a Adapter[T, A]) Destroy(p *T) {
	mustAligned(unsafe.Pointer(p), a.AlignOf(), "destroy")
	if d, ok := any(p).(Destroyer); ok {
		d.Destroy()
	}
	clearBytes(unsafe.Pointer(p), a.SizeOf())
}

// Equal returns true if other draws from the same raw allocator instance. The element types
// of the two adapters do not matter. It never panics: New only binds comparable values.
func (a Adapter[T, A]) Equal(other Binding[A]) bool {
	if other == nil {
		return false
	}
	return a.raw == other.Raw()
}

// AllocateSlice is like Allocate but returns the memory as a zeroed slice with len and cap n.
func (a Adapter[T, A]) AllocateSlice(n int) ([]T, error) {
	p, err := a.Allocate(n)
	if err != nil || p == nil {
		return nil, err
	}
	clearBytes(unsafe.Pointer(p), uintptr(n)*a.SizeOf())
	return unsafe.Slice(p, n), nil
}

// DeallocateSlice releases a slice returned by AllocateSlice. s must not have been resliced
// from a different start.
func (a Adapter[T, A]) DeallocateSlice(s []T) {
	if cap(s) == 0 {
		return
	}
	a.Deallocate(unsafe.SliceData(s), cap(s))
}

func (a Adapter[T, A]) fail(reason string, n int) error {
	size := a.SizeOf()
	if ce := logger.Check(zap.DebugLevel, "allocate failed"); ce != nil {
		ce.Write(zap.String("reason", reason),
			zap.Int("count", n),
			zap.Uintptr("element-size", size),
			zap.Uintptr("max-size", a.raw.MaxSize()))
	}
	return outOfMemory(reason, n, size)
}
