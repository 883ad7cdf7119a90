package allocwrap

import (
	"fmt"
	"reflect"
	"unsafe"
)

// RawAllocator is the capability a custom allocator must expose to be wrapped by an Adapter.
//
// Implementations decide their own thread-safety. Adapters add no synchronization, so if
// adapters bound to the same RawAllocator are used from multiple goroutines, the RawAllocator
// must be safe for concurrent use.
type RawAllocator interface {
	// Malloc allocates size bytes and returns the start address, or nil if the request can not
	// be satisfied. The returned address must be aligned to at least the alignment of any
	// element type the caller places in it; 16 bytes covers every Go type.
	Malloc(size uintptr) unsafe.Pointer
	// Free releases a block. It only accepts addresses previously returned by Malloc of the
	// same instance, the allocator tracks block sizes itself.
	Free(p unsafe.Pointer)
	// MaxSize returns the largest size in bytes a single Malloc can take.
	MaxSize() uintptr
}

// Capability is the constraint on the raw allocator type an Adapter is bound to. Values must be
// comparable because adapter equality is the identity of the bound raw allocator: pointer types
// compare by address, stateless value types compare equal to each other.
type Capability interface {
	comparable
	RawAllocator
}

// Destroyer is implemented by element types that own resources which must be released when the
// element is destroyed in place.
type Destroyer interface {
	Destroy()
}

func mustBound(raw any) {
	if raw == nil {
		panic("allocwrap: adapter bound to nil raw allocator")
	}
	v := reflect.ValueOf(raw)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice:
		if v.IsNil() {
			panic(fmt.Sprintf("allocwrap: adapter bound to nil raw allocator %T", raw))
		}
	}
	// an interface capability can hold a value whose == panics, Equal relies on it.
	if !v.Comparable() {
		panic(fmt.Sprintf("allocwrap: adapter bound to uncomparable raw allocator %T", raw))
	}
}

func mustAligned(p unsafe.Pointer, align uintptr, op string) {
	if p == nil {
		panic(fmt.Sprintf("allocwrap: %s on nil pointer", op))
	}
	if uintptr(p)&(align-1) != 0 {
		panic(fmt.Sprintf("allocwrap: %s on address %#x, not aligned to %d",
			op, uintptr(p), align))
	}
}

// clearBytes zeroes size bytes at p. Byte stores never trigger write barriers, so it is safe on
// memory that has never held a valid value.
func clearBytes(p unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	clear(unsafe.Slice((*byte)(p), size))
}
