// Package str implements an immutable byte string stored in memory drawn from an allocwrap
// adapter.
package str

import (
	"bytes"

	"github.com/fagongzi/allocwrap"
	"github.com/fagongzi/util/hack"
)

// String is an immutable sequence of bytes. The zero value is an empty string that holds no
// memory and has no allocator, it can be released but not concatenated onto.
type String[A allocwrap.Capability] struct {
	alloc allocwrap.Adapter[byte, A]
	data  []byte
}

// New copies s into memory allocated from alloc
func New[A allocwrap.Capability](alloc allocwrap.Adapter[byte, A], s string) (*String[A], error) {
	return fromBytes(alloc, hack.StringToSlice(s))
}

// FromBytes copies b into memory allocated from alloc
func FromBytes[A allocwrap.Capability](alloc allocwrap.Adapter[byte, A], b []byte) (*String[A], error) {
	return fromBytes(alloc, b)
}

func fromBytes[A allocwrap.Capability](alloc allocwrap.Adapter[byte, A], parts ...[]byte) (*String[A], error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	data, err := alloc.AllocateSlice(n)
	if err != nil {
		return nil, err
	}
	offset := 0
	for _, p := range parts {
		offset += copy(data[offset:], p)
	}
	return &String[A]{alloc: alloc, data: data}, nil
}

// Allocator returns the adapter the string was created with
func (s *String[A]) Allocator() allocwrap.Adapter[byte, A] {
	return s.alloc
}

// Len returns the number of bytes
func (s *String[A]) Len() int {
	return len(s.data)
}

// String returns a view of the bytes without copying. The result must not be used after
// Release.
func (s *String[A]) String() string {
	if len(s.data) == 0 {
		return ""
	}
	return hack.SliceToString(s.data)
}

// Bytes returns the underlying bytes, callers must not modify them.
func (s *String[A]) Bytes() []byte {
	return s.data
}

// Equal reports whether both strings hold the same bytes, whichever allocators they use.
func (s *String[A]) Equal(other interface{ Bytes() []byte }) bool {
	return bytes.Equal(s.data, other.Bytes())
}

// Concat returns a new string holding s followed by others, allocated from the allocator of s.
func (s *String[A]) Concat(others ...interface{ Bytes() []byte }) (*String[A], error) {
	parts := make([][]byte, 0, len(others)+1)
	parts = append(parts, s.data)
	for _, o := range others {
		parts = append(parts, o.Bytes())
	}
	return fromBytes(s.alloc, parts...)
}

// Release gives the memory back to the allocator, s is empty afterwards.
func (s *String[A]) Release() {
	if s.data == nil {
		return
	}
	s.alloc.DeallocateSlice(s.data)
	s.data = nil
}
