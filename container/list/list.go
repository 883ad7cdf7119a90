// Package list implements a doubly linked list whose nodes live in memory drawn from an
// allocwrap adapter.
package list

import (
	"github.com/fagongzi/allocwrap"
)

// Element is a list node
type Element[T any] struct {
	next, prev *Element[T]
	Value      T
}

// Next returns the next element or nil
func (e *Element[T]) Next() *Element[T] {
	return e.next
}

// Prev returns the previous element or nil
func (e *Element[T]) Prev() *Element[T] {
	return e.prev
}

// List is a doubly linked list of T. The zero value is not usable, use New.
//
// The list is parameterized by an Adapter[T, A] like any other container, but allocates its
// nodes with the adapter rebound to Element[T]. Element links point into the raw allocator's
// memory, T must not hold the only reference to Go heap objects.
type List[T any, A allocwrap.Capability] struct {
	alloc allocwrap.Adapter[T, A]
	nodes allocwrap.Adapter[Element[T], A]
	front *Element[T]
	back  *Element[T]
	len   int
}

// New returns an empty list allocating from alloc
func New[T any, A allocwrap.Capability](alloc allocwrap.Adapter[T, A]) *List[T, A] {
	return &List[T, A]{
		alloc: alloc,
		nodes: allocwrap.Rebind[Element[T]](alloc),
	}
}

// Allocator returns the adapter the list was created with
func (l *List[T, A]) Allocator() allocwrap.Adapter[T, A] {
	return l.alloc
}

// Len returns the number of elements
func (l *List[T, A]) Len() int {
	return l.len
}

// Front returns the first element or nil
func (l *List[T, A]) Front() *Element[T] {
	return l.front
}

// Back returns the last element or nil
func (l *List[T, A]) Back() *Element[T] {
	return l.back
}

// PushBack appends value, it fails only if the node can not be allocated.
func (l *List[T, A]) PushBack(value T) (*Element[T], error) {
	e, err := l.newElement(value)
	if err != nil {
		return nil, err
	}
	e.prev = l.back
	if l.back != nil {
		l.back.next = e
	} else {
		l.front = e
	}
	l.back = e
	l.len++
	return e, nil
}

// PushFront prepends value, it fails only if the node can not be allocated.
func (l *List[T, A]) PushFront(value T) (*Element[T], error) {
	e, err := l.newElement(value)
	if err != nil {
		return nil, err
	}
	e.next = l.front
	if l.front != nil {
		l.front.prev = e
	} else {
		l.back = e
	}
	l.front = e
	l.len++
	return e, nil
}

// Remove unlinks e, destroys its value and frees the node. e must belong to l.
func (l *List[T, A]) Remove(e *Element[T]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.front = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.back = e.prev
	}
	l.len--
	l.alloc.Destroy(&e.Value)
	l.nodes.Destroy(e)
	l.nodes.Deallocate(e, 1)
}

// Range calls fn for each value from front to back until fn returns false
func (l *List[T, A]) Range(fn func(T) bool) {
	for e := l.front; e != nil; e = e.next {
		if !fn(e.Value) {
			return
		}
	}
}

// Clear removes every element
func (l *List[T, A]) Clear() {
	for l.front != nil {
		l.Remove(l.front)
	}
}

// Splice moves every element of other to the back of l. Nodes are relinked without copying
// when both lists draw from the same raw allocator, otherwise each value is copied into a new
// node of l. other is empty afterwards, unless copying fails: l then keeps the values copied
// so far and other is left unchanged. Splicing a list into itself does nothing.
func (l *List[T, A]) Splice(other *List[T, A]) error {
	if l == other {
		return nil
	}
	if l.alloc.Equal(other.alloc) {
		if other.front == nil {
			return nil
		}
		other.front.prev = l.back
		if l.back != nil {
			l.back.next = other.front
		} else {
			l.front = other.front
		}
		l.back = other.back
		l.len += other.len
		other.front, other.back, other.len = nil, nil, 0
		return nil
	}

	for e := other.front; e != nil; e = e.next {
		if _, err := l.PushBack(e.Value); err != nil {
			return err
		}
	}
	other.Clear()
	return nil
}

func (l *List[T, A]) newElement(value T) (*Element[T], error) {
	e, err := l.nodes.Allocate(1)
	if err != nil {
		return nil, err
	}
	l.nodes.Construct(e, Element[T]{Value: value})
	return e, nil
}
