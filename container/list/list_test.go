package list

import (
	"testing"

	"github.com/fagongzi/allocwrap"
	"github.com/fagongzi/allocwrap/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	key   int64
	value int64
}

func newTestList(t *testing.T, capacity int) (*List[entry, *arena.Counting], *arena.Arena, *arena.Counting) {
	raw, err := arena.NewArena(capacity)
	require.NoError(t, err)
	counting := arena.NewCounting(raw)
	return New(allocwrap.New[entry](counting)), raw, counting
}

func values(l *List[entry, *arena.Counting]) []int64 {
	var keys []int64
	l.Range(func(e entry) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

func TestPushAndRemove(t *testing.T) {
	l, raw, counting := newTestList(t, 4096)

	_, err := l.PushBack(entry{key: 5})
	require.NoError(t, err)
	seven, err := l.PushBack(entry{key: 7})
	require.NoError(t, err)
	_, err = l.PushFront(entry{key: 999})
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.Equal(t, []int64{999, 5, 7}, values(l))
	assert.Equal(t, int64(3), counting.Outstanding())
	assert.Equal(t, int64(999), l.Front().Value.key)
	assert.Equal(t, int64(7), l.Back().Value.key)
	assert.Equal(t, int64(5), seven.Prev().Value.key)
	assert.Nil(t, seven.Next())

	l.Remove(seven)
	assert.Equal(t, []int64{999, 5}, values(l))
	assert.Equal(t, int64(2), counting.Outstanding())

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Nil(t, l.Front())
	assert.Nil(t, l.Back())
	assert.Equal(t, int64(0), counting.Outstanding())
	assert.Equal(t, raw.Capacity(), raw.Available())
}

func TestNodesUseReboundAdapter(t *testing.T) {
	l, _, counting := newTestList(t, 4096)

	_, err := l.PushBack(entry{key: 1})
	require.NoError(t, err)
	assert.True(t, l.Allocator().Equal(l.nodes))
	assert.Equal(t, uint64(l.nodes.SizeOf()), counting.Stats().Bytes)
	assert.Greater(t, int(l.nodes.SizeOf()), int(l.Allocator().SizeOf()))
}

func TestPushOutOfMemory(t *testing.T) {
	l := New(allocwrap.New[entry](arena.NewExhausted(4096)))

	e, err := l.PushBack(entry{key: 1})
	assert.Nil(t, e)
	assert.True(t, allocwrap.IsOutOfMemory(err))
	_, err = l.PushFront(entry{key: 1})
	assert.True(t, allocwrap.IsOutOfMemory(err))
	assert.Equal(t, 0, l.Len())
}

func TestRangeStops(t *testing.T) {
	l, _, _ := newTestList(t, 4096)
	for i := int64(0); i < 10; i++ {
		_, err := l.PushBack(entry{key: i})
		require.NoError(t, err)
	}

	n := 0
	l.Range(func(e entry) bool {
		n++
		return e.key < 3
	})
	assert.Equal(t, 4, n)
}

type tracked struct {
	id      int64
	destroy *int
}

func (t *tracked) Destroy() {
	*t.destroy++
}

func TestRemoveDestroysValue(t *testing.T) {
	raw, err := arena.NewArena(4096)
	require.NoError(t, err)
	l := New(allocwrap.New[tracked](raw))

	destroyed := 0
	for i := int64(0); i < 3; i++ {
		_, err := l.PushBack(tracked{id: i, destroy: &destroyed})
		require.NoError(t, err)
	}
	l.Remove(l.Front())
	assert.Equal(t, 1, destroyed)
	l.Clear()
	assert.Equal(t, 3, destroyed)
	assert.Equal(t, 0, raw.InUse())
}

func TestSpliceSameAllocator(t *testing.T) {
	raw, err := arena.NewArena(4096)
	require.NoError(t, err)
	counting := arena.NewCounting(raw)
	alloc := allocwrap.New[entry](counting)

	l1, l2 := New(alloc), New(allocwrap.Rebind[entry](allocwrap.Rebind[int32](alloc)))
	for i := int64(0); i < 3; i++ {
		_, err := l1.PushBack(entry{key: i})
		require.NoError(t, err)
		_, err = l2.PushBack(entry{key: 10 + i})
		require.NoError(t, err)
	}
	mallocs := counting.Stats().Mallocs

	require.NoError(t, l1.Splice(l2))
	assert.Equal(t, mallocs, counting.Stats().Mallocs, "nodes are relinked")
	assert.Equal(t, []int64{0, 1, 2, 10, 11, 12}, values(l1))
	assert.Equal(t, 0, l2.Len())

	require.NoError(t, l2.Splice(l1))
	assert.Equal(t, 6, l2.Len())
	assert.Equal(t, 0, l1.Len())
	assert.Equal(t, int64(12), l2.Back().Value.key)

	l2.Clear()
	assert.Equal(t, int64(0), counting.Outstanding())
}

func TestSpliceIntoItself(t *testing.T) {
	l, _, counting := newTestList(t, 4096)
	for i := int64(0); i < 2; i++ {
		_, err := l.PushBack(entry{key: i})
		require.NoError(t, err)
	}

	require.NoError(t, l.Splice(l))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []int64{0, 1}, values(l))
	assert.Nil(t, l.Back().Next())
	assert.Equal(t, int64(2), counting.Outstanding())

	l.Clear()
	assert.Equal(t, int64(0), counting.Outstanding())
}

func TestSpliceDifferentAllocator(t *testing.T) {
	l1, raw1, c1 := newTestList(t, 4096)
	l2, raw2, c2 := newTestList(t, 4096)

	for i := int64(0); i < 3; i++ {
		_, err := l2.PushBack(entry{key: i})
		require.NoError(t, err)
	}

	require.NoError(t, l1.Splice(l2))
	assert.Equal(t, []int64{0, 1, 2}, values(l1))
	assert.Equal(t, int64(3), c1.Outstanding())
	assert.Equal(t, int64(0), c2.Outstanding())
	assert.Equal(t, raw2.Capacity(), raw2.Available())

	l1.Clear()
	assert.Equal(t, raw1.Capacity(), raw1.Available())
}
