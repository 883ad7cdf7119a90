package buf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fagongzi/allocwrap"
	"github.com/fagongzi/allocwrap/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newArenaAllocator(t *testing.T, capacity int) (*arena.Arena, Allocator) {
	raw, err := arena.NewArena(capacity)
	require.NoError(t, err)
	return raw, FromAdapter(allocwrap.New[byte](raw))
}

func TestReadAndWrite(t *testing.T) {
	buf, err := NewByteBuf(4)
	require.NoError(t, err)

	_, err = buf.Write([]byte{1, 2, 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, buf.Readable())

	v, err := buf.ReadByte()
	assert.NoError(t, err)
	assert.Equal(t, byte(1), v)

	assert.NoError(t, buf.WriteByte(4))
	assert.Equal(t, []byte{2, 3, 4}, buf.ReadableBytes())

	buf.Skip(3)
	_, err = buf.ReadByte()
	assert.Error(t, err)
	assert.Panics(t, func() { buf.Skip(1) })
}

func TestIntegers(t *testing.T) {
	buf, err := NewByteBuf(0)
	require.NoError(t, err)

	assert.NoError(t, buf.WriteUint32(0xdeadbeef))
	assert.NoError(t, buf.WriteUint64(1<<40+7))
	assert.Equal(t, uint32(0xdeadbeef), buf.ReadUint32())
	assert.Equal(t, uint64(1<<40+7), buf.ReadUint64())
	assert.Panics(t, func() { buf.ReadUint32() })
}

func TestExpansion(t *testing.T) {
	buf, err := NewByteBuf(256)
	require.NoError(t, err)
	data := make([]byte, 257)
	_, err = buf.Write(data)
	assert.NoError(t, err)
	assert.Equal(t, 512, buf.Capacity())
}

func TestExpansionMovesReadableBytes(t *testing.T) {
	buf, err := NewByteBuf(4, WithMinGrowSize(4))
	require.NoError(t, err)

	_, err = buf.WriteString("abcd")
	require.NoError(t, err)
	buf.Skip(2)
	_, err = buf.WriteString("ef")
	require.NoError(t, err)
	assert.Equal(t, "cdef", string(buf.ReadableBytes()))
	assert.Equal(t, 4, buf.Capacity(), "discardable bytes are reused first")

	buf.Skip(1)
	_, err = buf.WriteString("gh")
	require.NoError(t, err)
	assert.Equal(t, "defgh", string(buf.ReadableBytes()))
	assert.Equal(t, 8, buf.Capacity())
}

func TestGrowReusesDiscardableBytesAtLimit(t *testing.T) {
	buf, err := NewByteBuf(100, WithMemAllocator(&limitedAllocator{limit: 100}))
	require.NoError(t, err)

	_, err = buf.Write(make([]byte, 100))
	require.NoError(t, err)
	buf.Skip(30)
	assert.NoError(t, buf.Grow(30))
	assert.Equal(t, 100, buf.Capacity())
	assert.Equal(t, 70, buf.Readable())
	assert.Error(t, buf.Grow(31))
}

func TestByteBufOverArena(t *testing.T) {
	raw, allocator := newArenaAllocator(t, 4096)

	buf, err := NewByteBuf(64, WithMemAllocator(allocator), WithMinGrowSize(64))
	require.NoError(t, err)
	assert.Equal(t, 1, raw.InUse())

	_, err = buf.WriteString(strings.Repeat("x", 1000))
	require.NoError(t, err)
	assert.Equal(t, 1, raw.InUse(), "old memory is freed after grow")
	assert.Equal(t, 1000, buf.Readable())

	buf.Close()
	assert.Equal(t, 0, raw.InUse())
	assert.Equal(t, raw.Capacity(), raw.Available())
}

func TestByteBufOutOfMemory(t *testing.T) {
	raw, allocator := newArenaAllocator(t, 1024)

	_, err := NewByteBuf(2048, WithMemAllocator(allocator))
	assert.True(t, allocwrap.IsOutOfMemory(err))

	buf, err := NewByteBuf(512, WithMemAllocator(allocator))
	require.NoError(t, err)
	_, err = buf.WriteString(strings.Repeat("x", 512))
	require.NoError(t, err)

	n, err := buf.Write([]byte("y"))
	assert.Equal(t, 0, n)
	assert.True(t, allocwrap.IsOutOfMemory(err), "old and new memory do not fit together")
	assert.Equal(t, 512, buf.Readable())

	_, err = buf.Write(make([]byte, 2048))
	assert.ErrorIs(t, err, allocwrap.ErrOutOfMemory)

	buf.Close()
	assert.Equal(t, raw.Capacity(), raw.Available())
}

type limitedAllocator struct {
	nonReusableAllocator
	limit int
}

func (la *limitedAllocator) MaxCapacity() int {
	return la.limit
}

func TestGrowClampedToMaxCapacity(t *testing.T) {
	buf, err := NewByteBuf(16, WithMemAllocator(&limitedAllocator{limit: 100}),
		WithMinGrowSize(1000))
	require.NoError(t, err)
	assert.NoError(t, buf.Grow(50))
	assert.Equal(t, 100, buf.Capacity())
	assert.Error(t, buf.Grow(101))
}

func TestReadFromBoundedAllocator(t *testing.T) {
	buf, err := NewByteBuf(16, WithMemAllocator(&limitedAllocator{limit: 100}))
	require.NoError(t, err)

	n, err := buf.ReadFrom(strings.NewReader(strings.Repeat("a", 100)))
	assert.NoError(t, err)
	assert.Equal(t, int64(100), n)
	assert.Equal(t, 100, buf.Readable())
	assert.Equal(t, 100, buf.Capacity())

	buf.Skip(40)
	n, err = buf.ReadFrom(strings.NewReader(strings.Repeat("b", 50)))
	assert.True(t, allocwrap.IsOutOfMemory(err))
	assert.Equal(t, int64(40), n)
	assert.Equal(t, 100, buf.Readable())
	assert.Equal(t, strings.Repeat("a", 60)+strings.Repeat("b", 40), string(buf.ReadableBytes()))
}

func TestReadFromAndWriteTo(t *testing.T) {
	_, allocator := newArenaAllocator(t, 64*1024)

	buf, err := NewByteBuf(16, WithMemAllocator(allocator), WithIOCopyBufferSize(128))
	require.NoError(t, err)
	defer buf.Close()

	src := strings.Repeat("hello world ", 100)
	n, err := buf.ReadFrom(strings.NewReader(src))
	assert.NoError(t, err)
	assert.Equal(t, int64(len(src)), n)

	var dst bytes.Buffer
	m, err := buf.WriteTo(&dst)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(src)), m)
	assert.Equal(t, src, dst.String())
	assert.Equal(t, 0, buf.Readable())
}

func TestRead(t *testing.T) {
	buf, err := NewByteBuf(8)
	require.NoError(t, err)
	_, err = buf.WriteString("hello")
	require.NoError(t, err)

	dst := make([]byte, 3)
	n, err := buf.Read(dst)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "hel", string(dst))

	n, err = buf.Read(dst)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = buf.Read(dst)
	assert.Error(t, err)
}
