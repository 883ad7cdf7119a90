package buf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fagongzi/allocwrap"
	"github.com/fagongzi/util/hack"
	"github.com/pkg/errors"
)

const (
	defaultMinGrowSize      = 256
	defaultIOCopyBufferSize = 1024 * 4
)

// Option bytebuf option
type Option func(*ByteBuf)

// WithMemAllocator Set the memory allocator, when Bytebuf is initialized, it needs to
// allocate a []byte of the size specified by capacity from memory. When ByteBuf.Close
// is called, the memory will be freed back to the allocator.
func WithMemAllocator(alloc Allocator) Option {
	return func(bb *ByteBuf) {
		bb.options.alloc = alloc
	}
}

// WithMinGrowSize set minimum Grow size. When there is not enough space left
// in the Bytebuf, write data needs to be expanded.
func WithMinGrowSize(minGrowSize int) Option {
	return func(bb *ByteBuf) {
		bb.options.minGrowSize = minGrowSize
	}
}

// WithIOCopyBufferSize set io copy buffer used to control how much data will read
// at a time.
func WithIOCopyBufferSize(value int) Option {
	return func(bb *ByteBuf) {
		bb.options.ioCopyBufferSize = value
	}
}

var (
	_ io.WriterTo   = (*ByteBuf)(nil)
	_ io.Writer     = (*ByteBuf)(nil)
	_ io.Reader     = (*ByteBuf)(nil)
	_ io.ReaderFrom = (*ByteBuf)(nil)
)

// ByteBuf is a growable buffer whose memory comes from an Allocator. It maintains 2 indexes
// for read and write data.
//
// | discardable bytes  |   readable bytes   |   writeable bytes  |
// |                    |                    |                    |
// |                    |                    |                    |
// 0      <=       readerIndex    <=     writerIndex    <=     capacity
//
// Growing never exceeds Allocator.MaxCapacity, a write that needs more returns an error
// wrapping allocwrap.ErrOutOfMemory and leaves the buffer unchanged.
type ByteBuf struct {
	buf         []byte
	readerIndex int
	writerIndex int

	options struct {
		alloc            Allocator
		minGrowSize      int
		ioCopyBufferSize int
	}
}

// NewByteBuf create bytebuf with options
func NewByteBuf(capacity int, opts ...Option) (*ByteBuf, error) {
	b := &ByteBuf{}
	for _, opt := range opts {
		opt(b)
	}
	b.adjust()

	if capacity > b.options.alloc.MaxCapacity() {
		return nil, errors.Wrapf(allocwrap.ErrOutOfMemory, "bytebuf capacity %d, max %d",
			capacity, b.options.alloc.MaxCapacity())
	}
	data, err := b.options.alloc.Allocate(capacity)
	if err != nil {
		return nil, err
	}
	b.buf = data
	return b, nil
}

func (b *ByteBuf) adjust() {
	if b.options.alloc == nil {
		b.options.alloc = newNonReusableAllocator()
	}
	if b.options.minGrowSize == 0 {
		b.options.minGrowSize = defaultMinGrowSize
	}
	if b.options.ioCopyBufferSize == 0 {
		b.options.ioCopyBufferSize = defaultIOCopyBufferSize
	}
}

// Close free the memory back to the allocator
func (b *ByteBuf) Close() {
	b.options.alloc.Free(b.buf)
	b.buf = nil
	b.Reset()
}

// Reset reset to reuse.
func (b *ByteBuf) Reset() {
	b.readerIndex = 0
	b.writerIndex = 0
}

// Capacity returns the size of the underlying memory
func (b *ByteBuf) Capacity() int {
	return len(b.buf)
}

// Readable return the number of bytes that can be read.
func (b *ByteBuf) Readable() int {
	return b.writerIndex - b.readerIndex
}

// Writeable return how many bytes can be wirte into buf without growing
func (b *ByteBuf) Writeable() int {
	return len(b.buf) - b.writerIndex
}

// ReadableBytes returns the readable bytes without moving the read index. The returned slice is
// invalid after the next write or Close.
func (b *ByteBuf) ReadableBytes() []byte {
	return b.buf[b.readerIndex:b.writerIndex]
}

// Skip skip [readIndex, readIndex+n).
func (b *ByteBuf) Skip(n int) {
	if n > b.Readable() {
		panic(fmt.Sprintf("invalid skip %d, readable %d", n, b.Readable()))
	}
	b.readerIndex += n
}

// ReadByte read a byte from buf
func (b *ByteBuf) ReadByte() (byte, error) {
	if b.Readable() == 0 {
		return 0, io.EOF
	}

	v := b.buf[b.readerIndex]
	b.readerIndex++
	return v, nil
}

// ReadUint32 get uint32 value from buf
func (b *ByteBuf) ReadUint32() uint32 {
	if b.Readable() < 4 {
		panic(fmt.Sprintf("read uint32, but readable is %d", b.Readable()))
	}

	b.readerIndex += 4
	return binary.BigEndian.Uint32(b.buf[b.readerIndex-4 : b.readerIndex])
}

// ReadUint64 get uint64 value from buf
func (b *ByteBuf) ReadUint64() uint64 {
	if b.Readable() < 8 {
		panic(fmt.Sprintf("read uint64, but readable is %d", b.Readable()))
	}

	b.readerIndex += 8
	return binary.BigEndian.Uint64(b.buf[b.readerIndex-8 : b.readerIndex])
}

// WriteByte write a byte value into buf.
func (b *ByteBuf) WriteByte(v byte) error {
	if err := b.Grow(1); err != nil {
		return err
	}
	b.buf[b.writerIndex] = v
	b.writerIndex++
	return nil
}

// WriteUint32 write uint32 into buf
func (b *ByteBuf) WriteUint32(v uint32) error {
	if err := b.Grow(4); err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b.buf[b.writerIndex:], v)
	b.writerIndex += 4
	return nil
}

// WriteUint64 write uint64 into buf
func (b *ByteBuf) WriteUint64(v uint64) error {
	if err := b.Grow(8); err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b.buf[b.writerIndex:], v)
	b.writerIndex += 8
	return nil
}

// WriteString write a string value to buf
func (b *ByteBuf) WriteString(v string) (int, error) {
	return b.Write(hack.StringToSlice(v))
}

// Grow makes sure at least n bytes can be written without another allocation. The readable
// bytes are moved to the start of the memory, which is only reallocated if they and n bytes do
// not fit in the current capacity.
func (b *ByteBuf) Grow(n int) error {
	if b.Writeable() >= n {
		return nil
	}

	limit := b.options.alloc.MaxCapacity()
	current := b.Capacity()
	readable := b.Readable()
	size := readable + n
	if size > limit || size < readable {
		return errors.Wrapf(allocwrap.ErrOutOfMemory, "bytebuf grow to %d, max %d", size, limit)
	}
	if size <= current {
		copy(b.buf, b.buf[b.readerIndex:b.writerIndex])
		b.readerIndex = 0
		b.writerIndex = readable
		return nil
	}

	step := current / 2
	if step < b.options.minGrowSize {
		step = b.options.minGrowSize
	}
	target := current
	for target < size {
		if target > limit-step {
			target = limit
			break
		}
		target += step
	}

	newBuf, err := b.options.alloc.Allocate(target)
	if err != nil {
		return err
	}
	offset := b.writerIndex - b.readerIndex
	copy(newBuf, b.buf[b.readerIndex:b.writerIndex])
	b.readerIndex = 0
	b.writerIndex = offset

	b.options.alloc.Free(b.buf)
	b.buf = newBuf
	return nil
}

// Write implemented io.Writer interface
func (b *ByteBuf) Write(src []byte) (int, error) {
	n := len(src)
	if err := b.Grow(n); err != nil {
		return 0, err
	}
	copy(b.buf[b.writerIndex:], src)
	b.writerIndex += n
	return n, nil
}

// WriteTo implemented io.WriterTo interface
func (b *ByteBuf) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(b.buf[b.readerIndex:b.writerIndex])
	b.readerIndex += n
	return int64(n), err
}

// Read implemented io.Reader interface. return n, nil or 0, io.EOF is successful
func (b *ByteBuf) Read(dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	n := b.Readable()
	if n == 0 {
		return 0, io.EOF
	}
	n = copy(dst, b.buf[b.readerIndex:b.writerIndex])
	b.readerIndex += n
	return n, nil
}

// ReadFrom implemented io.ReaderFrom interface, reads r until io.EOF. Each read is bounded by
// ioCopyBufferSize and by what still fits under Allocator.MaxCapacity, so a stream that fits
// is read completely. Once the buffer is full, a reader with data left fails the call with
// an error wrapping allocwrap.ErrOutOfMemory, the byte used to detect it is lost.
func (b *ByteBuf) ReadFrom(r io.Reader) (n int64, err error) {
	for {
		window := b.options.ioCopyBufferSize
		if room := b.options.alloc.MaxCapacity() - b.Readable(); room < window {
			window = room
		}
		if window <= 0 {
			var probe [1]byte
			m, e := r.Read(probe[:])
			if m > 0 {
				return n, errors.Wrapf(allocwrap.ErrOutOfMemory, "bytebuf full at %d, max %d",
					b.Readable(), b.options.alloc.MaxCapacity())
			}
			if e == io.EOF {
				return n, nil
			}
			if e != nil {
				return n, e
			}
			continue
		}

		if err := b.Grow(window); err != nil {
			return n, err
		}
		m, e := r.Read(b.buf[b.writerIndex : b.writerIndex+window])
		if m < 0 {
			panic("bug: negative Read")
		}

		b.writerIndex += m
		n += int64(m)
		if e == io.EOF {
			return n, nil // e is EOF, so return nil explicitly
		}
		if e != nil {
			return n, e
		}
	}
}
