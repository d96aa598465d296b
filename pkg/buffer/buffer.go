package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Errors returned by buffer operations
var (
	ErrUnderflow = errors.New("buffer: read past limit")
	ErrOverflow  = errors.New("buffer: capacity exceeded")
	ErrNoMark    = errors.New("buffer: mark not set")
	ErrPosition  = errors.New("buffer: position out of range")
)

// Buffer is a growable byte sequence with an explicit cursor.
//
// Reads are bounded by the limit and by the bytes written so far. Writes happen at the
// cursor, overwrite existing bytes and extend the sequence as needed, up to the limit.
// A buffer created with a positive capacity never grows past it.
type Buffer struct {
	data     []byte
	pos      int
	limit    int
	mark     int
	capacity int // 0 means unbounded
}

// New creates an empty buffer. A capacity <= 0 makes the buffer unbounded.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	b := &Buffer{capacity: capacity, mark: -1}
	b.limit = b.Capacity()
	if capacity > 0 {
		b.data = make([]byte, 0, capacity)
	}
	return b
}

// Wrap creates a buffer over existing bytes, positioned at 0 with the limit at the end of
// the data, ready to be read. The slice is used directly, not copied.
func Wrap(data []byte, capacity int) (*Buffer, error) {
	if capacity > 0 && capacity < len(data) {
		return nil, fmt.Errorf("%w: %d bytes do not fit capacity %d", ErrOverflow, len(data), capacity)
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: data, limit: len(data), mark: -1, capacity: capacity}, nil
}

// Capacity returns the maximum size of the buffer, or math.MaxInt when unbounded
func (b *Buffer) Capacity() int {
	if b.capacity == 0 {
		return math.MaxInt
	}
	return b.capacity
}

// Len returns the number of bytes written to the buffer
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Position returns the cursor
func (b *Buffer) Position() int {
	return b.pos
}

// SetPosition moves the cursor. Discards the mark if it lies beyond the new position.
func (b *Buffer) SetPosition(pos int) error {
	if pos < 0 || pos > b.limit || pos > len(b.data) {
		return fmt.Errorf("%w: %d", ErrPosition, pos)
	}
	b.pos = pos
	if b.mark > pos {
		b.mark = -1
	}
	return nil
}

// Limit returns the read/write boundary
func (b *Buffer) Limit() int {
	return b.limit
}

// SetLimit moves the read/write boundary, clamped to the capacity.
func (b *Buffer) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	if limit > b.Capacity() {
		limit = b.Capacity()
	}
	b.limit = limit
	if b.pos > limit {
		b.pos = limit
	}
	if b.mark > limit {
		b.mark = -1
	}
}

// ResetLimit moves the boundary to the full capacity so writes may append past the data
func (b *Buffer) ResetLimit() {
	b.SetLimit(b.Capacity())
}

// Remaining returns how many bytes can still be read from the cursor
func (b *Buffer) Remaining() int {
	end := len(b.data)
	if b.limit < end {
		end = b.limit
	}
	if end < b.pos {
		return 0
	}
	return end - b.pos
}

// Flip prepares the buffer for reading what was just written
func (b *Buffer) Flip() {
	b.limit = b.pos
	b.pos = 0
	b.mark = -1
}

// Clear forgets all written bytes and rewinds the cursor
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.pos = 0
	b.mark = -1
	b.limit = b.Capacity()
}

// Mark remembers the current position
func (b *Buffer) Mark() {
	b.mark = b.pos
}

// Reset moves the cursor back to the mark. The bytes after the mark stay intact.
func (b *Buffer) Reset() error {
	if b.mark < 0 {
		return ErrNoMark
	}
	b.pos = b.mark
	return nil
}

// reserve makes room for n bytes at the cursor and returns the destination slice
func (b *Buffer) reserve(n int) ([]byte, error) {
	end := b.pos + n
	if end > b.limit || end < b.pos {
		return nil, fmt.Errorf("%w: need %d bytes at %d, limit %d", ErrOverflow, n, b.pos, b.limit)
	}
	if end > len(b.data) {
		if end > cap(b.data) {
			grown := make([]byte, len(b.data), growCap(cap(b.data), end, b.capacity))
			copy(grown, b.data)
			b.data = grown
		}
		b.data = b.data[:end]
	}
	dst := b.data[b.pos:end]
	b.pos = end
	return dst, nil
}

func growCap(current, need, capacity int) int {
	next := current * 2
	if next < 64 {
		next = 64
	}
	if next < need {
		next = need
	}
	if capacity > 0 && next > capacity {
		next = capacity
	}
	return next
}

// take consumes n readable bytes at the cursor
func (b *Buffer) take(n int) ([]byte, error) {
	if n < 0 || n > b.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at %d, %d remaining", ErrUnderflow, n, b.pos, b.Remaining())
	}
	src := b.data[b.pos : b.pos+n]
	b.pos += n
	return src, nil
}

// PutByte writes a single byte
func (b *Buffer) PutByte(v byte) error {
	dst, err := b.reserve(1)
	if err != nil {
		return err
	}
	dst[0] = v
	return nil
}

// PutUint16 writes a big-endian uint16
func (b *Buffer) PutUint16(v uint16) error {
	dst, err := b.reserve(2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(dst, v)
	return nil
}

// PutUint32 writes a big-endian uint32
func (b *Buffer) PutUint32(v uint32) error {
	dst, err := b.reserve(4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(dst, v)
	return nil
}

// PutUint64 writes a big-endian uint64
func (b *Buffer) PutUint64(v uint64) error {
	dst, err := b.reserve(8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(dst, v)
	return nil
}

// PutBytes writes raw bytes without any length prefix
func (b *Buffer) PutBytes(p []byte) error {
	dst, err := b.reserve(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)
	return nil
}

// PutUint64At overwrites eight already written bytes at offset. The cursor does not move.
func (b *Buffer) PutUint64At(offset int, v uint64) error {
	if offset < 0 || offset+8 > len(b.data) {
		return fmt.Errorf("%w: offset %d", ErrPosition, offset)
	}
	binary.BigEndian.PutUint64(b.data[offset:], v)
	return nil
}

// GetByte reads a single byte
func (b *Buffer) GetByte() (byte, error) {
	src, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return src[0], nil
}

// GetUint16 reads a big-endian uint16
func (b *Buffer) GetUint16() (uint16, error) {
	src, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(src), nil
}

// GetUint32 reads a big-endian uint32
func (b *Buffer) GetUint32() (uint32, error) {
	src, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(src), nil
}

// GetUint64 reads a big-endian uint64
func (b *Buffer) GetUint64() (uint64, error) {
	src, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(src), nil
}

// GetBytes reads n raw bytes into a fresh slice
func (b *Buffer) GetBytes(n int) ([]byte, error) {
	src, err := b.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, src)
	return out, nil
}

// GetUint64At reads eight bytes at offset without moving the cursor
func (b *Buffer) GetUint64At(offset int) (uint64, error) {
	if offset < 0 || offset+8 > len(b.data) {
		return 0, fmt.Errorf("%w: offset %d", ErrUnderflow, offset)
	}
	return binary.BigEndian.Uint64(b.data[offset:]), nil
}
