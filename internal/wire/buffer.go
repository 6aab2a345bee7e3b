// Package wire implements the protocol's byte-level encoding: a growable
// byte buffer with cursor-based primitive read/write, and a self-describing
// typed buffer built on top of it (see typed.go).
package wire

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrShortRead is returned when a read requests more bytes than remain
// between the cursor and the buffer's length.
var ErrShortRead = errors.New("wire: short read")

// ErrPastEnd is returned by SetPosition when the requested position is
// beyond the buffer's current length.
var ErrPastEnd = errors.New("wire: position past end")

// Buffer is a growable byte sequence with an internal read/write cursor.
// It is not safe for concurrent use; callers serialize access externally
// (the dispatcher owns one buffer per in-flight frame).
type Buffer struct {
	data []byte
	pos  int
	flip bool // true: byte-swap multi-byte primitives on read and write
}

// NewBuffer returns an empty buffer. Pass flip=true when the host's native
// endianness differs from the wire endianness (big-endian, per spec) so
// multi-byte primitives are swapped transparently.
func NewBuffer(flip bool) *Buffer {
	return &Buffer{flip: flip}
}

// NewBufferFrom wraps existing bytes for reading; the cursor starts at 0.
func NewBufferFrom(data []byte, flip bool) *Buffer {
	return &Buffer{data: data, flip: flip}
}

// Bytes returns the full backing slice. Callers must not retain it across
// further writes to the buffer.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes currently stored.
func (b *Buffer) Len() int { return len(b.data) }

// Position returns the current cursor offset.
func (b *Buffer) Position() int { return b.pos }

// SetPosition moves the cursor. It fails if pos exceeds the buffer's length.
func (b *Buffer) SetPosition(pos int) error {
	if pos < 0 || pos > len(b.data) {
		return ErrPastEnd
	}
	b.pos = pos
	return nil
}

// Rewind resets the cursor to the start without discarding data.
func (b *Buffer) Rewind() { b.pos = 0 }

// Clear discards all data and resets the cursor.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.pos = 0
}

// remaining reports how many unread bytes lie between the cursor and the end.
func (b *Buffer) remaining() int { return len(b.data) - b.pos }

// ensure grows the backing slice so that n more bytes can be written at pos,
// extending the logical length when writing past the current end.
func (b *Buffer) ensure(n int) {
	end := b.pos + n
	if end <= len(b.data) {
		return
	}
	if end <= cap(b.data) {
		b.data = b.data[:end]
		return
	}
	grown := make([]byte, end)
	copy(grown, b.data)
	b.data = grown
}

// writeRaw writes n bytes at the cursor, overwriting in place if the cursor
// is before the current end, or appending (extending length) otherwise. The
// cursor advances by n.
func (b *Buffer) writeRaw(p []byte) {
	b.ensure(len(p))
	copy(b.data[b.pos:b.pos+len(p)], p)
	b.pos += len(p)
}

// WriteArray writes raw bytes with no length prefix.
func (b *Buffer) WriteArray(p []byte) { b.writeRaw(p) }

// ReadArray reads exactly n raw bytes with no length prefix.
func (b *Buffer) ReadArray(n int) ([]byte, error) {
	if b.remaining() < n {
		return nil, ErrShortRead
	}
	out := make([]byte, n)
	copy(out, b.data[b.pos:b.pos+n])
	b.pos += n
	return out, nil
}

func (b *Buffer) swap(p []byte) {
	if !b.flip {
		return
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
}

// WriteBool writes a single byte: 1 for true, 0 for false.
func (b *Buffer) WriteBool(v bool) {
	if v {
		b.writeRaw([]byte{1})
	} else {
		b.writeRaw([]byte{0})
	}
}

// ReadBool reads a single byte and reports it as a boolean (nonzero = true).
func (b *Buffer) ReadBool() (bool, error) {
	p, err := b.ReadArray(1)
	if err != nil {
		return false, err
	}
	return p[0] != 0, nil
}

// WriteChar writes a single 8-bit character byte.
func (b *Buffer) WriteChar(v byte) { b.writeRaw([]byte{v}) }

// ReadChar reads a single 8-bit character byte.
func (b *Buffer) ReadChar() (byte, error) {
	p, err := b.ReadArray(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// WriteInt8 writes a signed 8-bit integer.
func (b *Buffer) WriteInt8(v int8) { b.writeRaw([]byte{byte(v)}) }

// ReadInt8 reads a signed 8-bit integer.
func (b *Buffer) ReadInt8() (int8, error) {
	p, err := b.ReadArray(1)
	if err != nil {
		return 0, err
	}
	return int8(p[0]), nil
}

// WriteUInt8 writes an unsigned 8-bit integer.
func (b *Buffer) WriteUInt8(v uint8) { b.writeRaw([]byte{v}) }

// ReadUInt8 reads an unsigned 8-bit integer.
func (b *Buffer) ReadUInt8() (uint8, error) {
	p, err := b.ReadArray(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// WriteInt16 writes a signed 16-bit integer in wire order.
func (b *Buffer) WriteInt16(v int16) { b.WriteUInt16(uint16(v)) }

// ReadInt16 reads a signed 16-bit integer in wire order.
func (b *Buffer) ReadInt16() (int16, error) {
	v, err := b.ReadUInt16()
	return int16(v), err
}

// WriteUInt16 writes an unsigned 16-bit integer in wire order.
func (b *Buffer) WriteUInt16(v uint16) {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, v)
	b.swap(p)
	b.writeRaw(p)
}

// ReadUInt16 reads an unsigned 16-bit integer in wire order.
func (b *Buffer) ReadUInt16() (uint16, error) {
	p, err := b.ReadArray(2)
	if err != nil {
		return 0, err
	}
	b.swap(p)
	return binary.BigEndian.Uint16(p), nil
}

// WriteInt32 writes a signed 32-bit integer in wire order.
func (b *Buffer) WriteInt32(v int32) { b.WriteUInt32(uint32(v)) }

// ReadInt32 reads a signed 32-bit integer in wire order.
func (b *Buffer) ReadInt32() (int32, error) {
	v, err := b.ReadUInt32()
	return int32(v), err
}

// WriteUInt32 writes an unsigned 32-bit integer in wire order.
func (b *Buffer) WriteUInt32(v uint32) {
	p := make([]byte, 4)
	binary.BigEndian.PutUint32(p, v)
	b.swap(p)
	b.writeRaw(p)
}

// ReadUInt32 reads an unsigned 32-bit integer in wire order.
func (b *Buffer) ReadUInt32() (uint32, error) {
	p, err := b.ReadArray(4)
	if err != nil {
		return 0, err
	}
	b.swap(p)
	return binary.BigEndian.Uint32(p), nil
}

// WriteInt64 writes a signed 64-bit integer in wire order.
func (b *Buffer) WriteInt64(v int64) { b.WriteUInt64(uint64(v)) }

// ReadInt64 reads a signed 64-bit integer in wire order.
func (b *Buffer) ReadInt64() (int64, error) {
	v, err := b.ReadUInt64()
	return int64(v), err
}

// WriteUInt64 writes an unsigned 64-bit integer in wire order.
func (b *Buffer) WriteUInt64(v uint64) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, v)
	b.swap(p)
	b.writeRaw(p)
}

// ReadUInt64 reads an unsigned 64-bit integer in wire order.
func (b *Buffer) ReadUInt64() (uint64, error) {
	p, err := b.ReadArray(8)
	if err != nil {
		return 0, err
	}
	b.swap(p)
	return binary.BigEndian.Uint64(p), nil
}

// WriteFloat32 writes a 32-bit IEEE-754 float in wire order.
func (b *Buffer) WriteFloat32(v float32) { b.WriteUInt32(math.Float32bits(v)) }

// ReadFloat32 reads a 32-bit IEEE-754 float in wire order.
func (b *Buffer) ReadFloat32() (float32, error) {
	v, err := b.ReadUInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}
