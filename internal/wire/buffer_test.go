package wire

import "testing"

func TestBufferRoundTripPrimitives(t *testing.T) {
	b := NewBuffer(false)
	b.WriteBool(true)
	b.WriteChar('x')
	b.WriteInt8(-12)
	b.WriteUInt8(250)
	b.WriteInt16(-1000)
	b.WriteUInt16(60000)
	b.WriteInt32(-70000)
	b.WriteUInt32(4000000000)
	b.WriteInt64(-9000000000000)
	b.WriteUInt64(18000000000000000000)
	b.WriteFloat32(3.5)

	b.Rewind()

	if v, err := b.ReadBool(); err != nil || v != true {
		t.Fatalf("ReadBool: %v %v", v, err)
	}
	if v, err := b.ReadChar(); err != nil || v != 'x' {
		t.Fatalf("ReadChar: %v %v", v, err)
	}
	if v, err := b.ReadInt8(); err != nil || v != -12 {
		t.Fatalf("ReadInt8: %v %v", v, err)
	}
	if v, err := b.ReadUInt8(); err != nil || v != 250 {
		t.Fatalf("ReadUInt8: %v %v", v, err)
	}
	if v, err := b.ReadInt16(); err != nil || v != -1000 {
		t.Fatalf("ReadInt16: %v %v", v, err)
	}
	if v, err := b.ReadUInt16(); err != nil || v != 60000 {
		t.Fatalf("ReadUInt16: %v %v", v, err)
	}
	if v, err := b.ReadInt32(); err != nil || v != -70000 {
		t.Fatalf("ReadInt32: %v %v", v, err)
	}
	if v, err := b.ReadUInt32(); err != nil || v != 4000000000 {
		t.Fatalf("ReadUInt32: %v %v", v, err)
	}
	if v, err := b.ReadInt64(); err != nil || v != -9000000000000 {
		t.Fatalf("ReadInt64: %v %v", v, err)
	}
	if v, err := b.ReadUInt64(); err != nil || v != 18000000000000000000 {
		t.Fatalf("ReadUInt64: %v %v", v, err)
	}
	if v, err := b.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("ReadFloat32: %v %v", v, err)
	}
}

func TestBufferEndianFlip(t *testing.T) {
	plain := NewBuffer(false)
	plain.WriteUInt32(0x01020304)

	flipped := NewBuffer(true)
	flipped.WriteUInt32(0x01020304)

	pb, fb := plain.Bytes(), flipped.Bytes()
	for i := range pb {
		if pb[i] != fb[len(fb)-1-i] {
			t.Fatalf("expected byte-reversed encoding: plain=%x flipped=%x", pb, fb)
		}
	}

	flipped.Rewind()
	v, err := flipped.ReadUInt32()
	if err != nil || v != 0x01020304 {
		t.Fatalf("flipped round-trip: %v %v", v, err)
	}
}

func TestBufferShortRead(t *testing.T) {
	b := NewBuffer(false)
	b.WriteUInt8(1)
	b.Rewind()
	if _, err := b.ReadUInt32(); err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestBufferOverwriteInPlace(t *testing.T) {
	b := NewBuffer(false)
	b.WriteUInt8(1)
	b.WriteUInt8(2)
	b.WriteUInt8(3)

	if err := b.SetPosition(0); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	b.WriteUInt8(9)

	if b.Len() != 3 {
		t.Fatalf("expected length unchanged at 3, got %d", b.Len())
	}
	if b.Bytes()[0] != 9 || b.Bytes()[1] != 2 || b.Bytes()[2] != 3 {
		t.Fatalf("expected overwrite in place, got %v", b.Bytes())
	}
}

func TestBufferSetPositionPastEndFails(t *testing.T) {
	b := NewBuffer(false)
	b.WriteUInt8(1)
	if err := b.SetPosition(5); err != ErrPastEnd {
		t.Fatalf("expected ErrPastEnd, got %v", err)
	}
}

func TestBufferClear(t *testing.T) {
	b := NewBuffer(false)
	b.WriteUInt32(42)
	b.Clear()
	if b.Len() != 0 || b.Position() != 0 {
		t.Fatalf("expected empty buffer after Clear, got len=%d pos=%d", b.Len(), b.Position())
	}
}

func TestBufferArrayRoundTrip(t *testing.T) {
	b := NewBuffer(false)
	b.WriteArray([]byte("hello"))
	b.Rewind()
	got, err := b.ReadArray(5)
	if err != nil {
		t.Fatalf("ReadArray: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
}
