package wire

import (
	"bytes"
	"testing"
)

func TestDecoderSingleFrame(t *testing.T) {
	raw := Encode(1, 2, []byte("hello"))
	d := NewDecoder()
	frames, err := d.Feed(raw)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	f := frames[0]
	if f.ComponentID != 1 || f.MessageID != 2 || string(f.Body) != "hello" {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestDecoderChunkedHeader(t *testing.T) {
	raw := Encode(2, 5, []byte("abcdef"))
	d := NewDecoder()

	// Feed one byte at a time; frames must only appear once complete.
	var all []Frame
	for i := 0; i < len(raw); i++ {
		frames, err := d.Feed(raw[i : i+1])
		if err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
		all = append(all, frames...)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 frame after byte-by-byte feed, got %d", len(all))
	}
	if string(all[0].Body) != "abcdef" {
		t.Fatalf("unexpected body: %q", all[0].Body)
	}
}

func TestDecoderMultipleFramesOneFeed(t *testing.T) {
	var concat []byte
	concat = append(concat, Encode(0, 0, nil)...)
	concat = append(concat, Encode(1, 1, []byte("x"))...)
	concat = append(concat, Encode(2, 2, []byte("yz"))...)

	d := NewDecoder()
	frames, err := d.Feed(concat)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if frames[0].ComponentID != 0 || frames[1].ComponentID != 1 || frames[2].ComponentID != 2 {
		t.Fatalf("frames out of order: %+v", frames)
	}
}

func TestDecoderArbitraryChunking(t *testing.T) {
	var concat []byte
	originals := [][]byte{[]byte("one"), []byte("two-longer-body"), {}, []byte("x")}
	for i, body := range originals {
		concat = append(concat, Encode(uint8(i%MaxComponentID), uint16(i), body)...)
	}

	chunkSizes := []int{1, 2, 3, 7, 13}
	for _, cs := range chunkSizes {
		d := NewDecoder()
		var got []Frame
		for off := 0; off < len(concat); off += cs {
			end := off + cs
			if end > len(concat) {
				end = len(concat)
			}
			frames, err := d.Feed(concat[off:end])
			if err != nil {
				t.Fatalf("chunk size %d: Feed: %v", cs, err)
			}
			got = append(got, frames...)
		}
		if len(got) != len(originals) {
			t.Fatalf("chunk size %d: expected %d frames, got %d", cs, len(originals), len(got))
		}
		for i, f := range got {
			if !bytes.Equal(f.Body, originals[i]) {
				t.Fatalf("chunk size %d: frame %d body mismatch: got %q want %q", cs, i, f.Body, originals[i])
			}
		}
	}
}

func TestDecoderRejectsOutOfRangeComponent(t *testing.T) {
	raw := Encode(0, 0, nil)
	raw[0] = MaxComponentID // out of range
	d := NewDecoder()
	if _, err := d.Feed(raw); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDecoderToleratesPartialHeader(t *testing.T) {
	d := NewDecoder()
	frames, err := d.Feed([]byte{0, 0}) // fewer than HeaderSize bytes
	if err != nil {
		t.Fatalf("partial header should not error: %v", err)
	}
	if len(frames) != 0 {
		t.Fatalf("expected no frames yet, got %d", len(frames))
	}
}
