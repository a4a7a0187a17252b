package vobsub

import (
	"bytes"
	"testing"
)

func TestDecodeRLEFieldSingleRun(t *testing.T) {
	// two nibble code 0x1 0x2: run of 4 pixels, color 2, covering the
	// whole even field of a 4x2 image
	src := []byte{0x12}
	trg := make([]byte, 4*2)

	decodeRLEField(src, 0, len(src), trg, 0, 4, 4)

	want := []byte{
		2, 2, 2, 2, // even row 0
		0, 0, 0, 0, // odd row untouched
	}
	if !bytes.Equal(trg, want) {
		t.Errorf("decoded field = %v, want %v", trg, want)
	}
}

func TestDecodeRLEFieldDeterminism(t *testing.T) {
	src := []byte{0x12}
	first := make([]byte, 8)
	second := make([]byte, 8)

	decodeRLEField(src, 0, len(src), first, 0, 4, 4)
	decodeRLEField(src, 0, len(src), second, 0, 4, 4)

	if !bytes.Equal(first, second) {
		t.Errorf("repeated decode differs: %v vs %v", first, second)
	}
}

func TestDecodeRLEFieldLineFeed(t *testing.T) {
	// 0xD: run of 3 pixels color 1, then an explicit line feed
	// (nibbles 0 0 0 0) filling the rest of the row with color 0
	src := []byte{0xD0, 0x00, 0x00}
	width := 8
	trg := make([]byte, width*2)

	decodeRLEField(src, 0, len(src), trg, 0, width, width)

	want := []byte{
		1, 1, 1, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0,
	}
	if !bytes.Equal(trg, want) {
		t.Errorf("decoded field = %v, want %v", trg, want)
	}
}

func TestDecodeRLEFieldLineFeedRowBudget(t *testing.T) {
	// rows never exceed width pixels: every wrap jumps two rows down
	// because fields interleave
	width := 4
	height := 4
	// run of 2 color 3 (0xB), line feed filling the rest of row 0 with
	// color 0 (with a nibble realignment pad), then a full row of color 2
	src := []byte{0xB0, 0x00, 0x00, 0x12}
	trg := make([]byte, width*height)

	decodeRLEField(src, 0, len(src), trg, 0, width, width*2)

	want := []byte{
		3, 3, 0, 0, // row 0 (even field line 0)
		0, 0, 0, 0, // row 1 belongs to the odd field
		2, 2, 2, 2, // row 2 (even field line 1)
		0, 0, 0, 0,
	}
	if !bytes.Equal(trg, want) {
		t.Errorf("decoded field = %v, want %v", trg, want)
	}
}

func TestDecodeRLEFieldInterlacedTarget(t *testing.T) {
	// an odd-field decode starts one row down and keeps the stride of 2
	width := 4
	src := []byte{0x12, 0x12}
	trg := make([]byte, width*4)

	decodeRLEField(src, 0, len(src), trg, width, width, width*2)

	want := []byte{
		0, 0, 0, 0,
		2, 2, 2, 2, // odd field line 0
		0, 0, 0, 0,
		2, 2, 2, 2, // odd field line 1
	}
	if !bytes.Equal(trg, want) {
		t.Errorf("decoded field = %v, want %v", trg, want)
	}
}

func TestDecodeRLEFieldStopsAtPixelBudget(t *testing.T) {
	// later runs must not be decoded once the pixel budget is reached
	width := 4
	src := []byte{0x12, 0x12, 0x12, 0x12}
	trg := make([]byte, width*2)

	decodeRLEField(src, 0, len(src), trg, 0, width, width)

	want := []byte{
		2, 2, 2, 2,
		0, 0, 0, 0,
	}
	if !bytes.Equal(trg, want) {
		t.Errorf("decoded field = %v, want %v", trg, want)
	}
}

func TestDecodeRLEFieldEmptyInput(t *testing.T) {
	trg := make([]byte, 16)
	decodeRLEField(nil, 0, 0, trg, 0, 4, 8)
	decodeRLEField([]byte{0x12}, 5, 3, trg, 0, 4, 8)
	for i, p := range trg {
		if p != 0 {
			t.Errorf("pixel %d modified on empty input: %d", i, p)
		}
	}
}
