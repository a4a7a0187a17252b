package vobsub

import (
	"bytes"
	"io"
	"testing"
)

func TestStreamReaderRelativeBase(t *testing.T) {
	src := bytes.NewReader([]byte{0xAA, 0xBB, 0x12, 0x34, 0x56, 0x78, 0x9A})
	if _, err := src.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}

	r, err := newStreamReader(src)
	if err != nil {
		t.Fatalf("newStreamReader failed: %v", err)
	}

	if r.Size() != 5 {
		t.Errorf("Size() = %d, want 5", r.Size())
	}
	pos, err := r.Pos()
	if err != nil {
		t.Fatal(err)
	}
	if pos != 0 {
		t.Errorf("Pos() = %d, want 0", pos)
	}

	u32, err := r.ReadU32()
	if err != nil {
		t.Fatal(err)
	}
	if u32 != 0x12345678 {
		t.Errorf("ReadU32() = %08x, want 12345678", u32)
	}

	if err := r.Seek(0); err != nil {
		t.Fatal(err)
	}
	u16, err := r.ReadU16()
	if err != nil {
		t.Fatal(err)
	}
	if u16 != 0x1234 {
		t.Errorf("ReadU16() = %04x, want 1234", u16)
	}

	b, err := r.ReadU8()
	if err != nil {
		t.Fatal(err)
	}
	if b != 0x56 {
		t.Errorf("ReadU8() = %02x, want 56", b)
	}
}

func TestStreamReaderSkip(t *testing.T) {
	r, err := newStreamReader(bytes.NewReader([]byte{1, 2, 3, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Skip(3); err != nil {
		t.Fatal(err)
	}
	b, err := r.ReadU8()
	if err != nil {
		t.Fatal(err)
	}
	if b != 4 {
		t.Errorf("byte after Skip(3) = %d, want 4", b)
	}
}

func TestStreamReaderReadUpTo(t *testing.T) {
	r, err := newStreamReader(bytes.NewReader([]byte{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 8)
	n, err := r.ReadUpTo(buf)
	if err != nil {
		t.Fatalf("ReadUpTo failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ReadUpTo read %d bytes, want 3", n)
	}
	if !bytes.Equal(buf[:n], []byte{1, 2, 3}) {
		t.Errorf("ReadUpTo content = %v", buf[:n])
	}
}

func TestStreamReaderReadPastEnd(t *testing.T) {
	r, err := newStreamReader(bytes.NewReader([]byte{1, 2}))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Read(make([]byte, 4)); err == nil {
		t.Error("expected error reading past end of stream")
	}
}
