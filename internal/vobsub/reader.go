package vobsub

import (
	"encoding/binary"
	"fmt"
	"io"
)

// streamReader is a cursor over the .sub byte stream. All positions are
// relative to the base offset captured at construction, so a decode can
// start anywhere in a shared stream. Reads are big-endian and fail once
// the underlying stream is exhausted.
type streamReader struct {
	src  io.ReadSeeker
	base int64
	size int64
	buf  [4]byte
}

func newStreamReader(src io.ReadSeeker) (*streamReader, error) {
	base, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream position: %w", err)
	}
	end, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query stream size: %w", err)
	}
	if _, err = src.Seek(base, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to restore stream position: %w", err)
	}

	return &streamReader{src: src, base: base, size: end - base}, nil
}

// current position relative to the base offset
func (r *streamReader) Pos() (int64, error) {
	abs, err := r.src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("failed to query stream position: %w", err)
	}
	return abs - r.base, nil
}

// number of bytes from the base offset to the end of the stream
func (r *streamReader) Size() int64 {
	return r.size
}

// moves to pos, relative to the base offset
func (r *streamReader) Seek(pos int64) error {
	if _, err := r.src.Seek(r.base+pos, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to offset %d: %w", pos, err)
	}
	return nil
}

// advances the cursor by n bytes
func (r *streamReader) Skip(n int64) error {
	if _, err := r.src.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("failed to skip %d bytes: %w", n, err)
	}
	return nil
}

func (r *streamReader) Read(buf []byte) error {
	if _, err := io.ReadFull(r.src, buf); err != nil {
		return fmt.Errorf("failed to read %d bytes: %w", len(buf), err)
	}
	return nil
}

// reads up to len(buf) bytes, stopping short at end of stream
func (r *streamReader) ReadUpTo(buf []byte) (int, error) {
	n, err := io.ReadFull(r.src, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	if err != nil {
		return n, fmt.Errorf("failed to read %d bytes: %w", len(buf), err)
	}
	return n, nil
}

func (r *streamReader) ReadU8() (uint8, error) {
	if err := r.Read(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *streamReader) ReadU16() (uint16, error) {
	if err := r.Read(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

func (r *streamReader) ReadU32() (uint32, error) {
	if err := r.Read(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}
