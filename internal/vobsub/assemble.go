package vobsub

import (
	"bytes"
	"fmt"

	"github.com/old-castle-fansubs/vobsub/internal/logging"
)

const (
	packStartCode = 0x000001BA
	pesStartCode  = 0x000001BD

	// standard DVD sector size, used to repair misaligned fragment offsets
	sectorSize = 0x800
)

// one contiguous byte range of the .sub stream belonging to a
// subpicture's RLE buffer
type rleFragment struct {
	off  int64
	size int64
}

// result of walking all MPEG-PS packets of one subpicture: the fully
// accumulated control header plus the ordered RLE byte ranges
type assembly struct {
	ctrlHeader []byte
	ctrlSize   int
	ctrlOfsRel int
	rleSize    int
	fragments  []rleFragment
}

// assemble walks pack + PES packets starting at the reader's base offset
// until the control header declared by the first packet has been copied in
// full or the stream runs out. Sizing metadata lives in the first packet;
// later packets only contribute more control-header and RLE bytes.
//
// Corrupt streams degrade instead of failing: a next-fragment offset that
// is not sector aligned is rounded up to the next sector, and a control
// header shortfall is padded with 0xFF (an explicit end command).
func assemble(r *streamReader, log *logging.Logger) (*assembly, error) {
	var (
		ofs            int64
		ctrlOfs        int64 = -1
		ctrlOfsRel     int
		ctrlSize       = -1
		ctrlCopied     int
		rleSize        int
		rleFound       int64
		firstPackFound bool
		ctrlHeader     bytes.Buffer
		fragments      []rleFragment
	)

	for ofs < r.Size() && (ctrlCopied < ctrlSize || ctrlSize == -1) {
		startOfs := ofs
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		sync, err := r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("failed to read pack start code: %w", err)
		}
		if sync != packStartCode {
			return nil, fmt.Errorf(
				"missing pack start code at offset %08x: got %08x",
				startOfs, sync,
			)
		}
		ofs += 13
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		stuffing, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("failed to read stuffing length: %w", err)
		}
		ofs += 1 + int64(stuffing&7)
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		sync, err = r.ReadU32()
		if err != nil {
			return nil, fmt.Errorf("failed to read PES start code: %w", err)
		}
		if sync != pesStartCode {
			return nil, fmt.Errorf(
				"missing PES start code at offset %08x: got %08x",
				ofs, sync,
			)
		}
		ofs += 4
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		pesLength, err := r.ReadU16()
		if err != nil {
			return nil, fmt.Errorf("failed to read PES packet length: %w", err)
		}
		nextOfs := ofs + 2 + int64(pesLength)
		ofs += 2
		packHeaderSize := ofs - startOfs

		// PES extension: flag byte, first-packet marker, PTS area length
		ofs++
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		flags, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("failed to read PES flags: %w", err)
		}
		firstPack := flags&0x80 == 0x80
		ofs++
		if err := r.Seek(ofs); err != nil {
			return nil, err
		}
		ptsLength, err := r.ReadU8()
		if err != nil {
			return nil, fmt.Errorf("failed to read PES header length: %w", err)
		}
		ofs += 1 + int64(ptsLength) // skip PTS
		ofs++                       // skip sub-stream ID

		headerSize := ofs - startOfs

		if firstPack && ptsLength >= 5 {
			if err := r.Seek(ofs); err != nil {
				return nil, err
			}
			totalSize, err := r.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("failed to read subpicture size: %w", err)
			}
			ofs += 2
			if err := r.Seek(ofs); err != nil {
				return nil, err
			}
			rel, err := r.ReadU16()
			if err != nil {
				return nil, fmt.Errorf("failed to read control offset: %w", err)
			}
			ctrlOfsRel = int(rel)
			rleSize = ctrlOfsRel - 2
			ctrlSize = int(totalSize) - ctrlOfsRel - 2
			if ctrlSize < 0 {
				return nil, fmt.Errorf(
					"invalid control buffer size: %d", ctrlSize,
				)
			}
			// absolute position of the control header; later packets
			// shift it by their own header size
			ctrlOfs = int64(ctrlOfsRel) + ofs
			ofs += 2
			headerSize = ofs - startOfs
			firstPackFound = true
		} else if firstPackFound {
			ctrlOfs += headerSize
		} else {
			log.Warnw("Invalid fragment skipped",
				"offset", fmt.Sprintf("%08x", startOfs),
			)
		}

		// copy whatever part of the control header this packet carries
		diff := nextOfs - ctrlOfs - int64(ctrlCopied)
		if diff < 0 {
			diff = 0
		}
		if n := min(int(diff), ctrlSize-ctrlCopied); n > 0 {
			if err := r.Seek(ctrlOfs + int64(ctrlCopied)); err != nil {
				return nil, err
			}
			chunk := make([]byte, n)
			if err := r.Read(chunk); err != nil {
				return nil, fmt.Errorf("failed to read control header: %w", err)
			}
			ctrlHeader.Write(chunk)
			ctrlCopied += n
		}

		fragment := rleFragment{
			off:  ofs,
			size: int64(pesLength) - headerSize - diff + packHeaderSize,
		}
		fragments = append(fragments, fragment)
		rleFound += fragment.size

		if ctrlCopied != ctrlSize && nextOfs%sectorSize != 0 {
			ofs = (nextOfs/sectorSize + 1) * sectorSize
			log.Warnw("Offset to next fragment is invalid",
				"fixed", fmt.Sprintf("%08x", ofs),
			)
			rleFound += ofs - nextOfs
		} else {
			ofs = nextOfs
		}
	}

	if !firstPackFound {
		return nil, fmt.Errorf("no subpicture packet found")
	}

	if ctrlCopied != ctrlSize {
		log.Warnw("Control buffer size inconsistent",
			"copied", ctrlCopied, "declared", ctrlSize,
		)
		// pad with the end command so a truncated header cannot be
		// misread as a forced caption (0x00)
		for i := ctrlCopied; i < ctrlSize; i++ {
			ctrlHeader.WriteByte(0xFF)
		}
	}

	if rleFound != int64(rleSize) {
		log.Warnw("RLE buffer size inconsistent",
			"found", rleFound, "declared", rleSize,
		)
	}

	return &assembly{
		ctrlHeader: ctrlHeader.Bytes(),
		ctrlSize:   ctrlSize,
		ctrlOfsRel: ctrlOfsRel,
		rleSize:    rleSize,
		fragments:  fragments,
	}, nil
}

// concatenates the recorded fragments into one RLE buffer. Ranges that
// run past the end of the stream are read short, mirroring the tolerance
// of the fragment walk itself.
func (a *assembly) readRLEBuffer(r *streamReader) ([]byte, error) {
	var buf bytes.Buffer
	for _, frag := range a.fragments {
		if frag.size <= 0 {
			continue
		}
		if err := r.Seek(frag.off); err != nil {
			return nil, err
		}
		chunk := make([]byte, frag.size)
		n, err := r.ReadUpTo(chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to read RLE fragment: %w", err)
		}
		buf.Write(chunk[:n])
	}
	return buf.Bytes(), nil
}
