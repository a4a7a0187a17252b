package vobsub

import (
	"fmt"

	"github.com/old-castle-fansubs/vobsub/internal/logging"
)

// control header command codes
const (
	cmdForced     = 0x00
	cmdStart      = 0x01
	cmdPalette    = 0x03
	cmdAlpha      = 0x04
	cmdArea       = 0x05
	cmdRLEOffsets = 0x06
	cmdColAlpha   = 0x07
	cmdEnd        = 0xFF
)

// display delay units in milliseconds: the primary end sequence counts in
// 1024ms ticks, chained sequences in 10ms ticks. The asymmetry is kept
// exactly as observed in real players.
const (
	delayUnitPrimary = 1024
	delayUnitChained = 10
)

// follow at most this many chained control sequences; corrupt headers can
// make the next-pointer chain cycle
const maxChainedSequences = 16

// interpreted control header for one subpicture
type controlInfo struct {
	pal            [4]int // indices into the 16-entry .idx palette
	alpha          [4]int // 0 (transparent) .. 15 (opaque)
	alphaSum       int
	x, y           int
	width, height  int
	evenOfs        int // relative to RLE buffer start
	oddOfs         int
	delay          int // display duration in ms, -1 when absent
	forced         bool
	colAlphaUpdate bool
}

// bounds-checked positional reads over the assembled control header
type ctrlReader struct {
	buf []byte
}

func (c ctrlReader) u8(pos int) (int, error) {
	if pos < 0 || pos >= len(c.buf) {
		return 0, fmt.Errorf("control header read out of bounds at %d", pos)
	}
	return int(c.buf[pos]), nil
}

func (c ctrlReader) u16(pos int) (int, error) {
	if pos < 0 || pos+1 >= len(c.buf) {
		return 0, fmt.Errorf("control header read out of bounds at %d", pos)
	}
	return int(c.buf[pos])<<8 | int(c.buf[pos+1]), nil
}

// parseControl scans the command sequence of an assembled control header
// and resolves palette indices, alpha values, geometry, RLE field offsets
// and the display duration. Malformed values degrade to warnings with
// best-effort defaults; only an unreadable fixed header is a hard error.
func parseControl(a *assembly, log *logging.Logger) (*controlInfo, error) {
	r := ctrlReader{buf: a.ctrlHeader}
	info := &controlInfo{delay: -1}

	endSeq, err := r.u16(0)
	if err != nil {
		return nil, fmt.Errorf("control header too short: %w", err)
	}
	endSeqOfs := endSeq - a.ctrlOfsRel - 2
	if endSeqOfs < 0 || endSeqOfs > a.ctrlSize {
		log.Warnw("Invalid end sequence offset, no end time",
			"offset", endSeqOfs,
		)
		endSeqOfs = a.ctrlSize
	}

	index := 2
scan:
	for index < endSeqOfs {
		cmd, err := r.u8(index)
		if err != nil {
			log.Warnw("Control header truncated mid-command", "offset", index)
			break
		}
		index++

		switch cmd {
		case cmdForced:
			info.forced = true

		case cmdStart:
			// start display, no operand

		case cmdPalette:
			var hi, lo int
			if hi, err = r.u8(index); err == nil {
				lo, err = r.u8(index + 1)
			}
			if err != nil {
				log.Warnw("Control header truncated in palette command")
				break scan
			}
			index += 2
			info.pal[3] = hi >> 4
			info.pal[2] = hi & 0x0F
			info.pal[1] = lo >> 4
			info.pal[0] = lo & 0x0F
			log.Debugw("Palette", "indices", info.pal)

		case cmdAlpha:
			var hi, lo int
			if hi, err = r.u8(index); err == nil {
				lo, err = r.u8(index + 1)
			}
			if err != nil {
				log.Warnw("Control header truncated in alpha command")
				break scan
			}
			index += 2
			info.alpha[3] = hi >> 4
			info.alpha[2] = hi & 0x0F
			info.alpha[1] = lo >> 4
			info.alpha[0] = lo & 0x0F
			for i := range 4 {
				info.alphaSum += info.alpha[i]
			}
			log.Debugw("Alpha", "values", info.alpha)

		case cmdArea:
			var b [6]int
			for i := range 6 {
				if b[i], err = r.u8(index + i); err != nil {
					log.Warnw("Control header truncated in area command")
					break scan
				}
			}
			info.x = b[0]<<4 | b[1]>>4
			info.width = ((b[1]&0x0F)<<8 | b[2]) - info.x + 1
			info.y = b[3]<<4 | b[4]>>4
			info.height = ((b[4]&0x0F)<<8 | b[5]) - info.y + 1
			index += 6
			log.Debugw("Display area",
				"x", info.x, "y", info.y,
				"width", info.width, "height", info.height,
			)

		case cmdRLEOffsets:
			var even, odd int
			if even, err = r.u16(index); err == nil {
				odd, err = r.u16(index + 2)
			}
			if err != nil {
				log.Warnw("Control header truncated in RLE offset command")
				break scan
			}
			// stored offsets include the 4-byte length prefix
			info.evenOfs = even - 4
			info.oddOfs = odd - 4
			index += 4
			log.Debugw("RLE offsets",
				"even", fmt.Sprintf("%08x", info.evenOfs),
				"odd", fmt.Sprintf("%08x", info.oddOfs),
			)

		case cmdColAlpha:
			info.colAlphaUpdate = true
			updateSum := 0
			var update [4]int
			var hi, lo int
			if hi, err = r.u8(index + 10); err == nil {
				lo, err = r.u8(index + 11)
			}
			if err != nil {
				log.Warnw("Control header truncated in color/alpha update")
				break scan
			}
			update[3] = hi >> 4
			update[2] = hi & 0x0F
			update[1] = lo >> 4
			update[0] = lo & 0x0F
			for i := range 4 {
				updateSum += update[i]
			}
			// more opaque wins
			if updateSum > info.alphaSum {
				info.alphaSum = updateSum
				if hi, err = r.u8(index + 8); err == nil {
					lo, err = r.u8(index + 9)
				}
				if err != nil {
					log.Warnw("Control header truncated in color/alpha update")
					break scan
				}
				info.pal[3] = hi >> 4
				info.pal[2] = hi & 0x0F
				info.pal[1] = lo >> 4
				info.pal[0] = lo & 0x0F
			}
			// the update carries its own end sequence with the duration
			index = endSeqOfs
			var next int
			if hi, err = r.u16(index); err == nil {
				next, err = r.u16(index + 2)
			}
			if err != nil {
				log.Warnw("Control header truncated in color/alpha update")
				break scan
			}
			info.delay = hi * delayUnitPrimary
			endSeqOfs = next - a.ctrlOfsRel - 2
			if endSeqOfs < 0 || endSeqOfs > a.ctrlSize {
				log.Warnw("Invalid end sequence offset, no end time",
					"offset", endSeqOfs,
				)
				endSeqOfs = a.ctrlSize
			}
			index += 4

		case cmdEnd:
			break scan

		default:
			log.Warnw("Unknown control sequence skipped", "command", cmd)
		}
	}

	if endSeqOfs != a.ctrlSize {
		count := 1
		index = -1
		next := endSeqOfs
		for next != index && count <= maxChainedSequences {
			index = next
			delay, err := r.u16(index)
			if err != nil {
				log.Warnw("Invalid chained control sequence", "offset", index)
				break
			}
			info.delay = delay * delayUnitChained
			if next, err = r.u16(index + 2); err != nil {
				log.Warnw("Invalid chained control sequence", "offset", index)
				break
			}
			next = next - a.ctrlOfsRel - 2
			count++
		}
		if count > 2 {
			log.Warnw("Control sequence(s) ignored, result may be erratic")
		}
	} else {
		log.Warnw("Duration information not found")
	}

	if info.colAlphaUpdate {
		log.Warnw("Palette update/alpha fading detected, result may be erratic")
	}

	return info, nil
}
