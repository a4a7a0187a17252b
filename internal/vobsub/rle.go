package vobsub

// decodeRLEField decodes one interlaced field (even or odd scanlines) of a
// run-length-encoded 2bpp bitmap into trg, which holds one 2-bit color
// index per pixel in row-major order.
//
// The stream is a sequence of 4-bit nibbles. A code starting with a
// non-zero nibble is a 1- or 2-nibble short run; a zero first nibble
// extends the code to 3 or 4 nibbles for longer runs, and a 4-nibble code
// with run length zero is an explicit line feed that fills the rest of the
// line. Rows advance by twice the image width because the two fields
// interleave, and the nibble cursor is realigned to byte boundaries at
// each line end. Decoding stops when the nibbles run out or maxPixels
// have been written.
func decodeRLEField(src []byte, srcOfs, srcLen int, trg []byte, trgOfs, width, maxPixels int) {
	if srcOfs < 0 || srcOfs > len(src) {
		return
	}
	if srcLen > len(src)-srcOfs {
		srcLen = len(src) - srcOfs
	}
	if srcLen <= 0 || width <= 0 {
		return
	}

	nibbles := make([]byte, 2*srcLen)
	for i := range srcLen {
		b := src[srcOfs+i]
		nibbles[2*i] = b >> 4
		nibbles[2*i+1] = b & 0x0F
	}

	var (
		index     int
		sumPixels int
		x         int
	)

	for index < len(nibbles) && sumPixels < maxPixels {
		tmp := int(nibbles[index])
		index++
		var length int
		if tmp == 0 {
			if index >= len(nibbles) {
				break
			}
			tmp = int(nibbles[index])
			index++
			if tmp&0xC != 0 {
				// three nibble code
				if index >= len(nibbles) {
					break
				}
				length = tmp << 2
				tmp = int(nibbles[index])
				index++
				length |= tmp >> 2
			} else {
				// line feed or four nibble code
				if index+1 >= len(nibbles) {
					break
				}
				length = tmp << 6
				tmp = int(nibbles[index])
				index++
				length |= tmp << 2
				tmp = int(nibbles[index])
				index++
				length |= tmp >> 2
				if length == 0 {
					// line feed: fill the rest of the line
					length = width - x
					if length <= 0 || sumPixels >= maxPixels {
						length = 0
						trgOfs += 2 * width
						sumPixels = ((trgOfs / width) / 2) * width
						x = 0
					}
					if index&1 == 1 {
						index++
					}
				}
			}
		} else {
			length = tmp >> 2
			if length == 0 {
				// two nibble code
				if index >= len(nibbles) {
					break
				}
				length = tmp << 2
				tmp = int(nibbles[index])
				index++
				length |= tmp >> 2
			}
		}

		col := byte(tmp & 0x3)
		sumPixels += length

		for range length {
			if pos := trgOfs + x; pos >= 0 && pos < len(trg) {
				trg[pos] = col
			}
			x++
			if x >= width {
				trgOfs += 2 * width
				x = 0
				if index&1 == 1 {
					index++
				}
			}
		}
	}
}
