package vobsub

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/old-castle-fansubs/vobsub/internal/logging"
)

// Picture is the decoded result for one subpicture: an RGBA raster plus
// its on-screen duration.
type Picture struct {
	Width, Height int
	X, Y          int
	Pixels        []byte // RGBA, 4 bytes per pixel, row-major
	Duration      time.Duration
	Forced        bool
}

// returns the raster as an image without copying
func (p *Picture) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    p.Pixels,
		Stride: 4 * p.Width,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// decode options shared by all subpictures of one stream
type DecodeOptions struct {
	// swaps palette assignments 1 and 3, for oddly authored discs
	Invert bool
	Logger *logging.Logger
}

// Decoder turns index items into decoded pictures. It owns a single read
// cursor and is therefore not safe for concurrent use; concurrent callers
// should open one reader per goroutine.
type Decoder struct {
	index  *Index
	src    io.ReadSeeker
	invert bool
	log    *logging.Logger
}

func NewDecoder(index *Index, src io.ReadSeeker, opts DecodeOptions) *Decoder {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Decoder{
		index:  index,
		src:    src,
		invert: opts.Invert,
		log:    log,
	}
}

// decodes the i-th entry of the index timestamp table
func (d *Decoder) DecodeItem(i int) (*Picture, error) {
	if i < 0 || i >= len(d.index.Items) {
		return nil, fmt.Errorf("index item %d out of range (0-%d)",
			i, len(d.index.Items)-1)
	}
	return d.DecodeAt(d.index.Items[i].FilePos)
}

// DecodeAt decodes exactly one subpicture whose data starts at filePos in
// the .sub stream. Structural oddities with a documented fallback are
// logged and tolerated; it fails only when no structurally valid buffer
// can be built.
func (d *Decoder) DecodeAt(filePos int64) (*Picture, error) {
	if len(d.index.Palette) != PaletteSize {
		return nil, fmt.Errorf("palette must have %d colors, got %d",
			PaletteSize, len(d.index.Palette))
	}

	if _, err := d.src.Seek(filePos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to subpicture at %08x: %w",
			filePos, err)
	}
	r, err := newStreamReader(d.src)
	if err != nil {
		return nil, err
	}

	asm, err := assemble(r, d.log)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble subpicture at %08x: %w",
			filePos, err)
	}

	info, err := parseControl(asm, d.log)
	if err != nil {
		return nil, fmt.Errorf("failed to parse control header at %08x: %w",
			filePos, err)
	}

	if info.alphaSum == 0 {
		d.log.Warnw("Invisible caption due to zero alpha")
	}
	if info.width > d.index.Width || info.height > d.index.Height {
		d.log.Warnw("Subpicture too large",
			"width", info.width, "height", info.height,
			"frame_width", d.index.Width, "frame_height", d.index.Height,
		)
	}
	if info.width <= 0 || info.height <= 0 {
		return nil, fmt.Errorf("invalid subpicture dimensions %dx%d",
			info.width, info.height)
	}

	// the larger of the two field offsets partitions the RLE buffer
	var sizeEven, sizeOdd int
	if info.oddOfs > info.evenOfs {
		sizeEven = info.oddOfs - info.evenOfs
		sizeOdd = asm.rleSize - info.oddOfs
	} else {
		sizeOdd = info.evenOfs - info.oddOfs
		sizeEven = asm.rleSize - info.evenOfs
	}
	if sizeEven <= 0 || sizeOdd <= 0 {
		return nil, fmt.Errorf("corrupt buffer offset information")
	}

	rleBuffer, err := asm.readRLEBuffer(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read RLE buffer at %08x: %w",
			filePos, err)
	}

	width, height := info.width, info.height
	indices := make([]byte, width*height)
	decodeRLEField(rleBuffer, info.evenOfs, sizeEven, indices,
		0, width, width*(height/2+height&1))
	decodeRLEField(rleBuffer, info.oddOfs, sizeOdd, indices,
		width, width, width*(height/2))

	colors, alphas := resolvePalette(d.index, info, d.invert)

	duration := time.Duration(0)
	if info.delay >= 0 {
		duration = time.Duration(info.delay) * time.Millisecond
	}

	return &Picture{
		Width:    width,
		Height:   height,
		X:        info.x,
		Y:        info.y,
		Pixels:   composite(indices, colors, alphas),
		Duration: duration,
		Forced:   info.forced,
	}, nil
}

// resolvePalette maps the control header's four palette slots to concrete
// colors and 8-bit alphas. When slot 0 ends up fully transparent its color
// is replaced by slot 3's, which avoids color fringing on anti-aliased
// edges over the transparent background.
func resolvePalette(idx *Index, info *controlInfo, invert bool) ([4]Color, [4]uint8) {
	pal := info.pal
	if invert {
		pal[1], pal[3] = pal[3], pal[1]
	}

	var colors [4]Color
	var alphas [4]uint8
	for c := range 4 {
		colors[c] = idx.Palette[pal[c]]
		alphas[c] = uint8(info.alpha[c] * 0xFF / 0xF)
	}
	if alphas[0] == 0 {
		colors[0] = colors[3]
	}
	return colors, alphas
}

// maps 2-bit pixel indices through the resolved palette into RGBA bytes
func composite(indices []byte, colors [4]Color, alphas [4]uint8) []byte {
	pixels := make([]byte, 4*len(indices))
	for i, idx := range indices {
		idx &= 0x3
		pixels[4*i] = colors[idx].R
		pixels[4*i+1] = colors[idx].G
		pixels[4*i+2] = colors[idx].B
		pixels[4*i+3] = alphas[idx]
	}
	return pixels
}
