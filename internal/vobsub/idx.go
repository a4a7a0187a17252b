package vobsub

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// number of colors a VobSub palette carries
const PaletteSize = 16

// one palette entry from the .idx sidecar
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// one caption's entry in the .idx timestamp table
type IndexItem struct {
	Timestamp time.Duration
	FilePos   int64
}

// parsed .idx metadata
type Index struct {
	Width, Height    int
	OriginX, OriginY int
	ScaleX, ScaleY   float64
	Alpha            float64
	Smooth           bool
	FadeIn, FadeOut  int
	TimeOffset       int
	ForcedSubs       bool
	Language         string
	LangIdx          int
	Palette          []Color
	Items            []IndexItem
}

var (
	colorRe = regexp.MustCompile(`(?i)^([0-9a-f]{2})([0-9a-f]{2})([0-9a-f]{2})`)
	itemRe  = regexp.MustCompile(`(?i)^(\d{2}):(\d{2}):(\d{2}):(\d{3}), filepos: ([0-9a-f]+)$`)
)

// reads and parses an .idx file from disk
func ParseIndexFile(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open idx file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	idx, err := ParseIndex(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return idx, nil
}

// parses the line-oriented "key: value" .idx format. Unknown keys and
// lines without a colon are skipped.
func ParseIndex(r io.Reader) (*Index, error) {
	idx := &Index{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.Contains(line, ":") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		var err error
		switch key {
		case "size":
			err = idx.parseSize(value)
		case "org":
			err = idx.parseOrigin(value)
		case "scale":
			err = idx.parseScale(value)
		case "alpha":
			idx.Alpha, err = parsePercent(value)
		case "smooth":
			idx.Smooth, err = parseOnOff(value)
		case "fadein/out":
			err = idx.parseFade(value)
		case "time offset":
			idx.TimeOffset, err = strconv.Atoi(value)
		case "forced subs":
			idx.ForcedSubs, err = parseOnOff(value)
		case "palette":
			err = idx.parsePalette(value)
		case "id":
			// "id: en, index: 0"
			idx.Language = strings.TrimSpace(strings.SplitN(value, ",", 2)[0])
		case "langidx":
			idx.LangIdx, err = strconv.Atoi(value)
		case "timestamp":
			err = idx.parseItem(value)
		default:
			// skip unknown key
		}
		if err != nil {
			return nil, fmt.Errorf("idx key %q: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read idx content: %w", err)
	}

	return idx, nil
}

func (idx *Index) parseSize(value string) (err error) {
	parts := strings.SplitN(value, "x", 2)
	if len(parts) != 2 {
		return fmt.Errorf("unknown size value: %q", value)
	}
	if idx.Width, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return fmt.Errorf("unknown width value: %q", parts[0])
	}
	if idx.Height, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return fmt.Errorf("unknown height value: %q", parts[1])
	}
	return nil
}

func (idx *Index) parseOrigin(value string) (err error) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("unknown origin value: %q", value)
	}
	if idx.OriginX, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return fmt.Errorf("unknown origin value: %q", value)
	}
	if idx.OriginY, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return fmt.Errorf("unknown origin value: %q", value)
	}
	return nil
}

func (idx *Index) parseScale(value string) (err error) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("unknown scale value: %q", value)
	}
	if idx.ScaleX, err = parsePercent(parts[0]); err != nil {
		return err
	}
	if idx.ScaleY, err = parsePercent(parts[1]); err != nil {
		return err
	}
	return nil
}

func (idx *Index) parseFade(value string) (err error) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("unknown fadein/out value: %q", value)
	}
	if idx.FadeIn, err = strconv.Atoi(strings.TrimSpace(parts[0])); err != nil {
		return fmt.Errorf("unknown fadein/out value: %q", value)
	}
	if idx.FadeOut, err = strconv.Atoi(strings.TrimSpace(parts[1])); err != nil {
		return fmt.Errorf("unknown fadein/out value: %q", value)
	}
	return nil
}

func (idx *Index) parsePalette(value string) error {
	parts := strings.Split(value, ",")
	idx.Palette = make([]Color, 0, len(parts))
	for _, part := range parts {
		color, err := parseColor(part)
		if err != nil {
			return err
		}
		idx.Palette = append(idx.Palette, color)
	}
	return nil
}

func (idx *Index) parseItem(value string) error {
	match := itemRe.FindStringSubmatch(value)
	if match == nil {
		return fmt.Errorf("invalid idx item: %q", value)
	}

	hours, _ := strconv.Atoi(match[1])
	minutes, _ := strconv.Atoi(match[2])
	seconds, _ := strconv.Atoi(match[3])
	millis, _ := strconv.Atoi(match[4])
	filePos, err := strconv.ParseInt(match[5], 16, 64)
	if err != nil {
		return fmt.Errorf("invalid idx item filepos: %q", match[5])
	}

	idx.Items = append(idx.Items, IndexItem{
		Timestamp: time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second +
			time.Duration(millis)*time.Millisecond,
		FilePos: filePos,
	})
	return nil
}

func parseOnOff(value string) (bool, error) {
	switch strings.TrimSpace(value) {
	case "ON":
		return true, nil
	case "OFF":
		return false, nil
	}
	return false, fmt.Errorf("unknown boolean value: %q", value)
}

func parsePercent(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if !strings.HasSuffix(value, "%") {
		return 0, fmt.Errorf("unknown float value: %q", value)
	}
	ratio, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("unknown float value: %q", value)
	}
	return ratio / 100, nil
}

func parseColor(value string) (Color, error) {
	match := colorRe.FindStringSubmatch(strings.TrimSpace(value))
	if match == nil {
		return Color{}, fmt.Errorf("unknown color value: %q", value)
	}

	r, _ := strconv.ParseUint(match[1], 16, 8)
	g, _ := strconv.ParseUint(match[2], 16, 8)
	b, _ := strconv.ParseUint(match[3], 16, 8)
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}
