package subtitle

import (
	"strings"
	"time"
)

// Normalizer repairs the timing of captions recovered from bitmap
// subtitles. Display durations on DVDs are frequently zero or missing,
// and consecutive captions may overlap after repair.
type Normalizer struct {
	// used when a caption carries no duration and has no successor to
	// borrow one from
	DefaultDuration time.Duration
	// minimum gap kept between a repaired caption and its successor
	Gap time.Duration
	// captions longer than this are clamped; zero disables the clamp
	MaxDuration time.Duration
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		DefaultDuration: 3 * time.Second,
		Gap:             100 * time.Millisecond,
		MaxDuration:     10 * time.Second,
	}
}

// Normalize drops empty entries, repairs missing end times from the next
// caption's start, resolves overlaps and renumbers. Input order is kept;
// callers pass entries in stream order.
func (n *Normalizer) Normalize(entries []Entry) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		kept = append(kept, e)
	}

	for i := range kept {
		e := &kept[i]

		if e.EndTime <= e.StartTime {
			if i+1 < len(kept) && kept[i+1].StartTime > e.StartTime {
				e.EndTime = kept[i+1].StartTime - n.Gap
			} else {
				e.EndTime = e.StartTime + n.DefaultDuration
			}
		}
		if e.EndTime <= e.StartTime {
			e.EndTime = e.StartTime + n.Gap
		}

		if n.MaxDuration > 0 && e.EndTime-e.StartTime > n.MaxDuration {
			e.EndTime = e.StartTime + n.MaxDuration
		}
		if i+1 < len(kept) && kept[i+1].StartTime > e.StartTime &&
			e.EndTime > kept[i+1].StartTime {
			e.EndTime = kept[i+1].StartTime
		}

		e.Index = i + 1
	}

	return kept
}
