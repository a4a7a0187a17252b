package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/old-castle-fansubs/vobsub/internal/vobsub"
)

type fakeDecoder struct {
	pictures []*vobsub.Picture
	errs     map[int]error
}

func (d *fakeDecoder) DecodeItem(i int) (*vobsub.Picture, error) {
	if err := d.errs[i]; err != nil {
		return nil, err
	}
	return d.pictures[i], nil
}

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	texts map[int]string
	errs  map[int]error
}

func (e *fakeEngine) Recognize(
	ctx context.Context,
	img image.Image,
) (string, error) {
	e.mu.Lock()
	call := e.calls
	e.calls++
	e.mu.Unlock()

	if err := e.errs[call]; err != nil {
		return "", err
	}
	if text, ok := e.texts[call]; ok {
		return text, nil
	}
	return fmt.Sprintf("caption %d", call), nil
}

func testPicture(duration time.Duration, forced bool) *vobsub.Picture {
	return &vobsub.Picture{
		Width:    2,
		Height:   1,
		Pixels:   make([]byte, 8),
		Duration: duration,
		Forced:   forced,
	}
}

func testPipelineIndex(n int) *vobsub.Index {
	idx := &vobsub.Index{Language: "en"}
	for i := range n {
		idx.Items = append(idx.Items, vobsub.IndexItem{
			Timestamp: time.Duration(i*10) * time.Second,
			FilePos:   int64(i * 0x800),
		})
	}
	return idx
}

func TestConverterRun(t *testing.T) {
	idx := testPipelineIndex(3)
	dec := &fakeDecoder{pictures: []*vobsub.Picture{
		testPicture(2*time.Second, false),
		testPicture(2*time.Second, false),
		testPicture(2*time.Second, false),
	}}
	engine := &fakeEngine{}

	sub, err := New(idx, dec, engine, Options{Workers: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if sub.Language != "en" {
		t.Errorf("language = %q, want \"en\"", sub.Language)
	}
	if len(sub.Entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(sub.Entries))
	}
	for i, e := range sub.Entries {
		if e.Text == "" {
			t.Errorf("entry %d has no text", i)
		}
		if e.Index != i+1 {
			t.Errorf("entry %d has index %d", i, e.Index)
		}
		wantStart := time.Duration(i*10) * time.Second
		if e.StartTime != wantStart {
			t.Errorf("entry %d start = %v, want %v", i, e.StartTime, wantStart)
		}
		if e.EndTime != wantStart+2*time.Second {
			t.Errorf("entry %d end = %v, want %v",
				i, e.EndTime, wantStart+2*time.Second)
		}
	}
}

func TestConverterSkipsFailedDecode(t *testing.T) {
	idx := testPipelineIndex(3)
	dec := &fakeDecoder{
		pictures: []*vobsub.Picture{
			testPicture(2*time.Second, false),
			nil,
			testPicture(2*time.Second, false),
		},
		errs: map[int]error{1: fmt.Errorf("corrupt packet")},
	}

	sub, err := New(idx, dec, &fakeEngine{}, Options{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sub.Entries) != 2 {
		t.Errorf("got %d entries, want 2", len(sub.Entries))
	}
}

func TestConverterForcedOnly(t *testing.T) {
	idx := testPipelineIndex(3)
	dec := &fakeDecoder{pictures: []*vobsub.Picture{
		testPicture(2*time.Second, false),
		testPicture(2*time.Second, true),
		testPicture(2*time.Second, false),
	}}

	sub, err := New(idx, dec, &fakeEngine{}, Options{ForcedOnly: true}).
		Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sub.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(sub.Entries))
	}
	if !sub.Entries[0].Forced {
		t.Error("kept entry is not forced")
	}
}

func TestConverterDropsUnrecognizedCaptions(t *testing.T) {
	idx := testPipelineIndex(2)
	dec := &fakeDecoder{pictures: []*vobsub.Picture{
		testPicture(2*time.Second, false),
		testPicture(2*time.Second, false),
	}}
	engine := &fakeEngine{
		errs:  map[int]error{0: fmt.Errorf("service unavailable")},
		texts: map[int]string{1: "survivor"},
	}

	sub, err := New(idx, dec, engine, Options{Workers: 1}).
		Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sub.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(sub.Entries))
	}
	if sub.Entries[0].Text != "survivor" {
		t.Errorf("kept text = %q", sub.Entries[0].Text)
	}
}

func TestConverterEmptyIndex(t *testing.T) {
	idx := &vobsub.Index{}
	_, err := New(idx, &fakeDecoder{}, &fakeEngine{}, Options{}).
		Run(context.Background())
	if err == nil {
		t.Error("expected error for empty index")
	}
}

func TestConverterAllDecodesFail(t *testing.T) {
	idx := testPipelineIndex(2)
	dec := &fakeDecoder{
		pictures: make([]*vobsub.Picture, 2),
		errs: map[int]error{
			0: fmt.Errorf("bad"),
			1: fmt.Errorf("worse"),
		},
	}
	_, err := New(idx, dec, &fakeEngine{}, Options{}).Run(context.Background())
	if err == nil {
		t.Error("expected error when nothing decodes")
	}
}

func TestConverterDumpsImages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	idx := testPipelineIndex(2)
	dec := &fakeDecoder{pictures: []*vobsub.Picture{
		testPicture(2*time.Second, false),
		testPicture(2*time.Second, false),
	}}

	_, err := New(idx, dec, &fakeEngine{}, Options{DumpDir: dir}).
		Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"caption_0000.png", "caption_0001.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing dumped image %s: %v", name, err)
		}
	}
}
