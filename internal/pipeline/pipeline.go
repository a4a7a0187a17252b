package pipeline

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/old-castle-fansubs/vobsub/internal/logging"
	"github.com/old-castle-fansubs/vobsub/internal/ocr"
	"github.com/old-castle-fansubs/vobsub/internal/subtitle"
	"github.com/old-castle-fansubs/vobsub/internal/vobsub"
)

// Decoder yields one decoded picture per index entry. *vobsub.Decoder
// satisfies it.
type Decoder interface {
	DecodeItem(i int) (*vobsub.Picture, error)
}

type Options struct {
	// concurrent OCR requests; decoding itself is sequential because the
	// decoder shares one read cursor
	Workers int
	// keep only captions flagged as forced
	ForcedOnly bool
	// when set, every decoded caption is also written here as PNG
	DumpDir string
	Logger  *logging.Logger
}

// Converter runs the full bitmap-to-text pipeline: decode every caption
// of the index, recognize the text, then repair caption timing.
type Converter struct {
	index   *vobsub.Index
	decoder Decoder
	engine  ocr.Engine
	opts    Options
	log     *logging.Logger
}

func New(
	index *vobsub.Index,
	decoder Decoder,
	engine ocr.Engine,
	opts Options,
) *Converter {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &Converter{
		index:   index,
		decoder: decoder,
		engine:  engine,
		opts:    opts,
		log:     log,
	}
}

type caption struct {
	entry   subtitle.Entry
	picture *vobsub.Picture
}

// Run decodes and recognizes every caption. A caption that fails to
// decode or recognize is logged and dropped; Run fails only when nothing
// at all could be processed or the context is cancelled.
func (c *Converter) Run(ctx context.Context) (*subtitle.Subtitle, error) {
	if len(c.index.Items) == 0 {
		return nil, fmt.Errorf("index contains no captions")
	}

	captions := c.decodeAll()
	if len(captions) == 0 {
		return nil, fmt.Errorf("no caption could be decoded")
	}

	if err := c.recognizeAll(ctx, captions); err != nil {
		return nil, err
	}

	entries := make([]subtitle.Entry, 0, len(captions))
	for _, cpt := range captions {
		entries = append(entries, cpt.entry)
	}
	entries = subtitle.NewNormalizer().Normalize(entries)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no caption produced any text")
	}

	return &subtitle.Subtitle{
		Entries:  entries,
		Language: c.index.Language,
	}, nil
}

func (c *Converter) decodeAll() []caption {
	captions := make([]caption, 0, len(c.index.Items))

	for i, item := range c.index.Items {
		pic, err := c.decoder.DecodeItem(i)
		if err != nil {
			c.log.Warnw("Skipping caption that failed to decode",
				"item", i, "error", err)
			continue
		}
		if c.opts.ForcedOnly && !pic.Forced {
			continue
		}

		if c.opts.DumpDir != "" {
			if err := dumpPNG(c.opts.DumpDir, i, pic); err != nil {
				c.log.Warnw("Failed to dump caption image",
					"item", i, "error", err)
			}
		}

		captions = append(captions, caption{
			entry: subtitle.Entry{
				StartTime: item.Timestamp,
				EndTime:   item.Timestamp + pic.Duration,
				Forced:    pic.Forced,
			},
			picture: pic,
		})
	}

	return captions
}

func (c *Converter) recognizeAll(ctx context.Context, captions []caption) error {
	workers := c.opts.Workers
	if workers <= 0 {
		workers = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	failed := 0

	for i := range captions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := c.engine.Recognize(ctx, captions[i].picture.Image())
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.Warnw("Caption text recognition failed",
					"item", i, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			captions[i].entry.Text = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("recognition aborted: %w", err)
	}
	if failed > 0 {
		c.log.Warnw("Some captions could not be recognized", "count", failed)
	}
	return nil
}

func dumpPNG(dir string, i int, pic *vobsub.Picture) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("caption_%04d.png", i))
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return png.Encode(file, pic.Image())
}
