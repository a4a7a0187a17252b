package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleSubtitle() *Subtitle {
	return &Subtitle{
		Entries: []Entry{
			{
				Index:     1,
				StartTime: 1500 * time.Millisecond,
				EndTime:   3 * time.Second,
				Text:      "Hello\nworld",
			},
			{
				Index:     2,
				StartTime: 61 * time.Second,
				EndTime:   65 * time.Second,
				Text:      "Second line",
			},
		},
		Language: "en",
	}
}

func TestSRTWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	if err := (&SRTWriter{}).Write(sampleSubtitle(), path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "00:00:01,500 --> 00:00:03,000") {
		t.Errorf("missing SRT timestamp line:\n%s", content)
	}
	if !strings.Contains(content, "00:01:01,000 --> 00:01:05,000") {
		t.Errorf("missing second timestamp line:\n%s", content)
	}
	if !strings.Contains(content, "Hello\nworld") {
		t.Errorf("line break not preserved:\n%s", content)
	}
}

func TestVTTWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.vtt")
	if err := (&VTTWriter{}).Write(sampleSubtitle(), path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "WEBVTT\n") {
		t.Errorf("missing WEBVTT header:\n%s", content)
	}
	if !strings.Contains(content, "00:00:01.500 --> 00:00:03.000") {
		t.Errorf("missing VTT timestamp line:\n%s", content)
	}
}

func TestASSWriterEscapesLineBreaks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ass")
	w := &ASSWriter{Title: "VobSub OCR", FontName: "Arial", FontSize: 20}
	if err := w.Write(sampleSubtitle(), path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, "[Script Info]") {
		t.Errorf("missing script info section:\n%s", content)
	}
	if !strings.Contains(content,
		"Dialogue: 0,0:00:01.50,0:00:03.00,Default,,0,0,0,,Hello\\Nworld") {
		t.Errorf("dialogue line wrong or line break not escaped:\n%s", content)
	}
}

func TestNewWriterUnsupportedFormat(t *testing.T) {
	if _, err := NewWriter(Format("sup")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestFormatFromExtension(t *testing.T) {
	cases := map[string]Format{
		"a/b.srt": FormatSRT,
		"a/b.ASS": FormatASS,
		"a/b.ssa": FormatASS,
		"a/b.vtt": FormatVTT,
		"a/b.txt": FormatSRT,
	}
	for path, want := range cases {
		if got := GetFormatFromExtension(path); got != want {
			t.Errorf("GetFormatFromExtension(%q) = %v, want %v", path, got, want)
		}
	}
}
