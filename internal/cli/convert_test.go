package cli

import (
	"testing"

	"github.com/old-castle-fansubs/vobsub/internal/ocr"
)

func TestResolvePair(t *testing.T) {
	tests := []struct {
		path    string
		wantIdx string
		wantSub string
	}{
		{"movie.idx", "movie.idx", "movie.sub"},
		{"movie.sub", "movie.idx", "movie.sub"},
		{"movie.SUB", "movie.idx", "movie.SUB"},
		{"/data/discs/movie.idx", "/data/discs/movie.idx", "/data/discs/movie.sub"},
		{"movie.v2.idx", "movie.v2.idx", "movie.v2.sub"},
		{"noext", "noext", "noext.sub"},
	}
	for _, tt := range tests {
		idx, sub := resolvePair(tt.path)
		if idx != tt.wantIdx || sub != tt.wantSub {
			t.Errorf("resolvePair(%q) = %q, %q, want %q, %q",
				tt.path, idx, sub, tt.wantIdx, tt.wantSub)
		}
	}
}

func TestResolveAPIKeyTesseractNeedsNone(t *testing.T) {
	key, err := resolveAPIKey(ocr.ProviderTesseract, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "" {
		t.Errorf("key = %q, want empty", key)
	}
}

func TestResolveAPIKeyPrefersConfigured(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")

	key, err := resolveAPIKey(ocr.ProviderGemini, "from-config")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-config" {
		t.Errorf("key = %q, want from-config", key)
	}
}

func TestResolveAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	key, err := resolveAPIKey(ocr.ProviderAnthropic, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "from-env" {
		t.Errorf("key = %q, want from-env", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := resolveAPIKey(ocr.ProviderOpenAI, ""); err == nil {
		t.Error("expected error when no API key is available")
	}
}

func TestResolveAPIKeyUnknownProvider(t *testing.T) {
	if _, err := resolveAPIKey(ocr.Provider("carrier-pigeon"), "key"); err == nil {
		t.Error("expected error for unknown provider")
	}
}
