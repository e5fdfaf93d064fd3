package interactions

import (
	"strings"
	"testing"
)

func TestSegmentText_Empty(t *testing.T) {
	if segments := SegmentText("", 100, 10); segments != nil {
		t.Fatalf("expected nil for empty input, got %v", segments)
	}
}

func TestSegmentText_SingleSegment(t *testing.T) {
	segments := SegmentText("short text", 100, 50)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if segments[0].Index != 0 || segments[0].Text != "short text" {
		t.Fatalf("unexpected segment: %+v", segments[0])
	}
}

func TestSegmentText_ChunkingDisabled(t *testing.T) {
	text := strings.Repeat("a", 500)
	segments := SegmentText(text, 1000, 0)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment with chunking disabled, got %d", len(segments))
	}
	if segments[0].Text != text {
		t.Fatal("expected whole text in single segment")
	}
}

func TestSegmentText_Truncation(t *testing.T) {
	text := strings.Repeat("x", 200)
	segments := SegmentText(text, 150, 100)
	total := 0
	for _, s := range segments {
		total += len([]rune(s.Text))
	}
	if total != 150 {
		t.Fatalf("expected 150 runes after truncation, got %d", total)
	}
}

func TestSegmentText_CoversTruncatedInput(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		maxLen    int
		chunkSize int
		want      int
	}{
		{
			name:      "exact multiple",
			text:      strings.Repeat("a", 30),
			maxLen:    100,
			chunkSize: 10,
			want:      3,
		},
		{
			name:      "remainder segment",
			text:      strings.Repeat("a", 35),
			maxLen:    100,
			chunkSize: 10,
			want:      4,
		},
		{
			name:      "truncated then chunked",
			text:      strings.Repeat("a", 100),
			maxLen:    25,
			chunkSize: 10,
			want:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := SegmentText(tt.text, tt.maxLen, tt.chunkSize)
			if len(segments) != tt.want {
				t.Fatalf("expected %d segments, got %d", tt.want, len(segments))
			}

			var rebuilt strings.Builder
			for i, s := range segments {
				if s.Index != i {
					t.Fatalf("expected index %d, got %d", i, s.Index)
				}
				if got := len([]rune(s.Text)); got > tt.chunkSize {
					t.Fatalf("segment %d exceeds chunk size: %d runes", i, got)
				}
				rebuilt.WriteString(s.Text)
			}

			want := Truncate(tt.text, tt.maxLen)
			if rebuilt.String() != want {
				t.Fatal("segments do not concatenate to the truncated input")
			}
		})
	}
}

func TestSegmentText_MultiByteRunes(t *testing.T) {
	text := strings.Repeat("ä", 25)
	segments := SegmentText(text, 100, 10)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	for i, s := range segments {
		if !strings.HasPrefix(s.Text, "ä") {
			t.Fatalf("segment %d split a rune: %q", i, s.Text)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 3); got != "hel" {
		t.Fatalf("expected %q, got %q", "hel", got)
	}
	if got := Truncate("hello", 10); got != "hello" {
		t.Fatalf("expected %q, got %q", "hello", got)
	}
	if got := Truncate("äöü", 2); got != "äö" {
		t.Fatalf("expected %q, got %q", "äö", got)
	}
}
