package interactions

// Segment is a bounded, contiguous slice of the truncated input text,
// processed as one independent model request. Segments are ordered by
// Index, never overlap, and concatenate back to the truncated input.
type Segment struct {
	Index int
	Text  string
}

// SegmentText truncates text to maxInputLen runes and divides the result
// into consecutive segments of at most chunkSize runes. A chunkSize <= 0
// disables chunking and yields a single segment.
//
// Both cuts are plain rune-offset operations with no regard for word or
// sentence boundaries. Content beyond maxInputLen is dropped silently and
// an interaction spanning a chunk boundary may be missed or double counted;
// this is the accepted precision/cost trade-off of bounding model context.
func SegmentText(text string, maxInputLen, chunkSize int) []Segment {
	runes := []rune(text)
	if maxInputLen > 0 && len(runes) > maxInputLen {
		runes = runes[:maxInputLen]
	}
	if len(runes) == 0 {
		return nil
	}

	if chunkSize <= 0 || len(runes) <= chunkSize {
		return []Segment{{Index: 0, Text: string(runes)}}
	}

	segments := make([]Segment, 0, (len(runes)+chunkSize-1)/chunkSize)
	for start := 0; start < len(runes); start += chunkSize {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  string(runes[start:end]),
		})
	}
	return segments
}

// Truncate cuts text to maxInputLen runes, matching the truncation applied
// by SegmentText. It is used to derive content-based cache keys over
// exactly the text the pipeline analyzes.
func Truncate(text string, maxInputLen int) string {
	runes := []rune(text)
	if maxInputLen > 0 && len(runes) > maxInputLen {
		return string(runes[:maxInputLen])
	}
	return text
}
