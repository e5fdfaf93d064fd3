package interactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castmap/castmap/pkg/ai"
)

// ExtractionErrorKind classifies how a segment extraction failed.
type ExtractionErrorKind string

const (
	// ExtractionInvalidResponse marks model output that parsed but violated
	// the interaction schema, or could not be parsed at all.
	ExtractionInvalidResponse ExtractionErrorKind = "invalid_response"
	// ExtractionCallFailed marks a transport-level failure: timeout,
	// non-success status, or an empty response body.
	ExtractionCallFailed ExtractionErrorKind = "call_failed"
)

// ExtractionError reports the failure of a single segment extraction. A
// failed segment contributes nothing to the final graph and does not abort
// the pipeline unless every segment fails.
type ExtractionError struct {
	Kind    ExtractionErrorKind
	Segment int
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("segment %d extraction failed (%s): %v", e.Segment, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type segmentInteraction struct {
	Interactions int `json:"interactions" jsonschema_description:"Number of interactions between the two characters, a positive integer"`
}

// segmentResponse is the structured-output contract for one segment:
// character name -> other character name -> interaction count object.
type segmentResponse map[string]map[string]segmentInteraction

func extractFromSegment(
	ctx context.Context,
	segment Segment,
	client ai.ModelClient,
	timeout time.Duration,
) (PartialResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var res segmentResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"character_interactions",
		"Count how many times each pair of characters interacts in a narrative text segment.",
		segment.Text,
		&res,
		ai.WithSystemPrompts(ai.InteractionPromptText),
		ai.WithTemperature(0),
	)
	if err != nil {
		kind := ExtractionCallFailed
		if errors.Is(err, ai.ErrMalformedResponse) {
			kind = ExtractionInvalidResponse
		}
		return PartialResult{}, &ExtractionError{Kind: kind, Segment: segment.Index, Err: err}
	}

	graph := make(InteractionGraph, len(res))
	for a, inner := range res {
		for b, interaction := range inner {
			if interaction.Interactions <= 0 {
				// One schema violation rejects the whole segment; a
				// partially accepted segment would skew the merged counts.
				return PartialResult{}, &ExtractionError{
					Kind:    ExtractionInvalidResponse,
					Segment: segment.Index,
					Err:     fmt.Errorf("non-positive interaction count %d for pair %q -> %q", interaction.Interactions, a, b),
				}
			}
			graph.Add(a, b, interaction.Interactions)
		}
	}

	return PartialResult{Segment: segment.Index, Graph: graph}, nil
}
