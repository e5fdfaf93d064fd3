package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
	"github.com/castmap/castmap/pkg/logger"
)

// AnalyzeJob is the payload carried on the analyze queue.
type AnalyzeJob struct {
	BookID        int64  `json:"book_id"`
	CorrelationID string `json:"correlation_id"`
}

// ProcessAnalyzeMessage fetches the book named in the job and runs the
// extraction pipeline over it. The pipeline writes the result to the shared
// cache, so a later API request for the same book is a cache hit.
func ProcessAnalyzeMessage(
	ctx context.Context,
	books *gutenberg.Client,
	pipeline *interactions.Pipeline,
	msg string,
) error {
	var job AnalyzeJob
	if err := json.Unmarshal([]byte(msg), &job); err != nil {
		return fmt.Errorf("failed to decode analyze job: %w", err)
	}
	if job.BookID <= 0 {
		return fmt.Errorf("invalid book ID %d", job.BookID)
	}

	logger.Info("[Worker] Analyzing book", "book_id", job.BookID, "correlation_id", job.CorrelationID)

	text, err := books.FetchText(ctx, job.BookID)
	if err != nil {
		return fmt.Errorf("failed to fetch book %d: %w", job.BookID, err)
	}

	graph, err := pipeline.AnalyzeText(ctx, interactions.Input{
		Identifier: fmt.Sprintf("%d", job.BookID),
		Text:       text,
	})
	if err != nil {
		return fmt.Errorf("failed to analyze book %d: %w", job.BookID, err)
	}

	logger.Info(
		"[Worker] Book analysis complete",
		"book_id", job.BookID,
		"correlation_id", job.CorrelationID,
		"characters", len(graph),
		"pairs", graph.Edges(),
	)
	return nil
}
