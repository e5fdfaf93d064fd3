package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/castmap/castmap/pkg/ai"
	"github.com/castmap/castmap/pkg/cache"
	"github.com/castmap/castmap/pkg/gutenberg"
	"github.com/castmap/castmap/pkg/interactions"
)

type stubModelClient struct {
	payload string
}

func (s *stubModelClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	return s.payload, nil
}

func (s *stubModelClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	return json.Unmarshal([]byte(s.payload), out)
}

func (s *stubModelClient) ResetMetrics() {}

func (s *stubModelClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func TestProcessAnalyzeMessage_InvalidPayload(t *testing.T) {
	err := ProcessAnalyzeMessage(context.Background(), nil, nil, "not json")
	if err == nil {
		t.Fatal("expected error for invalid payload, got nil")
	}
}

func TestProcessAnalyzeMessage_InvalidBookID(t *testing.T) {
	err := ProcessAnalyzeMessage(context.Background(), nil, nil, `{"book_id": 0}`)
	if err == nil {
		t.Fatal("expected error for invalid book ID, got nil")
	}
}

func TestProcessAnalyzeMessage_WritesCache(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/books/11", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"id": 11,
			"title": "Alice's Adventures in Wonderland",
			"formats": {"text/plain; charset=us-ascii": "http://%s/files/11.txt"}
		}`, r.Host)
	})
	mux.HandleFunc("/files/11.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Alice was beginning to get very tired.")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	books := gutenberg.NewClient(gutenberg.NewClientParams{BaseURL: server.URL})
	store := cache.NewMemoryStore()
	client := &stubModelClient{payload: `{"Alice": {"Rabbit": {"interactions": 2}}}`}
	pipeline := interactions.NewPipeline(client, store, interactions.Config{})

	msg, _ := json.Marshal(AnalyzeJob{BookID: 11, CorrelationID: "test"})
	if err := ProcessAnalyzeMessage(context.Background(), books, pipeline, string(msg)); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	graph, ok, err := store.Get(context.Background(), "gutenberg:11")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !ok {
		t.Fatal("expected cache entry after analysis")
	}
	if graph["Alice"]["Rabbit"] != 2 {
		t.Fatalf("unexpected cached graph: %v", graph)
	}
}
