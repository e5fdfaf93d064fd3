package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"

	"github.com/castmap/castmap/pkg/ai"
)

// InteractionOllamaClient implements ai.ModelClient against a locally or
// remotely hosted Ollama server.
type InteractionOllamaClient struct {
	chatModel       string
	extractionModel string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	baseURL    *url.URL
	httpClient *http.Client

	Client *api.Client
}

// NewInteractionOllamaClientParams contains configuration for creating a
// new InteractionOllamaClient.
type NewInteractionOllamaClientParams struct {
	ChatModel       string
	ExtractionModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewInteractionOllamaClient creates a new Ollama-based client. It connects
// to the server at BaseURL (or the Ollama default when empty) and gates
// concurrent requests with a weighted semaphore.
func NewInteractionOllamaClient(
	params NewInteractionOllamaClientParams,
) (*InteractionOllamaClient, error) {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &InteractionOllamaClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		baseURL:    u,
		httpClient: httpClient,

		Client: api.NewClient(u, httpClient),
	}, nil
}

// ResetMetrics clears all accumulated token and timing metrics.
func (c *InteractionOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated metrics since the last reset.
func (c *InteractionOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *InteractionOllamaClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}
