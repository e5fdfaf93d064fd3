package openai

import (
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/castmap/castmap/pkg/ai"
)

// InteractionOpenAIClient implements ai.ModelClient against an
// OpenAI-compatible chat completion endpoint.
//
// An InteractionOpenAIClient should be created using
// NewInteractionOpenAIClient.
type InteractionOpenAIClient struct {
	chatModel       string
	extractionModel string

	chatURL string
	chatKey string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	ChatClient *openai.Client
}

// NewInteractionOpenAIClientParams defines the configuration for creating a
// new InteractionOpenAIClient.
//
// ChatModel is used for plain completions, ExtractionModel for structured
// output requests. ChatURL may point at any OpenAI-compatible server; when
// empty the default OpenAI endpoint is used.
type NewInteractionOpenAIClientParams struct {
	ChatModel       string
	ExtractionModel string

	ChatURL string
	ChatKey string
}

// NewInteractionOpenAIClient creates a client configured with the provided
// parameters.
func NewInteractionOpenAIClient(
	params NewInteractionOpenAIClientParams,
) *InteractionOpenAIClient {
	options := []option.RequestOption{
		option.WithAPIKey(params.ChatKey),
	}
	if params.ChatURL != "" {
		options = append(options, option.WithBaseURL(params.ChatURL))
	}
	client := openai.NewClient(options...)

	return &InteractionOpenAIClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		ChatClient: &client,
	}
}

func (c *InteractionOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()

	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}

// ResetMetrics clears the accumulated model metrics.
func (c *InteractionOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the accumulated model metrics.
func (c *InteractionOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}
