// Package gutenberg fetches book text and metadata from Project Gutenberg
// through the Gutendex catalog API.
package gutenberg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound reports a catalog number with no matching book.
var ErrNotFound = errors.New("book not found")

const defaultBaseURL = "https://gutendex.com"

// Client resolves Gutenberg catalog numbers to book titles and plain text.
// Fetched texts are cached in memory per catalog number and concurrent
// fetches for the same book are collapsed into one download.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	texts  map[int64]string
	titles map[int64]string
	group  singleflight.Group
}

// NewClientParams contains configuration for creating a Client.
type NewClientParams struct {
	// BaseURL overrides the Gutendex endpoint, mainly for tests.
	BaseURL string
	// HTTPClient overrides the transport; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// NewClient creates a Gutendex-backed client.
func NewClient(params NewClientParams) *Client {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		texts:      make(map[int64]string),
		titles:     make(map[int64]string),
	}
}

type bookMeta struct {
	ID      int64             `json:"id"`
	Title   string            `json:"title"`
	Formats map[string]string `json:"formats"`
}

func (c *Client) lookup(ctx context.Context, id int64) (*bookMeta, error) {
	endpoint := fmt.Sprintf("%s/books/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	meta := new(bookMeta)
	if err := json.NewDecoder(resp.Body).Decode(meta); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return meta, nil
}

// FetchTitle returns the catalog title for a book.
func (c *Client) FetchTitle(ctx context.Context, id int64) (string, error) {
	c.mu.RLock()
	if title, ok := c.titles[id]; ok {
		c.mu.RUnlock()
		return title, nil
	}
	c.mu.RUnlock()

	meta, err := c.lookup(ctx, id)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.titles[id] = meta.Title
	c.mu.Unlock()
	return meta.Title, nil
}

// FetchText returns the full plain text of a book. Plain-text formats are
// preferred; HTML formats are run through readability to extract the text.
func (c *Client) FetchText(ctx context.Context, id int64) (string, error) {
	c.mu.RLock()
	if text, ok := c.texts[id]; ok {
		c.mu.RUnlock()
		return text, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.group.Do(fmt.Sprintf("text:%d", id), func() (any, error) {
		c.mu.RLock()
		if text, ok := c.texts[id]; ok {
			c.mu.RUnlock()
			return text, nil
		}
		c.mu.RUnlock()

		meta, err := c.lookup(ctx, id)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.titles[id] = meta.Title
		c.mu.Unlock()

		textURL, isHTML := pickTextFormat(meta.Formats)
		if textURL == "" {
			return "", fmt.Errorf("no text format available for book %d", id)
		}

		text, err := c.download(ctx, textURL, isHTML)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		c.texts[id] = text
		c.mu.Unlock()
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// pickTextFormat selects the best format URL for text extraction: any
// text/plain variant first, text/html as a fallback. Zipped formats are
// skipped.
func pickTextFormat(formats map[string]string) (string, bool) {
	var htmlURL string
	for mediaType, formatURL := range formats {
		if strings.HasSuffix(formatURL, ".zip") {
			continue
		}
		if strings.HasPrefix(mediaType, "text/plain") {
			return formatURL, false
		}
		if strings.HasPrefix(mediaType, "text/html") && htmlURL == "" {
			htmlURL = formatURL
		}
	}
	return htmlURL, htmlURL != ""
}

func (c *Client) download(ctx context.Context, rawURL string, isHTML bool) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch book text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text fetch returned status %d", resp.StatusCode)
	}

	if isHTML || strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse text url: %w", err)
		}
		article, err := readability.FromReader(resp.Body, u)
		if err != nil {
			return "", fmt.Errorf("failed to parse html: %w", err)
		}
		var builder strings.Builder
		if err := article.RenderText(&builder); err != nil {
			return "", fmt.Errorf("failed to render article text: %w", err)
		}
		return builder.String(), nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read book text: %w", err)
	}
	return string(data), nil
}
