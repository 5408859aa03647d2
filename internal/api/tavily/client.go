// Package tavily implements the web search research tool.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Sententia-Lab/superforecaster/internal/platform/http"
)

const contentPreviewLen = 200

// Client is the Tavily search API client
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Tavily client
type ClientOptions struct {
	APIKey         string
	BaseURL        string
	MaxResults     int
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new Tavily API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://api.tavily.com"
	}
	if options.MaxResults == 0 {
		options.MaxResults = 5
	}

	return &Client{
		apiKey:     options.APIKey,
		baseURL:    options.BaseURL,
		maxResults: options.MaxResults,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "tavily_client").Logger(),
	}
}

type searchRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Lookup searches the web for current information on the query and returns
// one formatted line per result. Without an API key it returns a mock result
// so the pipeline stays runnable offline.
func (c *Client) Lookup(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		c.logger.Warn().Msg("TAVILY_API_KEY not set, returning mock search result")
		return fmt.Sprintf("[Mock search: %s] (Set TAVILY_API_KEY to enable real searches)", query), nil
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:     c.apiKey,
		Query:      query,
		MaxResults: c.maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("encoding search request: %w", err)
	}

	c.logger.Debug().Str("query", query).Msg("Searching web")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var data searchResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	var sb strings.Builder
	for _, result := range data.Results {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", result.Title, truncate(result.Content, contentPreviewLen)))
	}

	c.logger.Debug().Int("count", len(data.Results)).Msg("Search results received")
	return strings.TrimRight(sb.String(), "\n"), nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
