// Package wikipedia implements the encyclopedic reference research tool,
// used to pull background context and base rates.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/Sententia-Lab/superforecaster/internal/platform/http"
)

const extractLimit = 500

// Client is the Wikipedia API client
type Client struct {
	baseURL    string
	httpClient *platformhttp.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new Wikipedia client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new Wikipedia API client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = "https://en.wikipedia.org/w/api.php"
	}

	return &Client{
		baseURL: options.BaseURL,
		httpClient: platformhttp.NewClient(platformhttp.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
		logger: log.With().Str("component", "wikipedia_client").Logger(),
	}
}

type queryResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup fetches the intro extract of the article titled topic, capped at
// 500 characters.
func (c *Client) Lookup(ctx context.Context, topic string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("titles", topic)
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("exintro", "1")

	c.logger.Debug().Str("topic", topic).Msg("Fetching Wikipedia extract")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var data queryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return "", fmt.Errorf("parsing JSON: %w", err)
	}

	for _, page := range data.Query.Pages {
		if page.Extract == "" {
			continue
		}
		runes := []rune(page.Extract)
		if len(runes) > extractLimit {
			return string(runes[:extractLimit]), nil
		}
		return page.Extract, nil
	}

	return fmt.Sprintf("No Wikipedia article for: %s", topic), nil
}
