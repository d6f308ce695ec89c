// Package suggest proxies search-engine autocompletion for the search box.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrSnakeDoc/linkus/internal/logger"
	"github.com/MrSnakeDoc/linkus/internal/utils"
	"github.com/MrSnakeDoc/linkus/internal/version"
)

const (
	DefaultEndpoint = "https://suggestqueries.google.com/complete/search"
	DefaultTimeout  = 5 * time.Second

	maxBody = 256 << 10
)

type Client struct {
	endpoint string
	language string
	http     *http.Client
	logger   logger.Logger
}

func New(endpoint, language string, timeout time.Duration, log logger.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		language: language,
		http:     &http.Client{Timeout: timeout},
		logger:   log,
	}
}

// Suggest returns completions for q. It never fails: an empty query or any
// upstream problem yields an empty list.
func (c *Client) Suggest(ctx context.Context, q string) []string {
	if q == "" {
		return []string{}
	}
	out, err := c.fetch(ctx, q)
	if err != nil {
		c.logger.Warn("error fetching suggestions", logger.Error(err))
		return []string{}
	}
	return out
}

func (c *Client) fetch(ctx context.Context, q string) ([]string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid suggest endpoint: %w", err)
	}
	params := u.Query()
	params.Set("client", "firefox")
	if c.language != "" {
		params.Set("hl", c.language)
	}
	params.Set("q", q)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, utils.Cause(err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("suggest endpoint returned %d", resp.StatusCode)
	}

	// The firefox client answers in ISO-8859-1 regardless of Accept-Charset.
	body, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(io.LimitReader(resp.Body, maxBody)))
	if err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return parse(body)
}

// parse extracts the completion list from ["query", ["a", "b"], ...].
func parse(body []byte) ([]string, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing suggestions: %w", err)
	}
	if len(raw) < 2 {
		return nil, errors.New("suggestion response has no completion list")
	}
	var list []string
	if err := json.Unmarshal(raw[1], &list); err != nil {
		return nil, fmt.Errorf("parsing completion list: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
