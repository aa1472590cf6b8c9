// Package rest fetches feed pages from an HTTP endpoint that speaks
// limit/offset query parameters and returns a JSON array of items.
package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skimread/skim/internal/feed"
	"github.com/skimread/skim/internal/network"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

// FetchPage implements the paginated source contract against the endpoint.
func (c *Client) FetchPage(ctx context.Context, size, offset int) ([]feed.Item, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("rest: parse url %q: %w", c.baseURL, err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(size))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if network.IsOffline(err) {
			return nil, fmt.Errorf("rest: you appear to be offline: %w", err)
		}
		return nil, fmt.Errorf("rest: fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rest: fetch page: unexpected status %s", resp.Status)
	}

	var items []feed.Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("rest: decode page: %w", err)
	}
	return items, nil
}
