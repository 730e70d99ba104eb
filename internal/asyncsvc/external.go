package asyncsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const maxExternalBytes = 4 << 20

var errNotJSON = errors.New("external source did not return JSON")

// ExternalClient fetches the configured JSON document, throttled by a
// token bucket shared by every caller.
type ExternalClient struct {
	http    *http.Client
	url     string
	fields  []string
	limiter *rate.Limiter
}

// NewExternalClient creates a client for url. perSecond <= 0 disables throttling.
func NewExternalClient(url string, fields []string, perSecond float64, timeout time.Duration) *ExternalClient {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &ExternalClient{
		http:    &http.Client{Timeout: timeout},
		url:     url,
		fields:  fields,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Fetch returns the raw JSON body of the external source.
func (c *ExternalClient) Fetch(ctx context.Context) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("external source returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxExternalBytes))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errNotJSON
	}
	return body, nil
}

// Highlights picks the configured gjson paths out of raw. Missing paths
// are omitted.
func (c *ExternalClient) Highlights(raw json.RawMessage) map[string]any {
	out := make(map[string]any, len(c.fields))
	for _, path := range c.fields {
		if v := gjson.GetBytes(raw, path); v.Exists() {
			out[path] = v.Value()
		}
	}
	return out
}
