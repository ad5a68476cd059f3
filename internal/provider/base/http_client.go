package base

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxResponseBytes caps how much of an API reply is read into memory.
const maxResponseBytes = 1 << 20

// JSONClient issues authenticated GETs against one JSON API root. The chapa
// verify call is its only user; the bearer key is never logged.
type JSONClient struct {
	hc      *http.Client
	baseURL string
	api     string
}

func NewJSONClient(api, baseURL string, timeout time.Duration) *JSONClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &JSONClient{
		hc:      &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		api:     api,
	}
}

// Reply is a fully read API response.
type Reply struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Reply) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Reply) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Get fetches path with an Authorization: Bearer header. Transport failures
// are returned as errors; any HTTP status, including 4xx/5xx, is a Reply.
func (c *JSONClient) Get(ctx context.Context, path, bearer string) (*Reply, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.api, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "payhook/"+c.api)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("api", c.api).Str("path", path).Msg("api call failed")
		return nil, fmt.Errorf("%s: GET %s: %w", c.api, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read reply: %w", c.api, err)
	}

	log.Debug().
		Str("api", c.api).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("took", time.Since(start)).
		Msg("api call")
	return &Reply{StatusCode: resp.StatusCode, Body: body}, nil
}
