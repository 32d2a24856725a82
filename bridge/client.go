// Package bridge talks to the outfit discovery bridge, the HTTP service that
// turns style keywords into ranked outfit reference images.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/fitscroll/logging"
	"github.com/raushankrgupta/fitscroll/models"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 2 * time.Minute
)

// Client fetches outfit candidates from the bridge. Fetch never fails: any
// problem yields an empty list, which the caller treats as "no results".
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Timeout bounds cached lookups, RefreshTimeout bounds forced rescrapes.
	Timeout        time.Duration
	RefreshTimeout time.Duration

	Logger logging.Logger
}

// NewClient creates a bridge client with its own HTTP client
func NewClient(baseURL string, timeout, refreshTimeout time.Duration, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		BaseURL:        baseURL,
		HTTPClient:     &http.Client{},
		Timeout:        timeout,
		RefreshTimeout: refreshTimeout,
		Logger:         logger.With("component", "bridge"),
	}
}

type searchRequest struct {
	Keywords []string `json:"keywords"`
	Limit    int      `json:"limit"`
	Fresh    bool     `json:"fresh"`
}

type searchResponse struct {
	Outfits []models.OutfitCandidate `json:"outfits"`
}

// Fetch returns up to limit candidates for the keywords, in the bridge's ranking order.
// forceRefresh makes the bridge discard its cache and scrape again, so it gets the long timeout.
func (c *Client) Fetch(ctx context.Context, keywords []string, limit int, forceRefresh bool) []models.OutfitCandidate {
	if limit <= 0 {
		limit = 1
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(forceRefresh))
	defer cancel()

	log := c.logger()
	payload, err := json.Marshal(searchRequest{Keywords: cleanKeywords(keywords), Limit: limit, Fresh: forceRefresh})
	if err != nil {
		log.Warn(ctx, "encode bridge search request", "error", err)
		return []models.OutfitCandidate{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/search"), bytes.NewReader(payload))
	if err != nil {
		log.Warn(ctx, "create bridge search request", "error", err)
		return []models.OutfitCandidate{}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		log.Warn(ctx, "bridge search failed", "error", err, "fresh", forceRefresh)
		return []models.OutfitCandidate{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Warn(ctx, "bridge search returned error status", "status", resp.StatusCode, "body", string(body))
		return []models.OutfitCandidate{}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		log.Warn(ctx, "decode bridge search response", "error", err)
		return []models.OutfitCandidate{}
	}

	out := make([]models.OutfitCandidate, 0, len(parsed.Outfits))
	for _, o := range parsed.Outfits {
		if strings.TrimSpace(o.ReferenceImage()) == "" {
			continue
		}
		out = append(out, o)
		if len(out) == limit {
			break
		}
	}
	log.Info(ctx, "bridge search done", "keywords", len(keywords), "outfits", len(out), "fresh", forceRefresh)
	return out
}

// HealthCheck reports whether the bridge answers GET /health with a 2xx
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(false))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/health"), nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		c.logger().Debug(ctx, "bridge health check failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) timeoutFor(forceRefresh bool) time.Duration {
	if forceRefresh {
		if c.RefreshTimeout > 0 {
			return c.RefreshTimeout
		}
		return defaultRefreshTimeout
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

func (c *Client) url(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(strings.TrimSpace(c.BaseURL), "/"), path)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return http.DefaultClient
	}
	return c.HTTPClient
}

func (c *Client) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Discard()
	}
	return c.Logger
}

func cleanKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
