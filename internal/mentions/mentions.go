// Package mentions counts social-media mentions per brand through a
// rate-limited, cursor-paginated search API.
package mentions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/nboudali/herbscrap/config"
	"github.com/nboudali/herbscrap/internal/progress"
	"golang.org/x/time/rate"
)

// Client queries the search API with OAuth1-signed requests.
type Client struct {
	httpClient *http.Client
	cfg        config.MentionConfig
	limiter    *rate.Limiter
}

// NewClient builds a client from the mention configuration. The OAuth1
// credentials sign every request; the page delay becomes the steady-state
// request rate.
func NewClient(cfg config.MentionConfig) *Client {
	oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessTokenSecret)

	delay := cfg.PageDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &Client{
		httpClient: oauthConfig.Client(oauth1.NoContext, token),
		cfg:        cfg,
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
	}
}

// MentionCounts aggregates a mention count per brand name. When a brand's
// query fails hard the already-computed counts are still returned alongside
// the error, so callers can persist the partial result.
func (c *Client) MentionCounts(ctx context.Context, brands []string) (map[string]int, error) {
	counts := make(map[string]int, len(brands))
	for i, brand := range brands {
		progress.Report(ctx, fmt.Sprintf("counting mentions for %s (%d/%d)", brand, i+1, len(brands)))
		n, err := c.CountMentions(ctx, brand)
		if err != nil {
			return counts, fmt.Errorf("count mentions for %q: %w", brand, err)
		}
		counts[brand] = n
	}
	return counts, nil
}

// CountMentions sums matching items across every result page for one query.
//
// The API's pagination cursor is an upper id bound carried in the response
// metadata; because the bound is inclusive, it is decremented before reuse so
// the boundary item is not counted twice. A rate-limited response pauses and
// retries the same cursor without resetting the running total.
func (c *Client) CountMentions(ctx context.Context, query string) (int, error) {
	var total int
	var maxID int64

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, err
		}

		page, status, err := c.searchPage(ctx, query, maxID)
		if err != nil {
			return 0, err
		}
		if status == http.StatusTooManyRequests {
			progress.Report(ctx, fmt.Sprintf("rate limited, pausing %s", c.cfg.RateLimitPause))
			if err := sleepCtx(ctx, c.cfg.RateLimitPause); err != nil {
				return 0, err
			}
			continue
		}
		if status != http.StatusOK {
			return 0, fmt.Errorf("search returned status %d", status)
		}

		total += len(page.Statuses)

		next := page.SearchMetadata.NextResults
		if next == "" {
			return total, nil
		}
		id, err := cursorFromNextResults(next)
		if err != nil {
			return 0, err
		}
		maxID = id - 1
	}
}

type searchResponse struct {
	Statuses       []json.RawMessage `json:"statuses"`
	SearchMetadata struct {
		NextResults string `json:"next_results"`
	} `json:"search_metadata"`
}

// searchPage issues one signed search request. Non-2xx pages come back with
// their status code and a nil page so the caller decides retry policy.
func (c *Client) searchPage(ctx context.Context, query string, maxID int64) (*searchResponse, int, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(c.cfg.CountPerPage))
	params.Set("result_type", c.cfg.ResultType)
	params.Set("geocode", c.cfg.Geocode())
	if maxID > 0 {
		params.Set("max_id", strconv.FormatInt(maxID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode search response: %w", err)
	}
	return &page, resp.StatusCode, nil
}

// cursorFromNextResults extracts the max_id parameter from a next_results
// value like "?max_id=123456789&q=brand&count=100".
func cursorFromNextResults(next string) (int64, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(next, "?"))
	if err != nil {
		return 0, fmt.Errorf("parse next_results %q: %w", next, err)
	}
	raw := values.Get("max_id")
	if raw == "" {
		return 0, fmt.Errorf("next_results %q has no max_id", next)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse max_id %q: %w", raw, err)
	}
	return id, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
