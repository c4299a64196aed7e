package iherb

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nboudali/herbscrap/config"
	"github.com/nboudali/herbscrap/internal/httputil"
	"github.com/nboudali/herbscrap/internal/progress"
	"golang.org/x/sync/errgroup"
)

// PlanPages converts a total result count into the ordered page URL list
// base?p=1 .. base?p=k, 1-indexed and capped by limit. The page count is
// floor(total/pageSize)+1: the +1 holds the partial last page for non-divisible
// totals, and for exact multiples it is headroom against a count that
// undershoots by a page. A trailing page may then yield zero records, which
// callers accept.
func PlanPages(base string, total, pageSize, limit int) []string {
	if pageSize <= 0 || total < 0 || limit <= 0 {
		return nil
	}
	n := total/pageSize + 1
	if limit < n {
		n = limit
	}
	urls := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		urls = append(urls, fmt.Sprintf("%s?p=%d", base, i))
	}
	return urls
}

// FetchPages fetches up to limit of the given page URLs concurrently and
// returns the bodies in input order. Later stages rely on bodies[i] belonging
// to urls[i], so results are collected into an indexed slice rather than in
// arrival order.
//
// A page that stays unfetchable is either skipped (empty body at its slot) or
// aborts the batch, per the configured failure policy.
func (s *Scraper) FetchPages(ctx context.Context, urls []string, limit int) ([]string, error) {
	if limit < len(urls) {
		urls = urls[:limit]
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrent)

	bodies := make([]string, len(urls))
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			body, resolved, err := s.fetch(ctx, u)
			if err != nil {
				if s.opts.PageFailure == config.FailRun {
					return fmt.Errorf("fetch %s: %w", u, err)
				}
				log.Printf("skipping page %s: %v", u, err)
				progress.Report(ctx, fmt.Sprintf("skipping %s", u))
				return nil
			}
			progress.Report(ctx, fmt.Sprintf("got response from %s", resolved))
			log.Printf("got response from %s", resolved)
			bodies[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bodies, nil
}

// fetch retrieves one listing URL. Redirects onto the fallback storefront
// (resolved path ending in FallbackSuffix) are a site-side inconsistency, not
// a client error; the request is re-issued until a real listing page comes
// back, capped by MaxLayoutRetries when set. Transport errors propagate.
func (s *Scraper) fetch(ctx context.Context, url string) (body, resolved string, err error) {
	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", "", err
		}
		for k, v := range httputil.BrowserHeaders() {
			req.Header[k] = v
		}

		resp, err := httputil.DoWithRetry(s.client, req, 2)
		if err != nil {
			return "", "", err
		}
		resolved = resp.Request.URL.String()

		if s.opts.FallbackSuffix != "" && strings.HasSuffix(resp.Request.URL.Path, s.opts.FallbackSuffix) {
			resp.Body.Close()
			if s.opts.MaxLayoutRetries > 0 && attempt >= s.opts.MaxLayoutRetries {
				return "", "", fmt.Errorf("fallback storefront served %d times for %s", attempt, url)
			}
			progress.Report(ctx, fmt.Sprintf("fallback storefront for %s, retrying...", url))
			continue
		}

		raw, err := httputil.ReadBody(resp)
		resp.Body.Close()
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", url, err)
		}
		return string(raw), resolved, nil
	}
}
