// Package iherb crawls iHerb category listings: it resolves the category's
// total result count, plans the page URLs, fetches them concurrently and
// extracts product records from each page.
package iherb

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/nboudali/herbscrap/config"
	"github.com/nboudali/herbscrap/internal/models"
	"github.com/nboudali/herbscrap/internal/progress"
)

// Options configures a Scraper for one category.
type Options struct {
	// BaseURL is the category listing URL, without a page parameter.
	BaseURL string
	// PageSize is the number of results the site puts on one listing page.
	PageSize int
	// MaxConcurrent bounds in-flight page fetches.
	MaxConcurrent int
	// MaxLayoutRetries caps the refetch loops that wait out alternate page
	// layouts and fallback-storefront redirects. Zero or negative means
	// unbounded, which is the production setting; tests inject a small cap.
	MaxLayoutRetries int
	// FallbackSuffix is the URL path suffix of the site's fallback storefront
	// page. A fetch resolving there is re-issued.
	FallbackSuffix string
	// PageFailure decides whether an unfetchable page is skipped or aborts
	// the run.
	PageFailure config.PageFailurePolicy
}

// Scraper crawls one category listing.
type Scraper struct {
	client *http.Client
	opts   Options
}

// NewScraper creates a Scraper. The client is expected to carry the crawl
// transport (UA rotation, robots, rate limiting).
func NewScraper(client *http.Client, opts Options) *Scraper {
	if opts.PageSize <= 0 {
		opts.PageSize = 48
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 5
	}
	return &Scraper{client: client, opts: opts}
}

// Crawl runs the whole pipeline for the category and returns every product
// record extracted from up to limit pages.
func (s *Scraper) Crawl(ctx context.Context, limit int) ([]models.Product, error) {
	total, err := s.TotalResults(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve result count: %w", err)
	}
	progress.Report(ctx, fmt.Sprintf("%d results listed for %s", total, s.opts.BaseURL))

	urls := PlanPages(s.opts.BaseURL, total, s.opts.PageSize, limit)
	progress.Report(ctx, fmt.Sprintf("%d pages planned", len(urls)))

	bodies, err := s.FetchPages(ctx, urls, limit)
	if err != nil {
		return nil, err
	}

	var all []models.Product
	for i, body := range bodies {
		if body == "" {
			// page was skipped by the failure policy
			continue
		}
		progress.Report(ctx, fmt.Sprintf("processing page %d/%d", i+1, len(bodies)))
		records, err := ExtractRecords(body)
		if err != nil {
			log.Printf("page %d: %v", i+1, err)
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}
