package iherb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/nboudali/herbscrap/internal/progress"
)

// countSelector matches the header element that carries the category's total
// result count, e.g. "Displaying 1 - 48 of 1234 results".
const countSelector = "span.sub-header-title.display-items"

var numberPattern = regexp.MustCompile(`\d+`)

// TotalResults fetches the category root and extracts the total result count.
//
// The site intermittently serves an alternate listing layout without the count
// element; that is not an error, the fetch is simply repeated until the
// expected layout comes back (capped by MaxLayoutRetries when set). Transport
// failures propagate immediately instead of feeding the retry loop.
func (s *Scraper) TotalResults(ctx context.Context) (int, error) {
	for attempt := 1; ; attempt++ {
		body, _, err := s.fetch(ctx, s.opts.BaseURL)
		if err != nil {
			return 0, err
		}
		if n, ok := totalFromListing(body, s.opts.PageSize); ok {
			return n, nil
		}
		if s.opts.MaxLayoutRetries > 0 && attempt >= s.opts.MaxLayoutRetries {
			return 0, fmt.Errorf("count element not found after %d fetches of %s", attempt, s.opts.BaseURL)
		}
		progress.Report(ctx, fmt.Sprintf("alternate layout served for %s, refetching...", s.opts.BaseURL))
	}
}

// totalFromListing pulls the result count out of a listing page body. The
// surrounding text varies between page versions, so instead of fixed offsets
// it scans every number in the count element and takes the first one that is
// neither the leading page index (1) nor the page size.
func totalFromListing(body string, pageSize int) (int, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return 0, false
	}
	text := doc.Find(countSelector).First().Text()
	if text == "" {
		return 0, false
	}
	for _, raw := range numberPattern.FindAllString(text, -1) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		if n == 1 || n == pageSize {
			continue
		}
		return n, true
	}
	return 0, false
}
