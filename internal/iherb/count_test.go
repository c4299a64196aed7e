package iherb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const countElement = `<span class="sub-header-title display-items">Displaying 1 - 48 of %d results</span>`

func TestTotalResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>`+countElement+`</body></html>`, 1234)
	}))
	defer ts.Close()

	s := NewScraper(ts.Client(), Options{BaseURL: ts.URL, PageSize: 48, MaxLayoutRetries: 3})

	n, err := s.TotalResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234, n)
}

func TestTotalResults_RetriesAlternateLayout(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first two fetches serve the alternate layout without the
		// count element
		if hits.Add(1) <= 2 {
			fmt.Fprint(w, `<html><body><div class="hero-banner">something else</div></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body>`+countElement+`</body></html>`, 777)
	}))
	defer ts.Close()

	s := NewScraper(ts.Client(), Options{BaseURL: ts.URL, PageSize: 48, MaxLayoutRetries: 10})

	n, err := s.TotalResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 777, n)
	assert.Equal(t, int32(3), hits.Load())
}

func TestTotalResults_RetryCeiling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no count here</body></html>`)
	}))
	defer ts.Close()

	s := NewScraper(ts.Client(), Options{BaseURL: ts.URL, PageSize: 48, MaxLayoutRetries: 3})

	_, err := s.TotalResults(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count element not found")
}

func TestTotalResults_TransportErrorPropagates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := ts.Client()
	url := ts.URL
	ts.Close() // connection refused from here on

	s := NewScraper(client, Options{BaseURL: url, PageSize: 48, MaxLayoutRetries: 100})

	_, err := s.TotalResults(context.Background())
	require.Error(t, err)
	// transport failures must not feed the layout retry loop
	assert.NotContains(t, err.Error(), "count element")
}

func TestTotalFromListing_SkipsPageIndexAndPageSize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{name: "count after range", text: "Displaying 1 - 48 of 1234 results", want: 1234, ok: true},
		{name: "count first", text: "903 products, showing 1 - 48", want: 903, ok: true},
		{name: "only page numbers", text: "Page 1 of 48", want: 0, ok: false},
		{name: "no numbers", text: "Results", want: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`<span class="sub-header-title display-items">%s</span>`, tt.text)
			n, ok := totalFromListing(body, 48)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}
