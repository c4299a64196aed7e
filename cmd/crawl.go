package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/nboudali/herbscrap/internal/iherb"
	"github.com/nboudali/herbscrap/internal/progress"
	"github.com/nboudali/herbscrap/internal/reconcile"
	"github.com/nboudali/herbscrap/internal/ui"
	"github.com/spf13/cobra"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [category]",
	Short: "Crawl a category listing and persist its products",
	Args:  cobra.ExactArgs(1),
	RunE:  runCrawl,
}

func init() {
	crawlCmd.Flags().Int("limit", 0, "Maximum pages to fetch (0 = configured default)")
	crawlCmd.Flags().Bool("mentions", false, "Enrich brands with mention counts after persisting")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	category := args[0]
	if !cfg.ValidCategory(category) {
		return fmt.Errorf("unknown category %q, choose one of: %s", category, strings.Join(cfg.Categories, ", "))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = cfg.DefaultLimit
	}
	withMentions, _ := cmd.Flags().GetBool("mentions")

	scraper := iherb.NewScraper(buildHTTPClient(), iherb.Options{
		BaseURL:          cfg.BaseURL + category,
		PageSize:         cfg.ResultsPerPage,
		MaxConcurrent:    cfg.MaxConcurrent,
		MaxLayoutRetries: cfg.MaxLayoutRetries,
		FallbackSuffix:   cfg.FallbackSuffix,
		PageFailure:      cfg.PageFailure,
	})

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Crawling '%s' (up to %d pages)...", category, limit))
	ctx := progress.With(context.Background(), spin.Update)

	records, err := scraper.Crawl(ctx, limit)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}
	fmt.Printf("Total number of products scraped = %d\n", len(records))

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	spin.Start("Persisting records...")
	sum := reconcile.NewEngine(st).PersistBatch(ctx, records)
	spin.Stop()
	fmt.Printf("Persisted %d new, %d updated, %d linked, %d skipped\n",
		sum.Inserted, sum.Updated, sum.Linked, sum.Skipped)

	if withMentions {
		return enrichBrands(ctx, st)
	}
	return nil
}
