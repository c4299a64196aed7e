package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/nboudali/herbscrap/internal/mentions"
	"github.com/nboudali/herbscrap/internal/progress"
	"github.com/nboudali/herbscrap/internal/store"
	"github.com/nboudali/herbscrap/internal/ui"
	"github.com/spf13/cobra"
)

var mentionsCmd = &cobra.Command{
	Use:   "mentions",
	Short: "Enrich persisted brands with social-media mention counts",
	RunE:  runMentions,
}

func init() {
	rootCmd.AddCommand(mentionsCmd)
}

func runMentions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	return enrichBrands(ctx, st)
}

// enrichBrands counts mentions for every persisted brand and writes the
// counts back. When enrichment halts early, whatever was computed so far is
// still written before the error surfaces.
func enrichBrands(ctx context.Context, st store.BrandStorer) error {
	brands, err := st.BrandNames(ctx)
	if err != nil {
		return err
	}
	if len(brands) == 0 {
		fmt.Println("No brands to enrich.")
		return nil
	}

	spin := ui.NewSpinner()
	spin.Start(fmt.Sprintf("Counting mentions for %d brands...", len(brands)))
	counts, countErr := mentions.NewClient(cfg.Mentions).MentionCounts(progress.With(ctx, spin.Update), brands)
	spin.Stop()

	for brand, n := range counts {
		if err := st.SetBrandMentionCount(ctx, brand, n); err != nil {
			log.Printf("mention count for %q not written: %v", brand, err)
		}
	}
	fmt.Printf("Mention counts written for %d/%d brands\n", len(counts), len(brands))

	if countErr != nil {
		return fmt.Errorf("enrichment stopped early: %w", countErr)
	}
	return nil
}
