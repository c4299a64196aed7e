package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/nboudali/herbscrap/config"
	"github.com/nboudali/herbscrap/internal/httputil"
	"github.com/nboudali/herbscrap/internal/stealth"
	"github.com/nboudali/herbscrap/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "herbscrap",
	Short: "herbscrap - iHerb category crawler",
	Long:  "A batch CLI that crawls iHerb category listings into a relational store and enriches brands with mention counts.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("base-url", "", "Category listing base URL")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().Float64("rate", 0, "Max page requests per second")
	rootCmd.PersistentFlags().String("page-failure", "", "Policy for unfetchable pages: skip, fail")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetBool("respect-robots"); !v {
		cfg.RespectRobots = false
	}
	if v, _ := rootCmd.PersistentFlags().GetFloat64("rate"); v > 0 {
		cfg.RatePerSecond = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("page-failure"); v == string(config.FailRun) {
		cfg.PageFailure = config.FailRun
	}
}

// buildHTTPClient creates the crawl HTTP client from config.
func buildHTTPClient() *http.Client {
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst)
	robots := stealth.NewRobotsChecker(&http.Client{Timeout: 10 * time.Second}, cfg.RespectRobots)

	transport := &stealth.Transport{
		Base: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
		},
		Agents:      stealth.NewAgentPool(),
		Robots:      robots,
		Delay:       stealth.NewPageDelay(200*time.Millisecond, 800*time.Millisecond),
		RateLimiter: limiter,
	}
	return httputil.NewHTTPClient(transport)
}

// openStore connects to the configured database and makes sure the schema
// exists. The caller owns the returned store and closes it on every exit path.
func openStore(ctx context.Context) (*store.PgStore, error) {
	db, err := sql.Open("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	st := store.NewPgStore(db)
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
