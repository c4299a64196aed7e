package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PageFailurePolicy controls what happens when a page stays unfetchable after
// the fallback-redirect retries are spent.
type PageFailurePolicy string

const (
	// SkipPage drops the page and continues with the rest of the batch.
	SkipPage PageFailurePolicy = "skip"
	// FailRun aborts the whole crawl.
	FailRun PageFailurePolicy = "fail"
)

// Config holds all application configuration.
type Config struct {
	// Crawl target
	BaseURL        string
	Categories     []string
	ResultsPerPage int
	DefaultLimit   int

	// Crawl behaviour
	RatePerSecond    float64
	RateBurst        int
	MaxConcurrent    int
	MaxLayoutRetries int
	FallbackSuffix   string
	PageFailure      PageFailurePolicy
	RespectRobots    bool

	// Database
	Postgres PostgresConfig

	// Mention API
	Mentions MentionConfig
}

// PostgresConfig holds the relational store connection details.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DSN builds the lib/pq data source string.
func (pc PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// MentionConfig holds everything the mention-count enricher needs: OAuth1
// credentials (environment only, never flags) and the search parameters.
type MentionConfig struct {
	APIURL            string
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string

	CountPerPage int
	ResultType   string
	Latitude     string
	Longitude    string
	Radius       string

	PageDelay      time.Duration
	RateLimitPause time.Duration
}

// Geocode renders the lat,long,radius query value.
func (mc MentionConfig) Geocode() string {
	return fmt.Sprintf("%s,%s,%s", mc.Latitude, mc.Longitude, mc.Radius)
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://www.iherb.com/c/",
		Categories:     []string{"sports", "supplements", "bath", "beauty", "grocery", "baby-kids", "pets", "healthy-home"},
		ResultsPerPage: 48,
		DefaultLimit:   5,

		RatePerSecond:    2.0,
		RateBurst:        3,
		MaxConcurrent:    5,
		MaxLayoutRetries: 50,
		FallbackSuffix:   "/catalog/currentlyunavailable",
		PageFailure:      SkipPage,
		RespectRobots:    true,

		Postgres: PostgresConfig{
			Host:   "localhost",
			Port:   "5432",
			User:   "herbscrap",
			DBName: "iherb",
		},

		Mentions: MentionConfig{
			APIURL:         "https://api.twitter.com/1.1/search/tweets.json",
			CountPerPage:   100,
			ResultType:     "mixed",
			Latitude:       "40.712740",
			Longitude:      "-74.005974",
			Radius:         "100mi",
			PageDelay:      time.Second,
			RateLimitPause: 15 * time.Minute,
		},
	}
}

// LoadFromEnv loads .env (if present) then overrides config from environment
// variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	if v := os.Getenv("HERBSCRAP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("HERBSCRAP_CATEGORIES"); v != "" {
		c.Categories = strings.Split(v, ",")
	}
	if v := os.Getenv("HERBSCRAP_RESULTS_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ResultsPerPage = n
		}
	}
	if v := os.Getenv("HERBSCRAP_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.DefaultLimit = n
		}
	}
	if v := os.Getenv("HERBSCRAP_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		}
	}
	if v := os.Getenv("HERBSCRAP_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RateBurst = n
		}
	}
	if v := os.Getenv("HERBSCRAP_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxConcurrent = n
		}
	}
	if v := os.Getenv("HERBSCRAP_MAX_LAYOUT_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxLayoutRetries = n
		}
	}
	if v := os.Getenv("HERBSCRAP_FALLBACK_SUFFIX"); v != "" {
		c.FallbackSuffix = v
	}
	if v := os.Getenv("HERBSCRAP_PAGE_FAILURE"); v == string(FailRun) {
		c.PageFailure = FailRun
	}
	if v := os.Getenv("HERBSCRAP_RESPECT_ROBOTS"); v == "false" {
		c.RespectRobots = false
	}

	if v := os.Getenv("POSTGRES_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("POSTGRES_PORT"); v != "" {
		c.Postgres.Port = v
	}
	if v := os.Getenv("POSTGRES_USER"); v != "" {
		c.Postgres.User = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("POSTGRES_DBNAME"); v != "" {
		c.Postgres.DBName = v
	}

	c.Mentions.ConsumerKey = os.Getenv("TWITTER_CONSUMER_KEY")
	c.Mentions.ConsumerSecret = os.Getenv("TWITTER_CONSUMER_SECRET")
	c.Mentions.AccessToken = os.Getenv("TWITTER_ACCESS_TOKEN")
	c.Mentions.AccessTokenSecret = os.Getenv("TWITTER_ACCESS_TOKEN_SECRET")
	if v := os.Getenv("HERBSCRAP_MENTION_API_URL"); v != "" {
		c.Mentions.APIURL = v
	}
	if v := os.Getenv("HERBSCRAP_MENTION_PAGE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Mentions.PageDelay = d
		}
	}
	if v := os.Getenv("HERBSCRAP_MENTION_RATE_LIMIT_PAUSE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Mentions.RateLimitPause = d
		}
	}
}

// ValidCategory reports whether name is in the configured allow-list.
func (c *Config) ValidCategory(name string) bool {
	for _, cat := range c.Categories {
		if cat == name {
			return true
		}
	}
	return false
}
