// Package discovery implements the paginated extraction engine: it opens a
// search results page, applies a category filter, walks result pages newest
// first and turns each article element into an ArticleRecord with its image
// downloaded.
package discovery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/fedestu/RPA-Challenge/scraper"
)

// Defaults of Options.
const (
	DefaultMaxIterations     = 100
	DefaultMaxFilterAttempts = 3
	DefaultFilterWaitTimeout = 30 * time.Second
	DefaultFilterSettleDelay = 2 * time.Second
)

// Stop reasons reported in Result.
const (
	StopDateBoundary = "date_boundary"
	StopNoArticles   = "no_articles"
	StopLastPage     = "last_page"
	StopIterationCap = "iteration_cap"
	StopCancelled    = "cancelled"
)

// Options tunes the engine's retry and iteration budgets.
type Options struct {
	MaxIterations     int
	MaxFilterAttempts int
	FilterWaitTimeout time.Duration
	// FilterSettleDelay is slept after the filter is confirmed so the results
	// list can finish re-rendering.
	FilterSettleDelay time.Duration
	// Location is the time zone publish timestamps are converted to before
	// the time of day is dropped. Nil means time.Local.
	Location *time.Location
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production budgets.
func DefaultOptions() Options {
	return Options{
		MaxIterations:     DefaultMaxIterations,
		MaxFilterAttempts: DefaultMaxFilterAttempts,
		FilterWaitTimeout: DefaultFilterWaitTimeout,
		FilterSettleDelay: DefaultFilterSettleDelay,
	}
}

// Request holds the inputs of one run.
type Request struct {
	SearchPhrase string
	// CategoryName is optional; empty skips filtering.
	CategoryName string
	// NumMonths of 0 or less is treated as 1.
	NumMonths int
}

// Result is the outcome of a collection.
type Result struct {
	StartMonth time.Time
	Records    []newsfeed.ArticleRecord
	// Pages is the number of result pages processed.
	Pages int
	// Skipped counts articles dropped by per-item faults.
	Skipped    int
	StopReason string
}

// Scraper drives one browser session through a search.
type Scraper struct {
	browser browser.Browser
	site    *scraper.SiteConfig
	media   *MediaFetcher
	opts    Options
	log     logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error

	skipped  int
	lastDate time.Time
}

// NewScraper wires the engine. Zero-valued budgets in opts fall back to the
// defaults.
func NewScraper(
	b browser.Browser,
	site *scraper.SiteConfig,
	media *MediaFetcher,
	opts Options,
	log logger.Logger,
) *Scraper {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxFilterAttempts <= 0 {
		opts.MaxFilterAttempts = DefaultMaxFilterAttempts
	}
	if opts.FilterWaitTimeout <= 0 {
		opts.FilterWaitTimeout = DefaultFilterWaitTimeout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Scraper{
		browser: b,
		site:    site,
		media:   media,
		opts:    opts,
		log:     log,
		sleep:   sleepContext,
	}
}

// Run performs a full extraction: open the search page, apply the category
// filter when one is requested, then collect. Errors returned are fatal for
// the run.
func (s *Scraper) Run(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.SearchPhrase) == "" {
		return nil, errors.New("search phrase is required")
	}

	if err := s.OpenSearchPage(ctx, req.SearchPhrase); err != nil {
		return nil, err
	}

	if err := s.SelectCategory(ctx, req.CategoryName); err != nil {
		return nil, err
	}

	return s.CollectNewsData(ctx, req.SearchPhrase, req.NumMonths)
}

func (s *Scraper) now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
