package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/config"
	"github.com/fedestu/RPA-Challenge/discovery"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/fedestu/RPA-Challenge/report"
	"github.com/fedestu/RPA-Challenge/runs"
	"github.com/fedestu/RPA-Challenge/scraper"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newCollectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Search for a phrase and write the matching articles to a report",
		Long: `Open the search page for the phrase, apply the category filter when one
is given, walk the result pages newest first and stop at the first article
published before the requested window. Every record lands in
<output.dir>/news_data_<date>.xlsx and its image in <output.images_dir>/<date>/.`,
		Example: `  newsreport collect --phrase "climate change" --category Story --months 2
  newsreport collect --work-item work-item.json --backend static`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.collect(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringP("phrase", "p", "", "search phrase")
	flags.StringP("category", "c", "", "category to filter results by")
	flags.IntP("months", "m", 0, "number of months to collect, 0 or 1 is the current month only")
	flags.String("work-item", "", "JSON work item providing the inputs")
	flags.String("backend", "", "browser backend: chrome or static")
	flags.String("base-url", "", "site base URL overriding the site profile")
	flags.Bool("headless", true, "run chrome without a window")

	a.bindFlags(cmd, map[string]string{
		"phrase":    "input.search_phrase",
		"category":  "input.category_name",
		"months":    "input.num_months",
		"work-item": "input.work_item",
		"backend":   "browser.backend",
		"base-url":  "site.base_url",
		"headless":  "browser.headless",
	})

	return cmd
}

// collect runs one extraction and records it in the run history. A fatal
// extraction error marks the run failed and no report is written.
func (a *app) collect(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.ValidateInput(); err != nil {
		return err
	}

	site, err := cfg.LoadSite()
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	store, err := openStore(cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.CreateRun(uuid.New(), cfg.Input.SearchPhrase, cfg.Input.CategoryName, cfg.Input.NumMonths, site)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	log := a.log.With(logger.String("run_id", run.RunID.String()))

	today := time.Now().In(opts.Location)
	log.Info("starting run",
		logger.String("search_phrase", cfg.Input.SearchPhrase),
		logger.String("category", cfg.Input.CategoryName),
		logger.String("backend", cfg.Browser.Backend),
	)

	result, err := extract(ctx, cfg, site, opts, today, log)
	switch {
	case err == nil:
	case result != nil && errors.Is(err, context.Canceled):
		log.Warn("extraction interrupted, keeping partial results", logger.Int("records", len(result.Records)))
	default:
		log.Error("extraction failed", logger.Error(err))
		failRun(store, run.RunID, err, log)
		return err
	}

	path, err := a.persist(store, run, result, today, log)
	if err != nil {
		log.Error("failed to store results", logger.Error(err))
		failRun(store, run.RunID, err, log)
		return err
	}

	finished := time.Now()
	count := len(result.Records)
	status := runs.StatusCompleted
	if err := store.UpdateRun(run.RunID, runs.RunUpdate{
		Status:       &status,
		FinishedAt:   &finished,
		ArticleCount: &count,
		Pages:        &result.Pages,
		Skipped:      &result.Skipped,
		StopReason:   &result.StopReason,
	}); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	log.Info("run completed",
		logger.String("report", path),
		logger.Int("records", count),
		logger.String("stop_reason", result.StopReason),
	)
	fmt.Fprintf(a.out, "Run %s: %d articles from %d pages written to %s\n",
		run.RunID, count, result.Pages, path)
	return nil
}

// extract drives one browser session through the search. The browser is
// closed before returning, whatever the outcome.
func extract(
	ctx context.Context,
	cfg *config.Config,
	site *scraper.SiteConfig,
	opts discovery.Options,
	today time.Time,
	log logger.Logger,
) (*discovery.Result, error) {
	b, err := openBrowser(ctx, cfg.Browser)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := b.Close(); err != nil {
			log.Warn("failed to close browser", logger.Error(err))
		}
	}()

	client := &http.Client{Timeout: cfg.Engine.DownloadTimeout}
	media, err := discovery.NewMediaFetcher(client, cfg.Output.ImagesDir, today, cfg.Engine.DownloadWorkers)
	if err != nil {
		return nil, err
	}

	s := discovery.NewScraper(b, site, media, opts, log)
	return s.Run(ctx, discovery.Request{
		SearchPhrase: cfg.Input.SearchPhrase,
		CategoryName: cfg.Input.CategoryName,
		NumMonths:    cfg.Input.NumMonths,
	})
}

// persist stores the dataset snapshot, the article rows and the report of a
// run and returns the report path.
func (a *app) persist(
	store *runs.Store,
	run *runs.Run,
	result *discovery.Result,
	today time.Time,
	log logger.Logger,
) (string, error) {
	feed, err := newsfeed.NewNewsFeed(datasetDir(a.cfg))
	if err != nil {
		return "", err
	}
	if err := feed.Save(newsfeed.Dataset{
		RunID:        run.RunID,
		SearchPhrase: run.SearchPhrase,
		CategoryName: run.CategoryName,
		NumMonths:    run.NumMonths,
		StartMonth:   result.StartMonth,
		CreatedAt:    today,
		Articles:     result.Records,
	}); err != nil {
		return "", err
	}

	if err := store.SaveArticles(run.RunID, result.Records); err != nil {
		return "", err
	}

	return report.NewWriter(a.cfg.Output.Dir, log).Write(today, result.Records)
}

func openBrowser(ctx context.Context, cfg config.BrowserConfig) (browser.Browser, error) {
	opts := browser.Options{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
	}
	if cfg.Backend == config.BackendStatic {
		return browser.NewStaticBrowser(nil, opts), nil
	}
	b, err := browser.NewChromeBrowser(ctx, opts)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// openStore opens the run history, creating its directory first.
func openStore(dsn string) (*runs.Store, error) {
	if dir := filepath.Dir(dsn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return runs.NewStore(dsn)
}

func datasetDir(cfg *config.Config) string {
	return filepath.Join(cfg.Output.Dir, "runs")
}

func failRun(store *runs.Store, runID uuid.UUID, cause error, log logger.Logger) {
	status := runs.StatusFailed
	finished := time.Now()
	msg := cause.Error()
	if err := store.UpdateRun(runID, runs.RunUpdate{
		Status:     &status,
		FinishedAt: &finished,
		LastError:  &msg,
	}); err != nil {
		log.Error("failed to mark run failed", logger.Error(err))
	}
}
