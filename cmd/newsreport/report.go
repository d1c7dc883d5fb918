package main

import (
	"errors"
	"fmt"

	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/fedestu/RPA-Challenge/report"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report [run-id]",
		Short: "Rewrite the Excel report of a past run",
		Long: `Rebuild news_data_<date>.xlsx from the dataset snapshot stored when the run
finished. The date is the day the run was made. Without a run ID the most
recent run is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			feed, err := newsfeed.NewNewsFeed(datasetDir(a.cfg))
			if err != nil {
				return err
			}

			var ds *newsfeed.Dataset
			if len(args) == 1 {
				runID, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run ID %q: %w", args[0], err)
				}
				ds, err = feed.Get(runID)
				if err != nil {
					return fmt.Errorf("failed to load run %s: %w", runID, err)
				}
			} else {
				ds, err = latestDataset(feed, a.log)
				if err != nil {
					return err
				}
			}

			return a.rewriteReport(ds)
		},
	}
}

func latestDataset(feed *newsfeed.NewsFeed, log logger.Logger) (*newsfeed.Dataset, error) {
	result, err := feed.List()
	if err != nil {
		return nil, err
	}
	for _, readErr := range result.Errors {
		log.Warn("skipping unreadable dataset", logger.String("file", readErr.Filename), logger.Error(readErr.Err))
	}
	if len(result.Datasets) == 0 {
		return nil, errors.New("no runs recorded")
	}
	return &result.Datasets[0], nil
}

func (a *app) rewriteReport(ds *newsfeed.Dataset) error {
	path, err := report.NewWriter(a.cfg.Output.Dir, a.log).Write(ds.CreatedAt, ds.Articles)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Run %s: %d articles written to %s\n", ds.RunID, len(ds.Articles), path)
	return nil
}
