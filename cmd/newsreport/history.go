package main

import (
	"fmt"
	"strconv"

	"github.com/fedestu/RPA-Challenge/newsfeed"
	"github.com/fedestu/RPA-Challenge/runs"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const historyTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(a *app) *cobra.Command {
	var (
		status string
		phrase string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := runs.RunFilter{Limit: limit}
			if status != "" {
				if err := runs.ValidateStatus(status); err != nil {
					return err
				}
				filter.Status = &status
			}
			if phrase != "" {
				filter.SearchPhrase = &phrase
			}
			return a.listRuns(filter)
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status (running, completed, failed)")
	cmd.Flags().StringVar(&phrase, "phrase", "", "only runs for this search phrase")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show, 0 for all")

	cmd.AddCommand(&cobra.Command{
		Use:   "articles <run-id>",
		Short: "List the articles collected by a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid run ID %q: %w", args[0], err)
			}
			return a.listArticles(runID)
		},
	})

	return cmd
}

func (a *app) listRuns(filter runs.RunFilter) error {
	store, err := openStore(a.cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.ListRuns(filter)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No runs recorded.")
		return nil
	}

	renderRuns(a, list)
	return nil
}

func renderRuns(a *app, list []runs.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Phrase", "Category", "Months", "Status", "Started", "Articles", "Pages", "Stop", "Error"})

	for _, r := range list {
		t.AppendRow(table.Row{
			r.RunID.String(),
			r.SearchPhrase,
			r.CategoryName,
			r.NumMonths,
			r.Status,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.ArticleCount,
			r.Pages,
			deref(r.StopReason),
			truncate(deref(r.LastError), 40),
		})
	}

	t.Render()
}

func (a *app) listArticles(runID uuid.UUID) error {
	store, err := openStore(a.cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.GetRun(runID); err != nil {
		return err
	}
	articles, err := store.ListArticles(runID)
	if err != nil {
		return err
	}

	renderArticles(a, articles)
	return nil
}

func renderArticles(a *app, articles []newsfeed.ArticleRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Date", "Title", "Picture", "Phrase Count", "Money"})

	for i, r := range articles {
		t.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			r.Date(),
			truncate(r.Title, 70),
			r.ImageFilename,
			r.SearchPhraseCount,
			r.ContainsMoney,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d articles", len(articles))})

	t.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
