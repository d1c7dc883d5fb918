package discovery

import (
	"context"
	"time"

	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/newsfeed"
)

// CollectNewsData walks result pages from the current one, accumulating
// records until an article predates the window, a page has no articles, the
// last page is reached or MaxIterations pages were processed. The returned
// error is only set when ctx is cancelled; the partial result is returned
// with it.
func (s *Scraper) CollectNewsData(ctx context.Context, searchPhrase string, numMonths int) (*Result, error) {
	startMonth := StartMonth(s.now(), numMonths)
	s.skipped = 0
	s.lastDate = time.Time{}

	s.log.Info("collecting news data",
		logger.String("search_phrase", searchPhrase),
		logger.String("start_month", startMonth.Format(newsfeed.DateLayout)),
	)

	result := &Result{
		StartMonth: startMonth,
		Records:    []newsfeed.ArticleRecord{},
	}

	for result.Pages < s.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			result.Skipped = s.skipped
			result.StopReason = StopCancelled
			return result, err
		}

		result.Pages++

		articles, err := s.browser.FindAll(ctx, s.site.ListConfig.ArticleSelector, nil)
		if err != nil {
			s.log.Warn("failed to list articles, ending loop", logger.Error(err))
			result.StopReason = StopNoArticles
			break
		}
		if len(articles) == 0 {
			s.log.Info("no articles found, ending loop", logger.Int("page", result.Pages))
			result.StopReason = StopNoArticles
			break
		}

		records, shouldStop := s.ProcessArticles(ctx, articles, searchPhrase, startMonth)
		result.Records = append(result.Records, records...)
		s.log.Debug("page processed",
			logger.Int("page", result.Pages),
			logger.Int("records", len(records)),
		)

		if shouldStop {
			result.StopReason = StopDateBoundary
			break
		}

		if !s.GoToNextPage(ctx) {
			result.StopReason = StopLastPage
			break
		}
	}

	if result.StopReason == "" {
		result.StopReason = StopIterationCap
		s.log.Warn("reached maximum number of pages, ending loop", logger.Int("pages", result.Pages))
	}

	result.Skipped = s.skipped
	s.log.Info("collection finished",
		logger.Int("records", len(result.Records)),
		logger.Int("pages", result.Pages),
		logger.Int("skipped", result.Skipped),
		logger.String("stop_reason", result.StopReason),
	)

	return result, nil
}
