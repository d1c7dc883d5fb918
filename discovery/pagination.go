package discovery

import (
	"context"
	"errors"
	"strings"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/logger"
)

// GoToNextPage clicks the next page control when it links somewhere and
// reports whether the browser moved on. Faults end pagination instead of
// failing the run.
//
// Callers rely on the host returning results newest first across pages; the
// extractor warns when that does not hold but never re-sorts.
func (s *Scraper) GoToNextPage(ctx context.Context) bool {
	next, err := s.browser.FindOne(ctx, s.site.ListConfig.PaginationSelector, nil)
	if errors.Is(err, browser.ErrNotFound) {
		s.log.Info("no next page control, ending pagination")
		return false
	}
	if err != nil {
		s.log.Error("error navigating to next page", logger.Error(&PaginationError{Err: err}))
		return false
	}

	href, ok, err := s.browser.Attribute(ctx, next, "href")
	if err != nil {
		s.log.Error("error navigating to next page", logger.Error(&PaginationError{Err: err}))
		return false
	}
	if !ok || strings.TrimSpace(href) == "" {
		s.log.Info("next page control has no target, ending pagination")
		return false
	}

	if err := s.browser.Click(ctx, next); err != nil {
		s.log.Error("error navigating to next page", logger.Error(&PaginationError{Err: err}))
		return false
	}

	return true
}
