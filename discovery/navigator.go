package discovery

import (
	"context"
	"net/url"
	"strings"

	"github.com/fedestu/RPA-Challenge/logger"
)

// SearchURL builds the results URL for phrase. The sort parameter asks the
// host for newest-first ordering, which the early-stop rule depends on.
func (s *Scraper) SearchURL(phrase string) string {
	return strings.TrimRight(s.site.BaseURL, "/") + s.site.SearchPath +
		"?q=" + url.QueryEscape(phrase) + "&" + s.site.SortParam
}

// OpenSearchPage navigates to the results of phrase and fails with a
// NoResultsError when the site reports an empty result set.
func (s *Scraper) OpenSearchPage(ctx context.Context, phrase string) error {
	searchURL := s.SearchURL(phrase)
	s.log.Info("opening search page", logger.String("search_phrase", phrase), logger.String("url", searchURL))

	if err := s.browser.Navigate(ctx, searchURL); err != nil {
		navErr := &NavigationError{URL: searchURL, Err: err}
		s.log.Error("failed to load search page", logger.Error(navErr))
		return navErr
	}

	if s.site.NoResults == "" {
		return nil
	}

	indicators, err := s.browser.FindAll(ctx, s.site.NoResults, nil)
	if err != nil {
		navErr := &NavigationError{URL: searchURL, Err: err}
		s.log.Error("failed to load search page", logger.Error(navErr))
		return navErr
	}
	if len(indicators) > 0 {
		noResults := &NoResultsError{SearchPhrase: phrase}
		s.log.Error("failed to load search page", logger.Error(noResults))
		return noResults
	}

	return nil
}
