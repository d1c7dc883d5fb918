package discovery

import (
	"errors"
	"fmt"
)

// Fatal errors abort the run. They are returned from Run and its steps and
// are never caught below the caller of Run.

// NavigationError reports a search page that failed to load.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to load search page %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// NoResultsError reports a search that returned no results.
type NoResultsError struct {
	SearchPhrase string
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no results found for the search phrase %q", e.SearchPhrase)
}

// CategorySelectionError reports a category filter that could not be applied
// within the attempt budget.
type CategorySelectionError struct {
	Category string
	Attempts int
	Err      error
}

func (e *CategorySelectionError) Error() string {
	return fmt.Sprintf("failed to select category %q after %d attempts: %v", e.Category, e.Attempts, e.Err)
}

func (e *CategorySelectionError) Unwrap() error { return e.Err }

// Recoverable errors are logged and turned into a skipped article or an end
// of pagination. They never leave the component that produced them.

// ArticleFieldError reports an article field that could not be read.
type ArticleFieldError struct {
	Field string
	Err   error
}

func (e *ArticleFieldError) Error() string {
	return fmt.Sprintf("failed to read article %s: %v", e.Field, e.Err)
}

func (e *ArticleFieldError) Unwrap() error { return e.Err }

// ImageDownloadError reports an image that could not be fetched or stored.
// StatusCode is zero when the failure happened before a response arrived.
type ImageDownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ImageDownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to download image from %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to download image from %s: %v", e.URL, e.Err)
}

func (e *ImageDownloadError) Unwrap() error { return e.Err }

// PaginationError reports a failed lookup or click of the next page control.
type PaginationError struct {
	Err error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("failed to navigate to next page: %v", e.Err)
}

func (e *PaginationError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err belongs to the per-item tier.
func IsRecoverable(err error) bool {
	var (
		fieldErr *ArticleFieldError
		imageErr *ImageDownloadError
		pageErr  *PaginationError
	)
	return errors.As(err, &fieldErr) || errors.As(err, &imageErr) || errors.As(err, &pageErr)
}
