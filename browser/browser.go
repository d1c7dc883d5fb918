// Package browser defines the page-rendering capability consumed by the
// extraction engine, with a headless Chrome backend and a static HTML backend.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by FindOne when no element matches the selector.
var ErrNotFound = errors.New("element not found")

// ErrWaitTimeout is returned by WaitVisible when the element did not become
// visible in time.
var ErrWaitTimeout = errors.New("timed out waiting for element")

// Element is an opaque handle to a rendered element. Handles are only valid
// for the backend that produced them and until the next navigation.
type Element any

// Browser is the minimal page interaction contract. A nil scope searches the
// whole document.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	FindAll(ctx context.Context, selector string, scope Element) ([]Element, error)
	FindOne(ctx context.Context, selector string, scope Element) (Element, error)
	Text(ctx context.Context, el Element) (string, error)
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	Click(ctx context.Context, el Element) error
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Reload(ctx context.Context) error
	Close() error
}

// Options configures a backend.
type Options struct {
	Headless  bool
	UserAgent string
	// WindowWidth and WindowHeight size the Chrome window; zero keeps the
	// defaults.
	WindowWidth  int
	WindowHeight int
}

// DefaultUserAgent identifies the tool to the sites it visits.
const DefaultUserAgent = "newsreport/1.0 (news search extraction)"

// IsChecked interprets the result of Attribute(el, "checked").
func IsChecked(value string, ok bool) bool {
	return ok && value != "false"
}
