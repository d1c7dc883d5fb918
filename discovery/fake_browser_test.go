package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fedestu/RPA-Challenge/browser"
	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/scraper"
	"github.com/stretchr/testify/require"
)

var testSite = scraper.DefaultSiteConfig()

// fakeNode is an in-memory element. Children are keyed by the exact selector
// that finds them.
type fakeNode struct {
	text     string
	textErr  error
	attrs    map[string]string
	children map[string][]*fakeNode
	onClick  func() error
}

func (n *fakeNode) add(selector string, children ...*fakeNode) *fakeNode {
	if n.children == nil {
		n.children = make(map[string][]*fakeNode)
	}
	n.children[selector] = append(n.children[selector], children...)
	return n
}

// fakeBrowser serves a fixed sequence of pages.
type fakeBrowser struct {
	pages     []*fakeNode
	current   int
	navigated []string
	navErr    error
	clickErr  error
	clicks    int
	reloads   int
	onReload  func()
	closed    bool
}

var _ browser.Browser = (*fakeBrowser)(nil)

func (b *fakeBrowser) root() *fakeNode {
	if b.current < len(b.pages) {
		return b.pages[b.current]
	}
	return &fakeNode{}
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	if b.navErr != nil {
		return b.navErr
	}
	b.current = 0
	return nil
}

func (b *fakeBrowser) FindAll(_ context.Context, selector string, scope browser.Element) ([]browser.Element, error) {
	n := b.root()
	if scope != nil {
		n = scope.(*fakeNode)
	}
	var out []browser.Element
	for _, c := range n.children[selector] {
		out = append(out, c)
	}
	return out, nil
}

func (b *fakeBrowser) FindOne(ctx context.Context, selector string, scope browser.Element) (browser.Element, error) {
	all, _ := b.FindAll(ctx, selector, scope)
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return all[0], nil
}

func (b *fakeBrowser) Text(_ context.Context, el browser.Element) (string, error) {
	n := el.(*fakeNode)
	return n.text, n.textErr
}

func (b *fakeBrowser) Attribute(_ context.Context, el browser.Element, name string) (string, bool, error) {
	v, ok := el.(*fakeNode).attrs[name]
	return v, ok, nil
}

func (b *fakeBrowser) Click(_ context.Context, el browser.Element) error {
	b.clicks++
	if b.clickErr != nil {
		return b.clickErr
	}
	if fn := el.(*fakeNode).onClick; fn != nil {
		return fn()
	}
	return nil
}

func (b *fakeBrowser) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if len(b.root().children[selector]) == 0 {
		return fmt.Errorf("%w: %s", browser.ErrWaitTimeout, selector)
	}
	return nil
}

func (b *fakeBrowser) Reload(_ context.Context) error {
	b.reloads++
	if b.onReload != nil {
		b.onReload()
	}
	return nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

// addPage appends a results page. When hasNext is set, the page carries a
// next page control that advances to the following page.
func (b *fakeBrowser) addPage(hasNext bool, articles ...*fakeNode) *fakeNode {
	page := &fakeNode{}
	page.add(testSite.ListConfig.ArticleSelector, articles...)
	if hasNext {
		page.add(testSite.ListConfig.PaginationSelector, &fakeNode{
			attrs: map[string]string{"href": "https://www.latimes.com/search?p=" + strconv.Itoa(len(b.pages)+2)},
			onClick: func() error {
				b.current++
				return nil
			},
		})
	}
	b.pages = append(b.pages, page)
	return page
}

// article builds an article element. Empty description or image omit the
// element.
func article(published time.Time, title, description, imageURL string) *fakeNode {
	cfg := testSite.ArticleConfig
	n := &fakeNode{}
	n.add(cfg.TimestampSelector, &fakeNode{
		attrs: map[string]string{cfg.TimestampAttribute: strconv.FormatInt(published.UnixMilli(), 10)},
	})
	if title != "" {
		n.add(cfg.TitleSelector, &fakeNode{text: title})
	}
	if description != "" {
		n.add(cfg.DescriptionSelector, &fakeNode{text: description})
	}
	if imageURL != "" {
		n.add(cfg.ImageSelector, &fakeNode{attrs: map[string]string{cfg.ImageAttribute: imageURL}})
	}
	return n
}

// captureLogger records messages per level.
type captureLogger struct {
	mu         sync.Mutex
	warns      []string
	infos      []string
	errs       []string
	infoFields []logger.Field
}

func (l *captureLogger) Debug(string, ...logger.Field) {}

func (l *captureLogger) Info(msg string, fields ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
	l.infoFields = append(l.infoFields, fields...)
}

// infoString returns the value of the first string field named key.
func (l *captureLogger) infoString(key string) string {
	for _, f := range l.infoFields {
		if f.Key == key {
			return f.String
		}
	}
	return ""
}

func (l *captureLogger) Warn(msg string, _ ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(msg string, _ ...logger.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *captureLogger) With(...logger.Field) logger.Logger { return l }
func (l *captureLogger) Sync() error                       { return nil }

// testNow is mid-April 2024; a one month window starts on April 1st.
var testNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

func day(month time.Month, d int) time.Time {
	return time.Date(2024, month, d, 15, 30, 0, 0, time.UTC)
}

// imageServer serves image bytes equal to the request path, and 404 for
// /missing.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(t *testing.T, b browser.Browser, log logger.Logger, workers int) *Scraper {
	t.Helper()
	media, err := NewMediaFetcher(nil, t.TempDir(), testNow, workers)
	require.NoError(t, err)

	return NewScraper(b, testSite, media, Options{
		Location: time.UTC,
		Now:      func() time.Time { return testNow },
	}, log)
}
