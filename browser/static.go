package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// StaticBrowser implements Browser over server-rendered HTML fetched with
// net/http and queried with goquery. Clicking a link navigates to its target;
// clicking a checkbox without a target toggles it in the local document.
type StaticBrowser struct {
	client    *http.Client
	userAgent string
	current   *url.URL
	doc       *goquery.Document
}

var _ Browser = (*StaticBrowser)(nil)

// NewStaticBrowser creates a static backend. A nil client uses a client with
// a 30 second timeout.
func NewStaticBrowser(client *http.Client, opts Options) *StaticBrowser {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &StaticBrowser{client: client, userAgent: userAgent}
}

// Navigate fetches rawURL and replaces the current document.
func (b *StaticBrowser) Navigate(ctx context.Context, rawURL string) error {
	target, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if b.current != nil {
		target = b.current.ResolveReference(target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", b.userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	b.doc = doc
	b.current = target
	return nil
}

// FindAll returns every element matching selector under scope.
func (b *StaticBrowser) FindAll(_ context.Context, selector string, scope Element) ([]Element, error) {
	root, err := b.root(scope)
	if err != nil {
		return nil, err
	}

	var out []Element
	root.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out, nil
}

// FindOne returns the first element matching selector under scope.
func (b *StaticBrowser) FindOne(ctx context.Context, selector string, scope Element) (Element, error) {
	all, err := b.FindAll(ctx, selector, scope)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return all[0], nil
}

// Text returns the element text with whitespace runs collapsed.
func (b *StaticBrowser) Text(_ context.Context, el Element) (string, error) {
	s, err := selection(el)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(s.Text()), " "), nil
}

// Attribute returns an attribute value. href and src are resolved against
// the current page URL, matching what a rendering browser reports.
func (b *StaticBrowser) Attribute(_ context.Context, el Element, name string) (string, bool, error) {
	s, err := selection(el)
	if err != nil {
		return "", false, err
	}
	val, ok := s.Attr(name)
	if !ok {
		return "", false, nil
	}
	if (name == "href" || name == "src") && b.current != nil && val != "" {
		if ref, err := url.Parse(val); err == nil {
			val = b.current.ResolveReference(ref).String()
		}
	}
	return val, true, nil
}

// Click follows the element's link target, or toggles a checkbox in place.
func (b *StaticBrowser) Click(ctx context.Context, el Element) error {
	s, err := selection(el)
	if err != nil {
		return err
	}

	if target := linkTarget(s); target != "" {
		return b.Navigate(ctx, target)
	}

	if goquery.NodeName(s) == "input" && s.AttrOr("type", "") == "checkbox" {
		if _, checked := s.Attr("checked"); checked {
			s.RemoveAttr("checked")
		} else {
			s.SetAttr("checked", "checked")
		}
		return nil
	}

	return fmt.Errorf("element <%s> has no click target", goquery.NodeName(s))
}

// WaitVisible reports whether selector is present. Static documents never
// change on their own, so there is nothing to wait for.
func (b *StaticBrowser) WaitVisible(_ context.Context, selector string, timeout time.Duration) error {
	if b.doc == nil {
		return fmt.Errorf("no page loaded")
	}
	if b.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w after %s: %s", ErrWaitTimeout, timeout, selector)
	}
	return nil
}

// Reload fetches the current URL again.
func (b *StaticBrowser) Reload(ctx context.Context) error {
	if b.current == nil {
		return fmt.Errorf("no page loaded")
	}
	return b.Navigate(ctx, b.current.String())
}

// CurrentURL returns the URL of the loaded document, or "" before the first
// navigation.
func (b *StaticBrowser) CurrentURL() string {
	if b.current == nil {
		return ""
	}
	return b.current.String()
}

func (b *StaticBrowser) Close() error {
	b.doc = nil
	return nil
}

func (b *StaticBrowser) root(scope Element) (*goquery.Selection, error) {
	if scope != nil {
		return selection(scope)
	}
	if b.doc == nil {
		return nil, fmt.Errorf("no page loaded")
	}
	return b.doc.Selection, nil
}

func selection(el Element) (*goquery.Selection, error) {
	s, ok := el.(*goquery.Selection)
	if !ok || s == nil {
		return nil, fmt.Errorf("element of type %T does not belong to the static browser", el)
	}
	return s, nil
}

func linkTarget(s *goquery.Selection) string {
	for _, attr := range []string{"href", "data-href"} {
		if v := s.AttrOr(attr, ""); v != "" {
			return v
		}
	}
	if a := s.Closest("a[href]"); a.Length() > 0 {
		return a.AttrOr("href", "")
	}
	if d := s.Closest("[data-href]"); d.Length() > 0 {
		return d.AttrOr("data-href", "")
	}
	return ""
}
