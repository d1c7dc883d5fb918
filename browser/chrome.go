package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ChromeBrowser implements Browser on a headless (or headed) Chrome session
// driven through the DevTools protocol.
type ChromeBrowser struct {
	ctx         context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

var _ Browser = (*ChromeBrowser)(nil)

// NewChromeBrowser starts a Chrome process and opens a tab. The session lives
// until Close is called or parent is cancelled.
func NewChromeBrowser(parent context.Context, opts Options) (*ChromeBrowser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("headless", opts.Headless))
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("start-maximized", true))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	// Run with no actions starts the browser so launch failures surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &ChromeBrowser{ctx: tabCtx, cancelAlloc: cancelAlloc, cancelTab: cancelTab}, nil
}

func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(b.ctx, actions...)
}

func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) FindAll(ctx context.Context, selector string, scope Element) ([]Element, error) {
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		parent, err := node(scope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(parent))
	}

	var nodes []*cdp.Node
	if err := b.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}

	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (b *ChromeBrowser) FindOne(ctx context.Context, selector string, scope Element) (Element, error) {
	all, err := b.FindAll(ctx, selector, scope)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return all[0], nil
}

func (b *ChromeBrowser) Text(ctx context.Context, el Element) (string, error) {
	n, err := node(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := b.run(ctx, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

// Attribute reads live DOM properties for checked, since the HTML attribute
// does not follow user interaction.
func (b *ChromeBrowser) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	n, err := node(el)
	if err != nil {
		return "", false, err
	}
	ids := []cdp.NodeID{n.NodeID}

	if name == "checked" {
		var checked bool
		if err := b.run(ctx, chromedp.JavascriptAttribute(ids, "checked", &checked, chromedp.ByNodeID)); err != nil {
			return "", false, fmt.Errorf("read property checked: %w", err)
		}
		if !checked {
			return "", false, nil
		}
		return "true", true, nil
	}

	var (
		value string
		ok    bool
	)
	if err := b.run(ctx, chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, fmt.Errorf("read attribute %s: %w", name, err)
	}
	return value, ok, nil
}

func (b *ChromeBrowser) Click(ctx context.Context, el Element) error {
	n, err := node(el)
	if err != nil {
		return err
	}
	return b.run(ctx,
		chromedp.Click([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (b *ChromeBrowser) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		if waitCtx.Err() != nil {
			return fmt.Errorf("%w after %s: %s", ErrWaitTimeout, timeout, selector)
		}
		return err
	}
	return nil
}

func (b *ChromeBrowser) Reload(ctx context.Context) error {
	return b.run(ctx,
		chromedp.Reload(),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Close shuts the tab and the Chrome process down.
func (b *ChromeBrowser) Close() error {
	b.cancelTab()
	b.cancelAlloc()
	return nil
}

func node(el Element) (*cdp.Node, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("element of type %T does not belong to the chrome browser", el)
	}
	return n, nil
}
