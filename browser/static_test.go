package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageHTML = `<html><body>
<div class="list">
  <article><h3>  First
     story </h3><img src="/img/1.jpg"><a class="more" href="/page/2">More</a></article>
  <article><h3>Second story</h3><img src="https://cdn.example.com/2.jpg"></article>
</div>
<label><input type="checkbox" id="plain"><span>Plain</span></label>
<label data-href="/filtered"><input type="checkbox" id="linked"><span>Linked</span></label>
<span id="inert">nothing to do</span>
</body></html>`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no user agent", http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/start":
			fmt.Fprint(w, pageHTML)
		case "/page/2", "/filtered":
			fmt.Fprintf(w, `<html><body><p id="where">%s</p></body></html>`, r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func openStart(t *testing.T) (*StaticBrowser, *httptest.Server) {
	t.Helper()
	srv := testServer(t)
	b := NewStaticBrowser(srv.Client(), Options{})
	require.NoError(t, b.Navigate(context.Background(), srv.URL+"/start"))
	return b, srv
}

func text(t *testing.T, b *StaticBrowser, selector string) string {
	t.Helper()
	el, err := b.FindOne(context.Background(), selector, nil)
	require.NoError(t, err)
	s, err := b.Text(context.Background(), el)
	require.NoError(t, err)
	return s
}

func TestStaticBrowser_FindAndText(t *testing.T) {
	b, _ := openStart(t)
	ctx := context.Background()

	articles, err := b.FindAll(ctx, "article", nil)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	title, err := b.FindOne(ctx, "h3", articles[0])
	require.NoError(t, err)
	s, err := b.Text(ctx, title)
	require.NoError(t, err)
	assert.Equal(t, "First story", s, "whitespace is collapsed")

	_, err = b.FindOne(ctx, "p.missing", articles[0])
	assert.ErrorIs(t, err, ErrNotFound)

	none, err := b.FindAll(ctx, "p.missing", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStaticBrowser_AttributeResolvesURLs(t *testing.T) {
	b, srv := openStart(t)
	ctx := context.Background()

	imgs, err := b.FindAll(ctx, "img", nil)
	require.NoError(t, err)
	require.Len(t, imgs, 2)

	src, ok, err := b.Attribute(ctx, imgs[0], "src")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, srv.URL+"/img/1.jpg", src)

	src, _, err = b.Attribute(ctx, imgs[1], "src")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/2.jpg", src)

	_, ok, err = b.Attribute(ctx, imgs[0], "alt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaticBrowser_ClickLinkNavigates(t *testing.T) {
	b, srv := openStart(t)
	ctx := context.Background()

	more, err := b.FindOne(ctx, "a.more", nil)
	require.NoError(t, err)
	require.NoError(t, b.Click(ctx, more))

	assert.Equal(t, srv.URL+"/page/2", b.CurrentURL())
	assert.Equal(t, "/page/2", text(t, b, "#where"))
}

func TestStaticBrowser_ClickCheckbox(t *testing.T) {
	b, srv := openStart(t)
	ctx := context.Background()

	plain, err := b.FindOne(ctx, "#plain", nil)
	require.NoError(t, err)

	checked := func() bool {
		v, ok, err := b.Attribute(ctx, plain, "checked")
		require.NoError(t, err)
		return IsChecked(v, ok)
	}

	require.NoError(t, b.Click(ctx, plain))
	assert.True(t, checked())
	require.NoError(t, b.Click(ctx, plain))
	assert.False(t, checked())

	linked, err := b.FindOne(ctx, "#linked", nil)
	require.NoError(t, err)
	require.NoError(t, b.Click(ctx, linked))
	assert.Equal(t, srv.URL+"/filtered", b.CurrentURL())
}

func TestStaticBrowser_ClickWithoutTarget(t *testing.T) {
	b, _ := openStart(t)
	ctx := context.Background()

	inert, err := b.FindOne(ctx, "#inert", nil)
	require.NoError(t, err)

	assert.Error(t, b.Click(ctx, inert))
}

func TestStaticBrowser_WaitVisible(t *testing.T) {
	b, _ := openStart(t)
	ctx := context.Background()

	assert.NoError(t, b.WaitVisible(ctx, "article", time.Second))
	assert.ErrorIs(t, b.WaitVisible(ctx, "table", time.Second), ErrWaitTimeout)
}

func TestStaticBrowser_Reload(t *testing.T) {
	b, srv := openStart(t)
	ctx := context.Background()

	require.NoError(t, b.Reload(ctx))
	assert.Equal(t, srv.URL+"/start", b.CurrentURL())
	assert.Equal(t, "Second story", text(t, b, "article:nth-of-type(2) h3"))
}

func TestStaticBrowser_NavigateErrors(t *testing.T) {
	srv := testServer(t)
	b := NewStaticBrowser(srv.Client(), Options{})
	ctx := context.Background()

	assert.Error(t, b.Reload(ctx), "nothing loaded yet")
	assert.Empty(t, b.CurrentURL())

	err := b.Navigate(ctx, srv.URL+"/absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = b.FindAll(ctx, "article", nil)
	assert.Error(t, err, "a failed navigation loads no document")
}

func TestStaticBrowser_ForeignElement(t *testing.T) {
	b, _ := openStart(t)

	_, err := b.Text(context.Background(), "not a selection")

	assert.Error(t, err)
}

func TestIsChecked(t *testing.T) {
	assert.True(t, IsChecked("checked", true))
	assert.True(t, IsChecked("", true))
	assert.True(t, IsChecked("true", true))
	assert.False(t, IsChecked("false", true))
	assert.False(t, IsChecked("", false))
}
