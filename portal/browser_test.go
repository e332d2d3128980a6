package portal_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/billfetch"
)

var _ billfetch.Browser = (*fakeBrowser)(nil)

// serveFunc renders rawURL. It returns the final URL after redirects,
// the page HTML and false when nothing is served at rawURL.
type serveFunc func(f *fakeBrowser, rawURL string) (finalURL, html string, ok bool)

// fakeBrowser renders static HTML pages parsed with goquery. Anchors and
// elements carrying data-goto navigate when clicked; submit buttons
// navigate to their form action. Values typed into inputs are kept in
// Values keyed by input name.
type fakeBrowser struct {
	serve serveFunc

	// XPaths translates the XPath expressions the page is queried with
	// into CSS selectors. Unknown expressions match nothing.
	XPaths map[string]string

	// Unreachable makes every navigation fail as if DNS resolution failed.
	Unreachable bool

	mu      sync.Mutex
	url     string
	doc     *goquery.Document
	history []string
	Values  map[string]string
	Visited []string
	Closed  bool
}

func newFakeBrowser(serve serveFunc) *fakeBrowser {
	f := &fakeBrowser{serve: serve, Values: make(map[string]string)}
	f.load("about:blank", "<html><body></body></html>")
	return f
}

func (f *fakeBrowser) opener() billfetch.BrowserOpener {
	return func(ctx context.Context) (billfetch.Browser, error) {
		return f, nil
	}
}

func (f *fakeBrowser) load(finalURL, html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(err)
	}
	f.url = finalURL
	f.doc = doc
}

func (f *fakeBrowser) navigate(rawURL string, record bool) error {
	if f.Unreachable {
		return billfetch.Errorf(billfetch.EUNREACHABLE, "navigate %s: net::ERR_NAME_NOT_RESOLVED", rawURL)
	}
	f.Visited = append(f.Visited, rawURL)
	finalURL, html, ok := f.serve(f, rawURL)
	if !ok {
		finalURL, html = rawURL, "<html><body>Page introuvable</body></html>"
	}
	if record {
		f.history = append(f.history, f.url)
	}
	f.load(finalURL, html)
	return nil
}

func (f *fakeBrowser) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.navigate(rawURL, true)
}

func (f *fakeBrowser) Back(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return nil
	}
	prev := f.history[len(f.history)-1]
	f.history = f.history[:len(f.history)-1]
	return f.navigate(prev, false)
}

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeBrowser) HTML(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.doc.Html()
}

func (f *fakeBrowser) Elements(ctx context.Context, css string) ([]billfetch.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var els []billfetch.Element
	f.doc.Find(css).Each(func(_ int, s *goquery.Selection) {
		els = append(els, &fakeElement{browser: f, sel: s})
	})
	return els, nil
}

func (f *fakeBrowser) ElementsByXPath(ctx context.Context, xpath string) ([]billfetch.Element, error) {
	css, ok := f.XPaths[xpath]
	if !ok {
		return nil, nil
	}
	return f.Elements(ctx, css)
}

func (f *fakeBrowser) Credentials(ctx context.Context) (*billfetch.Credentials, error) {
	return &billfetch.Credentials{
		Cookies:   []*http.Cookie{{Name: "session", Value: "fake"}},
		UserAgent: "fake-browser",
	}, nil
}

func (f *fakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

func (f *fakeBrowser) value(name string) string {
	return f.Values[name]
}

func (f *fakeBrowser) resolve(ref string) string {
	base, err := url.Parse(f.url)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

type fakeElement struct {
	browser *fakeBrowser
	sel     *goquery.Selection
}

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.sel.AttrOr(name, ""), nil
}

func (e *fakeElement) Text() (string, error) {
	return e.sel.Text(), nil
}

func (e *fakeElement) Visible() (bool, error) {
	for n := e.sel; n.Length() > 0; n = n.Parent() {
		if _, ok := n.Attr("hidden"); ok {
			return false, nil
		}
		if strings.Contains(strings.ReplaceAll(n.AttrOr("style", ""), " ", ""), "display:none") {
			return false, nil
		}
		if goquery.NodeName(n) == "input" && n.AttrOr("type", "") == "hidden" {
			return false, nil
		}
	}
	return true, nil
}

func (e *fakeElement) Click() error {
	f := e.browser
	f.mu.Lock()
	defer f.mu.Unlock()

	if target, ok := e.sel.Attr("data-goto"); ok {
		return f.navigate(f.resolve(target), true)
	}
	switch goquery.NodeName(e.sel) {
	case "a":
		if href, ok := e.sel.Attr("href"); ok {
			return f.navigate(f.resolve(href), true)
		}
	case "input", "button":
		if e.sel.AttrOr("type", "") == "submit" {
			if action, ok := e.sel.Closest("form").Attr("action"); ok {
				return f.navigate(f.resolve(action), true)
			}
		}
	}
	return nil
}

func (e *fakeElement) Input(text string) error {
	f := e.browser
	f.mu.Lock()
	defer f.mu.Unlock()
	name := e.sel.AttrOr("name", e.sel.AttrOr("id", ""))
	f.Values[name] = text
	return nil
}
