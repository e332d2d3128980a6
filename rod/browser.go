// Package rod drives a Chrome browser session through the DevTools protocol.
package rod

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Browser implements billfetch.Browser at compile time.
var _ billfetch.Browser = (*Browser)(nil)

// DefaultPageTimeout bounds every page operation.
const DefaultPageTimeout = 30 * time.Second

// Options configures a browser launch.
type Options struct {
	// Headless hides the browser window. Portals presenting a second
	// factor challenge are easier to complete with a visible window.
	Headless bool

	// UserDataDir keeps cookies and local storage between runs, so a
	// session authenticated once can be reused without logging in again.
	UserDataDir string

	// Bin overrides the browser executable. Empty means rod finds or
	// downloads one.
	Bin string

	// PageTimeout bounds each navigation and element query.
	PageTimeout time.Duration
}

// Browser is a single Chrome window with one active page.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration

	mu     sync.Mutex
	closed atomic.Bool
}

// Opener returns a billfetch.BrowserOpener launching browsers with opts.
func Opener(opts Options) billfetch.BrowserOpener {
	return func(ctx context.Context) (billfetch.Browser, error) {
		return Launch(ctx, opts)
	}
}

// Launch starts a browser with stability flags and opens a blank page. The
// browser outlives ctx, which only guards the launch itself.
// Close must be called when the Browser is no longer needed.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Set("no-sandbox").
		Leakless(true).
		Headless(opts.Headless)
	if opts.UserDataDir != "" {
		lnchr = lnchr.UserDataDir(opts.UserDataDir)
	}
	if opts.Bin != "" {
		lnchr = lnchr.Bin(opts.Bin)
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		lnchr.Kill()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	timeout := opts.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	return &Browser{browser: browser, launcher: lnchr, page: page, timeout: timeout}, nil
}

// bound returns the active page bound to ctx and the page timeout. The
// returned cancel must be called when the operation completes.
func (b *Browser) bound(ctx context.Context) (*rod.Page, context.CancelFunc, error) {
	if b.closed.Load() {
		return nil, nil, billfetch.Errorf(billfetch.EINVALID, "browser closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	return b.page.Context(ctx), cancel, nil
}

// live returns the active page bound to ctx only. Elements found through it
// stay usable after the query returns.
func (b *Browser) live(ctx context.Context) (*rod.Page, error) {
	if b.closed.Load() {
		return nil, billfetch.Errorf(billfetch.EINVALID, "browser closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.page.Context(ctx), nil
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	page, cancel, err := b.bound(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := page.Navigate(url); err != nil {
		return classify(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify(ctx, url, err)
	}
	return nil
}

// Back goes back one entry in the page history and waits for the load
// event.
func (b *Browser) Back(ctx context.Context) error {
	page, cancel, err := b.bound(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	if err := page.NavigateBack(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

// CurrentURL returns the URL of the active page.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	page, cancel, err := b.bound(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	info, err := page.Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// HTML returns the rendered HTML of the active page.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	page, cancel, err := b.bound(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return page.HTML()
}

// Elements returns the elements matching a CSS selector without waiting
// for them to appear.
func (b *Browser) Elements(ctx context.Context, css string) ([]billfetch.Element, error) {
	page, err := b.live(ctx)
	if err != nil {
		return nil, err
	}
	els, err := page.Elements(css)
	if err != nil {
		return nil, err
	}
	return wrapElements(els, b.timeout), nil
}

// ElementsByXPath returns the elements matching an XPath expression
// without waiting for them to appear.
func (b *Browser) ElementsByXPath(ctx context.Context, xpath string) ([]billfetch.Element, error) {
	page, err := b.live(ctx)
	if err != nil {
		return nil, err
	}
	els, err := page.ElementsX(xpath)
	if err != nil {
		return nil, err
	}
	return wrapElements(els, b.timeout), nil
}

// Credentials returns the cookies of every domain the browser visited and
// the browser's user agent.
func (b *Browser) Credentials(ctx context.Context) (*billfetch.Credentials, error) {
	page, cancel, err := b.bound(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	cookies, err := b.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	ua, err := page.Eval(`() => navigator.userAgent`)
	if err != nil {
		return nil, fmt.Errorf("reading user agent: %w", err)
	}

	creds := &billfetch.Credentials{UserAgent: ua.Value.Str()}
	for _, c := range cookies {
		creds.Cookies = append(creds.Cookies, convertCookie(c))
	}
	return creds, nil
}

func convertCookie(c *proto.NetworkCookie) *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
	if c.Expires > 0 {
		hc.Expires = c.Expires.Time()
	}
	return hc
}

// Close releases browser resources. Close is safe to call multiple times.
func (b *Browser) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (b *Browser) LauncherPID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.launcher == nil {
		return 0
	}
	return b.launcher.PID()
}

// unreachableReasons are Chrome network error codes meaning the host could
// not be reached at all.
var unreachableReasons = []string{
	"net::ERR_NAME_NOT_RESOLVED",
	"net::ERR_NAME_RESOLUTION_FAILED",
	"net::ERR_INTERNET_DISCONNECTED",
	"net::ERR_ADDRESS_UNREACHABLE",
	"net::ERR_CONNECTION_REFUSED",
	"net::ERR_CONNECTION_TIMED_OUT",
	"net::ERR_NETWORK_CHANGED",
	"net::ERR_PROXY_CONNECTION_FAILED",
}

// classify maps a navigation failure to an application error.
// Connectivity failures become EUNREACHABLE; context errors are returned
// as is.
func classify(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return billfetch.Errorf(billfetch.ETIMEOUT, "loading %s timed out", url)
	}

	reason := err.Error()
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) {
		reason = navErr.Reason
	}
	if IsUnreachable(reason) {
		return billfetch.Errorf(billfetch.EUNREACHABLE, "cannot reach %s: %s", url, reason)
	}
	return fmt.Errorf("navigate %s: %w", url, err)
}

// IsUnreachable reports whether a browser error message denotes a DNS or
// connectivity failure.
func IsUnreachable(msg string) bool {
	for _, r := range unreachableReasons {
		if strings.Contains(msg, r) {
			return true
		}
	}
	return false
}
