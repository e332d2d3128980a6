package rod

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/billfetch"
)

// Ensure LoggingBrowser implements billfetch.Browser.
var _ billfetch.Browser = (*LoggingBrowser)(nil)

// LoggingBrowser wraps a Browser with debug logging of page transitions.
// Element queries are not logged.
type LoggingBrowser struct {
	next   billfetch.Browser
	logger *slog.Logger
}

// NewLoggingBrowser creates a new LoggingBrowser.
func NewLoggingBrowser(next billfetch.Browser, logger *slog.Logger) *LoggingBrowser {
	return &LoggingBrowser{next: next, logger: logger}
}

// Navigate logs the URL being loaded and delegates to the wrapped browser.
func (b *LoggingBrowser) Navigate(ctx context.Context, url string) (err error) {
	defer func(begin time.Time) {
		b.logger.Debug("navigate",
			"url", url,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Navigate(ctx, url)
}

// Back logs and delegates to the wrapped browser.
func (b *LoggingBrowser) Back(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		b.logger.Debug("back",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Back(ctx)
}

func (b *LoggingBrowser) CurrentURL(ctx context.Context) (string, error) {
	return b.next.CurrentURL(ctx)
}

func (b *LoggingBrowser) HTML(ctx context.Context) (string, error) {
	return b.next.HTML(ctx)
}

func (b *LoggingBrowser) Elements(ctx context.Context, css string) ([]billfetch.Element, error) {
	return b.next.Elements(ctx, css)
}

func (b *LoggingBrowser) ElementsByXPath(ctx context.Context, xpath string) ([]billfetch.Element, error) {
	return b.next.ElementsByXPath(ctx, xpath)
}

// Credentials logs the number of cookies exported.
func (b *LoggingBrowser) Credentials(ctx context.Context) (creds *billfetch.Credentials, err error) {
	defer func() {
		n := 0
		if creds != nil {
			n = len(creds.Cookies)
		}
		b.logger.Debug("credentials", "cookies", n, "err", err)
	}()
	return b.next.Credentials(ctx)
}

// Close delegates to the wrapped browser.
func (b *LoggingBrowser) Close() error {
	return b.next.Close()
}
