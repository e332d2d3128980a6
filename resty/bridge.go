// Package resty replays an authenticated browser session over plain HTTP.
package resty

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/fwojciec/billfetch"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
)

var (
	_ billfetch.SessionBridge = (*Bridge)(nil)
	_ billfetch.HTTPSession   = (*Session)(nil)
)

// Default bridge settings.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultMaxRedirects = 10
)

// Bridge builds HTTP sessions from browser credentials.
type Bridge struct {
	Timeout      time.Duration
	MaxRedirects int

	// Cloudflare wraps the transport with browser-like TLS and headers for
	// portals fronted by Cloudflare bot protection.
	Cloudflare bool
}

// NewBridge creates a new Bridge with default settings.
func NewBridge() *Bridge {
	return &Bridge{
		Timeout:      DefaultTimeout,
		MaxRedirects: DefaultMaxRedirects,
	}
}

// Bridge returns a session that sends the browser's cookies and user agent.
func (b *Bridge) Bridge(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
	if creds == nil {
		return nil, billfetch.Errorf(billfetch.EINVALID, "credentials required")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	for _, c := range creds.Cookies {
		if u := cookieURL(c); u != nil {
			jar.SetCookies(u, []*http.Cookie{c})
		}
	}

	client := resty.New()
	client.SetCookieJar(jar)
	if b.Cloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	if creds.UserAgent != "" {
		client.SetHeader("User-Agent", creds.UserAgent)
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)
	maxRedirects := b.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))

	return &Session{client: client}, nil
}

// cookieURL returns the URL a browser cookie was set for.
func cookieURL(c *http.Cookie) *url.URL {
	host := strings.TrimPrefix(c.Domain, ".")
	if host == "" {
		return nil
	}
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}
}

// Session is an HTTP session carrying browser credentials.
type Session struct {
	client *resty.Client
}

// Get fetches url and returns the response whatever its status code.
func (s *Session) Get(ctx context.Context, rawURL string) (*billfetch.Payload, error) {
	resp, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}

	final := rawURL
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		final = raw.Request.URL.String()
	}
	return &billfetch.Payload{
		URL:         final,
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}
