package billfetch

import (
	"bytes"
	"context"
	"net/http"
	"strings"
)

// Browser is an interactive browser session with a single active page.
// A Browser is not safe for concurrent use.
type Browser interface {
	// Navigate loads the URL and waits for the page to load.
	Navigate(ctx context.Context, url string) error

	// Back goes back one entry in the page history.
	Back(ctx context.Context) error

	// CurrentURL returns the URL of the active page.
	CurrentURL(ctx context.Context) (string, error)

	// HTML returns the rendered HTML of the active page.
	HTML(ctx context.Context) (string, error)

	// Elements returns the elements matching a CSS selector. No match is
	// not an error.
	Elements(ctx context.Context, css string) ([]Element, error)

	// ElementsByXPath returns the elements matching an XPath expression.
	ElementsByXPath(ctx context.Context, xpath string) ([]Element, error)

	// Credentials returns what is needed to replay the session over plain
	// HTTP.
	Credentials(ctx context.Context) (*Credentials, error)

	// Close releases browser resources.
	Close() error
}

// Element is an element of the active page.
type Element interface {
	// Attribute returns the attribute value, or "" if it is absent.
	Attribute(name string) (string, error)
	Text() (string, error)
	Visible() (bool, error)
	Click() error

	// Input replaces the element's value with text.
	Input(text string) error
}

// BrowserOpener opens a new browser session.
type BrowserOpener func(ctx context.Context) (Browser, error)

// Credentials carry an authenticated browser session.
type Credentials struct {
	Cookies   []*http.Cookie
	UserAgent string
}

// Payload is the response to a plain HTTP request.
type Payload struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// HTTPSession issues requests on behalf of an authenticated session.
type HTTPSession interface {
	Get(ctx context.Context, url string) (*Payload, error)
}

// SessionBridge converts browser credentials into an HTTPSession so file
// bytes can be fetched without rendering.
type SessionBridge interface {
	Bridge(creds *Credentials) (HTTPSession, error)
}

// Verifier checks that a payload is a well-formed document. It returns an
// EVERIFY error when it is not.
type Verifier interface {
	Verify(p *Payload) error
}

// pdfSignature starts every PDF file.
var pdfSignature = []byte("%PDF")

// SignatureVerifier accepts payloads served as PDF or starting with the
// PDF signature. Expired links commonly redirect to an HTML login page,
// which this rejects.
type SignatureVerifier struct{}

// Verify implements Verifier.
func (SignatureVerifier) Verify(p *Payload) error {
	if strings.Contains(strings.ToLower(p.ContentType), "pdf") {
		return nil
	}
	if bytes.HasPrefix(p.Body, pdfSignature) {
		return nil
	}
	return Errorf(EVERIFY, "payload from %s is not a PDF (content type %q, %d bytes)",
		p.URL, p.ContentType, len(p.Body))
}
