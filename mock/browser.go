package mock

import (
	"context"

	"github.com/fwojciec/billfetch"
)

var _ billfetch.Browser = (*Browser)(nil)

// Browser is a mock implementation of billfetch.Browser.
type Browser struct {
	NavigateFn        func(ctx context.Context, url string) error
	BackFn            func(ctx context.Context) error
	CurrentURLFn      func(ctx context.Context) (string, error)
	HTMLFn            func(ctx context.Context) (string, error)
	ElementsFn        func(ctx context.Context, css string) ([]billfetch.Element, error)
	ElementsByXPathFn func(ctx context.Context, xpath string) ([]billfetch.Element, error)
	CredentialsFn     func(ctx context.Context) (*billfetch.Credentials, error)
	CloseFn           func() error
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	return b.NavigateFn(ctx, url)
}

func (b *Browser) Back(ctx context.Context) error {
	return b.BackFn(ctx)
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	return b.CurrentURLFn(ctx)
}

func (b *Browser) HTML(ctx context.Context) (string, error) {
	return b.HTMLFn(ctx)
}

func (b *Browser) Elements(ctx context.Context, css string) ([]billfetch.Element, error) {
	return b.ElementsFn(ctx, css)
}

func (b *Browser) ElementsByXPath(ctx context.Context, xpath string) ([]billfetch.Element, error) {
	return b.ElementsByXPathFn(ctx, xpath)
}

func (b *Browser) Credentials(ctx context.Context) (*billfetch.Credentials, error) {
	return b.CredentialsFn(ctx)
}

func (b *Browser) Close() error {
	if b.CloseFn != nil {
		return b.CloseFn()
	}
	return nil
}

var _ billfetch.Element = (*Element)(nil)

// Element is a mock implementation of billfetch.Element.
type Element struct {
	AttributeFn func(name string) (string, error)
	TextFn      func() (string, error)
	VisibleFn   func() (bool, error)
	ClickFn     func() error
	InputFn     func(text string) error
}

func (e *Element) Attribute(name string) (string, error) {
	return e.AttributeFn(name)
}

func (e *Element) Text() (string, error) {
	return e.TextFn()
}

func (e *Element) Visible() (bool, error) {
	return e.VisibleFn()
}

func (e *Element) Click() error {
	return e.ClickFn()
}

func (e *Element) Input(text string) error {
	return e.InputFn(text)
}

var _ billfetch.SessionBridge = (*SessionBridge)(nil)

// SessionBridge is a mock implementation of billfetch.SessionBridge.
type SessionBridge struct {
	BridgeFn func(creds *billfetch.Credentials) (billfetch.HTTPSession, error)
}

func (b *SessionBridge) Bridge(creds *billfetch.Credentials) (billfetch.HTTPSession, error) {
	return b.BridgeFn(creds)
}

var _ billfetch.HTTPSession = (*HTTPSession)(nil)

// HTTPSession is a mock implementation of billfetch.HTTPSession.
type HTTPSession struct {
	GetFn func(ctx context.Context, url string) (*billfetch.Payload, error)
}

func (s *HTTPSession) Get(ctx context.Context, url string) (*billfetch.Payload, error) {
	return s.GetFn(ctx, url)
}

var _ billfetch.Verifier = (*Verifier)(nil)

// Verifier is a mock implementation of billfetch.Verifier.
type Verifier struct {
	VerifyFn func(p *billfetch.Payload) error
}

func (v *Verifier) Verify(p *billfetch.Payload) error {
	return v.VerifyFn(p)
}
