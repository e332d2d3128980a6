package mock

import (
	"context"

	"github.com/fwojciec/billfetch"
)

var _ billfetch.Provider = (*Provider)(nil)

// Provider is a mock implementation of billfetch.Provider.
type Provider struct {
	IDFn                   func() string
	StateFn                func() billfetch.SessionState
	LoginFn                func(ctx context.Context, secondFactorCode string) (bool, error)
	SecondFactorRequiredFn func(ctx context.Context) bool
	SubmitSecondFactorFn   func(ctx context.Context, code string) (bool, error)
	DiscoverDocumentsFn    func(ctx context.Context) ([]*billfetch.Document, error)
	DownloadDocumentFn     func(ctx context.Context, doc *billfetch.Document, force bool) (string, error)
	CloseFn                func() error
}

func (p *Provider) ID() string {
	return p.IDFn()
}

func (p *Provider) State() billfetch.SessionState {
	if p.StateFn != nil {
		return p.StateFn()
	}
	return billfetch.StateDisconnected
}

func (p *Provider) Login(ctx context.Context, secondFactorCode string) (bool, error) {
	return p.LoginFn(ctx, secondFactorCode)
}

func (p *Provider) SecondFactorRequired(ctx context.Context) bool {
	if p.SecondFactorRequiredFn != nil {
		return p.SecondFactorRequiredFn(ctx)
	}
	return false
}

func (p *Provider) SubmitSecondFactor(ctx context.Context, code string) (bool, error) {
	return p.SubmitSecondFactorFn(ctx, code)
}

func (p *Provider) DiscoverDocuments(ctx context.Context) ([]*billfetch.Document, error) {
	return p.DiscoverDocumentsFn(ctx)
}

func (p *Provider) DownloadDocument(ctx context.Context, doc *billfetch.Document, force bool) (string, error) {
	return p.DownloadDocumentFn(ctx, doc, force)
}

func (p *Provider) Close() error {
	if p.CloseFn != nil {
		return p.CloseFn()
	}
	return nil
}

var _ billfetch.Diagnoser = (*DiagnosingProvider)(nil)

// DiagnosingProvider is a Provider that also implements billfetch.Diagnoser.
type DiagnosingProvider struct {
	Provider
	SaveDiagnosticsFn func(ctx context.Context, name string) error
}

func (p *DiagnosingProvider) SaveDiagnostics(ctx context.Context, name string) error {
	return p.SaveDiagnosticsFn(ctx, name)
}
