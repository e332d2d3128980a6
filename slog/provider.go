package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/billfetch"
)

var (
	_ billfetch.Provider  = (*LoggingProvider)(nil)
	_ billfetch.Diagnoser = (*LoggingProvider)(nil)
)

// LoggingProvider wraps a Provider with logging of each session step.
type LoggingProvider struct {
	next   billfetch.Provider
	logger *slog.Logger
}

// NewLoggingProvider creates a new LoggingProvider.
func NewLoggingProvider(next billfetch.Provider, logger *slog.Logger) *LoggingProvider {
	return &LoggingProvider{next: next, logger: logger.With("provider", next.ID())}
}

// ID delegates to the wrapped provider.
func (p *LoggingProvider) ID() string {
	return p.next.ID()
}

// State delegates to the wrapped provider.
func (p *LoggingProvider) State() billfetch.SessionState {
	return p.next.State()
}

// Login delegates to the wrapped provider and logs the outcome.
func (p *LoggingProvider) Login(ctx context.Context, secondFactorCode string) (ok bool, err error) {
	defer func(begin time.Time) {
		p.logger.Info("login",
			"authenticated", ok,
			"with_code", secondFactorCode != "",
			"state", p.next.State().String(),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.Login(ctx, secondFactorCode)
}

// SecondFactorRequired delegates to the wrapped provider.
func (p *LoggingProvider) SecondFactorRequired(ctx context.Context) bool {
	return p.next.SecondFactorRequired(ctx)
}

// SubmitSecondFactor delegates to the wrapped provider and logs the outcome.
func (p *LoggingProvider) SubmitSecondFactor(ctx context.Context, code string) (ok bool, err error) {
	defer func(begin time.Time) {
		p.logger.Info("second factor",
			"authenticated", ok,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.SubmitSecondFactor(ctx, code)
}

// DiscoverDocuments delegates to the wrapped provider and logs the count.
func (p *LoggingProvider) DiscoverDocuments(ctx context.Context) (docs []*billfetch.Document, err error) {
	defer func(begin time.Time) {
		p.logger.Info("discover documents",
			"count", len(docs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.DiscoverDocuments(ctx)
}

// DownloadDocument delegates to the wrapped provider and logs the outcome.
func (p *LoggingProvider) DownloadDocument(ctx context.Context, doc *billfetch.Document, force bool) (name string, err error) {
	defer func(begin time.Time) {
		p.logger.Debug("download document",
			"url", doc.URL,
			"force", force,
			"filename", name,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return p.next.DownloadDocument(ctx, doc, force)
}

// SaveDiagnostics delegates to the wrapped provider when it supports
// diagnostics.
func (p *LoggingProvider) SaveDiagnostics(ctx context.Context, name string) (err error) {
	d, ok := p.next.(billfetch.Diagnoser)
	if !ok {
		return nil
	}
	defer func() {
		p.logger.Info("save diagnostics", "name", name, "err", err)
	}()
	return d.SaveDiagnostics(ctx, name)
}

// Close delegates to the wrapped provider.
func (p *LoggingProvider) Close() (err error) {
	defer func() {
		p.logger.Debug("close", "err", err)
	}()
	return p.next.Close()
}
