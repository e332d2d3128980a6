package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/download"
	"github.com/fwojciec/billfetch/fs"
	"github.com/fwojciec/billfetch/goquery"
	"github.com/fwojciec/billfetch/pdfcpu"
	"github.com/fwojciec/billfetch/portal"
	"github.com/fwojciec/billfetch/resty"
	"github.com/fwojciec/billfetch/rod"
	bfslog "github.com/fwojciec/billfetch/slog"
	"github.com/fwojciec/billfetch/sqlite"
	"github.com/fwojciec/billfetch/text"
)

// newService builds a session for every implemented provider with
// credentials.
func (m *Main) newService(cfg Config, logger *slog.Logger) (*download.Service, error) {
	var providers []billfetch.Provider
	for _, profile := range portal.Profiles() {
		account, ok := cfg.Providers[profile.ID]
		if !ok || !account.Configured() {
			logger.Debug("provider not configured", "provider", profile.ID)
			continue
		}
		p, err := m.newSession(cfg, profile, account, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to set up %s: %w", profile.ID, err)
		}
		providers = append(providers, p)
	}

	o := &download.Orchestrator{
		Pause:  cfg.Pause(),
		Logger: logger,
	}
	if cfg.RunTimeout > 0 {
		o.Timeout = time.Duration(cfg.RunTimeout) * time.Second
	}
	if cfg.StrictDates {
		o.UndatedPolicy = download.UndatedStrict
	}
	return download.NewService(o, providers...), nil
}

func (m *Main) newSession(cfg Config, profile portal.Profile, account Account, logger *slog.Logger) (billfetch.Provider, error) {
	dir := fs.ProviderDir(cfg.DownloadDir, profile.ID)
	registry, err := m.registry(context.Background(), dir)
	if err != nil {
		return nil, err
	}
	plog := logger.With("provider", profile.ID)

	opts := rod.Options{
		Headless:    cfg.Headless,
		Bin:         cfg.BrowserBin,
		PageTimeout: time.Duration(cfg.PageTimeout) * time.Second,
	}
	// One profile directory per provider; Chrome locks a profile in use.
	if cfg.BrowserProfileDir != "" {
		opts.UserDataDir = filepath.Join(cfg.BrowserProfileDir, profile.ID)
	}
	launch := rod.Opener(opts)

	bridge := resty.NewBridge()
	bridge.Cloudflare = cfg.Cloudflare

	s := &portal.Session{
		Profile: profile,
		Account: portal.Account{Login: account.Login, Password: account.Password},
		Browsers: func(ctx context.Context) (billfetch.Browser, error) {
			b, err := launch(ctx)
			if err != nil {
				return nil, err
			}
			return rod.NewLoggingBrowser(b, plog), nil
		},
		Registry: bfslog.NewLoggingRegistry(registry, plog),
		Files:    fs.NewFileStore(dir),
		Bridge:   bridge,
		Strategies: goquery.Strategies(profile.DocumentSelectors,
			goquery.NewTextStrategy(profile.DocumentKeywords...),
			goquery.NewDataAttrStrategy(),
		),
		Dates:       text.MonthExtractor{},
		Diagnostics: fs.NewDiagnostics(dir),
		KeepOpen:    cfg.KeepBrowserOpen,
		Logger:      plog,
	}
	if cfg.VerifyPDF {
		s.Verifier = pdfcpu.NewVerifier()
	}
	return bfslog.NewLoggingProvider(s, logger), nil
}

// registry opens the registry database stored in dir.
func (m *Main) registry(ctx context.Context, dir string) (*sqlite.Registry, error) {
	db := sqlite.NewRegistryDB(dir)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("failed to open registry at %q: %w", db.Path(), err)
	}
	m.dbs = append(m.dbs, db)
	return sqlite.NewRegistry(ctx, db)
}

// openRegistry opens the registry of providerID for reading. Providers
// that never downloaded anything have none.
func (m *Main) openRegistry(ctx context.Context, providerID string) (billfetch.Registry, error) {
	dir := fs.ProviderDir(m.Config.DownloadDir, providerID)
	if _, err := os.Stat(sqlite.NewRegistryDB(dir).Path()); os.IsNotExist(err) {
		return nil, nil
	}
	return m.registry(ctx, dir)
}
