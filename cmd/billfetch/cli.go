package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/download"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config Config

	// Service is set for commands that drive portals.
	Service *download.Service

	// Registries opens the download registry of a provider. It returns
	// nil without error when the provider has never downloaded anything.
	Registries func(ctx context.Context, providerID string) (billfetch.Registry, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Globals

	Download  DownloadCmd  `cmd:"" help:"Download invoices from provider portals"`
	Serve     ServeCmd     `cmd:"" help:"Serve the download API over HTTP"`
	Providers ProvidersCmd `cmd:"" help:"List known providers and their status"`
	History   HistoryCmd   `cmd:"" help:"List downloaded invoices"`
}

// Globals are the flags shared by every command. Set flags override the
// configuration file.
type Globals struct {
	Config  string `short:"c" default:"billfetch.json5" env:"BILLFETCH_CONFIG" help:"Configuration file"`
	Verbose bool   `short:"v" env:"BILLFETCH_VERBOSE" help:"Enable debug logging"`

	DownloadDir string `name:"download-dir" env:"BILLFETCH_DOWNLOAD_DIR" help:"Root directory for downloaded invoices"`
	Headless    bool   `env:"BILLFETCH_HEADLESS" help:"Hide the browser window"`
	BrowserBin  string `name:"browser-bin" env:"BILLFETCH_BROWSER_BIN" help:"Browser executable"`
	ProfileDir  string `name:"browser-profile-dir" env:"BILLFETCH_BROWSER_PROFILE_DIR" help:"Persistent browser profile directory"`
	KeepOpen    bool   `name:"keep-open" env:"BILLFETCH_KEEP_OPEN" help:"Leave the browser open after a run"`
	PageTimeout int    `name:"page-timeout" env:"BILLFETCH_PAGE_TIMEOUT" help:"Page timeout in seconds (10-300)"`
	VerifyPDF   bool   `name:"verify-pdf" env:"BILLFETCH_VERIFY_PDF" help:"Parse downloaded PDFs before keeping them"`

	Freebox    AccountFlags `embed:"" prefix:"freebox-" envprefix:"BILLFETCH_FREEBOX_"`
	FreeMobile AccountFlags `embed:"" prefix:"free-mobile-" envprefix:"BILLFETCH_FREE_MOBILE_"`
}

// AccountFlags are the credential flags of one provider.
type AccountFlags struct {
	Login    string `env:"LOGIN" help:"Portal login"`
	Password string `env:"PASSWORD" help:"Portal password"`
}

// Overrides returns the configuration set by flags and environment.
func (g Globals) Overrides() Config {
	c := Config{
		DownloadDir:       g.DownloadDir,
		Headless:          g.Headless,
		BrowserBin:        g.BrowserBin,
		BrowserProfileDir: g.ProfileDir,
		KeepBrowserOpen:   g.KeepOpen,
		PageTimeout:       g.PageTimeout,
		VerifyPDF:         g.VerifyPDF,
		Providers:         map[string]Account{},
	}
	for id, f := range map[string]AccountFlags{"freebox": g.Freebox, "free_mobile": g.FreeMobile} {
		if f.Login != "" || f.Password != "" {
			c.Providers[id] = Account(f)
		}
	}
	return c
}

// DownloadCmd is the "download" subcommand.
type DownloadCmd struct {
	Providers []string `arg:"" optional:"" help:"Provider ids (default: every configured provider)"`
	Max       int      `short:"n" help:"Maximum number of new invoices per provider"`
	Year      int      `help:"Only invoices of this year"`
	Month     int      `help:"Only invoices of this month (1-12)"`
	Months    []int    `help:"Only invoices of these months (1-12)"`
	From      string   `help:"Range start (YYYY-MM-DD)"`
	To        string   `help:"Range end (YYYY-MM-DD)"`
	Force     bool     `short:"f" help:"Download invoices already in the registry"`
	Code      string   `name:"otp" help:"Second factor code"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"BILLFETCH_LISTEN" help:"Listen address"`
}

// ProvidersCmd is the "providers" subcommand.
type ProvidersCmd struct{}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Providers []string `arg:"" optional:"" help:"Provider ids (default: every implemented provider)"`
}
