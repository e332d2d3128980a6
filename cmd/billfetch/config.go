package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Configuration defaults.
const (
	DefaultConfigFile  = "billfetch.json5"
	DefaultDownloadDir = "./factures"
	DefaultMaxInvoices = 100
	DefaultPageTimeout = 30
	DefaultListen      = "127.0.0.1:8000"
)

// Page timeout bounds, in seconds.
const (
	MinPageTimeout = 10
	MaxPageTimeout = 300
)

// Config is the program configuration. It is read from a JSON5 file and
// overridden by command-line flags and environment variables.
type Config struct {
	DownloadDir string `json:"download_dir"`
	MaxInvoices int    `json:"max_invoices"`

	Headless          bool   `json:"headless"`
	BrowserBin        string `json:"browser_bin"`
	BrowserProfileDir string `json:"browser_profile_dir"`
	KeepBrowserOpen   bool   `json:"keep_browser_open"`

	// PageTimeout is in seconds.
	PageTimeout int `json:"page_timeout"`

	// PauseMillis is the delay between two downloads. Negative disables it.
	PauseMillis int `json:"pause_ms"`

	// RunTimeout is in seconds and bounds a whole run.
	RunTimeout int `json:"run_timeout"`

	// StrictDates stops undated documents from being downloaded when a
	// date filter matches nothing.
	StrictDates bool `json:"strict_dates"`

	// VerifyPDF parses every download instead of only checking its header.
	VerifyPDF  bool `json:"verify_pdf"`
	Cloudflare bool `json:"cloudflare"`

	Listen string `json:"listen"`

	Providers map[string]Account `json:"providers"`
}

// Account holds the credentials of one provider.
type Account struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Configured reports whether both credentials are present.
func (a Account) Configured() bool {
	return a.Login != "" && a.Password != ""
}

// placeholders are sample values shipped in example configuration files.
var placeholders = []string{"votre_email@example.com", "votre_mot_de_passe", "changeme"}

// WithDefaults returns a copy of c with zero fields set to their defaults.
func (c Config) WithDefaults() Config {
	if c.DownloadDir == "" {
		c.DownloadDir = DefaultDownloadDir
	}
	if c.MaxInvoices == 0 {
		c.MaxInvoices = DefaultMaxInvoices
	}
	if c.PageTimeout == 0 {
		c.PageTimeout = DefaultPageTimeout
	}
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	return c
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	if c.PageTimeout < MinPageTimeout || c.PageTimeout > MaxPageTimeout {
		errs = append(errs, fmt.Errorf("page_timeout must be between %d and %d seconds, got %d", MinPageTimeout, MaxPageTimeout, c.PageTimeout))
	}
	if c.MaxInvoices <= 0 {
		errs = append(errs, fmt.Errorf("max_invoices must be positive, got %d", c.MaxInvoices))
	}
	if c.RunTimeout < 0 {
		errs = append(errs, fmt.Errorf("run_timeout must not be negative, got %d", c.RunTimeout))
	}
	for id, a := range c.Providers {
		if (a.Login == "") != (a.Password == "") {
			errs = append(errs, fmt.Errorf("providers.%s needs both login and password", id))
		}
		for _, p := range placeholders {
			if a.Login == p || a.Password == p {
				errs = append(errs, fmt.Errorf("providers.%s still uses the sample value %q", id, p))
			}
		}
	}
	return errors.Join(errs...)
}

// Pause returns the delay between two downloads.
func (c Config) Pause() time.Duration {
	return time.Duration(c.PauseMillis) * time.Millisecond
}

// ReadConfig reads name and merges name.local over it when present, so
// <dir>/billfetch.local.json5 overrides <dir>/billfetch.json5. It returns
// os.ErrNotExist when neither file exists.
func ReadConfig(name string) (Config, error) {
	var out Config
	found := false

	base, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(base) > 0 {
		if err := json5.Unmarshal(base, &out); err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		found = true
	}

	local := localName(name)
	override, err := os.ReadFile(local)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(override) > 0 {
		var o Config
		if err := json5.Unmarshal(override, &o); err != nil {
			return out, fmt.Errorf("parse %s: %w", local, err)
		}
		if err := mergo.Merge(&out, o, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Debug("merging config with local overrides", "local", local)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func localName(name string) string {
	dir, file := filepath.Split(name)
	ext := filepath.Ext(file)
	return filepath.Join(dir, strings.TrimSuffix(file, ext)+".local"+ext)
}
