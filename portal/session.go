// Package portal drives customer portals through a browser session: login
// with optional second factor, invoice discovery and authenticated
// downloads.
package portal

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/billfetch"
)

var (
	_ billfetch.Provider  = (*Session)(nil)
	_ billfetch.Diagnoser = (*Session)(nil)
)

// Account holds the portal credentials.
type Account struct {
	Login    string
	Password string
}

// DiagnosticsWriter persists page snapshots.
type DiagnosticsWriter interface {
	Save(ctx context.Context, name, pageURL, html string) (string, error)
}

// DefaultSettle is how long the session waits for a page to react after a
// click or a form submission.
const DefaultSettle = 3 * time.Second

// Session implements billfetch.Provider for one Profile. The browser is
// opened on first use and shared by every operation; operations are
// serialised.
type Session struct {
	Profile  Profile
	Account  Account
	Browsers billfetch.BrowserOpener

	Registry   billfetch.Registry
	Files      billfetch.FileStore
	Bridge     billfetch.SessionBridge
	Strategies []billfetch.LinkStrategy

	// Verifier defaults to billfetch.SignatureVerifier.
	Verifier billfetch.Verifier

	// Dates resolves document months. Documents stay undated when nil.
	Dates billfetch.DateExtractor

	Diagnostics DiagnosticsWriter

	// Denylist defaults to billfetch.DefaultDenylist.
	Denylist *billfetch.Denylist

	// KeepOpen makes Close a no-op so the browser survives between runs.
	KeepOpen bool

	// Settle defaults to DefaultSettle. Negative disables waiting.
	Settle time.Duration

	MaxFileNameLen int
	Logger         *slog.Logger

	mu      sync.Mutex
	state   billfetch.SessionState
	browser billfetch.Browser
}

// ID implements billfetch.Provider.
func (s *Session) ID() string {
	return s.Profile.ID
}

// State implements billfetch.Provider.
func (s *Session) State() billfetch.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login implements billfetch.Provider.
func (s *Session) Login(ctx context.Context, secondFactorCode string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == billfetch.StateClosed {
		return false, billfetch.Errorf(billfetch.EINVALID, "%s session is closed", s.Profile.ID)
	}
	b, err := s.open(ctx)
	if err != nil {
		return false, err
	}

	if s.state == billfetch.StateAwaitingSecondFactor && s.secondFactorShown(ctx) {
		if secondFactorCode == "" {
			return false, nil
		}
		return s.submitSecondFactor(ctx, secondFactorCode)
	}
	if s.loggedIn(ctx) {
		s.state = billfetch.StateAuthenticated
		return true, nil
	}

	s.state = billfetch.StateAuthenticating
	form, err := s.findLoginForm(ctx, b)
	if err != nil {
		s.state = billfetch.StateDisconnected
		return false, err
	}
	if form.authenticated {
		s.state = billfetch.StateAuthenticated
		return true, nil
	}
	if form.login == nil {
		s.logger().Warn("login form not found", "provider", s.Profile.ID)
		s.state = billfetch.StateDisconnected
		return false, nil
	}

	if err := form.login.Input(s.Account.Login); err != nil {
		s.state = billfetch.StateDisconnected
		return false, err
	}
	if err := form.password.Input(s.Account.Password); err != nil {
		s.state = billfetch.StateDisconnected
		return false, err
	}
	submit := s.firstVisible(ctx, s.Profile.SubmitSelectors)
	if submit == nil {
		submit = s.buttonWithText(ctx, s.Profile.SubmitText)
	}
	if submit == nil {
		s.logger().Warn("login submit button not found", "provider", s.Profile.ID)
		s.state = billfetch.StateDisconnected
		return false, nil
	}
	if err := submit.Click(); err != nil {
		s.state = billfetch.StateDisconnected
		return false, err
	}
	if err := s.settle(ctx); err != nil {
		return false, err
	}

	if s.secondFactorShown(ctx) {
		s.state = billfetch.StateAwaitingSecondFactor
		if secondFactorCode == "" {
			return false, nil
		}
		return s.submitSecondFactor(ctx, secondFactorCode)
	}
	if s.loggedIn(ctx) {
		s.state = billfetch.StateAuthenticated
		return true, nil
	}
	s.state = billfetch.StateDisconnected
	return false, nil
}

// SecondFactorRequired implements billfetch.Provider.
func (s *Session) SecondFactorRequired(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return false
	}
	return s.secondFactorShown(ctx)
}

// SubmitSecondFactor implements billfetch.Provider.
func (s *Session) SubmitSecondFactor(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil || s.state == billfetch.StateClosed {
		return false, billfetch.Errorf(billfetch.EINVALID, "%s has no active session", s.Profile.ID)
	}
	return s.submitSecondFactor(ctx, code)
}

func (s *Session) submitSecondFactor(ctx context.Context, code string) (bool, error) {
	if strings.TrimSpace(code) == "" {
		return false, billfetch.Errorf(billfetch.EINVALID, "second factor code required")
	}

	field := s.firstVisible(ctx, s.Profile.SecondFactorSelectors)
	if field == nil {
		if s.loggedIn(ctx) {
			s.state = billfetch.StateAuthenticated
			return true, nil
		}
		return false, nil
	}
	if err := field.Input(code); err != nil {
		return false, err
	}
	submit := s.firstVisible(ctx, s.Profile.SecondFactorSubmitSelectors)
	if submit == nil {
		submit = s.firstVisible(ctx, s.Profile.SubmitSelectors)
	}
	if submit == nil {
		return false, nil
	}
	if err := submit.Click(); err != nil {
		return false, err
	}
	if err := s.settle(ctx); err != nil {
		return false, err
	}

	if !s.secondFactorShown(ctx) && s.loggedIn(ctx) {
		s.state = billfetch.StateAuthenticated
		return true, nil
	}
	s.state = billfetch.StateAwaitingSecondFactor
	return false, nil
}

// Close implements billfetch.Provider. A session configured with KeepOpen
// is left untouched.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.KeepOpen || s.state == billfetch.StateClosed {
		return nil
	}
	s.state = billfetch.StateClosed
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	return err
}

// SaveDiagnostics writes the current page to the diagnostics directory.
func (s *Session) SaveDiagnostics(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil || s.Diagnostics == nil {
		return nil
	}
	pageURL, _ := s.browser.CurrentURL(ctx)
	html, err := s.browser.HTML(ctx)
	if err != nil {
		return err
	}
	path, err := s.Diagnostics.Save(ctx, s.Profile.ID+"_"+name, pageURL, html)
	if err != nil {
		return err
	}
	s.logger().Info("saved page snapshot", "provider", s.Profile.ID, "path", path)
	return nil
}

func (s *Session) open(ctx context.Context) (billfetch.Browser, error) {
	if s.browser != nil {
		return s.browser, nil
	}
	if s.Browsers == nil {
		return nil, billfetch.Errorf(billfetch.EINTERNAL, "%s has no browser configured", s.Profile.ID)
	}
	b, err := s.Browsers(ctx)
	if err != nil {
		return nil, err
	}
	s.browser = b
	return b, nil
}

type loginForm struct {
	login    billfetch.Element
	password billfetch.Element

	// authenticated is set when a login URL redirected to an already
	// authenticated page.
	authenticated bool
}

// findLoginForm visits the login URLs until one shows both fields. An
// unreachable portal aborts the search.
func (s *Session) findLoginForm(ctx context.Context, b billfetch.Browser) (loginForm, error) {
	for _, u := range s.Profile.LoginURLs {
		if err := b.Navigate(ctx, u); err != nil {
			if ctx.Err() != nil || billfetch.ErrorCode(err) == billfetch.EUNREACHABLE {
				return loginForm{}, err
			}
			s.logger().Warn("login page failed to load", "provider", s.Profile.ID, "url", u, "error", err)
			continue
		}
		if err := s.settle(ctx); err != nil {
			return loginForm{}, err
		}

		login := s.firstVisible(ctx, s.Profile.LoginSelectors)
		if login == nil && s.Profile.LoginXPath != "" {
			login = s.firstVisibleXPath(ctx, s.Profile.LoginXPath)
		}
		password := s.firstVisible(ctx, s.Profile.PasswordSelectors)
		if login != nil && password != nil {
			return loginForm{login: login, password: password}, nil
		}
		if s.loggedIn(ctx) {
			return loginForm{authenticated: true}, nil
		}
	}
	return loginForm{}, nil
}

// loggedIn reports whether the active page belongs to an authenticated
// session.
func (s *Session) loggedIn(ctx context.Context) bool {
	if s.browser == nil {
		return false
	}
	pageURL, err := s.browser.CurrentURL(ctx)
	if err != nil || !s.Profile.OnHost(pageURL) {
		return false
	}
	html, err := s.browser.HTML(ctx)
	if err != nil {
		return false
	}
	body := strings.ToLower(html)
	if containsAny(body, s.Profile.LoggedOutMarkers) {
		return false
	}
	if s.secondFactorShown(ctx) {
		return false
	}
	if containsAny(body, s.Profile.LoginPromptMarkers) && s.firstVisible(ctx, []string{"input[type='password']"}) != nil {
		return false
	}
	return true
}

func (s *Session) secondFactorShown(ctx context.Context) bool {
	return s.firstVisible(ctx, s.Profile.SecondFactorSelectors) != nil
}

// firstVisible returns the first visible element matched by the
// selectors, tried in order, or nil.
func (s *Session) firstVisible(ctx context.Context, selectors []string) billfetch.Element {
	for _, sel := range selectors {
		els, err := s.browser.Elements(ctx, sel)
		if err != nil {
			continue
		}
		if el := visible(els); el != nil {
			return el
		}
	}
	return nil
}

func (s *Session) firstVisibleXPath(ctx context.Context, xpaths ...string) billfetch.Element {
	for _, xp := range xpaths {
		els, err := s.browser.ElementsByXPath(ctx, xp)
		if err != nil {
			continue
		}
		if el := visible(els); el != nil {
			return el
		}
	}
	return nil
}

func (s *Session) buttonWithText(ctx context.Context, text string) billfetch.Element {
	if text == "" {
		return nil
	}
	els, err := s.browser.Elements(ctx, "button")
	if err != nil {
		return nil
	}
	for _, el := range els {
		t, err := el.Text()
		if err != nil || !strings.Contains(strings.ToLower(t), text) {
			continue
		}
		if ok, err := el.Visible(); err == nil && ok {
			return el
		}
	}
	return nil
}

func visible(els []billfetch.Element) billfetch.Element {
	for _, el := range els {
		if ok, err := el.Visible(); err == nil && ok {
			return el
		}
	}
	return nil
}

func (s *Session) settle(ctx context.Context) error {
	d := s.Settle
	if d == 0 {
		d = DefaultSettle
	}
	if d < 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
