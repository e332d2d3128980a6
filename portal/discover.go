package portal

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwojciec/billfetch"
)

// DiscoverDocuments implements billfetch.Provider.
func (s *Session) DiscoverDocuments(ctx context.Context) ([]*billfetch.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.browser == nil || (s.state != billfetch.StateAuthenticated && s.state != billfetch.StateBrowsing) {
		return nil, billfetch.Errorf(billfetch.ENAVIGATION, "%s session is not authenticated", s.Profile.ID)
	}
	s.state = billfetch.StateBrowsing
	defer func() {
		if s.state == billfetch.StateBrowsing {
			s.state = billfetch.StateAuthenticated
		}
	}()

	if s.Profile.SubAccounts != nil {
		docs, err := s.walkSubAccounts(ctx)
		if err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			return docs, nil
		}
	}

	docs, err := s.discoverInvoiceArea(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 && !s.loggedIn(ctx) {
		s.state = billfetch.StateDisconnected
		return nil, billfetch.Errorf(billfetch.ENAVIGATION, "%s session expired while looking for invoices", s.Profile.ID)
	}
	return docs, nil
}

// discoverInvoiceArea looks at the current page first, then at every
// configured invoice page.
func (s *Session) discoverInvoiceArea(ctx context.Context) ([]*billfetch.Document, error) {
	if s.loggedIn(ctx) {
		if docs := s.discoverPage(ctx); len(docs) > 0 {
			return docs, nil
		}
	}

	for _, u := range s.Profile.InvoiceURLs() {
		if err := s.browser.Navigate(ctx, u); err != nil {
			if ctx.Err() != nil || billfetch.ErrorCode(err) == billfetch.EUNREACHABLE {
				return nil, err
			}
			s.logger().Debug("invoice page failed to load", "provider", s.Profile.ID, "url", u, "error", err)
			continue
		}
		if err := s.settle(ctx); err != nil {
			return nil, err
		}
		if !s.loggedIn(ctx) {
			continue
		}
		if docs := s.discoverPage(ctx); len(docs) > 0 {
			return docs, nil
		}
		if opened, err := s.openInvoiceTab(ctx); err != nil {
			return nil, err
		} else if opened {
			if docs := s.discoverPage(ctx); len(docs) > 0 {
				return docs, nil
			}
		}
		if clicked, err := s.clickFallback(ctx); err != nil {
			return nil, err
		} else if clicked {
			if docs := s.discoverPage(ctx); len(docs) > 0 {
				return docs, nil
			}
		}
	}
	return nil, nil
}

// discoverPage resolves the document links of the active page.
func (s *Session) discoverPage(ctx context.Context) []*billfetch.Document {
	pageURL, err := s.browser.CurrentURL(ctx)
	if err != nil {
		return nil
	}
	html, err := s.browser.HTML(ctx)
	if err != nil {
		return nil
	}

	deny := billfetch.DefaultDenylist
	if s.Denylist != nil {
		deny = *s.Denylist
	}
	res := billfetch.ResolveLinks(s.Strategies, html, pageURL, deny)
	for name, err := range res.Failed {
		s.logger().Warn("link strategy failed", "provider", s.Profile.ID, "url", pageURL, "strategy", name, "error", err)
	}
	if !res.Found() {
		return nil
	}
	s.logger().Debug("documents found", "provider", s.Profile.ID, "url", pageURL,
		"strategy", res.Strategy, "count", len(res.Links))

	docs := make([]*billfetch.Document, 0, len(res.Links))
	for _, l := range res.Links {
		doc := &billfetch.Document{
			ID:         DocumentID(s.Profile.ID, l.URL),
			ProviderID: s.Profile.ID,
			URL:        l.URL,
			Title:      l.Label(),
			Source:     pageURL,
			Path:       l.Path,
		}
		if s.Dates != nil {
			doc.Date = s.Dates.Extract(doc.Title, doc.URL)
		}
		docs = append(docs, doc)
	}
	return docs
}

// openInvoiceTab clicks the invoice tab of the active page, revealing it
// first if needed. It reports whether a tab was clicked.
func (s *Session) openInvoiceTab(ctx context.Context) (bool, error) {
	tab := s.Profile.InvoiceTab
	if !tab.Enabled() {
		return false, nil
	}
	if opener := s.firstVisibleXPath(ctx, tab.OpenerXPaths...); opener != nil {
		if err := opener.Click(); err == nil {
			if err := s.settle(ctx); err != nil {
				return false, err
			}
		}
	}

	for _, xp := range tab.XPaths {
		els, err := s.browser.ElementsByXPath(ctx, xp)
		if err != nil {
			continue
		}
		for _, el := range els {
			text, err := el.Text()
			if err != nil {
				continue
			}
			text = strings.ToLower(text)
			if !strings.Contains(text, tab.Text) || containsAny(text, tab.Exclude) {
				continue
			}
			if ok, err := el.Visible(); err != nil || !ok {
				continue
			}
			if err := el.Click(); err != nil {
				continue
			}
			return true, s.settle(ctx)
		}
	}
	return false, nil
}

// clickFallback clicks the first visible link mentioning one of the
// fallback terms, for portals that list invoices one click away.
func (s *Session) clickFallback(ctx context.Context) (bool, error) {
	if len(s.Profile.ClickFallbackTerms) == 0 {
		return false, nil
	}
	els, err := s.browser.Elements(ctx, "a")
	if err != nil {
		return false, nil
	}
	for _, el := range els {
		text, _ := el.Text()
		href, _ := el.Attribute("href")
		if !containsAny(strings.ToLower(text+" "+href), s.Profile.ClickFallbackTerms) {
			continue
		}
		if ok, err := el.Visible(); err != nil || !ok {
			continue
		}
		if err := el.Click(); err != nil {
			continue
		}
		return true, s.settle(ctx)
	}
	return false, nil
}

// walkSubAccounts discovers the documents of every line of a multi-line
// account. A line that fails is skipped. The starting page is restored.
func (s *Session) walkSubAccounts(ctx context.Context) ([]*billfetch.Document, error) {
	w := s.Profile.SubAccounts
	origin, _ := s.browser.CurrentURL(ctx)
	defer s.restore(ctx, origin)

	accountURL := strings.TrimRight(s.Profile.BaseURL, "/") + w.AccountPath
	if !strings.Contains(origin, w.AccountPath) {
		if err := s.browser.Navigate(ctx, accountURL); err != nil {
			if ctx.Err() != nil || billfetch.ErrorCode(err) == billfetch.EUNREACHABLE {
				return nil, err
			}
			s.logger().Warn("account page failed to load", "provider", s.Profile.ID, "error", err)
			return nil, nil
		}
		if err := s.settle(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.expandLines(ctx); err != nil {
		return nil, err
	}

	n := len(s.lineEntries(ctx))
	if n == 0 {
		return nil, nil
	}
	s.logger().Info("walking lines", "provider", s.Profile.ID, "count", n)

	seen := make(map[string]bool)
	var docs []*billfetch.Document
	for i := range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := s.discoverLine(ctx, i)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger().Warn("line skipped", "provider", s.Profile.ID, "line", i, "error", err)
		}
		for _, d := range found {
			if seen[d.URL] {
				continue
			}
			seen[d.URL] = true
			docs = append(docs, d)
		}
	}

	return docs, nil
}

// restore navigates back to origin when the page moved away from it.
func (s *Session) restore(ctx context.Context, origin string) {
	if origin == "" || !s.Profile.OnHost(origin) || ctx.Err() != nil {
		return
	}
	if current, _ := s.browser.CurrentURL(ctx); current == origin {
		return
	}
	if err := s.browser.Navigate(ctx, origin); err != nil {
		s.logger().Warn("restoring page failed", "provider", s.Profile.ID, "url", origin, "error", err)
	}
}

// discoverLine opens the i-th line, lists its invoices and navigates back.
// Entries are enumerated again on every call since navigation invalidates
// previously returned elements.
func (s *Session) discoverLine(ctx context.Context, i int) ([]*billfetch.Document, error) {
	entries := s.lineEntries(ctx)
	if i >= len(entries) {
		if err := s.expandLines(ctx); err != nil {
			return nil, err
		}
		entries = s.lineEntries(ctx)
	}
	if i >= len(entries) {
		return nil, fmt.Errorf("line %d no longer listed", i)
	}
	if err := entries[i].Click(); err != nil {
		return nil, fmt.Errorf("open line %d: %w", i, err)
	}
	if err := s.settle(ctx); err != nil {
		return nil, err
	}
	if _, err := s.openInvoiceTab(ctx); err != nil {
		return nil, err
	}
	docs := s.discoverPage(ctx)

	if err := s.browser.Back(ctx); err != nil {
		return docs, fmt.Errorf("back from line %d: %w", i, err)
	}
	return docs, s.settle(ctx)
}

func (s *Session) expandLines(ctx context.Context) error {
	el := s.firstVisibleXPath(ctx, s.Profile.SubAccounts.ExpandXPaths...)
	if el == nil {
		return nil
	}
	if err := el.Click(); err != nil {
		return nil
	}
	return s.settle(ctx)
}

// lineEntries returns the visible line entries of the account page.
func (s *Session) lineEntries(ctx context.Context) []billfetch.Element {
	w := s.Profile.SubAccounts
	if entries := s.matchEntries(ctx, "a", true); len(entries) > 0 {
		return entries
	}
	if w.FallbackSelector == "" {
		return nil
	}
	return s.matchEntries(ctx, w.FallbackSelector, false)
}

func (s *Session) matchEntries(ctx context.Context, css string, checkHref bool) []billfetch.Element {
	w := s.Profile.SubAccounts
	els, err := s.browser.Elements(ctx, css)
	if err != nil {
		return nil
	}
	var entries []billfetch.Element
	for _, el := range els {
		text, err := el.Text()
		if err != nil || !w.EntryPattern.MatchString(text) {
			continue
		}
		if w.MaxEntryText > 0 && len(strings.TrimSpace(text)) > w.MaxEntryText {
			continue
		}
		if checkHref {
			href, _ := el.Attribute("href")
			if strings.HasPrefix(href, "http") && !containsAny(strings.ToLower(href), w.EntryHrefTerms) {
				continue
			}
		}
		if ok, err := el.Visible(); err != nil || !ok {
			continue
		}
		entries = append(entries, el)
	}
	return entries
}
