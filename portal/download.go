package portal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fwojciec/billfetch"
)

// DownloadDocument implements billfetch.Provider. The file is fetched over
// plain HTTP with the browser's cookies and user agent.
func (s *Session) DownloadDocument(ctx context.Context, doc *billfetch.Document, force bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := doc.Validate(); err != nil {
		return "", err
	}
	if !force && s.Registry.IsDownloaded(s.Profile.ID, doc.ID) {
		return "", nil
	}
	if s.browser == nil {
		return "", billfetch.Errorf(billfetch.EINVALID, "%s has no active session", s.Profile.ID)
	}

	creds, err := s.browser.Credentials(ctx)
	if err != nil {
		return "", fmt.Errorf("read session credentials: %w", err)
	}
	sess, err := s.Bridge.Bridge(creds)
	if err != nil {
		return "", err
	}
	p, err := sess.Get(ctx, doc.URL)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", doc.URL, err)
	}

	if p.StatusCode != http.StatusOK {
		s.logger().Warn("document fetch rejected", "provider", s.Profile.ID,
			"url", doc.URL, "status", p.StatusCode)
		return "", nil
	}
	var v billfetch.Verifier = billfetch.SignatureVerifier{}
	if s.Verifier != nil {
		v = s.Verifier
	}
	if err := v.Verify(p); err != nil {
		s.logger().Warn("document failed verification", "provider", s.Profile.ID,
			"url", doc.URL, "error", billfetch.ErrorMessage(err))
		return "", nil
	}

	name := billfetch.FileName(s.Profile.ID, doc, s.MaxFileNameLen)
	path, err := s.Files.Write(ctx, name, p.Body)
	if err != nil {
		return "", err
	}
	entry := &billfetch.RegistryEntry{
		ProviderID: s.Profile.ID,
		DocumentID: doc.ID,
		Filename:   name,
		Date:       doc.Date,
	}
	if err := s.Registry.Add(ctx, entry); err != nil {
		return "", fmt.Errorf("record %s: %w", name, err)
	}
	s.logger().Info("document stored", "provider", s.Profile.ID, "path", path, "bytes", len(p.Body))
	return name, nil
}
