package billfetch

import (
	"context"
	"time"
)

// RegistryEntry records a document that has been downloaded. Entries are
// created when a download succeeds and are never deleted by billfetch.
type RegistryEntry struct {
	ProviderID string     `json:"providerId"`
	DocumentID string     `json:"documentId"`
	Filename   string     `json:"filename"`
	Date       *YearMonth `json:"date,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Validate returns an error if the entry contains invalid fields.
func (e *RegistryEntry) Validate() error {
	if e.ProviderID == "" {
		return Errorf(EINVALID, "registry entry provider ID required")
	}
	if e.DocumentID == "" {
		return Errorf(EINVALID, "registry entry document ID required")
	}
	if e.Filename == "" {
		return Errorf(EINVALID, "registry entry filename required")
	}
	return nil
}

// Registry is the source of truth for "already downloaded". It is scoped
// to one provider download directory, loaded fully when opened and written
// through synchronously on every Add, so a crash never loses an entry that
// Add reported as stored.
type Registry interface {
	// IsDownloaded reports whether the document has been recorded.
	IsDownloaded(providerID, documentID string) bool

	// Add records a downloaded document. Adding an existing
	// (provider, document) pair replaces the previous entry.
	Add(ctx context.Context, entry *RegistryEntry) error

	// Entries returns all entries ordered by creation time.
	Entries() []*RegistryEntry

	// Len returns the number of recorded documents.
	Len() int
}
