package sqlite

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fwojciec/billfetch"
)

// Compile-time interface verification.
var _ billfetch.Registry = (*Registry)(nil)

type registryKey struct {
	providerID string
	documentID string
}

// Registry implements billfetch.Registry. All entries are read into memory
// when the registry is opened; every Add writes through to the database
// before updating memory.
type Registry struct {
	db  *DB
	now func() time.Time

	mu      sync.RWMutex
	entries map[registryKey]*billfetch.RegistryEntry
}

// NewRegistry loads the registry stored in db.
func NewRegistry(ctx context.Context, db *DB) (*Registry, error) {
	r := &Registry{
		db:      db,
		now:     func() time.Time { return time.Now().UTC() },
		entries: make(map[registryKey]*billfetch.RegistryEntry),
	}
	if err := r.load(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider_id, document_id, filename, invoice_month, created_at
		FROM downloads
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e billfetch.RegistryEntry
		var month, createdAt string
		if err := rows.Scan(&e.ProviderID, &e.DocumentID, &e.Filename, &month, &createdAt); err != nil {
			return err
		}
		if e.Date, err = parseMonth(month); err != nil {
			return err
		}
		if e.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return err
		}
		r.entries[registryKey{e.ProviderID, e.DocumentID}] = &e
	}
	return rows.Err()
}

// IsDownloaded reports whether the document has been recorded.
func (r *Registry) IsDownloaded(providerID, documentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[registryKey{providerID, documentID}]
	return ok
}

// Add records a downloaded document, replacing any previous entry for the
// same provider and document. CreatedAt is set when zero.
func (r *Registry) Add(ctx context.Context, entry *billfetch.RegistryEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downloads (provider_id, document_id, filename, invoice_month, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(provider_id, document_id) DO UPDATE SET
			filename = excluded.filename,
			invoice_month = excluded.invoice_month,
			created_at = excluded.created_at
	`, e.ProviderID, e.DocumentID, e.Filename, formatMonth(e.Date), e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return err
	}

	r.entries[registryKey{e.ProviderID, e.DocumentID}] = &e
	return nil
}

// Entries returns copies of all entries ordered by creation time.
func (r *Registry) Entries() []*billfetch.RegistryEntry {
	r.mu.RLock()
	out := make([]*billfetch.RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		cp := *e
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	return out
}

// Len returns the number of recorded documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
