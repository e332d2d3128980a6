package mock

import (
	"context"

	"github.com/fwojciec/billfetch"
)

var _ billfetch.Registry = (*Registry)(nil)

// Registry is a mock implementation of billfetch.Registry.
type Registry struct {
	IsDownloadedFn func(providerID, documentID string) bool
	AddFn          func(ctx context.Context, entry *billfetch.RegistryEntry) error
	EntriesFn      func() []*billfetch.RegistryEntry
	LenFn          func() int
}

func (r *Registry) IsDownloaded(providerID, documentID string) bool {
	return r.IsDownloadedFn(providerID, documentID)
}

func (r *Registry) Add(ctx context.Context, entry *billfetch.RegistryEntry) error {
	return r.AddFn(ctx, entry)
}

func (r *Registry) Entries() []*billfetch.RegistryEntry {
	return r.EntriesFn()
}

func (r *Registry) Len() int {
	return r.LenFn()
}
