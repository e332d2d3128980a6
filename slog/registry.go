package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/billfetch"
)

// Ensure LoggingRegistry implements billfetch.Registry.
var _ billfetch.Registry = (*LoggingRegistry)(nil)

// LoggingRegistry wraps a Registry with logging of every recorded download.
type LoggingRegistry struct {
	next   billfetch.Registry
	logger *slog.Logger
}

// NewLoggingRegistry creates a new LoggingRegistry.
func NewLoggingRegistry(next billfetch.Registry, logger *slog.Logger) *LoggingRegistry {
	return &LoggingRegistry{next: next, logger: logger}
}

// IsDownloaded delegates to the wrapped registry.
func (r *LoggingRegistry) IsDownloaded(providerID, documentID string) bool {
	ok := r.next.IsDownloaded(providerID, documentID)
	if ok {
		r.logger.Debug("registry hit", "provider", providerID, "document", documentID)
	}
	return ok
}

// Add delegates to the wrapped registry and logs the operation.
func (r *LoggingRegistry) Add(ctx context.Context, entry *billfetch.RegistryEntry) (err error) {
	defer func(begin time.Time) {
		r.logger.Info("registry add",
			"provider", entry.ProviderID,
			"document", entry.DocumentID,
			"filename", entry.Filename,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Add(ctx, entry)
}

// Entries delegates to the wrapped registry.
func (r *LoggingRegistry) Entries() []*billfetch.RegistryEntry {
	return r.next.Entries()
}

// Len delegates to the wrapped registry.
func (r *LoggingRegistry) Len() int {
	return r.next.Len()
}
