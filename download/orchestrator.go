// Package download runs provider sessions end to end: login, discovery,
// date filtering and capped, deduplicated downloads reported as an event
// stream.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/billfetch"
	"golang.org/x/time/rate"
)

// DefaultPause is the delay between two document downloads.
const DefaultPause = time.Second

// UndatedPolicy decides what happens when a date filter selects nothing
// because no discovered document has a resolvable date.
type UndatedPolicy int

const (
	// UndatedDownloadAll ignores the filter and downloads every document.
	UndatedDownloadAll UndatedPolicy = iota

	// UndatedStrict applies the filter as is and downloads nothing.
	UndatedStrict
)

// Orchestrator executes download runs against a provider.
type Orchestrator struct {
	// Pause is inserted between downloads. Zero uses DefaultPause and a
	// negative value disables pausing.
	Pause time.Duration

	// Timeout bounds a streamed run. Zero uses DefaultTimeout.
	Timeout time.Duration

	UndatedPolicy UndatedPolicy
	Logger        *slog.Logger
}

// EmitFunc receives run events in order.
type EmitFunc func(billfetch.Event)

// Run performs one run and returns its result. Progress events are passed
// to emit before and after each download; the terminal event is left to
// the caller. Failures to log in are reported as ECREDENTIALS,
// ESECONDFACTOR or ESECONDFACTORREJECTED errors.
func (o *Orchestrator) Run(ctx context.Context, p billfetch.Provider, req *billfetch.RunRequest, emit EmitFunc) (*billfetch.RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if emit == nil {
		emit = func(billfetch.Event) {}
	}
	logger := o.logger().With("provider", p.ID())

	ok, err := p.Login(ctx, req.SecondFactorCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, loginError(ctx, p, req.SecondFactorCode)
	}

	docs, err := p.DiscoverDocuments(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("documents discovered", "count", len(docs))
	if len(docs) == 0 {
		if d, ok := p.(billfetch.Diagnoser); ok {
			if err := d.SaveDiagnostics(ctx, "no_documents"); err != nil {
				logger.Warn("saving diagnostics failed", "error", err)
			}
		}
		return &billfetch.RunResult{Files: []string{}}, nil
	}

	selected := o.Select(docs, req.Filter())
	logger.Info("documents selected", "count", len(selected))

	return o.download(ctx, p, selected, req, emit, logger)
}

// Select applies the filter to the discovered documents, falling back to
// the unfiltered set when the filter matches nothing because no document
// is dated and the policy allows it.
func (o *Orchestrator) Select(docs []*billfetch.Document, f billfetch.DateFilter) []*billfetch.Document {
	selected := f.Apply(docs)
	if len(selected) == 0 && f.Active() && !billfetch.HasDate(docs) && o.UndatedPolicy == UndatedDownloadAll {
		o.logger().Info("no document carries a date, ignoring date filter", "count", len(docs))
		return docs
	}
	return selected
}

func (o *Orchestrator) download(ctx context.Context, p billfetch.Provider, docs []*billfetch.Document, req *billfetch.RunRequest, emit EmitFunc, logger *slog.Logger) (*billfetch.RunResult, error) {
	total := min(len(docs), req.Max)
	result := &billfetch.RunResult{Files: []string{}}
	limiter := o.limiter()

	for _, doc := range docs {
		if result.Count >= total {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		emit(billfetch.ProgressEvent(result.Count+1, total,
			fmt.Sprintf("Downloading document %d/%d", result.Count+1, total)))

		name, err := p.DownloadDocument(ctx, doc, req.ForceRedownload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("document download failed", "url", doc.URL, "error", err)
			continue
		}
		if name == "" {
			logger.Debug("document skipped", "id", doc.ID)
			continue
		}

		result.Count++
		result.Files = append(result.Files, name)
		emit(billfetch.ProgressEvent(result.Count, total,
			fmt.Sprintf("Downloaded %s (%d/%d)", name, result.Count, total)))
	}
	return result, nil
}

// limiter paces downloads: the first token is available immediately and
// each following one after Pause.
func (o *Orchestrator) limiter() *rate.Limiter {
	pause := o.Pause
	if pause == 0 {
		pause = DefaultPause
	}
	if pause < 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(pause), 1)
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func loginError(ctx context.Context, p billfetch.Provider, code string) error {
	if p.SecondFactorRequired(ctx) {
		if code != "" {
			return billfetch.Errorf(billfetch.ESECONDFACTORREJECTED, "the second factor code was rejected")
		}
		return billfetch.Errorf(billfetch.ESECONDFACTOR, "a second factor code is required")
	}
	return billfetch.Errorf(billfetch.ECREDENTIALS, "login failed, check the credentials")
}
