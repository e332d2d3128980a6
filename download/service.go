package download

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/fwojciec/billfetch"
	"golang.org/x/sync/errgroup"
)

// Service owns the provider sessions of the process. The id to provider
// mapping is fixed at construction; runs against the same provider are
// serialised while different providers run concurrently.
type Service struct {
	Orchestrator *Orchestrator

	providers map[string]billfetch.Provider
	locks     map[string]*sync.Mutex
}

// NewService returns a Service for the given providers.
func NewService(o *Orchestrator, providers ...billfetch.Provider) *Service {
	s := &Service{
		Orchestrator: o,
		providers:    make(map[string]billfetch.Provider, len(providers)),
		locks:        make(map[string]*sync.Mutex, len(providers)),
	}
	for _, p := range providers {
		s.providers[p.ID()] = p
		s.locks[p.ID()] = &sync.Mutex{}
	}
	return s
}

// Provider returns the provider with the given id or an ENOTFOUND error.
func (s *Service) Provider(id string) (billfetch.Provider, error) {
	p, ok := s.providers[id]
	if !ok {
		return nil, billfetch.Errorf(billfetch.ENOTFOUND, "provider %q is not configured", id)
	}
	return p, nil
}

// IDs returns the configured provider ids in sorted order.
func (s *Service) IDs() []string {
	ids := make([]string, 0, len(s.providers))
	for id := range s.providers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Stream starts a run for req.ProviderID. Unknown providers yield a single
// error event. A run waits for any earlier run of the same provider. A
// consumer that stops reading must cancel ctx.
func (s *Service) Stream(ctx context.Context, req *billfetch.RunRequest) <-chan billfetch.Event {
	p, err := s.Provider(req.ProviderID)
	if err != nil {
		events := make(chan billfetch.Event, 1)
		events <- errorEvent(err)
		close(events)
		return events
	}

	mu := s.locks[p.ID()]
	out := make(chan billfetch.Event, eventBuffer)
	go func() {
		defer close(out)
		mu.Lock()
		defer mu.Unlock()
		// Once ctx is done the consumer may be gone. Events no one takes
		// are dropped so the run can finish and release the provider.
		for e := range s.Orchestrator.Stream(ctx, p, req) {
			select {
			case out <- e:
			case <-ctx.Done():
				select {
				case out <- e:
				default:
				}
			}
		}
	}()
	return out
}

// Run performs a run synchronously, passing progress events to emit.
func (s *Service) Run(ctx context.Context, req *billfetch.RunRequest, emit EmitFunc) (*billfetch.RunResult, error) {
	var result *billfetch.RunResult
	var runErr error
	for e := range s.Stream(ctx, req) {
		switch e.Kind {
		case billfetch.EventProgress:
			if emit != nil {
				emit(e)
			}
		case billfetch.EventDone:
			result = e.Result
		case billfetch.EventError:
			runErr = &billfetch.Error{Code: e.Code, Message: e.Message}
		}
	}
	return result, runErr
}

// Outcome is the result of one provider run within RunAll.
type Outcome struct {
	ProviderID string
	Result     *billfetch.RunResult
	Err        error
}

// RunAll runs every request concurrently and returns one outcome per
// request in request order. A failed run does not stop the others. emit
// may be called concurrently.
func (s *Service) RunAll(ctx context.Context, reqs []*billfetch.RunRequest, emit func(providerID string, e billfetch.Event)) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			result, err := s.Run(ctx, req, func(e billfetch.Event) {
				if emit != nil {
					emit(req.ProviderID, e)
				}
			})
			outcomes[i] = Outcome{ProviderID: req.ProviderID, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Close closes every provider session.
func (s *Service) Close() error {
	var errs []error
	for _, id := range s.IDs() {
		if err := s.providers[id].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
