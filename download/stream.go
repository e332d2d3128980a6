package download

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/google/uuid"
)

// DefaultTimeout bounds a whole streamed run.
const DefaultTimeout = 10 * time.Minute

// eventBuffer is the capacity of a run's event channel.
const eventBuffer = 16

// Stream starts a run in its own goroutine and returns its events. The
// channel yields any number of progress events followed by exactly one
// terminal event, then is closed. The consumer must drain it until it is
// closed or cancel ctx.
func (o *Orchestrator) Stream(ctx context.Context, p billfetch.Provider, req *billfetch.RunRequest) <-chan billfetch.Event {
	events := make(chan billfetch.Event, eventBuffer)

	go func() {
		defer close(events)

		timeout := o.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		runID := uuid.NewString()
		logger := o.logger().With("run", runID, "provider", p.ID())
		run := *o
		run.Logger = logger

		logger.Info("run started", "max", req.Max, "force", req.ForceRedownload)
		start := time.Now()

		emit := func(e billfetch.Event) {
			select {
			case events <- e:
			case <-runCtx.Done():
			}
		}
		result, err := run.safeRun(runCtx, p, req, emit)

		var terminal billfetch.Event
		if err != nil {
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				err = billfetch.Errorf(billfetch.ETIMEOUT, "timeout")
			}
			terminal = errorEvent(err)
			logger.Error("run failed", "duration", time.Since(start), "error", err)
		} else {
			terminal = billfetch.DoneEvent(result)
			logger.Info("run finished", "duration", time.Since(start), "count", result.Count)
		}

		select {
		case events <- terminal:
		case <-ctx.Done():
			select {
			case events <- terminal:
			default:
			}
		}
	}()
	return events
}

// safeRun converts a panic inside the run into an internal error.
func (o *Orchestrator) safeRun(ctx context.Context, p billfetch.Provider, req *billfetch.RunRequest, emit EmitFunc) (result *billfetch.RunResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger().Error("run panicked", "panic", r, "stack", string(debug.Stack()))
			result, err = nil, billfetch.Errorf(billfetch.EINTERNAL, "run aborted: %v", r)
		}
	}()
	return o.Run(ctx, p, req, emit)
}

// Collect drains a stream and returns its progress events and terminal
// event.
func Collect(events <-chan billfetch.Event) (progress []billfetch.Event, terminal billfetch.Event) {
	for e := range events {
		if e.Terminal() {
			terminal = e
			continue
		}
		progress = append(progress, e)
	}
	return progress, terminal
}

func errorEvent(err error) billfetch.Event {
	code := billfetch.ErrorCode(err)
	msg := billfetch.ErrorMessage(err)
	if errors.Is(err, context.Canceled) {
		msg = "run canceled"
	}
	requires := code == billfetch.ESECONDFACTOR || code == billfetch.ESECONDFACTORREJECTED
	return billfetch.ErrorEvent(code, msg, requires)
}
