// Package sched implements the per-Client cooperative scheduler described
// in §4.3 ("Scheduler & Task runtime (C3)"). The teacher repo has no
// equivalent — steamclient.Client spawns plain goroutines with no shared
// cancellation tree — so this is modeled directly on idiomatic Go: a task
// is a goroutine running under a context.Context rooted at the owning
// Scheduler, cancellation is context cancellation, and "suspension raises
// OperationCancelled" becomes "a blocking call observes ctx.Done() and
// returns ctx.Err()".
package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrOperationCancelled is the non-failure signal a cancelled task's
// suspension points return (§7 "Cancellation — OperationCancelled is a
// non-failure ... all loops catch it, release, and exit quietly").
var ErrOperationCancelled = errors.New("sched: operation cancelled")

// Scheduler is the root cancellation and task registry for one Client.
// Per §4.3, two Schedulers never share mutable state directly; they only
// interact through the Executor bridge.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	wg sync.WaitGroup

	mu        sync.Mutex
	execQueue chan func()
}

// New creates a Scheduler rooted at parent.
func New(parent context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
		execQueue: make(chan func(), 16),
	}
}

// Context returns the Scheduler's root context; suspension points block on
// it (directly, or via a Waiter bridged to it) to observe cancellation.
func (s *Scheduler) Context() context.Context { return s.ctx }

// Cancel triggers OperationCancelled at the next suspension of every task
// rooted in this Scheduler (§4.3 "cancel on a Client").
func (s *Scheduler) Cancel() { s.cancel() }

// Done reports whether this Scheduler has been cancelled.
func (s *Scheduler) Done() <-chan struct{} { return s.ctx.Done() }

// LaunchTask starts body on its own goroutine rooted at the Scheduler's
// context (§4.3 "launchTask(name, body)"). A task that returns
// ErrOperationCancelled (or ctx.Err() after cancellation) ends silently;
// any other error is logged and counts as fatal for that task only, not
// the Client (§4.7 "run(client) ... any other exception logs and counts
// as fatal for this task (not the client)").
func (s *Scheduler) LaunchTask(name string, body func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := body(s.ctx)
		switch {
		case err == nil:
			s.logger.Debug("task finished", "task", name)
		case errors.Is(err, ErrOperationCancelled), errors.Is(err, context.Canceled):
			s.logger.Debug("task cancelled", "task", name)
		default:
			s.logger.Error("task failed", "task", name, "error", err)
		}
	}()
}

// Wait blocks until every task launched via LaunchTask has returned.
func (s *Scheduler) Wait() { s.wg.Wait() }

// ExecResult reports how an Executor-bridged call ended.
type ExecResult int

const (
	ExecRun ExecResult = iota
	ExecKilled
)

// pumpOnce runs one pending cross-Client closure, if any, without blocking,
// on the calling goroutine (§4.3 "submits a closure to the target Client's
// queue").
func (s *Scheduler) pumpOnce() bool {
	select {
	case fn := <-s.execQueue:
		fn()
		return true
	default:
		return false
	}
}

// RunPending drains all currently queued cross-Client closures on the
// calling goroutine. Submit'd closures run only when some goroutine calls
// RunPending on the target Scheduler.
func (s *Scheduler) RunPending() {
	for s.pumpOnce() {
	}
}

// Executor is the inter-Client "run a function on that Client's scheduler"
// bridge (§4.3 "Executor bridge"). Submit blocks the caller until the
// target Scheduler executes fn (via RunPending) or is cancelled first.
type Executor struct {
	target *Scheduler
}

func NewExecutor(target *Scheduler) *Executor {
	return &Executor{target: target}
}

// Submit enqueues fn to run on the target Scheduler's own goroutine and
// blocks until it has run (ExecRun) or the target is cancelled first
// (ExecKilled), per §4.3's Run/Killed(cancelled) result pair.
func (e *Executor) Submit(ctx context.Context, fn func()) (ExecResult, error) {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}

	select {
	case e.target.execQueue <- wrapped:
	case <-e.target.Done():
		return ExecKilled, fmt.Errorf("sched: target scheduler already cancelled")
	case <-ctx.Done():
		return ExecKilled, ctx.Err()
	}

	select {
	case <-done:
		return ExecRun, nil
	case <-e.target.Done():
		return ExecKilled, fmt.Errorf("sched: target scheduler cancelled before closure ran")
	case <-ctx.Done():
		return ExecKilled, ctx.Err()
	}
}
