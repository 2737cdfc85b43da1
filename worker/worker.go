// Package worker supervises the execution of one scenario to completion:
// it spawns the scenario under a fresh session, enforces the per-scenario
// timeout, and resolves a joinable handle with the final session or an
// error.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stampede/session"
)

// ErrScenarioTimeout indicates a scenario exceeded its worker cap. The
// session is excluded from the batch results.
var ErrScenarioTimeout = errors.New("scenario timeout")

// Handle is the joinable result of one worker.
type Handle struct {
	Config session.Config

	done   chan struct{}
	sess   *session.Session
	err    error
	cancel context.CancelFunc
}

// Await waits up to timeout for the worker to finish. A non-positive
// timeout waits forever. On timeout the worker is killed and
// ErrScenarioTimeout returned; killing releases the scenario's child
// handles through context cancellation.
func (h *Handle) Await(timeout time.Duration) (*session.Session, error) {
	if timeout > 0 {
		select {
		case <-h.done:
		case <-time.After(timeout):
			h.Kill()
			return nil, ErrScenarioTimeout
		}
	} else {
		<-h.done
	}
	return h.sess, h.err
}

// Kill forcibly terminates the worker and its children.
func (h *Handle) Kill() {
	h.cancel()
}

// Done is closed when the worker has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Spawner abstracts worker placement. The core never assumes locality;
// cluster transports implement Spawn on remote nodes.
type Spawner interface {
	Spawn(ctx context.Context, sc session.Scenario, cfg session.Config) *Handle
}

// Start begins one worker through the given spawner.
func Start(ctx context.Context, sp Spawner, sc session.Scenario, cfg session.Config) *Handle {
	return sp.Spawn(ctx, sc, cfg)
}

// StartN begins n independent workers for the same scenario and config.
func StartN(ctx context.Context, sp Spawner, n int, sc session.Scenario, cfg session.Config) []*Handle {
	handles := make([]*Handle, n)
	for i := range handles {
		handles[i] = sp.Spawn(ctx, sc, cfg)
	}
	return handles
}

// Local runs workers as goroutines in this process.
type Local struct {
	// Runtime supplies the session collaborators. A zero Runtime leaves
	// transports unset; scenarios using HTTP or WebSocket actions need
	// them wired.
	Runtime session.Runtime

	// NewRuntime, if set, builds the runtime per spawn from the worker's
	// config (e.g. to point transports at the config's base_url).
	NewRuntime func(cfg session.Config) session.Runtime
}

// Spawn runs the scenario on its own goroutine. Panics inside the worker
// resolve the handle to an error; peers are unaffected.
func (l *Local) Spawn(ctx context.Context, sc session.Scenario, cfg session.Config) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	timeout, bounded := cfg.ScenarioTimeout()
	if bounded {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	rt := l.Runtime
	if l.NewRuntime != nil {
		rt = l.NewRuntime(cfg)
	}

	h := &Handle{
		Config: cfg,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("worker panic: %v", r)
			}
		}()
		s := session.ExecuteScenario(ctx, sc, cfg, rt)
		if err := ctx.Err(); err != nil {
			// Killed mid-flight: the session does not count as completed.
			if bounded && errors.Is(err, context.DeadlineExceeded) {
				h.err = ErrScenarioTimeout
			} else {
				h.err = fmt.Errorf("worker terminated: %w", err)
			}
			return
		}
		h.sess = s
	}()
	return h
}
