// Package environment runs a batch of scenarios: it starts workers for each
// (scenario, concurrency, config) triple, awaits them under the batch
// timeout policy, and aggregates the final sessions into a Results record.
package environment

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"stampede/session"
	"stampede/worker"
)

// RunSpec is one entry of an environment's scenario list.
type RunSpec struct {
	Scenario    session.Scenario
	Name        string
	Concurrency int
	Config      session.Config
}

// Run builds a run-spec with concurrency 1.
func Run(sc session.Scenario, cfg session.Config) RunSpec {
	return RunSpec{Scenario: sc, Concurrency: 1, Config: cfg}
}

// RunNamed builds a run-spec with an explicit session name.
func RunNamed(sc session.Scenario, name string, cfg session.Config) RunSpec {
	return RunSpec{Scenario: sc, Name: name, Concurrency: 1, Config: cfg}
}

// RunN builds a run-spec spawning n concurrent workers.
func RunN(n int, sc session.Scenario, cfg session.Config) RunSpec {
	return RunSpec{Scenario: sc, Concurrency: n, Config: cfg}
}

// RunNNamed builds a run-spec with concurrency and a session name.
func RunNNamed(n int, sc session.Scenario, name string, cfg session.Config) RunSpec {
	return RunSpec{Scenario: sc, Name: name, Concurrency: n, Config: cfg}
}

// Environment is the top-level batch descriptor.
type Environment struct {
	Name          string
	Scenarios     []RunSpec
	DefaultConfig session.Config

	// Spawner places workers. Nil means NewLocalSpawner(Log): local
	// goroutines whose HTTP and WebSocket transports point at each worker
	// config's base_url.
	Spawner worker.Spawner

	// OnSessionDone, if set, is invoked for every session that completes
	// successfully. Used for progress reporting.
	OnSessionDone func(*session.Session)

	Log *slog.Logger
}

// Results is the aggregate of one environment run. Only sessions that
// completed inside the timeout policy are included.
type Results struct {
	Environment string             `json:"environment"`
	StartMS     int64              `json:"start_ms"`
	EndMS       int64              `json:"end_ms"`
	DurationMS  int64              `json:"duration_ms"`
	Sessions    []*session.Session `json:"-"`
}

// Timeout returns the cap across the batch. ok is false for infinity.
func (e *Environment) Timeout() (time.Duration, bool) {
	return e.DefaultConfig.EnvironmentTimeout()
}

// Run starts all workers, awaits them, and returns the Results record.
// Timestamps are wall-clock milliseconds; the duration is measured against
// the monotonic clock.
func (e *Environment) Run(ctx context.Context) *Results {
	start := time.Now()
	if d, ok := e.Timeout(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	handles := e.startWorkers(ctx)
	sessions := e.awaitWorkers(handles)

	end := time.Now()
	return &Results{
		Environment: e.Name,
		StartMS:     start.UnixMilli(),
		EndMS:       end.UnixMilli(),
		DurationMS:  end.Sub(start).Milliseconds(),
		Sessions:    sessions,
	}
}

// MergeSessions combines the final sessions into one, with every value
// tagged by its originating session name.
func (r *Results) MergeSessions() *session.Session {
	return session.MergeSessions(r.Sessions...)
}

// startWorkers flattens the scenario list into started handles, honoring
// concurrency multipliers. Config precedence is default, then session_name,
// then the run-spec config.
func (e *Environment) startWorkers(ctx context.Context) []*worker.Handle {
	sp := e.Spawner
	if sp == nil {
		sp = NewLocalSpawner(e.Log)
	}

	var handles []*worker.Handle
	for _, spec := range e.Scenarios {
		cfg := e.DefaultConfig
		if cfg == nil {
			cfg = session.Config{}
		}
		if spec.Name != "" {
			cfg = cfg.Merge(session.Config{session.KeySessionName: spec.Name})
		}
		cfg = cfg.Merge(spec.Config)

		n := spec.Concurrency
		if n < 1 {
			n = 1
		}
		handles = append(handles, worker.StartN(ctx, sp, n, spec.Scenario, cfg)...)
	}
	return handles
}

// awaitWorkers joins all handles. When every configured scenario_timeout is
// finite, a bounded multi-join up to the maximum runs; stragglers are
// force-terminated and their slots dropped. Otherwise each handle is
// awaited with its own scenario_timeout (or forever).
func (e *Environment) awaitWorkers(handles []*worker.Handle) []*session.Session {
	maxTimeout, bounded := maxScenarioTimeout(handles)
	if !bounded {
		var sessions []*session.Session
		for _, h := range handles {
			timeout, _ := h.Config.ScenarioTimeout()
			if s := e.joinOne(h, timeout); s != nil {
				sessions = append(sessions, s)
			}
		}
		return sessions
	}

	slots := make([]*session.Session, len(handles))
	var g errgroup.Group
	for i, h := range handles {
		i, h := i, h
		g.Go(func() error {
			slots[i] = e.joinOne(h, maxTimeout)
			return nil
		})
	}
	_ = g.Wait()

	sessions := make([]*session.Session, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

func (e *Environment) joinOne(h *worker.Handle, timeout time.Duration) *session.Session {
	s, err := h.Await(timeout)
	if err != nil {
		e.logger().Error("worker failed", "environment", e.Name, "error", err)
		return nil
	}
	if e.OnSessionDone != nil {
		e.OnSessionDone(s)
	}
	return s
}

// maxScenarioTimeout computes the bound for the multi-join: unbounded when
// any pair's scenario_timeout is infinity or no pair specifies one, else
// the maximum.
func maxScenarioTimeout(handles []*worker.Handle) (time.Duration, bool) {
	var longest time.Duration
	found := false
	for _, h := range handles {
		if h.Config.Infinite(session.KeyScenarioTimeout) {
			return 0, false
		}
		if d, ok := h.Config.ScenarioTimeout(); ok {
			found = true
			if d > longest {
				longest = d
			}
		}
	}
	return longest, found
}

func (e *Environment) logger() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
