// Package session implements the execution engine that drives scripted load
// scenarios: the Session state container, the Action variants the engine can
// run against it, and the merge rules that fold forked child sessions back
// into their parent.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Session is the mutable execution context threaded through actions. It is
// owned by exactly one executing scenario goroutine at any instant; forks
// produce independent child sessions that become visible to the parent only
// at await time.
type Session struct {
	ID       string
	Scenario Scenario
	Config   Config

	// Assigns is user-writable scratch space.
	Assigns map[string]any

	// Results and Metrics coalesce repeated writes under one key into a
	// newest-first list.
	Results map[string][]any
	Metrics map[string][]any

	// Errors records the last failure per action key. Failures never abort
	// the scenario.
	Errors map[string]error

	// HTTP and WS are the transport adapters actions run against.
	HTTP HTTPAdapter
	WS   WSAdapter

	Log   *slog.Logger
	Clock Clock

	ctx   context.Context
	tasks map[string][]*Task
}

// New creates a fresh session for a scenario instance. The id is the scenario
// name followed by a UUID and is stable for the session's lifetime.
func New(sc Scenario, cfg Config) *Session {
	if cfg == nil {
		cfg = Config{}
	}
	return &Session{
		ID:       sessionID(sc),
		Scenario: sc,
		Config:   cfg,
		Assigns:  make(map[string]any),
		Results:  make(map[string][]any),
		Metrics:  make(map[string][]any),
		Errors:   make(map[string]error),
		tasks:    make(map[string][]*Task),
	}
}

func sessionID(sc Scenario) string {
	name := "session"
	if sc != nil {
		name = sc.Name()
	}
	return name + " " + uuid.NewString()
}

// WithContext sets the context actions and forks derive from.
func (s *Session) WithContext(ctx context.Context) *Session {
	s.ctx = ctx
	return s
}

// Context returns the session context, never nil.
func (s *Session) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

// Name returns the configured session_name, falling back to the scenario
// name. It is the tag used when whole sessions are merged.
func (s *Session) Name() string {
	if name, ok := s.Config.SessionName(); ok {
		return name
	}
	if s.Scenario != nil {
		return s.Scenario.Name()
	}
	return "session"
}

// Timeout returns the per-action/per-await cap for this session.
func (s *Session) Timeout() time.Duration {
	return s.Config.Timeout()
}

// OK wraps the session into the success half of the uniform action result.
func (s *Session) OK() (*Session, error) {
	return s, nil
}

// Fail wraps the session into the error half of the uniform action result.
func (s *Session) Fail(err error) (*Session, error) {
	return s, err
}

// Assign sets each key in Assigns to its value. Overwrites.
func (s *Session) Assign(pairs map[string]any) *Session {
	for k, v := range pairs {
		s.Assigns[k] = v
	}
	return s
}

// UpdateAssign replaces each key's value with f(current). Missing keys are
// passed to f as nil.
func (s *Session) UpdateAssign(updates map[string]func(any) any) *Session {
	for k, f := range updates {
		s.Assigns[k] = f(s.Assigns[k])
	}
	return s
}

// AddResult coalesces a value into Results under the action's key.
func (s *Session) AddResult(a Action, v any) *Session {
	coalesce(s.Results, a.Key(), v)
	return s
}

// AddMetric coalesces a value into Metrics under key.
func (s *Session) AddMetric(key string, v any) *Session {
	coalesce(s.Metrics, key, v)
	return s
}

// coalesce prepends v to m[k]: absent -> [v], existing -> [v | existing].
// Order within a key is reverse-chronological.
func coalesce(m map[string][]any, k string, v any) {
	m[k] = append([]any{v}, m[k]...)
}

// AddAsyncTask records a live fork under name. Nil handles and duplicates
// are ignored.
func (s *Session) AddAsyncTask(name string, t *Task) *Session {
	if t == nil {
		return s
	}
	for _, existing := range s.tasks[name] {
		if existing == t {
			return s
		}
	}
	s.tasks[name] = append([]*Task{t}, s.tasks[name]...)
	return s
}

// RemoveAsyncTask drops a handle from the task table. Removing the last
// handle under a name removes the name entirely.
func (s *Session) RemoveAsyncTask(name string, t *Task) *Session {
	remaining := s.tasks[name][:0]
	for _, existing := range s.tasks[name] {
		if existing != t {
			remaining = append(remaining, existing)
		}
	}
	if len(remaining) == 0 {
		delete(s.tasks, name)
	} else {
		s.tasks[name] = remaining
	}
	return s
}

// AsyncTasks returns the live handles under name, newest first.
func (s *Session) AsyncTasks(name string) []*Task {
	return s.tasks[name]
}

// Response returns the newest HTTP response recorded under key, or nil.
func (s *Session) Response(key string) *HTTPResponse {
	for _, v := range s.Results[key] {
		if resp, ok := v.(*HTTPResponse); ok {
			return resp
		}
	}
	return nil
}

// Delay suspends the current scenario for d. No I/O is performed.
func (s *Session) Delay(d time.Duration) *Session {
	select {
	case <-s.Context().Done():
	case <-time.After(d):
	}
	return s
}

// fork creates an independent child session: shallow copies of config and
// assigns, empty results, metrics, errors and task table. Connection handles
// are not duplicated; a fork must establish its own.
func (s *Session) fork() *Session {
	child := New(s.Scenario, s.Config.Clone())
	for k, v := range s.Assigns {
		if k == wsConnKey {
			continue
		}
		child.Assigns[k] = v
	}
	child.HTTP = s.HTTP
	child.WS = s.WS
	child.Log = s.Log
	child.Clock = s.Clock
	child.ctx = s.ctx
	return child
}

func (s *Session) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Session) clock() Clock {
	if s.Clock != nil {
		return s.Clock
	}
	return RealClock{}
}
