package session

import (
	"context"
	"fmt"
	"time"

	"stampede/internal/ratelimit"
)

// Task is the joinable handle of a forked child session. It is created by
// Async and SpreadAsync actions and resolved exactly once, by the owning
// parent, at await time.
type Task struct {
	Name string

	done   chan struct{}
	sess   *Session
	err    error
	cancel context.CancelFunc
	joined bool
}

// Join waits up to timeout for the child session. Joining the same task
// twice is an invariant violation and panics; the worker supervisor turns
// the panic into a handle error.
func (t *Task) Join(timeout time.Duration) (*Session, error) {
	if t.joined {
		panic(fmt.Sprintf("task %q joined twice", t.Name))
	}
	if timeout > 0 {
		select {
		case <-t.done:
		case <-time.After(timeout):
			return nil, ErrJoinTimeout
		}
	} else {
		<-t.done
	}
	t.joined = true
	return t.sess, t.err
}

// Cancel forcibly terminates the child. Safe to call at any time.
func (t *Task) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// Done is closed when the child session has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// spawnTask forks a child session and runs cb on its own goroutine. The
// child derives its context from the parent so that killing the parent
// releases the whole subtree.
func spawnTask(ctx context.Context, s *Session, name string, cb Callback, args []any) *Task {
	child := s.fork()
	cctx, cancel := context.WithCancel(ctx)
	child.ctx = cctx

	t := &Task{
		Name:   name,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(t.done)
		defer cancel()
		t.sess, t.err = safeCall(cb, child, args)
	}()
	return t
}

// AsyncAction spawns an independent child session running a registered
// callback and records the task handle under the callback name.
type AsyncAction struct {
	Name string
	Fn   Callback
	Args []any
}

func (a AsyncAction) Key() string {
	return "async " + a.Name
}

func (a AsyncAction) Run(ctx context.Context, s *Session) (*Session, error) {
	cb, err := resolve(a.Name, a.Fn)
	if err != nil {
		return s, err
	}
	s.AddAsyncTask(a.Name, spawnTask(ctx, s, a.Name, cb, a.Args))
	return s, nil
}

// SpreadAction fans out Rate invocations of a registered callback evenly
// across Interval: the first fork starts immediately, subsequent forks every
// Interval/Rate. It returns once all forks have been spawned; joining
// happens via Await under the callback name.
type SpreadAction struct {
	Name     string
	Rate     int
	Interval time.Duration
}

func (a SpreadAction) Key() string {
	return fmt.Sprintf("spread %s %d/%v", a.Name, a.Rate, a.Interval)
}

func (a SpreadAction) Run(ctx context.Context, s *Session) (*Session, error) {
	cb, err := resolve(a.Name, nil)
	if err != nil {
		return s, err
	}
	pacer := ratelimit.NewPacer(a.Rate, a.Interval)
	for i := 0; i < a.Rate; i++ {
		if err := pacer.Wait(ctx); err != nil {
			return s, err
		}
		s.AddAsyncTask(a.Name, spawnTask(ctx, s, a.Name, cb, nil))
	}
	return s, nil
}

// LoopAction repeatedly runs an inner action until the duration elapses.
// The deadline is computed once at entry from the monotonic clock. Inner
// failures are recorded and the loop continues; the loop itself only fails
// on context cancellation.
type LoopAction struct {
	Inner    Action
	Duration time.Duration
}

func (a LoopAction) Key() string {
	return "loop " + a.Inner.Key()
}

func (a LoopAction) Run(ctx context.Context, s *Session) (*Session, error) {
	clock := s.clock()
	deadline := clock.Now().Add(a.Duration)
	cur := s
	for clock.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		cur = cur.Exec(a.Inner)
	}
	return cur, nil
}

// Async builds and runs an Async action for a registered callback.
func (s *Session) Async(name string, args ...any) *Session {
	return s.Exec(AsyncAction{Name: name, Args: args})
}

// AsyncFunc forks a local func value under an explicit task name.
func (s *Session) AsyncFunc(name string, fn Callback, args ...any) *Session {
	return s.Exec(AsyncAction{Name: name, Fn: fn, Args: args})
}

// Spread builds and runs a SpreadAsync action: rate forks of the named
// callback spread evenly across interval.
func (s *Session) Spread(name string, rate int, interval time.Duration) *Session {
	return s.Exec(SpreadAction{Name: name, Rate: rate, Interval: interval})
}

// Loop repeatedly calls the named callback until duration elapses.
func (s *Session) Loop(name string, duration time.Duration, args ...any) *Session {
	return s.Exec(LoopAction{Inner: FunctionAction{Name: name, Args: args}, Duration: duration})
}

func awaitKey(name string) string {
	return "await " + name
}

// Await joins all handles recorded under each name, in order. For each
// handle the parent waits up to the session timeout; a joined child's
// results and metrics are merged into the parent tagged with the task name.
// A child that misses the deadline is terminated, nothing is merged, and
// ErrJoinTimeout is recorded under the synthetic "await <name>" key.
// Awaiting a name with no live handles is a no-op, so Await is idempotent
// when no new forks occur between calls.
func (s *Session) Await(names ...string) *Session {
	for _, name := range names {
		tasks := s.tasks[name]
		delete(s.tasks, name)
		for _, t := range tasks {
			s.joinTask(name, t)
		}
	}
	return s
}

// AwaitAll is a stable alias for Await.
func (s *Session) AwaitAll(names ...string) *Session {
	return s.Await(names...)
}

// AwaitTask joins a single handle. A nil handle is a no-op.
func (s *Session) AwaitTask(t *Task) *Session {
	if t == nil {
		return s
	}
	s.RemoveAsyncTask(t.Name, t)
	s.joinTask(t.Name, t)
	return s
}

func (s *Session) joinTask(name string, t *Task) {
	if t == nil {
		return
	}
	child, err := t.Join(s.Timeout())
	if err != nil {
		t.Cancel()
		s.Errors[awaitKey(name)] = err
		s.logger().Error("await failed", "session", s.ID, "task", name, "error", err)
		return
	}
	s.mergeChild(name, child)
	s.logger().Debug("await ok", "session", s.ID, "task", name)
}

// WithResponse awaits name, then invokes fn once per awaited entry in
// Results[name] with the entry's response value. Return values of fn are
// discarded; the session is returned unchanged after the loop.
func (s *Session) WithResponse(name string, fn func(s *Session, response any)) *Session {
	s.Await(name)
	for _, v := range s.Results[name] {
		tag, ok := v.(AsyncTag)
		if !ok {
			continue
		}
		fn(s, tag.Value)
	}
	return s
}
