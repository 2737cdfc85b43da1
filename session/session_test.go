package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// scriptedScenario is a scenario assembled from func values for testing.
type scriptedScenario struct {
	name string
	init func(s *Session) (*Session, error)
	run  func(s *Session) *Session
}

func (sc *scriptedScenario) Name() string { return sc.name }

func (sc *scriptedScenario) Init(s *Session) (*Session, error) {
	if sc.init != nil {
		return sc.init(s)
	}
	return s.OK()
}

func (sc *scriptedScenario) Run(s *Session) *Session {
	if sc.run != nil {
		return sc.run(s)
	}
	return s
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return New(&scriptedScenario{name: "test"}, Config{})
}

func TestNew_IDContainsScenarioName(t *testing.T) {
	s := New(&scriptedScenario{name: "checkout"}, Config{})
	if !strings.HasPrefix(s.ID, "checkout ") {
		t.Errorf("expected id prefixed with scenario name, got %q", s.ID)
	}
	if len(s.ID) <= len("checkout ") {
		t.Error("expected id to carry a uuid after the scenario name")
	}

	other := New(&scriptedScenario{name: "checkout"}, Config{})
	if other.ID == s.ID {
		t.Error("expected unique ids per session")
	}
}

func TestAddResult_NewestFirst(t *testing.T) {
	s := newTestSession(t)
	a := HTTPAction{Method: "GET", Path: "/a"}

	s.AddResult(a, "first")
	s.AddResult(a, "second")
	s.AddResult(a, "third")

	got := s.Results[a.Key()]
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %d", len(got))
	}
	if got[0] != "third" || got[1] != "second" || got[2] != "first" {
		t.Errorf("expected newest-first order, got %v", got)
	}
}

func TestAddMetric_Coalesces(t *testing.T) {
	s := newTestSession(t)

	s.AddMetric("ticks", 1)
	if len(s.Metrics["ticks"]) != 1 {
		t.Fatalf("expected single value, got %v", s.Metrics["ticks"])
	}
	s.AddMetric("ticks", 2)
	if got := s.Metrics["ticks"]; len(got) != 2 || got[0] != 2 {
		t.Errorf("expected [2 1], got %v", got)
	}
}

func TestActionKey_Structural(t *testing.T) {
	a := HTTPAction{Method: "GET", Path: "/a"}
	b := HTTPAction{Method: "GET", Path: "/b"}
	if a.Key() == b.Key() {
		t.Error("expected GET /a and GET /b to be distinct keys")
	}
	if a.Key() != (HTTPAction{Method: "GET", Path: "/a"}).Key() {
		t.Error("expected structurally equal actions to share a key")
	}
}

func TestAddRemoveAsyncTask(t *testing.T) {
	s := newTestSession(t)
	t1 := &Task{Name: "work", done: make(chan struct{})}
	t2 := &Task{Name: "work", done: make(chan struct{})}

	s.AddAsyncTask("work", t1)
	s.AddAsyncTask("work", t2)
	if got := len(s.AsyncTasks("work")); got != 2 {
		t.Fatalf("expected 2 tasks, got %d", got)
	}
	// Newest first, duplicates ignored.
	if s.AsyncTasks("work")[0] != t2 {
		t.Error("expected newest task first")
	}
	s.AddAsyncTask("work", t2)
	if got := len(s.AsyncTasks("work")); got != 2 {
		t.Errorf("expected duplicate add to be ignored, got %d tasks", got)
	}

	s.RemoveAsyncTask("work", t1)
	s.RemoveAsyncTask("work", t2)
	if _, ok := s.tasks["work"]; ok {
		t.Error("expected task entry removed once all handles are gone")
	}
}

func TestAddAsyncTask_NilIsNoop(t *testing.T) {
	s := newTestSession(t)
	s.AddAsyncTask("work", nil)
	if len(s.tasks) != 0 {
		t.Error("expected nil handle to be ignored")
	}
}

func TestAssignAndUpdateAssign(t *testing.T) {
	s := newTestSession(t)
	s.Assign(map[string]any{"count": 1, "name": "a"})
	if s.Assigns["count"] != 1 || s.Assigns["name"] != "a" {
		t.Errorf("unexpected assigns: %v", s.Assigns)
	}

	s.Assign(map[string]any{"count": 2})
	if s.Assigns["count"] != 2 {
		t.Error("expected assign to overwrite")
	}

	s.UpdateAssign(map[string]func(any) any{
		"count": func(v any) any { return v.(int) + 10 },
	})
	if s.Assigns["count"] != 12 {
		t.Errorf("expected 12, got %v", s.Assigns["count"])
	}
}

func TestTimeout_Default(t *testing.T) {
	s := newTestSession(t)
	if s.Timeout() != DefaultTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultTimeout, s.Timeout())
	}

	s = New(&scriptedScenario{name: "test"}, Config{KeyTimeout: 500 * time.Millisecond})
	if s.Timeout() != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", s.Timeout())
	}
}

func TestName_FallsBackToScenario(t *testing.T) {
	s := New(&scriptedScenario{name: "checkout"}, Config{})
	if s.Name() != "checkout" {
		t.Errorf("expected scenario name, got %q", s.Name())
	}

	s = New(&scriptedScenario{name: "checkout"}, Config{KeySessionName: "buyers"})
	if s.Name() != "buyers" {
		t.Errorf("expected configured session name, got %q", s.Name())
	}
}

func TestFork_Independence(t *testing.T) {
	s := newTestSession(t)
	s.Assign(map[string]any{"token": "abc"})
	s.AddResult(HTTPAction{Method: "GET", Path: "/a"}, "parent")
	s.Errors["x"] = errors.New("boom")

	child := s.fork()
	if child.ID == s.ID {
		t.Error("expected fork to get its own id")
	}
	if child.Assigns["token"] != "abc" {
		t.Error("expected assigns to be copied into the fork")
	}
	if len(child.Results) != 0 || len(child.Metrics) != 0 || len(child.Errors) != 0 {
		t.Error("expected fork to start with empty results, metrics and errors")
	}

	child.Assigns["token"] = "xyz"
	if s.Assigns["token"] != "abc" {
		t.Error("expected fork assigns to be independent of the parent")
	}
}

func TestFork_DoesNotInheritWSConn(t *testing.T) {
	s := newTestSession(t)
	s.Assigns[wsConnKey] = &fakeWSConn{}

	child := s.fork()
	if _, ok := child.Assigns[wsConnKey]; ok {
		t.Error("expected connection handle not to be duplicated into forks")
	}
}

func TestDelay_Waits(t *testing.T) {
	s := newTestSession(t)
	start := time.Now()
	s.Delay(50 * time.Millisecond)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected delay of at least 50ms, got %v", elapsed)
	}
}
