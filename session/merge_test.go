package session

import (
	"testing"
	"time"
)

func TestMergeResults_MergedInValuesComeFirst(t *testing.T) {
	s := newTestSession(t)
	s.Results["k"] = []any{"b"}

	MergeResults(s, map[string][]any{"k": {"a"}})

	got := s.Results["k"]
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestMergeResults_NewKeys(t *testing.T) {
	s := newTestSession(t)
	MergeResults(s, map[string][]any{"x": {1, 2}, "y": {3}})

	if len(s.Results["x"]) != 2 || len(s.Results["y"]) != 1 {
		t.Errorf("expected merged map materialized, got %v", s.Results)
	}
}

func TestMergeMetrics_SameRule(t *testing.T) {
	s := newTestSession(t)
	s.Metrics["lat"] = []any{time.Millisecond}

	MergeMetrics(s, map[string][]any{"lat": {2 * time.Millisecond}})

	got := s.Metrics["lat"]
	if len(got) != 2 || got[0] != 2*time.Millisecond {
		t.Errorf("expected merged-in sample first, got %v", got)
	}
}

func TestMergeChild_TagsWithAsyncProvenance(t *testing.T) {
	parent := newTestSession(t)
	child := parent.fork()
	child.AddResult(HTTPAction{Method: "GET", Path: "/a"}, "ra")
	child.AddMetric("http /a", 3*time.Millisecond)

	parent.mergeChild("work", child)

	results := parent.Results["work"]
	if len(results) != 1 {
		t.Fatalf("expected one tagged result, got %v", results)
	}
	if tag := results[0].(AsyncTag); tag.Key != "GET /a" || tag.Value != "ra" {
		t.Errorf("unexpected result tag: %+v", tag)
	}

	metrics := parent.Metrics["work"]
	if len(metrics) != 1 {
		t.Fatalf("expected one tagged metric, got %v", metrics)
	}
	if tag := metrics[0].(AsyncTag); tag.Key != "http /a" || tag.Value != 3*time.Millisecond {
		t.Errorf("unexpected metric tag: %+v", tag)
	}
}

func TestMergeChild_RoundTrip(t *testing.T) {
	parent := newTestSession(t)
	child := parent.fork()
	for _, v := range []string{"one", "two", "three"} {
		child.AddResult(HTTPAction{Method: "GET", Path: "/multi"}, v)
	}

	parent.mergeChild("work", child)

	entries := parent.Results["work"]
	if len(entries) != 3 {
		t.Fatalf("expected every child entry present in the parent, got %d", len(entries))
	}
	seen := map[any]bool{}
	for _, e := range entries {
		tag := e.(AsyncTag)
		if tag.Key != "GET /multi" {
			t.Errorf("unexpected key %q", tag.Key)
		}
		seen[tag.Value] = true
	}
	for _, v := range []string{"one", "two", "three"} {
		if !seen[v] {
			t.Errorf("missing child value %q after merge", v)
		}
	}
}

func TestMergeSessions_TagsWithSessionName(t *testing.T) {
	a := New(&scriptedScenario{name: "s"}, Config{KeySessionName: "a"})
	a.Results["x"] = []any{"va"}
	b := New(&scriptedScenario{name: "s"}, Config{KeySessionName: "b"})
	b.Results["x"] = []any{"vb"}

	merged := MergeSessions(a, b)

	got := merged.Results["x"]
	if len(got) != 2 {
		t.Fatalf("expected both entries under x, got %v", got)
	}
	names := map[string]any{}
	for _, v := range got {
		tv, ok := v.(TaggedValue)
		if !ok {
			t.Fatalf("expected TaggedValue entries, got %T", v)
		}
		names[tv.SessionName] = tv.Value
	}
	if names["a"] != "va" || names["b"] != "vb" {
		t.Errorf("expected entries tagged with their session names, got %v", names)
	}
}

func TestMergeSessions_Empty(t *testing.T) {
	if MergeSessions() != nil {
		t.Error("expected nil for an empty session list")
	}
}

func TestMergeSessions_KeepsBaseIdentity(t *testing.T) {
	a := New(&scriptedScenario{name: "s"}, Config{})
	merged := MergeSessions(a)
	if merged.ID != a.ID {
		t.Error("expected the merged session to keep the first session's id")
	}
}
