package session

import "sort"

// AsyncTag wraps a child entry merged in at await time: Key is the child's
// original action key, Value the recorded value. It is the provenance
// consumers use to correlate async responses; tagging happens here only.
type AsyncTag struct {
	Key   string
	Value any
}

// TaggedValue wraps an entry during whole-session merges with the name of
// the session that produced it.
type TaggedValue struct {
	SessionName string
	Value       any
}

// MergeResults coalesces every entry of m into the session's results. The
// merged-in values come first, preserving their internal order, with the
// existing values after them.
func MergeResults(s *Session, m map[string][]any) *Session {
	mergeInto(s.Results, m)
	return s
}

// MergeMetrics coalesces every entry of m into the session's metrics, with
// the same ordering rule as MergeResults.
func MergeMetrics(s *Session, m map[string][]any) *Session {
	mergeInto(s.Metrics, m)
	return s
}

func mergeInto(dst map[string][]any, m map[string][]any) {
	for _, k := range sortedKeys(m) {
		merged := make([]any, 0, len(m[k])+len(dst[k]))
		merged = append(merged, m[k]...)
		merged = append(merged, dst[k]...)
		dst[k] = merged
	}
}

// mergeChild folds an awaited child into the parent: every child entry
// (k, v) becomes (name, AsyncTag{k, v}) before coalescing.
func (s *Session) mergeChild(name string, child *Session) {
	if child == nil {
		return
	}
	MergeResults(s, asyncTagged(name, child.Results))
	MergeMetrics(s, asyncTagged(name, child.Metrics))
}

// asyncTagged rewrites a child map into a single-key map under name with
// AsyncTag-wrapped values. Keys are visited in sorted order so merges are
// deterministic across parallel subtrees.
func asyncTagged(name string, m map[string][]any) map[string][]any {
	if len(m) == 0 {
		return nil
	}
	entries := make([]any, 0, len(m))
	for _, k := range sortedKeys(m) {
		for _, v := range m[k] {
			entries = append(entries, AsyncTag{Key: k, Value: v})
		}
	}
	return map[string][]any{name: entries}
}

// MergeSessions combines final sessions into one. Every value is first
// tagged with the name of the session that produced it, then each
// subsequent session is coalesced into the first.
func MergeSessions(sessions ...*Session) *Session {
	if len(sessions) == 0 {
		return nil
	}
	base := sessions[0]
	merged := New(base.Scenario, base.Config)
	merged.ID = base.ID
	mergeInto(merged.Results, nameTagged(base.Name(), base.Results))
	mergeInto(merged.Metrics, nameTagged(base.Name(), base.Metrics))
	for _, next := range sessions[1:] {
		if next == nil {
			continue
		}
		MergeResults(merged, nameTagged(next.Name(), next.Results))
		MergeMetrics(merged, nameTagged(next.Name(), next.Metrics))
	}
	return merged
}

// nameTagged rewrites every value of m into a TaggedValue carrying the
// session name, keeping keys.
func nameTagged(name string, m map[string][]any) map[string][]any {
	out := make(map[string][]any, len(m))
	for k, vs := range m {
		tagged := make([]any, len(vs))
		for i, v := range vs {
			tagged[i] = TaggedValue{SessionName: name, Value: v}
		}
		out[k] = tagged
	}
	return out
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
