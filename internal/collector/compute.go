// Package collector computes aggregated latency statistics over the final
// sessions of an environment run.
package collector

import (
	"sort"
	"time"

	"stampede/environment"
	"stampede/session"
)

// DurationStats contains latency statistics for one population.
type DurationStats struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	Avg time.Duration `json:"avg"`
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// KeyStats contains per-metric-key statistics.
type KeyStats struct {
	Count   int           `json:"count"`
	Latency DurationStats `json:"latency"`
}

// Summary is the aggregate over one Results record.
type Summary struct {
	Environment   string               `json:"environment"`
	TestDuration  time.Duration        `json:"testDuration"`
	Sessions      int                  `json:"sessions"`
	TotalSamples  int                  `json:"totalSamples"`
	ErrorCount    int                  `json:"errorCount"`
	SuccessRate   float64              `json:"successRate"`
	SamplesPerSec float64              `json:"samplesPerSec"`
	Latency       DurationStats        `json:"latency"`
	Keys          map[string]*KeyStats `json:"keys"`
}

// Compute aggregates duration metrics across all sessions. Values merged
// from async subtrees or tagged with session names are unwrapped to their
// underlying samples; the originating action key is kept. Pure function.
func Compute(res *environment.Results) *Summary {
	sum := &Summary{
		Environment:  res.Environment,
		TestDuration: time.Duration(res.DurationMS) * time.Millisecond,
		Sessions:     len(res.Sessions),
		Keys:         make(map[string]*KeyStats),
	}

	var all []time.Duration
	perKey := make(map[string][]time.Duration)
	for _, s := range res.Sessions {
		sum.ErrorCount += len(s.Errors)
		for key, values := range s.Metrics {
			for _, v := range values {
				flattenSample(key, v, func(k string, d time.Duration) {
					all = append(all, d)
					perKey[k] = append(perKey[k], d)
				})
			}
		}
	}

	sum.TotalSamples = len(all)
	if sum.TotalSamples+sum.ErrorCount > 0 {
		sum.SuccessRate = float64(sum.TotalSamples) / float64(sum.TotalSamples+sum.ErrorCount) * 100
	}
	if sum.TestDuration > 0 {
		sum.SamplesPerSec = float64(sum.TotalSamples) / sum.TestDuration.Seconds()
	}
	sum.Latency = ComputeDurationStats(all)
	for key, ds := range perKey {
		sum.Keys[key] = &KeyStats{Count: len(ds), Latency: ComputeDurationStats(ds)}
	}
	return sum
}

// flattenSample walks the tagging wrappers down to duration samples.
func flattenSample(key string, v any, add func(key string, d time.Duration)) {
	switch t := v.(type) {
	case time.Duration:
		add(key, t)
	case session.AsyncTag:
		flattenSample(t.Key, t.Value, add)
	case session.TaggedValue:
		flattenSample(key, t.Value, add)
	}
}

// ComputeDurationStats calculates all duration statistics for a population.
func ComputeDurationStats(durations []time.Duration) DurationStats {
	if len(durations) == 0 {
		return DurationStats{}
	}
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return DurationStats{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: total / time.Duration(len(sorted)),
		P50: Percentile(sorted, 0.50),
		P90: Percentile(sorted, 0.90),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
	}
}

// Percentile returns the element at index floor((len-1)*p) of an
// ascending-sorted slice, without interpolation. p is in (0, 1), e.g. 0.95
// for p95; p <= 0 yields the minimum and p >= 1 the maximum.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
