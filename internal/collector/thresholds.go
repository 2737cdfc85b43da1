package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds defines pass/fail criteria for a run.
type Thresholds struct {
	Latency   *LatencyThresholds `yaml:"latency"`
	ErrorRate string             `yaml:"error_rate"`
}

// LatencyThresholds defines latency limits. Zero values are not checked.
type LatencyThresholds struct {
	Avg time.Duration `yaml:"avg"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
}

// ThresholdResult is the outcome of one check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains all check outcomes.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Check evaluates all thresholds against a computed summary.
func (t *Thresholds) Check(s *Summary) *ThresholdResults {
	if t == nil {
		return &ThresholdResults{Passed: true}
	}
	results := &ThresholdResults{Passed: true}

	if t.Latency != nil {
		checks := []struct {
			name      string
			threshold time.Duration
			actual    time.Duration
		}{
			{"latency.avg", t.Latency.Avg, s.Latency.Avg},
			{"latency.p95", t.Latency.P95, s.Latency.P95},
			{"latency.p99", t.Latency.P99, s.Latency.P99},
		}
		for _, c := range checks {
			if c.threshold == 0 {
				continue
			}
			passed := c.actual < c.threshold
			if !passed {
				results.Passed = false
			}
			results.Results = append(results.Results, ThresholdResult{
				Name:      c.name,
				Passed:    passed,
				Threshold: FormatDuration(c.threshold),
				Actual:    FormatDuration(c.actual),
			})
		}
	}

	if t.ErrorRate != "" {
		if limit, err := parsePercentage(t.ErrorRate); err == nil {
			actual := 100.0 - s.SuccessRate
			passed := actual < limit
			if !passed {
				results.Passed = false
			}
			results.Results = append(results.Results, ThresholdResult{
				Name:      "error_rate",
				Passed:    passed,
				Threshold: t.ErrorRate,
				Actual:    fmt.Sprintf("%.2f%%", actual),
			})
		}
	}
	return results
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	return strconv.ParseFloat(s, 64)
}
