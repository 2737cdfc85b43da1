package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// FormatText writes a summary in human-readable form.
func FormatText(w io.Writer, s *Summary, thresholds *ThresholdResults) {
	if s.TotalSamples == 0 && s.ErrorCount == 0 {
		fmt.Fprintln(w, "No samples collected")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Stampede - %s\n", s.Environment)
	fmt.Fprintln(w, "==============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Duration:      %v\n", s.TestDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Sessions:      %d\n", s.Sessions)
	fmt.Fprintf(w, "Samples:       %d\n", s.TotalSamples)
	fmt.Fprintf(w, "Errors:        %d\n", s.ErrorCount)
	fmt.Fprintf(w, "Success Rate:  %.1f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "Samples/sec:   %.1f\n", s.SamplesPerSec)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Latency:")
	fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(s.Latency.Min))
	fmt.Fprintf(w, "  Avg:    %s\n", FormatDuration(s.Latency.Avg))
	fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(s.Latency.P50))
	fmt.Fprintf(w, "  P90:    %s\n", FormatDuration(s.Latency.P90))
	fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(s.Latency.P95))
	fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(s.Latency.P99))
	fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(s.Latency.Max))
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "By Key:")
	for _, key := range sortedStatKeys(s.Keys) {
		ks := s.Keys[key]
		fmt.Fprintf(w, "  %-25s %d samples   avg=%s  p95=%s  p99=%s\n",
			key, ks.Count,
			FormatDuration(ks.Latency.Avg),
			FormatDuration(ks.Latency.P95),
			FormatDuration(ks.Latency.P99))
	}

	if thresholds != nil && len(thresholds.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Thresholds:")
		for _, r := range thresholds.Results {
			symbol := "ok"
			if !r.Passed {
				symbol = "FAIL"
			}
			fmt.Fprintf(w, "  [%s] %s < %s (actual: %s)\n", symbol, r.Name, r.Threshold, r.Actual)
		}
	}
}

// FormatJSON writes a summary as JSON.
func FormatJSON(w io.Writer, s *Summary, thresholds *ThresholdResults) error {
	out := struct {
		*Summary
		Thresholds *ThresholdResults `json:"thresholds,omitempty"`
	}{Summary: s, Thresholds: thresholds}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// FormatDuration renders a duration rounded to milliseconds, or to
// microseconds when it is below one millisecond.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

func sortedStatKeys(m map[string]*KeyStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
