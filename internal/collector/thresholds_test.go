package collector

import (
	"testing"
	"time"
)

func TestThresholds_NilAlwaysPasses(t *testing.T) {
	var th *Thresholds
	if !th.Check(&Summary{}).Passed {
		t.Error("expected nil thresholds to pass")
	}
}

func TestThresholds_LatencyChecks(t *testing.T) {
	th := &Thresholds{
		Latency: &LatencyThresholds{Avg: 100 * time.Millisecond, P99: 500 * time.Millisecond},
	}
	sum := &Summary{
		Latency: DurationStats{Avg: 50 * time.Millisecond, P99: 700 * time.Millisecond},
	}

	got := th.Check(sum)

	if got.Passed {
		t.Error("expected the p99 breach to fail the check")
	}
	if len(got.Results) != 2 {
		t.Fatalf("expected 2 checks (zero-valued p95 skipped), got %d", len(got.Results))
	}
	byName := map[string]ThresholdResult{}
	for _, r := range got.Results {
		byName[r.Name] = r
	}
	if !byName["latency.avg"].Passed {
		t.Error("expected avg to pass")
	}
	if byName["latency.p99"].Passed {
		t.Error("expected p99 to fail")
	}
}

func TestThresholds_ErrorRate(t *testing.T) {
	th := &Thresholds{ErrorRate: "5%"}

	if got := th.Check(&Summary{SuccessRate: 99}); !got.Passed {
		t.Error("expected 1% errors under a 5% limit to pass")
	}
	if got := th.Check(&Summary{SuccessRate: 90}); got.Passed {
		t.Error("expected 10% errors over a 5% limit to fail")
	}
}
