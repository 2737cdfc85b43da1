package session

import (
	"testing"
	"time"
)

func TestConfigMerge_LaterOverlaysWin(t *testing.T) {
	base := Config{"a": 1, "b": 2}
	merged := base.Merge(Config{"b": 3, "c": 4})

	if merged["a"] != 1 || merged["b"] != 3 || merged["c"] != 4 {
		t.Errorf("unexpected merge result: %v", merged)
	}
	if base["b"] != 2 {
		t.Error("expected the base config untouched")
	}
}

func TestConfigTimeout(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want time.Duration
	}{
		{"absent", Config{}, DefaultTimeout},
		{"duration", Config{KeyTimeout: 2 * time.Second}, 2 * time.Second},
		{"millis int", Config{KeyTimeout: 1500}, 1500 * time.Millisecond},
		{"string", Config{KeyTimeout: "3s"}, 3 * time.Second},
		{"garbage", Config{KeyTimeout: "soon"}, DefaultTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Timeout(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestConfigScenarioTimeout_Infinity(t *testing.T) {
	cfg := Config{KeyScenarioTimeout: "infinity"}
	if _, ok := cfg.ScenarioTimeout(); ok {
		t.Error("expected infinity to read as unbounded")
	}
	if !cfg.Infinite(KeyScenarioTimeout) {
		t.Error("expected Infinite to detect the explicit marker")
	}
	if (Config{}).Infinite(KeyScenarioTimeout) {
		t.Error("expected an absent key not to read as infinity")
	}
}

func TestConfigDuration_Forms(t *testing.T) {
	cfg := Config{
		"ms_int":   250,
		"ms_float": 250.0,
		"str":      "250ms",
		"dur":      250 * time.Millisecond,
	}
	for _, key := range []string{"ms_int", "ms_float", "str", "dur"} {
		d, ok := cfg.Duration(key)
		if !ok || d != 250*time.Millisecond {
			t.Errorf("key %q: expected 250ms, got %v (ok=%v)", key, d, ok)
		}
	}
}

func TestConfig_UnknownKeysPreserved(t *testing.T) {
	cfg := Config{"custom_knob": 7}
	merged := cfg.Merge(Config{KeyTimeout: time.Second})
	if merged["custom_knob"] != 7 {
		t.Error("expected unknown keys preserved through merges")
	}
}
