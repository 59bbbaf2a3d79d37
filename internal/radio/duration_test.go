package radio

import (
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestTimeDurationUnmarshalYAML(t *testing.T) {
	var cfg struct {
		Interval TimeDuration `yaml:"interval"`
	}

	if err := yaml.Unmarshal([]byte("interval: 1m30s"), &cfg); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := cfg.Interval.Duration(); got != 90*time.Second {
		t.Errorf("Expected 1m30s, got %s", got)
	}

	if err := yaml.Unmarshal([]byte("interval: soon"), &cfg); err == nil {
		t.Error("Expected error for invalid duration, got none")
	}
}

func TestTimeDurationMarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Interval TimeDuration `yaml:"interval"`
	}{Interval: TimeDuration(10 * time.Second)})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(out) != "interval: 10s\n" {
		t.Errorf("Expected %q, got %q", "interval: 10s\n", string(out))
	}
}

func TestTimeDurationJSONRoundTrip(t *testing.T) {
	in := TimeDuration(3 * time.Second)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var out TimeDuration
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("Expected %s, got %s", in, out)
	}
}
