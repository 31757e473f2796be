package metrics

import (
	"testing"
	"time"
)

func TestRegistry_Prune(t *testing.T) {
	reg, ts := setupRegistryWithData(t)

	// Sanity check: ensure we start with 3 time slices worth of data
	allBefore := reg.Search("", nil, time.Time{}, time.Time{})
	if len(allBefore) == 0 {
		t.Fatalf("expected metrics before prune, got none")
	}

	// Choose current time just after ts3
	currentTime := ts["ts3"].Add(30 * time.Second)

	// Prune anything older than 1 minute
	reg.Prune(currentTime, 1*time.Minute)

	// After prune:
	// ts1 should be removed
	// ts2 may or may not survive depending on exact delta
	// ts3 must survive
	results := reg.Search("", nil, time.Time{}, time.Time{})

	if len(results) == 0 {
		t.Fatalf("expected metrics after prune, got none")
	}

	// Expect only metrics from ts2 and ts3
	for _, m := range results {
		if m.Timestamp.Before(ts["ts2"]) {
			t.Fatalf("unexpected old metric timestamp: %v", m.Timestamp)
		}
	}
}

func TestRegistry_NewTimeSlice(t *testing.T) {
	reg := New()
	now := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)

	tests := []struct {
		name     string
		interval time.Duration
		want     time.Time
	}{
		{"truncated to interval", time.Minute, time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)},
		{"zero interval keeps time", 0, now},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reg.NewTimeSlice(now, tt.interval)
			if !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRegistry_AddUnknownSlice(t *testing.T) {
	reg := New()
	reg.Add(time.Unix(100, 0), []Metric{{Name: "orphan"}})

	if results := reg.Search("", nil, time.Time{}, time.Time{}); len(results) != 0 {
		t.Fatalf("expected metrics for unknown slice to be dropped, got %d", len(results))
	}
}
