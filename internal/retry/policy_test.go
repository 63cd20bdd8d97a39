package retry

import (
	"testing"
	"time"
)

func TestDelayWithSampleBounds(t *testing.T) {
	for attempt := 0; attempt <= 10; attempt++ {
		raw := 1000 * time.Millisecond << uint(attempt)
		lower := time.Duration(0.8 * float64(raw))
		if lower < 500*time.Millisecond {
			lower = 500 * time.Millisecond
		}
		if lower > 60*time.Second {
			lower = 60 * time.Second
		}
		upper := time.Duration(1.2 * float64(raw))
		if upper > 60*time.Second {
			upper = 60 * time.Second
		}
		for _, sample := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
			got := DelayWithSample(attempt, sample)
			if got < lower || got > upper {
				t.Fatalf("DelayWithSample(%d, %v) = %v, want within [%v, %v]", attempt, sample, got, lower, upper)
			}
		}
	}
}

func TestDelayPinsToCeilingPastSixtySeconds(t *testing.T) {
	// 1000ms * 2^7 = 128s > 60s cap.
	for _, sample := range []float64{0, 0.5, 0.999} {
		if got := DelayWithSample(7, sample); got != 60*time.Second {
			t.Fatalf("DelayWithSample(7, %v) = %v, want 60s", sample, got)
		}
	}
}

func TestDelayJitterProducesDistinctValues(t *testing.T) {
	policy := NewPolicy()
	seen := make(map[time.Duration]struct{})
	for i := 0; i < 64; i++ {
		seen[policy.Delay(3)] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected jittered delays to vary, got %d distinct values", len(seen))
	}
}

func TestDelayNeverBelowFloor(t *testing.T) {
	if got := DelayWithSample(0, 0); got < 500*time.Millisecond {
		t.Fatalf("DelayWithSample(0, 0) = %v, want >= 500ms", got)
	}
}

func TestNegativeAttemptTreatedAsZero(t *testing.T) {
	policy := NewPolicy(WithSample(func() float64 { return 0.5 }))
	if got, want := policy.Delay(-3), DelayWithSample(0, 0.5); got != want {
		t.Fatalf("Delay(-3) = %v, want %v", got, want)
	}
}
