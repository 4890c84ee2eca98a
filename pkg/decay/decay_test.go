package decay

import (
	"errors"
	"math"
	"testing"

	"hotlabcore/pkg/domain"
)

func TestActivityAtBounds(t *testing.T) {
	cases := []struct {
		name     string
		initial  float64
		halfLife float64
		elapsed  float64
	}{
		{"fresh", 100, 6, 0},
		{"one half-life", 100, 6, 6},
		{"two half-lives", 100, 6, 12},
		{"fractional", 37.5, 1.83, 0.5},
		{"deep decay", 100, 6, 600},
		{"extreme ratio", 1e6, 0.1, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ActivityAt(tc.initial, tc.halfLife, tc.elapsed)
			if got < 0 || got > tc.initial {
				t.Fatalf("ActivityAt(%v,%v,%v) = %v outside [0,%v]", tc.initial, tc.halfLife, tc.elapsed, got, tc.initial)
			}
		})
	}
}

func TestActivityAtMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for elapsed := 0.0; elapsed <= 60; elapsed += 0.25 {
		got := ActivityAt(100, 6, elapsed)
		if got > prev {
			t.Fatalf("activity increased from %v to %v at elapsed=%v", prev, got, elapsed)
		}
		prev = got
	}
}

func TestActivityAtExactHalfLife(t *testing.T) {
	for _, halfLife := range []float64{1.83, 6.01, 65.94} {
		got := ActivityAt(100, halfLife, halfLife)
		if math.Abs(got-50) > 1e-9 {
			t.Fatalf("ActivityAt(100,%v,%v) = %v, want 50", halfLife, halfLife, got)
		}
	}
}

func TestActivityAtEdgeInputs(t *testing.T) {
	if got := ActivityAt(0, 6, 3); got != 0 {
		t.Fatalf("zero initial activity: got %v", got)
	}
	if got := ActivityAt(100, 0, 3); got != 0 {
		t.Fatalf("zero half-life: got %v", got)
	}
	if got := ActivityAt(100, 6, -5); got != 100 {
		t.Fatalf("negative elapsed should return initial, got %v", got)
	}
}

func TestGeneratorAccumulationZeroAtStart(t *testing.T) {
	got, err := GeneratorAccumulation(1000, 65.94, 6.01, 24, 0, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("accumulation at h=0 should be zero, got %v", got)
	}
}

func TestGeneratorAccumulationApproachesEquilibrium(t *testing.T) {
	// In the dominant daughter-decay regime (daughter half-life much shorter
	// than the parent's), accumulation saturates near the current parent
	// activity times efficiency once several daughter half-lives have passed.
	const (
		parentInitial = 1000.0
		parentHL      = 1000.0
		daughterHL    = 6.0
		efficiency    = 0.9
		received      = 0.0
	)
	saturated, err := GeneratorAccumulation(parentInitial, parentHL, daughterHL, received, 45, efficiency)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	limit := parentInitial * efficiency
	if math.Abs(saturated-limit)/limit > 0.05 {
		t.Fatalf("accumulation %v not within 5%% of parent*efficiency %v", saturated, limit)
	}

	// And accumulation grows monotonically toward it over the first several
	// daughter half-lives.
	prev := 0.0
	for h := 1.0; h <= 40; h++ {
		got, err := GeneratorAccumulation(parentInitial, parentHL, daughterHL, received, h, efficiency)
		if err != nil {
			t.Fatalf("unexpected error at h=%v: %v", h, err)
		}
		if got < prev {
			t.Fatalf("accumulation decreased from %v to %v at h=%v", prev, got, h)
		}
		prev = got
	}
}

func TestGeneratorAccumulationPreconditions(t *testing.T) {
	cases := []struct {
		name                                                 string
		parent, parentHL, daughterHL, received, sinceExtract float64
		efficiency                                           float64
	}{
		{"non-positive parent", 0, 66, 6, 1, 1, 0.9},
		{"non-positive parent half-life", 100, 0, 6, 1, 1, 0.9},
		{"non-positive daughter half-life", 100, 66, -1, 1, 1, 0.9},
		{"equal half-lives", 100, 6, 6, 1, 1, 0.9},
		{"efficiency zero", 100, 66, 6, 1, 1, 0},
		{"efficiency above one", 100, 66, 6, 1, 1, 1.5},
		{"negative elapsed", 100, 66, 6, -1, 1, 0.9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GeneratorAccumulation(tc.parent, tc.parentHL, tc.daughterHL, tc.received, tc.sinceExtract, tc.efficiency)
			var precondition domain.ArithmeticPreconditionError
			if !errors.As(err, &precondition) {
				t.Fatalf("want ArithmeticPreconditionError, got %v", err)
			}
		})
	}
}

func TestTimeToThresholdRoundTrip(t *testing.T) {
	cases := []struct {
		initial, halfLife, threshold float64
	}{
		{100, 6, 0.001},
		{100, 6, 1},
		{0.5, 1.83, 0.001},
		{1e6, 66, 0.1},
	}
	for _, tc := range cases {
		hours, err := TimeToThreshold(tc.initial, tc.halfLife, tc.threshold)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		back := ActivityAt(tc.initial, tc.halfLife, hours)
		if math.Abs(back-tc.threshold)/tc.threshold > 1e-9 {
			t.Fatalf("round trip: ActivityAt(%v,%v,%v) = %v, want %v", tc.initial, tc.halfLife, hours, back, tc.threshold)
		}
	}
}

func TestTimeToThresholdAlreadyBelow(t *testing.T) {
	hours, err := TimeToThreshold(0.0005, 6, 0.001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hours != 0 {
		t.Fatalf("already-cleared activity should solve to zero, got %v", hours)
	}
}

func TestTimeToThresholdPreconditions(t *testing.T) {
	if _, err := TimeToThreshold(100, 6, 0); err == nil {
		t.Fatal("non-positive threshold should error")
	}
	if _, err := TimeToThreshold(100, 0, 0.001); err == nil {
		t.Fatal("non-positive half-life should error")
	}
}

func TestVialDecayScenario(t *testing.T) {
	// initialActivity=100, halfLife=6h: ~50 at 6h, ~25 at 12h.
	if got := ActivityAt(100, 6, 6); math.Abs(got-50) > 1e-9 {
		t.Fatalf("at 6h: got %v, want 50", got)
	}
	if got := ActivityAt(100, 6, 12); math.Abs(got-25) > 1e-9 {
		t.Fatalf("at 12h: got %v, want 25", got)
	}
}
