package ml

import (
	"math"
	"math/rand"
	"testing"
)

func separableData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		v := float64(i%20) - 10
		X[i] = []float64{v, v * 0.5}
		if v > 0 {
			y[i] = 1
		}
	}
	return X, y
}

func TestClassifierLearnsSeparableData(t *testing.T) {
	X, y := separableData(200)

	cfg := DefaultConfig()
	cfg.Rounds = 30

	clf := NewClassifier(cfg)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("fit: %v", err)
	}

	if p := clf.PredictProba([]float64{8, 4}); p < 0.9 {
		t.Fatalf("positive sample probability = %v, want > 0.9", p)
	}
	if p := clf.PredictProba([]float64{-8, -4}); p > 0.1 {
		t.Fatalf("negative sample probability = %v, want < 0.1", p)
	}
}

func TestClassifierIsDeterministic(t *testing.T) {
	X, y := separableData(120)

	cfg := DefaultConfig()
	cfg.Rounds = 15

	a := NewClassifier(cfg)
	b := NewClassifier(cfg)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("fit a: %v", err)
	}
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("fit b: %v", err)
	}

	probe := []float64{3.3, 1.65}
	if pa, pb := a.PredictProba(probe), b.PredictProba(probe); pa != pb {
		t.Fatalf("non-deterministic fit: %v != %v", pa, pb)
	}
}

func TestSubsampleIsSeededAndBounded(t *testing.T) {
	indices := make([]int, 100)
	for i := range indices {
		indices[i] = i
	}

	a := subsample(rand.New(rand.NewSource(42)), indices, 10)
	b := subsample(rand.New(rand.NewSource(42)), indices, 10)
	if len(a) != 10 {
		t.Fatalf("expected 10 picks, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed must pick the same rows: %v != %v", a, b)
		}
	}

	seen := map[int]bool{}
	for _, v := range a {
		if seen[v] {
			t.Fatalf("duplicate pick %d in %v", v, a)
		}
		seen[v] = true
	}

	small := []int{1, 2, 3}
	if got := subsample(rand.New(rand.NewSource(42)), small, 10); len(got) != 3 || got[0] != 1 {
		t.Fatalf("small inputs must pass through unchanged, got %v", got)
	}
}

func TestClassifierRejectsBadShape(t *testing.T) {
	clf := NewClassifier(DefaultConfig())
	if err := clf.Fit(nil, nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if err := clf.Fit([][]float64{{1}}, []float64{1, 0}); err == nil {
		t.Fatalf("expected error for mismatched labels")
	}
}

func TestWalkForwardUsesThreeSplits(t *testing.T) {
	n := 500
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = float64(i % 2)
		X[i] = []float64{float64(i % 2), float64(i%2) * 2}
	}

	cfg := DefaultConfig()
	cfg.Rounds = 10

	res, err := WalkForward(X, y, cfg)
	if err != nil {
		t.Fatalf("walk forward: %v", err)
	}
	if res.SplitsUsed != 3 {
		t.Fatalf("expected 3 splits, got %d", res.SplitsUsed)
	}
	if res.TestSamples != 300 {
		t.Fatalf("expected 300 test samples (3 x 100), got %d", res.TestSamples)
	}
	// Labels are perfectly determined by the features here.
	if res.AvgAccuracy < 0.99 {
		t.Fatalf("expected near-perfect accuracy, got %v", res.AvgAccuracy)
	}
}

func TestWalkForwardAllSplitsSkipped(t *testing.T) {
	n := 20
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		X[i] = []float64{float64(i)}
		y[i] = float64(i % 2)
	}

	res, err := WalkForward(X, y, DefaultConfig())
	if err != nil {
		t.Fatalf("walk forward: %v", err)
	}
	if res.AvgAccuracy != 0.5 || res.TestSamples != 0 || res.SplitsUsed != 0 {
		t.Fatalf("expected neutral default (0.5, 0), got %+v", res)
	}
}

func TestBaseline(t *testing.T) {
	if got := Baseline([]float64{1, 1, 0, 0}); got != 0.5 {
		t.Fatalf("baseline = %v, want 0.5", got)
	}
	if got := Baseline([]float64{1, 1, 1, 0}); math.Abs(got-0.75) > 1e-12 {
		t.Fatalf("baseline = %v, want 0.75", got)
	}
	if got := Baseline(nil); got != 0 {
		t.Fatalf("baseline of empty = %v, want 0", got)
	}
}

func TestConfidenceLabelBoundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want string
	}{
		{0.65, "HIGH"},
		{0.649999, "MEDIUM"},
		{0.55, "MEDIUM"},
		{0.549999, "LOW"},
		{0.5, "LOW"},
		{0.450001, "LOW"},
		{0.45, "MEDIUM"},
		{0.350001, "MEDIUM"},
		{0.35, "HIGH"},
		{0.1, "HIGH"},
		{0.9, "HIGH"},
	}
	for _, tc := range cases {
		if got := ConfidenceLabel(tc.p, 0.65, 0.55); got != tc.want {
			t.Fatalf("ConfidenceLabel(%v) = %q, want %q", tc.p, got, tc.want)
		}
	}
}
