package ml

// Walk-forward validation over a chronologically ordered feature
// matrix. Splits are fixed fractional windows: each trains on a
// prefix and tests on the slice immediately after it, so a model is
// never scored on data older than its training set.

// minTestRows skips splits whose test slice is too small to score.
const minTestRows = 10

var splits = [][2]float64{
	{0.6, 0.8},
	{0.7, 0.9},
	{0.8, 1.0},
}

// ValidationResult aggregates walk-forward split accuracies.
type ValidationResult struct {
	AvgAccuracy float64
	TestSamples int
	SplitsUsed  int
}

// WalkForward runs the three fixed splits and averages their test
// accuracies. If every split is skipped the neutral default
// (0.5 accuracy, 0 samples) is returned.
func WalkForward(X [][]float64, y []float64, cfg Config) (ValidationResult, error) {
	n := len(X)

	var accSum float64
	used := 0
	totalTest := 0

	for _, s := range splits {
		trainEnd := int(s[0] * float64(n))
		testEnd := int(s[1] * float64(n))
		if testEnd > n {
			testEnd = n
		}
		if testEnd-trainEnd < minTestRows || trainEnd < 1 {
			continue
		}

		clf := NewClassifier(cfg)
		if err := clf.Fit(X[:trainEnd], y[:trainEnd]); err != nil {
			return ValidationResult{}, err
		}

		correct := 0
		for i := trainEnd; i < testEnd; i++ {
			pred := 0.0
			if clf.PredictProba(X[i]) >= 0.5 {
				pred = 1.0
			}
			if pred == y[i] {
				correct++
			}
		}
		accSum += float64(correct) / float64(testEnd-trainEnd)
		totalTest += testEnd - trainEnd
		used++
	}

	if used == 0 {
		return ValidationResult{AvgAccuracy: 0.5, TestSamples: 0, SplitsUsed: 0}, nil
	}
	return ValidationResult{
		AvgAccuracy: accSum / float64(used),
		TestSamples: totalTest,
		SplitsUsed:  used,
	}, nil
}

// Baseline returns the majority-class accuracy floor: the fraction of
// positive labels.
func Baseline(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	pos := 0.0
	for _, v := range y {
		pos += v
	}
	return pos / float64(len(y))
}

// ConfidenceLabel maps a probability to HIGH/MEDIUM/LOW, symmetric
// around 0.5. high and medium are the upper-side thresholds
// (e.g. 0.65 and 0.55).
func ConfidenceLabel(p, high, medium float64) string {
	if p >= high || p <= 1-high {
		return "HIGH"
	}
	if p >= medium || p <= 1-medium {
		return "MEDIUM"
	}
	return "LOW"
}

// FinalFit trains the production model on the chronological first 90%
// of the data. Accuracy numbers never come from this model.
func FinalFit(X [][]float64, y []float64, cfg Config) (*Classifier, error) {
	n := len(X)
	cut := int(0.9 * float64(n))
	if cut < 1 {
		cut = n
	}
	clf := NewClassifier(cfg)
	if err := clf.Fit(X[:cut], y[:cut]); err != nil {
		return nil, err
	}
	return clf, nil
}
