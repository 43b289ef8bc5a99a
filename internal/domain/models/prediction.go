package models

// Direction of the predicted next-day move.
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
)

// Confidence buckets derived from the predicted probability.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// PredictionResult is the outcome of the next-day direction pipeline.
type PredictionResult struct {
	Ticker           string  `json:"ticker"`
	LastDate         string  `json:"last_date"`
	LatestClose      float64 `json:"latest_close"`
	Direction        string  `json:"direction"`
	ProbabilityUp    float64 `json:"probability_up"`
	Confidence       string  `json:"confidence"`
	TestAccuracyAvg  float64 `json:"test_accuracy_avg"`
	BaselineAccuracy float64 `json:"baseline_accuracy"`
	SplitsUsed       int     `json:"splits_used"`
	SampleCount      int     `json:"sample_count"`
	Cached           bool    `json:"cached"`
}
