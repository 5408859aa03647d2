package models

import (
	"time"
)

// Confidence is the closed set of confidence labels used throughout the
// forecasting pipeline. Modeled as a named type rather than a free string so
// the combiner's weight lookup and threshold rules are total functions.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether c is one of the three recognized labels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return true
	}
	return false
}

// SubEstimate is one component of a decomposed forecast, produced by the
// reasoning model for each sub-question.
type SubEstimate struct {
	Question    string     `json:"question"`
	Probability float64    `json:"probability"`
	Rationale   string     `json:"rationale"`
	Confidence  Confidence `json:"confidence"`
}

// ResearchEvidence splits gathered evidence by direction.
type ResearchEvidence struct {
	Supporting    []string `json:"supporting"`
	Contradicting []string `json:"contradicting"`
}

// ResearchSummary holds the findings of the research step. BaseRate is nil
// when no reference class frequency could be established.
type ResearchSummary struct {
	BaseRate      *float64         `json:"base_rate"`
	CausalForces  []string         `json:"causal_forces"`
	Evidence      ResearchEvidence `json:"evidence"`
	Uncertainties []string         `json:"uncertainties"`
}

// Forecast is the final output of a forecasting run.
type Forecast struct {
	Question       string          `json:"question"`
	Timeframe      string          `json:"timeframe"`
	Probability    float64         `json:"probability"`
	Confidence     Confidence      `json:"confidence"`
	Decompositions []SubEstimate   `json:"decompositions"`
	Research       ResearchSummary `json:"research"`
	Reasoning      string          `json:"reasoning"`
}

// ForecastRecord is the persisted form of a forecast, tracked for later
// evaluation. ActualOutcome stays nil until the question resolves; the
// probability, confidence and forecast date never change after creation.
type ForecastRecord struct {
	Question      string     `json:"question"`
	ForecastDate  time.Time  `json:"forecast_date"`
	Probability   float64    `json:"probability"`
	Timeframe     string     `json:"timeframe"`
	Confidence    Confidence `json:"confidence"`
	ActualOutcome *bool      `json:"actual_outcome"`
	OutcomeDate   *time.Time `json:"outcome_date,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Resolved reports whether the record's outcome is known.
func (r *ForecastRecord) Resolved() bool {
	return r.ActualOutcome != nil
}

// CalibrationError returns |probability - outcome| for a resolved record.
// The second return value is false while the outcome is unknown.
func (r *ForecastRecord) CalibrationError() (float64, bool) {
	if r.ActualOutcome == nil {
		return 0, false
	}
	actual := 0.0
	if *r.ActualOutcome {
		actual = 1.0
	}
	diff := r.Probability - actual
	if diff < 0 {
		diff = -diff
	}
	return diff, true
}

// BucketStats are the calibration statistics for one probability bucket.
type BucketStats struct {
	Count              int     `json:"count"`
	PredictedFrequency float64 `json:"predicted_frequency"`
	ActualFrequency    float64 `json:"actual_frequency"`
}

// CalibrationReport aggregates calibration statistics over all resolved
// records. BrierScore is meaningful only when TotalForecasts > 0; empty
// probability buckets are absent from the map.
type CalibrationReport struct {
	TotalForecasts int                    `json:"total_forecasts"`
	BrierScore     float64                `json:"brier_score"`
	Buckets        map[string]BucketStats `json:"calibration_by_bucket"`
}

// ConfidenceStats summarize directional accuracy for one confidence label.
type ConfidenceStats struct {
	Count              int     `json:"count"`
	Accuracy           float64 `json:"accuracy"`
	AverageProbability float64 `json:"average_probability"`
}
