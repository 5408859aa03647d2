package tracker

import (
	"errors"
	"math"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/Sententia-Lab/superforecaster/internal/storage"
	"github.com/Sententia-Lab/superforecaster/models"
)

func newFileTracker(t *testing.T) (*Tracker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forecasts.jsonl")
	tracker, err := New(storage.NewFileStore(path))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tracker, path
}

func forecastWith(probability float64, confidence models.Confidence) *models.Forecast {
	return &models.Forecast{
		Timeframe:   "12 months",
		Probability: probability,
		Confidence:  confidence,
	}
}

func mustAdd(t *testing.T, tr *Tracker, question string, probability float64, confidence models.Confidence) {
	t.Helper()
	if _, err := tr.AddForecast(question, forecastWith(probability, confidence), ""); err != nil {
		t.Fatalf("AddForecast(%q) error = %v", question, err)
	}
}

func mustResolve(t *testing.T, tr *Tracker, question string, actual bool) {
	t.Helper()
	if _, err := tr.UpdateOutcome(question, actual, ""); err != nil {
		t.Fatalf("UpdateOutcome(%q) error = %v", question, err)
	}
}

func TestAddForecastAndReloadRoundTrip(t *testing.T) {
	tracker, path := newFileTracker(t)

	record, err := tracker.AddForecast("Will event A occur?", forecastWith(0.75, models.ConfidenceHigh), "initial take")
	if err != nil {
		t.Fatalf("AddForecast() error = %v", err)
	}
	if _, err := tracker.UpdateOutcome("Will event A occur?", true, "resolved early"); err != nil {
		t.Fatalf("UpdateOutcome() error = %v", err)
	}

	// A fresh tracker over the same file must see the resolved record with
	// its immutable fields intact.
	reloaded, err := New(storage.NewFileStore(path))
	if err != nil {
		t.Fatalf("New() after reload error = %v", err)
	}
	records := reloaded.Records()
	if len(records) != 1 {
		t.Fatalf("reloaded %d records, want 1", len(records))
	}
	got := records[0]
	if got.Probability != record.Probability || got.Confidence != record.Confidence {
		t.Errorf("immutable fields changed: got %+v, want %+v", got, record)
	}
	if !got.ForecastDate.Equal(record.ForecastDate) {
		t.Errorf("forecast date changed: got %v, want %v", got.ForecastDate, record.ForecastDate)
	}
	if got.ActualOutcome == nil || !*got.ActualOutcome {
		t.Errorf("outcome lost on reload: %+v", got)
	}
	if got.Notes != "resolved early" {
		t.Errorf("notes = %q, want %q", got.Notes, "resolved early")
	}
}

func TestUpdateOutcomeNotFound(t *testing.T) {
	tracker, _ := newFileTracker(t)
	mustAdd(t, tracker, "Will event A occur?", 0.6, models.ConfidenceMedium)
	mustResolve(t, tracker, "Will event A occur?", true)

	tests := []struct {
		name     string
		question string
	}{
		{name: "never recorded", question: "Will event Z occur?"},
		{name: "already resolved", question: "Will event A occur?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tracker.UpdateOutcome(tt.question, false, ""); !errors.Is(err, models.ErrNotFound) {
				t.Errorf("UpdateOutcome() error = %v, want ErrNotFound", err)
			}
		})
	}
}

// Duplicate question texts resolve earliest-first: each outcome update walks
// forward through the unresolved instances in creation order.
func TestUpdateOutcomeEarliestUnresolvedPolicy(t *testing.T) {
	tracker, _ := newFileTracker(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	tracker.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Hour)
	}

	question := "Will event A occur?"
	mustAdd(t, tracker, question, 0.3, models.ConfidenceLow)
	mustAdd(t, tracker, question, 0.7, models.ConfidenceHigh)

	first, err := tracker.UpdateOutcome(question, true, "")
	if err != nil {
		t.Fatalf("UpdateOutcome() error = %v", err)
	}
	if first.Probability != 0.3 {
		t.Errorf("first update resolved probability %v, want the earliest instance (0.3)", first.Probability)
	}

	second, err := tracker.UpdateOutcome(question, true, "")
	if err != nil {
		t.Fatalf("UpdateOutcome() error = %v", err)
	}
	if second.Probability != 0.7 {
		t.Errorf("second update resolved probability %v, want the remaining instance (0.7)", second.Probability)
	}

	if _, err := tracker.UpdateOutcome(question, true, ""); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("third update error = %v, want ErrNotFound", err)
	}
}

func TestCalibrationReportBrierScore(t *testing.T) {
	tests := []struct {
		name     string
		outcome  bool
		expected float64
	}{
		{name: "confident and right", outcome: true, expected: 0.01},
		{name: "confident and wrong", outcome: false, expected: 0.81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker, _ := newFileTracker(t)
			for i := 0; i < 2; i++ {
				mustAdd(t, tracker, "Will event A occur?", 0.9, models.ConfidenceHigh)
				mustResolve(t, tracker, "Will event A occur?", tt.outcome)
			}

			report := tracker.CalibrationReport()
			if report.TotalForecasts != 2 {
				t.Fatalf("TotalForecasts = %d, want 2", report.TotalForecasts)
			}
			if math.Abs(report.BrierScore-tt.expected) > 1e-9 {
				t.Errorf("BrierScore = %v, want %v", report.BrierScore, tt.expected)
			}
		})
	}
}

func TestCalibrationReportBuckets(t *testing.T) {
	tracker, _ := newFileTracker(t)

	// Two records land in 60-80%, one in 0-20%; a 1.0 forecast belongs to
	// the closed top bucket.
	mustAdd(t, tracker, "q1", 0.65, models.ConfidenceMedium)
	mustAdd(t, tracker, "q2", 0.75, models.ConfidenceMedium)
	mustAdd(t, tracker, "q3", 0.10, models.ConfidenceLow)
	mustAdd(t, tracker, "q4", 1.00, models.ConfidenceHigh)
	mustResolve(t, tracker, "q1", true)
	mustResolve(t, tracker, "q2", false)
	mustResolve(t, tracker, "q3", false)
	mustResolve(t, tracker, "q4", true)

	report := tracker.CalibrationReport()
	if report.TotalForecasts != 4 {
		t.Fatalf("TotalForecasts = %d, want 4", report.TotalForecasts)
	}

	mid, ok := report.Buckets["60-80%"]
	if !ok {
		t.Fatal("bucket 60-80% missing")
	}
	if mid.Count != 2 {
		t.Errorf("60-80%% count = %d, want 2", mid.Count)
	}
	if math.Abs(mid.PredictedFrequency-0.70) > 1e-9 {
		t.Errorf("60-80%% predicted frequency = %v, want 0.70", mid.PredictedFrequency)
	}
	if math.Abs(mid.ActualFrequency-0.5) > 1e-9 {
		t.Errorf("60-80%% actual frequency = %v, want 0.5", mid.ActualFrequency)
	}

	top, ok := report.Buckets["80-100%"]
	if !ok {
		t.Fatal("bucket 80-100% missing")
	}
	if top.Count != 1 || top.ActualFrequency != 1.0 {
		t.Errorf("80-100%% stats = %+v, want count 1 actual 1.0", top)
	}

	if _, ok := report.Buckets["20-40%"]; ok {
		t.Error("empty bucket 20-40% must be absent from the report")
	}
}

func TestCalibrationReportNoResolvedRecords(t *testing.T) {
	tracker, _ := newFileTracker(t)
	mustAdd(t, tracker, "pending question", 0.5, models.ConfidenceMedium)

	report := tracker.CalibrationReport()
	if report.TotalForecasts != 0 {
		t.Errorf("TotalForecasts = %d, want 0", report.TotalForecasts)
	}
	if len(report.Buckets) != 0 {
		t.Errorf("Buckets = %v, want none", report.Buckets)
	}
}

func TestCalibrationReportIdempotent(t *testing.T) {
	tracker, _ := newFileTracker(t)
	mustAdd(t, tracker, "q1", 0.65, models.ConfidenceMedium)
	mustResolve(t, tracker, "q1", true)

	first := tracker.CalibrationReport()
	second := tracker.CalibrationReport()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("consecutive reports differ: %+v vs %+v", first, second)
	}
}

func TestConfidenceReport(t *testing.T) {
	tracker, _ := newFileTracker(t)

	mustAdd(t, tracker, "q1", 0.8, models.ConfidenceHigh) // predicts true, true
	mustAdd(t, tracker, "q2", 0.9, models.ConfidenceHigh) // predicts true, false
	mustAdd(t, tracker, "q3", 0.2, models.ConfidenceLow)  // predicts false, false
	mustAdd(t, tracker, "q4", 0.5, models.ConfidenceLow)  // no direction, counts incorrect
	mustResolve(t, tracker, "q1", true)
	mustResolve(t, tracker, "q2", false)
	mustResolve(t, tracker, "q3", false)
	mustResolve(t, tracker, "q4", true)

	report := tracker.ConfidenceReport()

	high, ok := report[models.ConfidenceHigh]
	if !ok {
		t.Fatal("high stats missing")
	}
	if high.Count != 2 || math.Abs(high.Accuracy-0.5) > 1e-9 {
		t.Errorf("high stats = %+v, want count 2 accuracy 0.5", high)
	}
	if math.Abs(high.AverageProbability-0.85) > 1e-9 {
		t.Errorf("high average probability = %v, want 0.85", high.AverageProbability)
	}

	low, ok := report[models.ConfidenceLow]
	if !ok {
		t.Fatal("low stats missing")
	}
	if low.Count != 2 || math.Abs(low.Accuracy-0.5) > 1e-9 {
		t.Errorf("low stats = %+v, want count 2 accuracy 0.5 (the 0.5 forecast counts incorrect)", low)
	}

	if _, ok := report[models.ConfidenceMedium]; ok {
		t.Error("medium has no resolved records and must be absent")
	}
}
