// Package tracker records forecasts and later outcomes, and measures
// forecasting accuracy over time.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sententia-Lab/superforecaster/models"
)

// Tracker keeps the full record collection in memory, backed by an injected
// durable store. Construct one per session; there is no process-wide
// instance.
type Tracker struct {
	store   models.RecordStore
	mu      sync.Mutex
	records []models.ForecastRecord
	logger  zerolog.Logger
	now     func() time.Time
}

// New loads every stored record into a fresh tracker.
func New(store models.RecordStore) (*Tracker, error) {
	records, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading forecast records: %w", err)
	}

	return &Tracker{
		store:   store,
		records: records,
		logger:  log.With().Str("component", "tracker").Logger(),
		now:     time.Now,
	}, nil
}

// AddForecast records a new forecast. Duplicate question texts are allowed
// and stay independent instances, so a question can be re-forecast over time.
func (t *Tracker) AddForecast(question string, forecast *models.Forecast, notes string) (*models.ForecastRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := models.ForecastRecord{
		Question:     question,
		ForecastDate: t.now(),
		Probability:  forecast.Probability,
		Timeframe:    forecast.Timeframe,
		Confidence:   forecast.Confidence,
		Notes:        notes,
	}

	if err := t.store.Append(&record); err != nil {
		return nil, fmt.Errorf("recording forecast: %w", err)
	}
	t.records = append(t.records, record)

	t.logger.Debug().
		Str("question", question).
		Float64("probability", record.Probability).
		Msg("Forecast recorded")
	return &record, nil
}

// UpdateOutcome resolves a recorded forecast. When the same question text was
// recorded several times without resolution, the earliest unresolved record
// wins; repeated calls then walk forward through the remaining instances.
// Returns ErrNotFound when no unresolved record matches, leaving state
// unchanged.
func (t *Tracker) UpdateOutcome(question string, actual bool, notes string) (*models.ForecastRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.records {
		if t.records[i].Question != question || t.records[i].Resolved() {
			continue
		}

		updated := t.records[i]
		now := t.now()
		updated.ActualOutcome = &actual
		updated.OutcomeDate = &now
		if notes != "" {
			updated.Notes = notes
		}

		if err := t.store.Append(&updated); err != nil {
			return nil, fmt.Errorf("recording outcome: %w", err)
		}
		t.records[i] = updated

		t.logger.Debug().
			Str("question", question).
			Bool("actual", actual).
			Msg("Outcome recorded")
		return &updated, nil
	}

	return nil, fmt.Errorf("%w: no unresolved forecast for %q", models.ErrNotFound, question)
}

// Records returns a copy of the full record collection in insertion order.
func (t *Tracker) Records() []models.ForecastRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.ForecastRecord, len(t.records))
	copy(out, t.records)
	return out
}

func (t *Tracker) resolved() []models.ForecastRecord {
	var out []models.ForecastRecord
	for _, r := range t.records {
		if r.Resolved() {
			out = append(out, r)
		}
	}
	return out
}
