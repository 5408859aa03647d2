package tracker

import (
	"github.com/Sententia-Lab/superforecaster/models"
)

// probabilityBuckets partition [0,1] into five fixed ranges, half-open except
// the last which includes 1.0.
var probabilityBuckets = []struct {
	name string
	min  float64
	max  float64
	last bool
}{
	{name: "0-20%", min: 0.0, max: 0.2},
	{name: "20-40%", min: 0.2, max: 0.4},
	{name: "40-60%", min: 0.4, max: 0.6},
	{name: "60-80%", min: 0.6, max: 0.8},
	{name: "80-100%", min: 0.8, max: 1.0, last: true},
}

func bucketName(probability float64) string {
	for _, b := range probabilityBuckets {
		if probability >= b.min && (probability < b.max || (b.last && probability <= b.max)) {
			return b.name
		}
	}
	// Unreachable for probabilities within [0,1]; records are validated
	// before they are stored.
	return probabilityBuckets[len(probabilityBuckets)-1].name
}

// CalibrationReport computes the Brier score and per-bucket calibration
// statistics over all resolved records. With zero resolved records the
// report carries TotalForecasts = 0 and no score.
func (t *Tracker) CalibrationReport() *models.CalibrationReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	resolved := t.resolved()
	report := &models.CalibrationReport{
		TotalForecasts: len(resolved),
		Buckets:        make(map[string]models.BucketStats),
	}
	if len(resolved) == 0 {
		return report
	}

	type bucketAccum struct {
		count          int
		probabilitySum float64
		trueOutcomes   int
	}
	buckets := make(map[string]*bucketAccum)

	var squaredErrorSum float64
	for _, record := range resolved {
		err, _ := record.CalibrationError()
		squaredErrorSum += err * err

		name := bucketName(record.Probability)
		accum := buckets[name]
		if accum == nil {
			accum = &bucketAccum{}
			buckets[name] = accum
		}
		accum.count++
		accum.probabilitySum += record.Probability
		if *record.ActualOutcome {
			accum.trueOutcomes++
		}
	}

	report.BrierScore = squaredErrorSum / float64(len(resolved))
	for name, accum := range buckets {
		report.Buckets[name] = models.BucketStats{
			Count:              accum.count,
			PredictedFrequency: accum.probabilitySum / float64(accum.count),
			ActualFrequency:    float64(accum.trueOutcomes) / float64(accum.count),
		}
	}
	return report
}

// ConfidenceReport measures how often each confidence level's directional
// call matched the outcome. A forecast above 0.5 predicts true, below 0.5
// predicts false; an exact 0.5 has no direction and counts as incorrect.
// Labels with no resolved records are absent from the map.
func (t *Tracker) ConfidenceReport() map[models.Confidence]models.ConfidenceStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	resolved := t.resolved()
	report := make(map[models.Confidence]models.ConfidenceStats)
	for _, level := range []models.Confidence{models.ConfidenceLow, models.ConfidenceMedium, models.ConfidenceHigh} {
		var count, correct int
		var probabilitySum float64
		for _, record := range resolved {
			if record.Confidence != level {
				continue
			}
			count++
			probabilitySum += record.Probability
			if directionalCallCorrect(record.Probability, *record.ActualOutcome) {
				correct++
			}
		}
		if count == 0 {
			continue
		}
		report[level] = models.ConfidenceStats{
			Count:              count,
			Accuracy:           float64(correct) / float64(count),
			AverageProbability: probabilitySum / float64(count),
		}
	}
	return report
}

func directionalCallCorrect(probability float64, actual bool) bool {
	if probability > 0.5 {
		return actual
	}
	if probability < 0.5 {
		return !actual
	}
	return false
}
