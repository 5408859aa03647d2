// Package combine turns the sub-question estimates of a decomposed forecast
// into a single probability and an overall confidence label.
package combine

import (
	"fmt"

	"github.com/Sententia-Lab/superforecaster/models"
)

// confidenceWeights scale each sub-estimate's contribution to the combined
// probability. A deliberate simplification: callers wanting Bayesian
// combination should layer it on top rather than tune these.
var confidenceWeights = map[models.Confidence]float64{
	models.ConfidenceLow:    0.5,
	models.ConfidenceMedium: 1.0,
	models.ConfidenceHigh:   1.5,
}

// Thresholds for the overall confidence label. Becoming sure takes a strong
// supermajority of high-confidence estimates; becoming unsure only takes a
// substantial minority of low-confidence ones.
const (
	highRatioThreshold = 0.70
	lowRatioThreshold  = 0.40
)

func validate(estimates []models.SubEstimate) error {
	if len(estimates) == 0 {
		return fmt.Errorf("%w: empty estimate list", models.ErrInvalidInput)
	}
	for i, est := range estimates {
		if est.Probability < 0 || est.Probability > 1 {
			return fmt.Errorf("%w: estimate %d probability %v outside [0,1]", models.ErrInvalidInput, i, est.Probability)
		}
		if !est.Confidence.Valid() {
			return fmt.Errorf("%w: estimate %d has unrecognized confidence %q", models.ErrInvalidInput, i, est.Confidence)
		}
	}
	return nil
}

// CombineProbabilities reduces the sub-question estimates to one forecast
// probability via a confidence-weighted mean: a single high-confidence
// estimate counts three times as much as a single low-confidence one. The
// result is a convex combination, so it stays within [0,1].
func CombineProbabilities(estimates []models.SubEstimate) (float64, error) {
	if err := validate(estimates); err != nil {
		return 0, err
	}

	var weightedSum, weightTotal float64
	for _, est := range estimates {
		w := confidenceWeights[est.Confidence]
		weightedSum += est.Probability * w
		weightTotal += w
	}

	combined := weightedSum / weightTotal
	if combined < 0 {
		combined = 0
	} else if combined > 1 {
		combined = 1
	}
	return combined, nil
}

// CalibrateConfidence derives the overall confidence label from sub-question
// agreement. The high rule is checked first: on estimate sets meeting both
// thresholds (e.g. an even high/low split) the forecast is labeled high.
func CalibrateConfidence(estimates []models.SubEstimate) (models.Confidence, error) {
	if err := validate(estimates); err != nil {
		return "", err
	}

	var highCount, lowCount int
	for _, est := range estimates {
		switch est.Confidence {
		case models.ConfidenceHigh:
			highCount++
		case models.ConfidenceLow:
			lowCount++
		}
	}

	total := float64(len(estimates))
	switch {
	case float64(highCount)/total >= highRatioThreshold:
		return models.ConfidenceHigh, nil
	case float64(lowCount)/total >= lowRatioThreshold:
		return models.ConfidenceLow, nil
	default:
		return models.ConfidenceMedium, nil
	}
}
