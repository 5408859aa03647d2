package combine

import (
	"errors"
	"math"
	"testing"

	"github.com/Sententia-Lab/superforecaster/models"
)

func est(p float64, c models.Confidence) models.SubEstimate {
	return models.SubEstimate{Question: "sub-question", Probability: p, Confidence: c}
}

func TestCombineProbabilities(t *testing.T) {
	tests := []struct {
		name      string
		estimates []models.SubEstimate
		expected  float64
	}{
		{
			name:      "single high estimate returns its probability",
			estimates: []models.SubEstimate{est(0.42, models.ConfidenceHigh)},
			expected:  0.42,
		},
		{
			name:      "single low estimate returns its probability",
			estimates: []models.SubEstimate{est(0.13, models.ConfidenceLow)},
			expected:  0.13,
		},
		{
			name: "mixed confidences weight high estimates more",
			estimates: []models.SubEstimate{
				est(0.65, models.ConfidenceMedium),
				est(0.70, models.ConfidenceHigh),
				est(0.50, models.ConfidenceLow),
			},
			// (0.65*1.0 + 0.70*1.5 + 0.50*0.5) / 3.0
			expected: 2.0 / 3.0,
		},
		{
			name: "equal confidences reduce to plain mean",
			estimates: []models.SubEstimate{
				est(0.2, models.ConfidenceMedium),
				est(0.8, models.ConfidenceMedium),
			},
			expected: 0.5,
		},
		{
			name: "all certain yes stays at one",
			estimates: []models.SubEstimate{
				est(1.0, models.ConfidenceHigh),
				est(1.0, models.ConfidenceLow),
			},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CombineProbabilities(tt.estimates)
			if err != nil {
				t.Fatalf("CombineProbabilities() error = %v", err)
			}
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("CombineProbabilities() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestCombineProbabilitiesOrderInvariant(t *testing.T) {
	forward := []models.SubEstimate{
		est(0.65, models.ConfidenceMedium),
		est(0.70, models.ConfidenceHigh),
		est(0.50, models.ConfidenceLow),
	}
	reversed := []models.SubEstimate{forward[2], forward[1], forward[0]}

	a, err := CombineProbabilities(forward)
	if err != nil {
		t.Fatalf("CombineProbabilities(forward) error = %v", err)
	}
	b, err := CombineProbabilities(reversed)
	if err != nil {
		t.Fatalf("CombineProbabilities(reversed) error = %v", err)
	}
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("permuted input changed the result: %v vs %v", a, b)
	}
}

func TestCombineProbabilitiesInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		estimates []models.SubEstimate
	}{
		{name: "empty list", estimates: nil},
		{name: "probability above one", estimates: []models.SubEstimate{est(1.2, models.ConfidenceHigh)}},
		{name: "negative probability", estimates: []models.SubEstimate{est(-0.1, models.ConfidenceLow)}},
		{name: "unknown confidence label", estimates: []models.SubEstimate{est(0.5, models.Confidence("certain"))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CombineProbabilities(tt.estimates); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("CombineProbabilities() error = %v, want ErrInvalidInput", err)
			}
			if _, err := CalibrateConfidence(tt.estimates); !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("CalibrateConfidence() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCalibrateConfidence(t *testing.T) {
	tests := []struct {
		name        string
		confidences []models.Confidence
		expected    models.Confidence
	}{
		{
			name:        "all high",
			confidences: []models.Confidence{models.ConfidenceHigh, models.ConfidenceHigh, models.ConfidenceHigh},
			expected:    models.ConfidenceHigh,
		},
		{
			name:        "mostly low drags the label down",
			confidences: []models.Confidence{models.ConfidenceLow, models.ConfidenceLow, models.ConfidenceMedium},
			expected:    models.ConfidenceLow,
		},
		{
			name:        "one of each lands on medium",
			confidences: []models.Confidence{models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow},
			expected:    models.ConfidenceMedium,
		},
		{
			name:        "two thirds high misses the threshold",
			confidences: []models.Confidence{models.ConfidenceHigh, models.ConfidenceHigh, models.ConfidenceMedium},
			expected:    models.ConfidenceMedium,
		},
		{
			name: "three quarters high clears the threshold",
			confidences: []models.Confidence{
				models.ConfidenceHigh, models.ConfidenceHigh,
				models.ConfidenceHigh, models.ConfidenceMedium,
			},
			expected: models.ConfidenceHigh,
		},
		{
			name:        "even high and low split drops to low",
			confidences: []models.Confidence{models.ConfidenceHigh, models.ConfidenceLow},
			expected:    models.ConfidenceLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			estimates := make([]models.SubEstimate, len(tt.confidences))
			for i, c := range tt.confidences {
				estimates[i] = est(0.5, c)
			}
			result, err := CalibrateConfidence(estimates)
			if err != nil {
				t.Fatalf("CalibrateConfidence() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("CalibrateConfidence() = %v, want %v", result, tt.expected)
			}
		})
	}
}
