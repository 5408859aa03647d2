// Package forecaster runs the superforecasting workflow: decompose the
// question through the language model, gather research through the lookup
// tools, and combine the sub-estimates into a final forecast.
package forecaster

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sententia-Lab/superforecaster/internal/combine"
	"github.com/Sententia-Lab/superforecaster/models"
)

// CompletionClient is the language-model transport the forecaster talks to.
type CompletionClient interface {
	GenerateCompletion(ctx context.Context, prompt string) (string, error)
}

// Forecaster orchestrates one forecasting run. It implements models.Reasoner.
type Forecaster struct {
	llm       CompletionClient
	searchWeb models.ResearchTool
	wikipedia models.ResearchTool
	logger    zerolog.Logger
}

var _ models.Reasoner = (*Forecaster)(nil)

// New creates a forecaster over the given model client and research tools.
// Either tool may be nil; the research step then skips that source.
func New(llm CompletionClient, searchWeb, wikipedia models.ResearchTool) *Forecaster {
	return &Forecaster{
		llm:       llm,
		searchWeb: searchWeb,
		wikipedia: wikipedia,
		logger:    log.With().Str("component", "forecaster").Logger(),
	}
}

// Decompose asks the model to break the question into 3-5 independent
// sub-questions, each with a probability, rationale and confidence label.
func (f *Forecaster) Decompose(ctx context.Context, question string) ([]models.SubEstimate, error) {
	prompt := fmt.Sprintf(`Break down this question into 3-5 independent sub-questions:

%q

For each, provide: question (string), probability (0-1), rationale, confidence (low/medium/high).

Return ONLY valid JSON array of objects with these exact fields.`, question)

	completion, err := f.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("decomposition request: %w", err)
	}

	var estimates []models.SubEstimate
	if err := json.Unmarshal([]byte(extractJSON(completion)), &estimates); err != nil {
		f.logger.Error().Err(err).Str("completion", completion).Msg("Unparseable decomposition")
		return nil, fmt.Errorf("parsing decomposition: %w", err)
	}

	for i := range estimates {
		estimates[i].Confidence = models.Confidence(strings.ToLower(string(estimates[i].Confidence)))
	}
	if len(estimates) == 0 {
		return nil, fmt.Errorf("%w: model returned no sub-questions", models.ErrInvalidInput)
	}
	for i, est := range estimates {
		if est.Probability < 0 || est.Probability > 1 {
			return nil, fmt.Errorf("%w: sub-question %d probability %v outside [0,1]", models.ErrInvalidInput, i, est.Probability)
		}
		if !est.Confidence.Valid() {
			return nil, fmt.Errorf("%w: sub-question %d confidence %q", models.ErrInvalidInput, i, est.Confidence)
		}
	}

	f.logger.Debug().Int("count", len(estimates)).Msg("Question decomposed")
	return estimates, nil
}

// Research gathers base rates and evidence for the question, feeding the
// lookup tools' findings back into the model.
func (f *Forecaster) Research(ctx context.Context, question string) (*models.ResearchSummary, error) {
	findings := f.gatherFindings(ctx, question)

	prompt := fmt.Sprintf(`For the question: %q

Find:
1. Base rate: What %% of similar events occur?
2. Causal forces: What 2-3 factors drive the outcome?
3. Supporting evidence: What points to YES?
4. Contradicting evidence: What points to NO?

Research findings gathered so far:
%s

Return ONLY a valid JSON object with fields: base_rate (number 0-1 or null),
causal_forces (array of strings), evidence (object with "supporting" and
"contradicting" string arrays), uncertainties (array of strings).`, question, findings)

	completion, err := f.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("research request: %w", err)
	}

	var summary models.ResearchSummary
	if err := json.Unmarshal([]byte(extractJSON(completion)), &summary); err != nil {
		f.logger.Error().Err(err).Str("completion", completion).Msg("Unparseable research summary")
		return nil, fmt.Errorf("parsing research summary: %w", err)
	}
	return &summary, nil
}

// gatherFindings runs both lookup tools. A failed lookup is logged and
// skipped; research degrades rather than aborts when a source is down.
func (f *Forecaster) gatherFindings(ctx context.Context, question string) string {
	var sb strings.Builder

	if f.wikipedia != nil {
		if extract, err := f.wikipedia.Lookup(ctx, question); err != nil {
			f.logger.Warn().Err(err).Msg("Wikipedia lookup failed")
		} else {
			sb.WriteString("Wikipedia:\n" + extract + "\n\n")
		}
	}
	if f.searchWeb != nil {
		if results, err := f.searchWeb.Lookup(ctx, question); err != nil {
			f.logger.Warn().Err(err).Msg("Web search failed")
		} else {
			sb.WriteString("Web search:\n" + results + "\n")
		}
	}

	if sb.Len() == 0 {
		return "(no external findings available)"
	}
	return sb.String()
}

// Forecast generates a forecast using the superforecasting methodology.
func (f *Forecaster) Forecast(ctx context.Context, question, timeframe string) (*models.Forecast, error) {
	decompositions, err := f.Decompose(ctx, question)
	if err != nil {
		return nil, err
	}

	research, err := f.Research(ctx, question)
	if err != nil {
		// A forecast without research is still a forecast; the combiner
		// only needs the decompositions.
		f.logger.Warn().Err(err).Msg("Research step failed, continuing without summary")
		research = &models.ResearchSummary{}
	}

	probability, err := combine.CombineProbabilities(decompositions)
	if err != nil {
		return nil, err
	}
	confidence, err := combine.CalibrateConfidence(decompositions)
	if err != nil {
		return nil, err
	}

	forecast := &models.Forecast{
		Question:       question,
		Timeframe:      timeframe,
		Probability:    math.Round(probability*100) / 100,
		Confidence:     confidence,
		Decompositions: decompositions,
		Research:       *research,
		Reasoning:      buildReasoning(decompositions, research, probability),
	}

	f.logger.Info().
		Str("question", question).
		Float64("probability", forecast.Probability).
		Str("confidence", string(confidence)).
		Msg("Forecast complete")
	return forecast, nil
}

// buildReasoning assembles the summary line shown alongside the forecast.
func buildReasoning(decompositions []models.SubEstimate, research *models.ResearchSummary, probability float64) string {
	minProb, maxProb := decompositions[0].Probability, decompositions[0].Probability
	for _, sub := range decompositions[1:] {
		if sub.Probability < minProb {
			minProb = sub.Probability
		}
		if sub.Probability > maxProb {
			maxProb = sub.Probability
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Decomposed into %d independent factors. ", len(decompositions))
	if research.BaseRate != nil {
		fmt.Fprintf(&sb, "Base rate suggests %.0f%%. ", *research.BaseRate*100)
	}
	if len(research.CausalForces) > 0 {
		forces := research.CausalForces
		if len(forces) > 2 {
			forces = forces[:2]
		}
		fmt.Fprintf(&sb, "Key drivers: %s. ", strings.Join(forces, ", "))
	}
	fmt.Fprintf(&sb, "Sub-question range: %.0f%%-%.0f%%. ", minProb*100, maxProb*100)
	fmt.Fprintf(&sb, "Final estimate: %.0f%%.", probability*100)
	return sb.String()
}

// extractJSON strips markdown code fences and surrounding prose from a model
// completion, leaving the outermost JSON value.
func extractJSON(completion string) string {
	s := strings.TrimSpace(completion)
	if start := strings.Index(s, "```"); start >= 0 {
		s = s[start+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	objStart := strings.IndexAny(s, "[{")
	if objStart < 0 {
		return s
	}
	var objEnd int
	if s[objStart] == '[' {
		objEnd = strings.LastIndex(s, "]")
	} else {
		objEnd = strings.LastIndex(s, "}")
	}
	if objEnd <= objStart {
		return s
	}
	return s[objStart : objEnd+1]
}
