// Package openai wraps the OpenAI chat completion API for the forecasting
// pipeline.
package openai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// systemPrompt frames every completion with Tetlock's superforecasting
// methodology.
const systemPrompt = `You are a superforecaster using Tetlock's methodology.

PROCESS:
1. TRIAGE: Is this forecasting question worth addressing?
2. DECOMPOSE: Break into 3-5 independent sub-questions (Fermi-ization)
3. BASE RATES: What's the reference class frequency? (Outside view first)
4. CAUSAL FORCES: What drives the outcome? What causes uncertainty?
5. EVIDENCE: Seek both supporting and contradicting evidence
6. PERSPECTIVES: Look for opposing viewpoints (avoid confirmation bias)
7. PROBABILITIES: Use specific granular numbers (65%, not "likely")
8. CONFIDENCE: Rate certainty separately from probability
9. CALIBRATION: Are you overconfident? Have you considered black swans?
10. ITERATE: Treat forecasts as hypotheses to update, not beliefs to defend

Return structured JSON responses with clear reasoning chains.`

// Client wraps the OpenAI API client
type Client struct {
	client *openai.Client
	model  string
	logger zerolog.Logger
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, model string) *Client {
	if model == "" {
		model = openai.GPT4
	}
	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: log.With().Str("component", "openai_client").Logger(),
	}
}

// GenerateCompletion sends a prompt to OpenAI under the superforecasting
// system prompt and returns the completion text.
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug().Str("prompt", prompt).Msg("Sending prompt to OpenAI")

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)

	if err != nil {
		c.logger.Error().Err(err).Msg("OpenAI API error")
		return "", err
	}

	if len(resp.Choices) == 0 {
		c.logger.Warn().Msg("OpenAI returned empty choices")
		return "", fmt.Errorf("OpenAI returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
