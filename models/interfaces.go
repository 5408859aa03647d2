package models

import "context"

// RecordStore is the durable backend for forecast records. Load returns every
// stored record in insertion order; Append durably writes one record and must
// either fully complete or leave the store untouched.
type RecordStore interface {
	Load() ([]ForecastRecord, error)
	Append(record *ForecastRecord) error
}

// Reasoner is the language-model collaborator that decomposes a question and
// gathers research. Its internals are opaque to the core pipeline.
type Reasoner interface {
	Decompose(ctx context.Context, question string) ([]SubEstimate, error)
	Research(ctx context.Context, question string) (*ResearchSummary, error)
}

// ResearchTool is one external lookup source (web search, encyclopedia)
// available to the reasoning step.
type ResearchTool interface {
	Lookup(ctx context.Context, query string) (string, error)
}
