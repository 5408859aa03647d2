package forecaster

// ExampleQuestions is a categorized bank of forecasting questions for demos
// and smoke runs.
var ExampleQuestions = map[string][]string{
	"geopolitical": {
		"Will the US unemployment rate exceed 6% by end of 2026?",
		"Will a new peace agreement be signed in the Middle East by end of 2026?",
		"Will China implement major new AI regulations by mid-2026?",
	},
	"technology": {
		"Will GPT-6 (or equivalent) be released by end of 2025?",
		"Will Tesla's market cap exceed $1 trillion by end of 2026?",
		"Will quantum computers demonstrate supremacy on a practical problem by 2026?",
	},
	"economic": {
		"Will the S&P 500 close above 6500 on December 31, 2026?",
		"Will US inflation exceed 5% (YoY) by June 2026?",
		"Will Bitcoin's price exceed $100,000 by end of 2026?",
	},
	"science": {
		"Will a breakthrough in fusion energy be announced by major lab by 2026?",
		"Will mRNA cancer vaccines enter Phase 3 trials by 2026?",
		"Will a new element be discovered by 2026?",
	},
}
