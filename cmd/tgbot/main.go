// Command tgbot serves forecasts over Telegram: send a yes/no question to
// get a forecast, /resolve to record outcomes, /report for calibration
// statistics.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sententia-Lab/superforecaster/internal/api/openai"
	"github.com/Sententia-Lab/superforecaster/internal/api/tavily"
	"github.com/Sententia-Lab/superforecaster/internal/api/wikipedia"
	"github.com/Sententia-Lab/superforecaster/internal/config"
	"github.com/Sententia-Lab/superforecaster/internal/forecaster"
	"github.com/Sententia-Lab/superforecaster/internal/storage"
	"github.com/Sententia-Lab/superforecaster/internal/tracker"
	"github.com/Sententia-Lab/superforecaster/models"
)

const helpText = `I generate calibrated probability forecasts for yes/no questions.

Send me a question like:
"Will Bitcoin exceed $100,000 by end of 2026?"

Commands:
/report - calibration statistics for resolved forecasts
/resolve yes|no <question> - record how a question turned out
/examples - sample forecasting questions`

func main() {
	lvl, _ := zerolog.ParseLevel("info")
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.BotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN is not set")
	}

	store, err := newRecordStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open record store")
	}
	trk, err := tracker.New(store)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load forecast tracker")
	}

	fc := forecaster.New(
		openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		tavily.NewClient(tavily.ClientOptions{
			APIKey:         cfg.TavilyAPIKey,
			MaxResults:     cfg.MaxResults,
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		}),
		wikipedia.NewClient(wikipedia.ClientOptions{
			RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		}),
	)

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create bot")
	}
	logger.Info().Str("username", bot.Self.UserName).Msg("Bot authorized")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	for update := range bot.GetUpdatesChan(updateConfig) {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}
		handleMessage(bot, fc, trk, cfg, update.Message)
	}
}

func newRecordStore(cfg *config.Config) (models.RecordStore, error) {
	switch cfg.StorageBackend {
	case "postgres":
		return storage.NewPostgresStore(storage.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
	default:
		return storage.NewFileStore(cfg.StorageFile), nil
	}
}

func handleMessage(bot *tgbotapi.BotAPI, fc *forecaster.Forecaster, trk *tracker.Tracker, cfg *config.Config, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		handleCommand(bot, trk, msg)
		return
	}

	question := strings.TrimSpace(msg.Text)
	reply(bot, chatID, "Forecasting, this can take a minute...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := fc.Forecast(ctx, question, cfg.Timeframe)
	if err != nil {
		log.Error().Err(err).Str("question", question).Msg("Forecast failed")
		reply(bot, chatID, "Forecast failed: "+err.Error())
		return
	}

	if _, err := trk.AddForecast(question, result, fmt.Sprintf("telegram chat %d", chatID)); err != nil {
		log.Error().Err(err).Msg("Failed to record forecast")
	}

	reply(bot, chatID, formatForecast(result))
}

func handleCommand(bot *tgbotapi.BotAPI, trk *tracker.Tracker, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		reply(bot, chatID, helpText)

	case "examples":
		reply(bot, chatID, formatExamples())

	case "report":
		reply(bot, chatID, formatReport(trk))

	case "resolve":
		args := strings.Fields(msg.CommandArguments())
		if len(args) < 2 {
			reply(bot, chatID, "Usage: /resolve yes|no <question>")
			return
		}
		var actual bool
		switch strings.ToLower(args[0]) {
		case "yes", "true":
			actual = true
		case "no", "false":
			actual = false
		default:
			reply(bot, chatID, "Usage: /resolve yes|no <question>")
			return
		}
		question := strings.Join(args[1:], " ")

		record, err := trk.UpdateOutcome(question, actual, "")
		if err != nil {
			reply(bot, chatID, "Could not resolve: "+err.Error())
			return
		}
		calErr, _ := record.CalibrationError()
		reply(bot, chatID, fmt.Sprintf("Recorded. Forecast was %.0f%%, calibration error %.0f%%.",
			record.Probability*100, calErr*100))

	default:
		reply(bot, chatID, "Unknown command. Try /help.")
	}
}

func formatForecast(result *models.Forecast) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FORECAST: %.0f%% (%s confidence)\n", result.Probability*100, strings.ToUpper(string(result.Confidence)))
	fmt.Fprintf(&sb, "Timeframe: %s\n\n", result.Timeframe)
	fmt.Fprintf(&sb, "%s\n\nDecomposition:\n", result.Reasoning)
	for i, sub := range result.Decompositions {
		fmt.Fprintf(&sb, "%d. %s\n   %.0f%% (%s)\n", i+1, sub.Question, sub.Probability*100, sub.Confidence)
	}
	if len(result.Research.Uncertainties) > 0 {
		sb.WriteString("\nKey uncertainties:\n")
		for _, u := range result.Research.Uncertainties {
			fmt.Fprintf(&sb, "- %s\n", u)
		}
	}
	return sb.String()
}

func formatReport(trk *tracker.Tracker) string {
	report := trk.CalibrationReport()
	if report.TotalForecasts == 0 {
		return "No resolved forecasts yet. Resolve some with /resolve first."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Resolved forecasts: %d\n", report.TotalForecasts)
	fmt.Fprintf(&sb, "Brier score: %.3f (lower is better, 0.25 = coin flip)\n\n", report.BrierScore)

	buckets := make([]string, 0, len(report.Buckets))
	for name := range report.Buckets {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)
	for _, name := range buckets {
		stats := report.Buckets[name]
		fmt.Fprintf(&sb, "%s: predicted %.0f%%, observed %.0f%% (n=%d)\n",
			name, stats.PredictedFrequency*100, stats.ActualFrequency*100, stats.Count)
	}

	confidence := trk.ConfidenceReport()
	if len(confidence) > 0 {
		sb.WriteString("\nBy confidence:\n")
		for _, level := range []models.Confidence{models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow} {
			stats, ok := confidence[level]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "%s: %.0f%% correct (n=%d)\n", level, stats.Accuracy*100, stats.Count)
		}
	}
	return sb.String()
}

func formatExamples() string {
	categories := make([]string, 0, len(forecaster.ExampleQuestions))
	for category := range forecaster.ExampleQuestions {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var sb strings.Builder
	for _, category := range categories {
		fmt.Fprintf(&sb, "%s:\n", category)
		for _, question := range forecaster.ExampleQuestions[category] {
			fmt.Fprintf(&sb, "- %s\n", question)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func reply(bot *tgbotapi.BotAPI, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := bot.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
