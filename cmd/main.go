package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
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

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	if len(os.Args) > 1 && os.Args[1] == "examples" {
		printExamples()
		return
	}

	store, err := newRecordStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	trk, err := tracker.New(store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load forecast tracker")
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

	fmt.Println("SUPERFORECASTING AGENT")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Implements Tetlock's 10 commandments for probabilistic forecasting.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		question := promptLine(scanner, "Enter forecast question (or 'quit'): ")
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "quit") {
			return
		}

		timeframe := promptLine(scanner, fmt.Sprintf("Timeframe (default: %s): ", cfg.Timeframe))
		if timeframe == "" {
			timeframe = cfg.Timeframe
		}

		fmt.Println("\nForecasting...")
		result, err := fc.Forecast(ctx, question, timeframe)
		if err != nil {
			log.Error().Err(err).Msg("Forecast failed")
			continue
		}

		printForecast(result)

		if _, err := trk.AddForecast(question, result, ""); err != nil {
			log.Error().Err(err).Msg("Failed to record forecast")
		}
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
		os.Exit(0)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// newRecordStore builds the durable backend named by STORAGE_BACKEND.
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

func promptLine(scanner *bufio.Scanner, prompt string) string {
	fmt.Print(prompt)
	if !scanner.Scan() {
		os.Exit(0)
	}
	return strings.TrimSpace(scanner.Text())
}

func printForecast(result *models.Forecast) {
	fmt.Printf("\nFORECAST: %.0f%% (%s confidence)\n", result.Probability*100, strings.ToUpper(string(result.Confidence)))
	fmt.Printf("Timeframe: %s\n", result.Timeframe)
	fmt.Printf("\nReasoning:\n%s\n", result.Reasoning)

	fmt.Println("\nDecomposition:")
	for i, sub := range result.Decompositions {
		fmt.Printf("  %d. %s\n     %.0f%% (%s confidence)\n     %s\n",
			i+1, sub.Question, sub.Probability*100, sub.Confidence, sub.Rationale)
	}

	if len(result.Research.Uncertainties) > 0 {
		fmt.Println("\nKey Uncertainties:")
		for _, u := range result.Research.Uncertainties {
			fmt.Printf("  - %s\n", u)
		}
	}
	fmt.Println()
}

func printExamples() {
	categories := make([]string, 0, len(forecaster.ExampleQuestions))
	for category := range forecaster.ExampleQuestions {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		fmt.Printf("%s:\n", category)
		for _, question := range forecaster.ExampleQuestions[category] {
			fmt.Printf("  - %s\n", question)
		}
		fmt.Println()
	}
}
