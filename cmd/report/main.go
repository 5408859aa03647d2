// Command report prints calibration statistics for recorded forecasts and
// resolves outcomes from the command line.
//
// Usage:
//
//	report                                     print calibration and confidence reports
//	report resolve "<question>" yes|no [notes] record the outcome of a forecast
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sententia-Lab/superforecaster/internal/config"
	"github.com/Sententia-Lab/superforecaster/internal/storage"
	"github.com/Sententia-Lab/superforecaster/internal/tracker"
	"github.com/Sententia-Lab/superforecaster/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)

	store, err := newRecordStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	trk, err := tracker.New(store)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load forecast tracker")
	}

	if len(os.Args) > 1 && os.Args[1] == "resolve" {
		resolveOutcome(trk, os.Args[2:])
		return
	}

	printCalibrationReport(trk)
	printConfidenceReport(trk)
	printPending(trk)
}

func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
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

func resolveOutcome(trk *tracker.Tracker, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, `usage: report resolve "<question>" yes|no [notes]`)
		os.Exit(2)
	}
	question := args[0]

	var actual bool
	switch strings.ToLower(args[1]) {
	case "yes", "true":
		actual = true
	case "no", "false":
		actual = false
	default:
		fmt.Fprintf(os.Stderr, "unrecognized outcome %q, want yes or no\n", args[1])
		os.Exit(2)
	}

	notes := ""
	if len(args) > 2 {
		notes = strings.Join(args[2:], " ")
	}

	record, err := trk.UpdateOutcome(question, actual, notes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to record outcome")
	}

	calErr, _ := record.CalibrationError()
	fmt.Printf("Resolved %q -> %v (forecast was %.0f%%, calibration error %.1f%%)\n",
		record.Question, actual, record.Probability*100, calErr*100)
}

func printCalibrationReport(trk *tracker.Tracker) {
	report := trk.CalibrationReport()

	fmt.Println("CALIBRATION REPORT")
	fmt.Println(strings.Repeat("=", 60))
	if report.TotalForecasts == 0 {
		fmt.Println("No resolved forecasts yet.")
		fmt.Println()
		return
	}

	fmt.Printf("Resolved forecasts: %d\n", report.TotalForecasts)
	fmt.Printf("Brier score:        %.3f (0 = perfect, 0.25 = coin-flip forecaster)\n\n", report.BrierScore)

	buckets := make([]string, 0, len(report.Buckets))
	for name := range report.Buckets {
		buckets = append(buckets, name)
	}
	sort.Strings(buckets)

	for _, name := range buckets {
		stats := report.Buckets[name]
		fmt.Printf("  %-8s predicted %.0f%%, observed %.0f%% (%d forecasts)\n",
			name, stats.PredictedFrequency*100, stats.ActualFrequency*100, stats.Count)
	}
	fmt.Println()
}

func printConfidenceReport(trk *tracker.Tracker) {
	report := trk.ConfidenceReport()
	if len(report) == 0 {
		return
	}

	fmt.Println("CONFIDENCE ANALYSIS")
	fmt.Println(strings.Repeat("=", 60))
	for _, level := range []models.Confidence{models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow} {
		stats, ok := report[level]
		if !ok {
			continue
		}
		fmt.Printf("  %-6s %.0f%% correct, avg forecast %.0f%% (%d forecasts)\n",
			strings.ToUpper(string(level)), stats.Accuracy*100, stats.AverageProbability*100, stats.Count)
	}
	fmt.Println()
}

func printPending(trk *tracker.Tracker) {
	var pending []models.ForecastRecord
	for _, record := range trk.Records() {
		if !record.Resolved() {
			pending = append(pending, record)
		}
	}
	if len(pending) == 0 {
		return
	}

	fmt.Println("PENDING FORECASTS")
	fmt.Println(strings.Repeat("=", 60))
	for _, record := range pending {
		fmt.Printf("  %.0f%% (%s) %s [%s]\n",
			record.Probability*100, record.Confidence, record.Question,
			record.ForecastDate.Format("2006-01-02"))
	}
}
