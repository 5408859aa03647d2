package storage

import (
	"database/sql"
	"fmt"

	"github.com/Sententia-Lab/superforecaster/models"
)

// PostgresStore keeps forecast records in a PostgreSQL table. It satisfies
// the same append-only contract as FileStore: outcome updates insert a new
// row and Load keeps the latest row per forecast.
type PostgresStore struct {
	db *sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewPostgresStore creates a new database-backed store
func NewPostgresStore(params ConnectionParams) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%w: opening connection: %v", models.ErrStorage, err)
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: pinging database: %v", models.ErrStorage, err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("%w: creating tables: %v", models.ErrStorage, err)
	}

	return &PostgresStore{db: db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_records (
			id BIGSERIAL PRIMARY KEY,
			question TEXT NOT NULL,
			forecast_date TIMESTAMPTZ NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			timeframe TEXT,
			confidence TEXT NOT NULL,
			actual_outcome BOOLEAN,
			outcome_date TIMESTAMPTZ,
			notes TEXT
		)
	`)
	return err
}

// Load returns every stored record in insertion order, collapsing a resolved
// row onto its pending predecessor the way FileStore.Load does.
func (s *PostgresStore) Load() ([]models.ForecastRecord, error) {
	rows, err := s.db.Query(`
		SELECT question, forecast_date, probability, timeframe, confidence,
		       actual_outcome, outcome_date, notes
		FROM forecast_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %v", models.ErrStorage, err)
	}
	defer rows.Close()

	var records []models.ForecastRecord
	index := make(map[string]int)

	for rows.Next() {
		var record models.ForecastRecord
		var timeframe, notes sql.NullString
		var actualOutcome sql.NullBool
		var outcomeDate sql.NullTime

		err := rows.Scan(
			&record.Question, &record.ForecastDate, &record.Probability,
			&timeframe, &record.Confidence, &actualOutcome, &outcomeDate, &notes,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning record: %v", models.ErrStorage, err)
		}

		if timeframe.Valid {
			record.Timeframe = timeframe.String
		}
		if notes.Valid {
			record.Notes = notes.String
		}
		if actualOutcome.Valid {
			outcome := actualOutcome.Bool
			record.ActualOutcome = &outcome
		}
		if outcomeDate.Valid {
			date := outcomeDate.Time
			record.OutcomeDate = &date
		}

		key := recordKey(&record)
		if i, seen := index[key]; seen {
			records[i] = record
			continue
		}
		index[key] = len(records)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating records: %v", models.ErrStorage, err)
	}

	return records, nil
}

// Append inserts one record; a single INSERT either fully commits or leaves
// the table unchanged.
func (s *PostgresStore) Append(record *models.ForecastRecord) error {
	var outcome sql.NullBool
	if record.ActualOutcome != nil {
		outcome = sql.NullBool{Bool: *record.ActualOutcome, Valid: true}
	}
	var outcomeDate sql.NullTime
	if record.OutcomeDate != nil {
		outcomeDate = sql.NullTime{Time: *record.OutcomeDate, Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO forecast_records (
			question, forecast_date, probability, timeframe, confidence,
			actual_outcome, outcome_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		record.Question, record.ForecastDate, record.Probability, record.Timeframe,
		record.Confidence, outcome, outcomeDate, record.Notes)

	if err != nil {
		return fmt.Errorf("%w: inserting record: %v", models.ErrStorage, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
