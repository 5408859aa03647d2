// Package storage provides the durable backends for forecast records: an
// append-only JSONL file and a PostgreSQL table, both behind
// models.RecordStore.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sententia-Lab/superforecaster/models"
)

// FileStore keeps forecast records in a JSONL log, one record per line.
// Writes are append-only: resolving a forecast appends the resolved record
// rather than rewriting the file, and Load keeps the latest line per
// forecast. A failed append never touches previously written lines.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

// NewFileStore creates a store backed by the JSONL file at path. The file is
// created lazily on first append; a missing file reads as an empty store.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:   path,
		logger: log.With().Str("component", "file_store").Logger(),
	}
}

// Load reads every record from the log in insertion order. Lines appended by
// an outcome update supersede the original pending line of the same forecast
// (matched by question and forecast date), keeping its original position.
func (s *FileStore) Load() ([]models.ForecastRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: opening %s: %v", models.ErrStorage, s.path, err)
	}
	defer f.Close()

	var records []models.ForecastRecord
	index := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record models.ForecastRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("%w: parsing %s line %d: %v", models.ErrStorage, s.path, lineNo, err)
		}

		key := recordKey(&record)
		if i, seen := index[key]; seen {
			records[i] = record
			continue
		}
		index[key] = len(records)
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", models.ErrStorage, s.path, err)
	}

	s.logger.Debug().Int("count", len(records)).Str("path", s.path).Msg("Loaded forecast records")
	return records, nil
}

// Append durably writes one record as a single line. The write happens with
// O_APPEND in one call, so overlapping appends from concurrent forecast
// workflows cannot interleave and a failure leaves the log as it was.
func (s *FileStore) Append(record *models.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: encoding record: %v", models.ErrStorage, err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", models.ErrStorage, s.path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("%w: appending to %s: %v", models.ErrStorage, s.path, err)
	}
	return nil
}

// recordKey identifies one forecast instance across its pending and resolved
// log lines. Duplicate questions stay distinct through the forecast date.
func recordKey(r *models.ForecastRecord) string {
	return r.Question + "|" + r.ForecastDate.UTC().Format("2006-01-02T15:04:05.000000000")
}
