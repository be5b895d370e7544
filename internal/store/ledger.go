package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/models"
)

// Ledger is the append-only record of published ads, persisted as one flat
// JSON array. Reads and writes go through whole-document load/save so the
// storage can later be swapped for an embedded KV store without touching the
// publish flow.
//
// There is no cross-process locking: this is a single-operator tool and the
// ledger assumes one writer. Concurrent appends from separate processes can
// lose updates.
type Ledger struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewLedger creates a ledger backed by the JSON file at path.
func NewLedger(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: path, logger: logger}
}

// Load returns all publication records. A missing or corrupt file yields an
// empty list; publish history is valuable but never worth failing a request
// over.
func (l *Ledger) Load() []models.PublicationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *Ledger) load() []models.PublicationRecord {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("failed to read ledger file", zap.String("path", l.path), zap.Error(err))
		}
		return []models.PublicationRecord{}
	}
	var records []models.PublicationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.Warn("ledger file corrupt, starting empty", zap.String("path", l.path), zap.Error(err))
		return []models.PublicationRecord{}
	}
	return records
}

// Save overwrites the whole collection atomically (write to a temp file in
// the same directory, then rename).
func (l *Ledger) Save(records []models.PublicationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(records)
}

func (l *Ledger) save(records []models.PublicationRecord) error {
	if records == nil {
		records = []models.PublicationRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	return writeFileAtomic(l.path, data)
}

// Append persists new records in one write: load + append + save.
func (l *Ledger) Append(records []models.PublicationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing := l.load()
	return l.save(append(existing, records...))
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
