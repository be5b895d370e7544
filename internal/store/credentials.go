package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ocohenran/adcraft/internal/models"
)

// CredentialStore holds the single process-wide ad platform credential,
// persisted wholesale to one flat JSON document on every change.
// Last write wins.
type CredentialStore struct {
	path   string
	mu     sync.RWMutex
	cur    models.Credential
	logger *zap.Logger
}

// NewCredentialStore loads any persisted credential from path. A missing or
// corrupt file starts the store disconnected.
func NewCredentialStore(path string, logger *zap.Logger) *CredentialStore {
	s := &CredentialStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read credential file", zap.String("path", path), zap.Error(err))
		}
		return s
	}
	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		logger.Warn("credential file corrupt, starting disconnected", zap.String("path", path), zap.Error(err))
		return s
	}
	s.cur = cred
	return s
}

// Get returns the current credential. The zero value means disconnected.
func (s *CredentialStore) Get() models.Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Set replaces the credential and persists it.
func (s *CredentialStore) Set(cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	s.cur = cred
	return nil
}

// Clear drops the in-memory credential and overwrites persisted storage with
// an empty record. Safe to call when already disconnected.
func (s *CredentialStore) Clear() error {
	return s.Set(models.Credential{})
}
