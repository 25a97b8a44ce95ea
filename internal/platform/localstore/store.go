// Package localstore persists canonical state slices on the local machine.
// Reads and writes never fail the caller: problems are logged and the
// caller falls back to defaults.
package localstore

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// Keys used by the workspace and the auth session cache
const (
	KeyDevices   = "devices"
	KeyAccounts  = "accounts"
	KeyCloudSync = "cloudSync"
	KeySession   = "session"
)

// ErrKeyNotFound is returned by a Backend when nothing is stored under a key
var ErrKeyNotFound = errors.New("localstore: key not found")

// Backend is a durable key/value medium for JSON documents
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Store encodes values as JSON on top of a Backend
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// New creates a Store
func New(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		logger:  logger,
	}
}

// Load returns the value stored under key, or def when the key is absent,
// unreadable or undecodable
func Load[T any](s *Store, key string, def T) T {
	raw, err := s.backend.Get(key)
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			s.logger.Warn("Failed to read local key, using default",
				zap.String("key", key),
				zap.Error(err))
		}
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		s.logger.Warn("Failed to decode local key, using default",
			zap.String("key", key),
			zap.Error(err))
		return def
	}
	return v
}

// Save stores v under key. Failures are logged and swallowed.
func (s *Store) Save(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode local key",
			zap.String("key", key),
			zap.Error(err))
		return
	}
	if err := s.backend.Put(key, raw); err != nil {
		s.logger.Error("Failed to write local key",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Remove deletes key. Failures are logged and swallowed.
func (s *Store) Remove(key string) {
	if err := s.backend.Delete(key); err != nil && !errors.Is(err, ErrKeyNotFound) {
		s.logger.Error("Failed to remove local key",
			zap.String("key", key),
			zap.Error(err))
	}
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
