package localstore

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Backend kinds accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open builds a Store for the configured backend kind under dataDir
func Open(kind, dataDir string, logger *zap.Logger) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch kind {
	case BackendFile, "":
		backend, err = NewFileBackend(dataDir)
	case BackendSQLite:
		backend, err = OpenSQLite(filepath.Join(dataDir, "p2pdash.db"))
	case BackendMemory:
		backend = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown local backend %q", kind)
	}
	if err != nil {
		return nil, err
	}

	return New(backend, logger), nil
}
