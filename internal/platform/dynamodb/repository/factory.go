package repository

import (
	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/dynamodb/client"
)

// Factory creates repository instances
type Factory struct {
	client      client.Client
	tableName   string
	logger      *zap.Logger
	concurrency int
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *zap.Logger, concurrency int) *Factory {
	return &Factory{
		client:      client,
		tableName:   tableName,
		logger:      logger,
		concurrency: concurrency,
	}
}

// SnapshotRepository returns an implementation of the workspace.RemoteStore interface
func (f *Factory) SnapshotRepository(gate auth.Gate) workspace.RemoteStore {
	return NewDynamoDBSnapshotRepository(f.client, f.tableName, gate, f.logger.Named("remote"), f.concurrency)
}
