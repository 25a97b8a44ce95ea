package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/localstore"
)

type offlineRemote struct{}

func (offlineRemote) PushSnapshot(ctx context.Context, snap workspace.Snapshot) error {
	return apperrors.NewTransportError("failed to write remote document", errors.New("dial tcp: i/o timeout"))
}

func (offlineRemote) PullSnapshot(ctx context.Context) (workspace.Snapshot, error) {
	return workspace.Snapshot{}, nil
}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func TestPrinter_LeavesErrorsToCommand(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)

	p.Notify(workspace.LevelError, "Push failed: offline")
	assert.Empty(t, buf.String())

	p.Notify(workspace.LevelSuccess, "Pushed to cloud successfully")
	p.Notify(workspace.LevelInfo, "No data found in cloud")
	assert.Contains(t, buf.String(), "Pushed to cloud successfully")
	assert.Contains(t, buf.String(), "No data found in cloud")
}

func TestCLI_FailedPushReportedOnce(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store, err := localstore.Open(localstore.BackendMemory, "", logger)
	require.NoError(t, err)

	var notices bytes.Buffer
	ws := workspace.NewService(localstore.NewWorkspaceState(store), offlineRemote{}, newPrinter(&notices), logger, workspace.Options{})
	t.Cleanup(ws.Close)

	err = ws.PushToCloud(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrTransport))
	assert.NotContains(t, notices.String(), "Push failed")
}

func TestShutdown_ReportsFailedAutoPush(t *testing.T) {
	logger := zaptest.NewLogger(t)
	store, err := localstore.Open(localstore.BackendMemory, "", logger)
	require.NoError(t, err)

	var notices bytes.Buffer
	ws := workspace.NewService(localstore.NewWorkspaceState(store), offlineRemote{}, newPrinter(&notices), logger, workspace.Options{
		AfterFunc: func(time.Duration, func()) workspace.Timer { return idleTimer{} },
	})
	ws.SetAutoSync(true)
	_, err = ws.AddDevice("Alpha", false)
	require.NoError(t, err)
	notices.Reset()

	a := &app{logger: logger, store: store, ws: ws, notices: &notices}
	a.shutdown(context.Background())

	out := notices.String()
	assert.Contains(t, out, "Auto-push failed")
	assert.Contains(t, out, "i/o timeout")
	assert.Equal(t, 1, bytes.Count(notices.Bytes(), []byte("Auto-push failed")))
	assert.NotContains(t, out, "Push failed")
}
