package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
)

func TestWorkspaceState_Defaults(t *testing.T) {
	ws := NewWorkspaceState(New(NewMemoryBackend(), zaptest.NewLogger(t)))

	assert.Equal(t, []device.Device{}, ws.LoadDevices())
	assert.Equal(t, []account.Account{}, ws.LoadAccounts())
	assert.Equal(t, workspace.DefaultCloudSyncState(), ws.LoadCloudSync())
}

func TestWorkspaceState_RoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ws := NewWorkspaceState(New(backend, zaptest.NewLogger(t)))

			devices := []device.Device{device.New("DEV_1", "Alpha", true, 10)}
			accounts := []account.Account{account.New("ACC_1", "DEV_1", "Izi", 10)}
			accounts[0].Outs = append(accounts[0].Outs, account.PartialOut{Amount: 50, Timestamp: 11})
			pushed := int64(99)
			cloud := workspace.CloudSyncState{LastPush: &pushed, AutoSyncEnabled: true, SyncPending: true}

			ws.SaveDevices(devices)
			ws.SaveAccounts(accounts)
			ws.SaveCloudSync(cloud)

			assert.Equal(t, devices, ws.LoadDevices())
			assert.Equal(t, accounts, ws.LoadAccounts())
			assert.Equal(t, cloud, ws.LoadCloudSync())
		})
	}
}

func TestWorkspaceState_CorruptSliceFallsBackAlone(t *testing.T) {
	backend := NewMemoryBackend()
	ws := NewWorkspaceState(New(backend, zaptest.NewLogger(t)))

	ws.SaveDevices([]device.Device{{ID: "DEV_1", Name: "Alpha"}})
	require.NoError(t, backend.Put(KeyAccounts, []byte("{not json")))

	assert.Len(t, ws.LoadDevices(), 1)
	assert.Equal(t, []account.Account{}, ws.LoadAccounts())
}
