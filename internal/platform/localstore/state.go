package localstore

import (
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/workspace"
)

// WorkspaceState implements workspace.StateStore with one key per slice
type WorkspaceState struct {
	store *Store
}

// NewWorkspaceState creates a WorkspaceState
func NewWorkspaceState(store *Store) *WorkspaceState {
	return &WorkspaceState{store: store}
}

var _ workspace.StateStore = (*WorkspaceState)(nil)

func (w *WorkspaceState) LoadDevices() []device.Device {
	return Load(w.store, KeyDevices, []device.Device{})
}

func (w *WorkspaceState) LoadAccounts() []account.Account {
	return Load(w.store, KeyAccounts, []account.Account{})
}

func (w *WorkspaceState) LoadCloudSync() workspace.CloudSyncState {
	return Load(w.store, KeyCloudSync, workspace.DefaultCloudSyncState())
}

func (w *WorkspaceState) SaveDevices(devices []device.Device) {
	w.store.Save(KeyDevices, devices)
}

func (w *WorkspaceState) SaveAccounts(accounts []account.Account) {
	w.store.Save(KeyAccounts, accounts)
}

func (w *WorkspaceState) SaveCloudSync(state workspace.CloudSyncState) {
	w.store.Save(KeyCloudSync, state)
}
