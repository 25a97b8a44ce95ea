package workspace

import (
	"context"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
)

// Snapshot is the full set of devices and accounts exchanged with the remote store
type Snapshot struct {
	Devices  []device.Device
	Accounts []account.Account
}

// IsEmpty reports whether the snapshot carries no documents at all
func (s Snapshot) IsEmpty() bool {
	return len(s.Devices) == 0 && len(s.Accounts) == 0
}

// RemoteStore is the authoritative document store. PushSnapshot replaces
// the remote contents with the snapshot; it is not atomic.
type RemoteStore interface {
	PushSnapshot(ctx context.Context, snap Snapshot) error
	PullSnapshot(ctx context.Context) (Snapshot, error)
}

// StateStore persists each slice of canonical state independently.
// Loads fall back to defaults and saves never fail the caller.
type StateStore interface {
	LoadDevices() []device.Device
	LoadAccounts() []account.Account
	LoadCloudSync() CloudSyncState
	SaveDevices(devices []device.Device)
	SaveAccounts(accounts []account.Account)
	SaveCloudSync(state CloudSyncState)
}

// Level classifies a user notification
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Notifier shows transient messages to the user
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(level Level, message string)

// Notify calls f
func (f NotifierFunc) Notify(level Level, message string) {
	f(level, message)
}
