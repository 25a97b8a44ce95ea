// Package workspace owns the canonical devices, accounts and cloud sync
// state, applies every mutation, and reconciles with the remote store.
package workspace

// EmptyPullPolicy decides what a pull does when the remote store is empty
type EmptyPullPolicy string

const (
	// EmptyPullIgnore leaves local state untouched and reports it
	EmptyPullIgnore EmptyPullPolicy = "ignore"
	// EmptyPullReplace clears local state to match the empty remote
	EmptyPullReplace EmptyPullPolicy = "replace"
)

// CloudSyncState tracks manual sync bookkeeping. Timestamps are epoch millis.
type CloudSyncState struct {
	LastPush        *int64 `json:"lastPush"`
	LastPull        *int64 `json:"lastPull"`
	AutoSyncEnabled bool   `json:"autoSyncEnabled"`
	SyncPending     bool   `json:"syncPending"`
}

// DefaultCloudSyncState is the state of a fresh install
func DefaultCloudSyncState() CloudSyncState {
	return CloudSyncState{}
}

func (s CloudSyncState) clone() CloudSyncState {
	if s.LastPush != nil {
		v := *s.LastPush
		s.LastPush = &v
	}
	if s.LastPull != nil {
		v := *s.LastPull
		s.LastPull = &v
	}
	return s
}
