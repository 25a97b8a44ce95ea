package cognito

import (
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
	"github.com/hirosato/p2p-ops-dashboard/internal/platform/localstore"
)

// LocalRepository keeps the session under the local store's session key
type LocalRepository struct {
	store *localstore.Store
}

// NewLocalRepository creates a session repository on top of store
func NewLocalRepository(store *localstore.Store) *LocalRepository {
	return &LocalRepository{store: store}
}

// LoadSession returns the saved session, or the zero session
func (r *LocalRepository) LoadSession() auth.Session {
	return localstore.Load(r.store, localstore.KeySession, auth.Session{})
}

// SaveSession persists session
func (r *LocalRepository) SaveSession(session auth.Session) {
	r.store.Save(localstore.KeySession, session)
}

// ClearSession forgets the saved session
func (r *LocalRepository) ClearSession() {
	r.store.Remove(localstore.KeySession)
}
