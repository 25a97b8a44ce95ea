package workspace

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type memState struct {
	mu       sync.Mutex
	devices  []device.Device
	accounts []account.Account
	cloud    CloudSyncState
	saves    int
}

func (m *memState) LoadDevices() []device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return device.Clone(m.devices)
}

func (m *memState) LoadAccounts() []account.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return account.Clone(m.accounts)
}

func (m *memState) LoadCloudSync() CloudSyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cloud.clone()
}

func (m *memState) SaveDevices(devices []device.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
	m.saves++
}

func (m *memState) SaveAccounts(accounts []account.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = accounts
	m.saves++
}

func (m *memState) SaveCloudSync(state CloudSyncState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cloud = state
	m.saves++
}

func (m *memState) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// fakeRemote stores the last pushed snapshot. When gate is set, PushSnapshot
// signals entered and waits for gate to close.
type fakeRemote struct {
	mu      sync.Mutex
	snap    Snapshot
	pushErr error
	pullErr error
	pushes  int
	pulls   int

	gate    chan struct{}
	entered chan struct{}
}

func (r *fakeRemote) PushSnapshot(ctx context.Context, snap Snapshot) error {
	if r.gate != nil {
		r.entered <- struct{}{}
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes++
	if r.pushErr != nil {
		return r.pushErr
	}
	r.snap = Snapshot{Devices: device.Clone(snap.Devices), Accounts: account.Clone(snap.Accounts)}
	return nil
}

func (r *fakeRemote) PullSnapshot(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulls++
	if r.pullErr != nil {
		return Snapshot{}, r.pullErr
	}
	return Snapshot{Devices: device.Clone(r.snap.Devices), Accounts: account.Clone(r.snap.Accounts)}, nil
}

func (r *fakeRemote) pushCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pushes
}

type manualTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualScheduler records timers instead of running them
type manualScheduler struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{delay: d, fn: f}
	m.timers = append(m.timers, t)
	return t
}

// active returns the timers that were neither stopped nor fired
func (m *manualScheduler) active() []*manualTimer {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTimer
	for _, t := range m.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

func (m *manualScheduler) scheduled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// fire runs every active timer as if its delay elapsed
func (m *manualScheduler) fire() int {
	timers := m.active()
	for _, t := range timers {
		t.stopped = true
		t.fn()
	}
	return len(timers)
}

type notice struct {
	Level   Level
	Message string
}

type recorder struct {
	mu      sync.Mutex
	notices []notice
}

func (r *recorder) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice{level, message})
}

func (r *recorder) last() notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return notice{}
	}
	return r.notices[len(r.notices)-1]
}

type harness struct {
	svc    *Service
	state  *memState
	remote *fakeRemote
	sched  *manualScheduler
	notes  *recorder
	clock  *time.Time
}

func newHarness(t *testing.T, state *memState, opts Options) *harness {
	t.Helper()
	if state == nil {
		state = &memState{}
	}
	h := &harness{
		state:  state,
		remote: &fakeRemote{},
		sched:  &manualScheduler{},
		notes:  &recorder{},
	}
	now := testNow
	h.clock = &now

	var seq int
	opts.Now = func() time.Time { return *h.clock }
	opts.NewID = func(prefix string) string {
		seq++
		return fmt.Sprintf("%s%d", prefix, seq)
	}
	opts.AfterFunc = h.sched.AfterFunc

	h.svc = NewService(h.state, h.remote, h.notes, zaptest.NewLogger(t), opts)
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) advance(d time.Duration) {
	*h.clock = h.clock.Add(d)
}

func ptr[T any](v T) *T {
	return &v
}
