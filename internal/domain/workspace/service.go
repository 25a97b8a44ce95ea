package workspace

import (
	"fmt"
	"strings"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/utils"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/view"
)

// DefaultAutoPushDelay is the debounce between the last edit and an auto-push
const DefaultAutoPushDelay = 10 * time.Second

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	AutoPushDelay   time.Duration
	EmptyPullPolicy EmptyPullPolicy
	SyncTimeout     time.Duration
	Language        language.Tag

	Now       func() time.Time
	NewID     func(prefix string) string
	AfterFunc func(d time.Duration, f func()) Timer
}

func (o Options) withDefaults() Options {
	if o.AutoPushDelay <= 0 {
		o.AutoPushDelay = DefaultAutoPushDelay
	}
	if o.EmptyPullPolicy == "" {
		o.EmptyPullPolicy = EmptyPullIgnore
	}
	if o.Language == language.Und {
		o.Language = view.DefaultLanguage
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func(prefix string) string {
			return prefix + ulid.Make().String()
		}
	}
	if o.AfterFunc == nil {
		o.AfterFunc = func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		}
	}
	return o
}

// Service owns canonical state. Mutations run under mu; push and pull run
// outside it guarded by the busy flag.
type Service struct {
	mu       sync.Mutex
	devices  []device.Device
	accounts []account.Account
	cloud    CloudSyncState

	// generation increments on every committed change so a push can tell
	// whether it captured the latest state
	generation uint64
	busy       bool
	timer      Timer
	timerSeq   uint64
	closed     bool

	local    StateStore
	remote   RemoteStore
	notifier Notifier
	logger   *zap.Logger
	opts     Options
}

// NewService loads persisted state and returns a ready Service. remote and
// notifier may be nil.
func NewService(local StateStore, remote RemoteStore, notifier Notifier, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Level, string) {})
	}

	s := &Service{
		local:    local,
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		opts:     opts.withDefaults(),
	}

	s.devices = local.LoadDevices()
	if s.devices == nil {
		s.devices = []device.Device{}
	}
	s.accounts = local.LoadAccounts()
	if s.accounts == nil {
		s.accounts = []account.Account{}
	}
	account.Normalize(s.accounts)
	s.cloud = local.LoadCloudSync()

	s.logger.Debug("Workspace loaded",
		zap.Int("devices", len(s.devices)),
		zap.Int("accounts", len(s.accounts)),
		zap.Bool("syncPending", s.cloud.SyncPending),
		zap.Bool("autoSync", s.cloud.AutoSyncEnabled))

	s.mu.Lock()
	s.scheduleAutoPushLocked()
	s.mu.Unlock()

	return s
}

// Devices returns a copy of the device list
func (s *Service) Devices() []device.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return device.Clone(s.devices)
}

// Accounts returns a copy of the account list
func (s *Service) Accounts() []account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return account.Clone(s.accounts)
}

// CloudSync returns a copy of the sync bookkeeping
func (s *Service) CloudSync() CloudSyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cloud.clone()
}

// Busy reports whether a push or pull is in flight
func (s *Service) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// View filters, sorts and aggregates the current state
func (s *Service) View(filter account.Filter) view.View {
	s.mu.Lock()
	devices := device.Clone(s.devices)
	accounts := account.Clone(s.accounts)
	s.mu.Unlock()

	return view.ComputeWithOptions(devices, accounts, filter, view.Options{Language: s.opts.Language})
}

func (s *Service) nowMillis() int64 {
	return s.opts.Now().UnixMilli()
}

// commitLocked records a change: bumps the generation, marks sync pending,
// persists the touched slices and reschedules auto-push
func (s *Service) commitLocked(devicesChanged, accountsChanged bool) {
	s.generation++
	s.cloud.SyncPending = true

	if devicesChanged {
		s.local.SaveDevices(device.Clone(s.devices))
	}
	if accountsChanged {
		s.local.SaveAccounts(account.Clone(s.accounts))
	}
	s.local.SaveCloudSync(s.cloud.clone())

	s.scheduleAutoPushLocked()
}

func (s *Service) findAccountLocked(id string) int {
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

// AddDevice creates a device. Names are unique ignoring case.
func (s *Service) AddDevice(name string, isFOP bool) (device.Device, error) {
	name = strings.TrimSpace(name)
	if err := utils.ValidateRequiredString(name, "device name"); err != nil {
		return device.Device{}, err
	}

	s.mu.Lock()
	if device.NameTaken(s.devices, name) {
		s.mu.Unlock()
		return device.Device{}, apperrors.NewDuplicateNameError(name)
	}

	d := device.New(s.opts.NewID(device.IDPrefix), name, isFOP, s.nowMillis())
	s.devices = append(s.devices, d)
	s.commitLocked(true, false)
	s.mu.Unlock()

	s.logger.Info("Device added", zap.String("deviceId", d.ID), zap.Bool("fop", isFOP))
	s.notifier.Notify(LevelSuccess, fmt.Sprintf("Device %q added", name))
	return d, nil
}

// RemoveDevice deletes a device and every account linked to it. Removing an
// unknown device changes nothing.
func (s *Service) RemoveDevice(id string) {
	s.mu.Lock()
	devices := make([]device.Device, 0, len(s.devices))
	for _, d := range s.devices {
		if d.ID != id {
			devices = append(devices, d)
		}
	}
	accounts := make([]account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if a.DeviceID != id {
			accounts = append(accounts, a)
		}
	}

	removedAccounts := len(s.accounts) - len(accounts)
	devicesChanged := len(devices) != len(s.devices)
	accountsChanged := removedAccounts > 0
	if !devicesChanged && !accountsChanged {
		s.mu.Unlock()
		return
	}

	s.devices = devices
	s.accounts = accounts
	s.commitLocked(devicesChanged, accountsChanged)
	s.mu.Unlock()

	s.logger.Info("Device removed", zap.String("deviceId", id), zap.Int("accountsRemoved", removedAccounts))
	s.notifier.Notify(LevelSuccess, "Device removed")
}

// AddAccount links a new account for bank to a device. A device holds at
// most one account per bank.
func (s *Service) AddAccount(deviceID, bank string) (account.Account, error) {
	if !account.IsKnownBank(bank) {
		return account.Account{}, utils.ValidateOneOf(bank, account.Banks, "bank")
	}

	s.mu.Lock()
	d, ok := device.Find(s.devices, deviceID)
	if !ok {
		s.mu.Unlock()
		return account.Account{}, apperrors.NewNotFoundError("device " + deviceID + " not found")
	}
	if account.BankLinked(s.accounts, deviceID, bank) {
		s.mu.Unlock()
		return account.Account{}, apperrors.NewDuplicateBankError(deviceID, bank)
	}

	a := account.New(s.opts.NewID(account.IDPrefix), deviceID, bank, s.nowMillis())
	s.accounts = append(s.accounts, a)
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.logger.Info("Account added", zap.String("accountId", a.ID), zap.String("deviceId", deviceID), zap.String("bank", bank))
	s.notifier.Notify(LevelSuccess, "Account added to "+d.Name)
	return a, nil
}

// UpdateAccount applies patch. An unknown id or an empty patch changes nothing.
func (s *Service) UpdateAccount(id string, patch account.Patch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findAccountLocked(id)
	if i < 0 {
		return nil
	}
	patch.Apply(&s.accounts[i], s.nowMillis())
	s.commitLocked(false, true)
	return nil
}

func validatePatch(p account.Patch) error {
	checks := []struct {
		value *float64
		name  string
	}{
		{p.Balance, "balance"},
		{p.MonthlyReceived, "monthly received"},
		{p.MonthlyLimit, "monthly limit"},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := utils.ValidateFiniteAmount(*c.value, c.name); err != nil {
			return err
		}
	}
	return nil
}

// DeleteAccount removes an account. An unknown id changes nothing.
func (s *Service) DeleteAccount(id string) {
	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.accounts = append(s.accounts[:i:i], s.accounts[i+1:]...)
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, "Account deleted")
}

// AddOut records a withdrawal against an account
func (s *Service) AddOut(id string, amount float64, note string) (account.PartialOut, error) {
	if err := utils.ValidatePositiveAmount(amount, "amount"); err != nil {
		return account.PartialOut{}, err
	}

	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return account.PartialOut{}, apperrors.NewNotFoundError("account " + id + " not found")
	}

	now := s.nowMillis()
	out := account.PartialOut{Amount: amount, Timestamp: now, Note: strings.TrimSpace(note)}
	s.accounts[i].Outs = append(s.accounts[i].Outs, out)
	s.accounts[i].UpdatedAt = now
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, fmt.Sprintf("Added out: %s UAH", view.FormatMoney(decimal.NewFromFloat(amount))))
	return out, nil
}

// DeleteOut removes the out at index. An unknown id or an index out of
// range changes nothing.
func (s *Service) DeleteOut(id string, index int) {
	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 || index < 0 || index >= len(s.accounts[i].Outs) {
		s.mu.Unlock()
		return
	}

	outs := make([]account.PartialOut, 0, len(s.accounts[i].Outs)-1)
	outs = append(outs, s.accounts[i].Outs[:index]...)
	outs = append(outs, s.accounts[i].Outs[index+1:]...)
	s.accounts[i].Outs = outs
	s.accounts[i].UpdatedAt = s.nowMillis()
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, "Out deleted")
}

// ResetOuts empties the outs of an account
func (s *Service) ResetOuts(id string) {
	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.accounts[i].Outs = []account.PartialOut{}
	s.accounts[i].UpdatedAt = s.nowMillis()
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, "Outs reset")
}

// ResetSelected clears the chosen fields on every account. Monthly limits
// are never reset. Returns the number of accounts touched.
func (s *Service) ResetSelected(opts account.ResetOptions) int {
	labels := opts.Labels()
	if len(labels) == 0 {
		return 0
	}

	s.mu.Lock()
	if len(s.accounts) == 0 {
		s.mu.Unlock()
		return 0
	}
	now := s.nowMillis()
	for i := range s.accounts {
		opts.Reset(&s.accounts[i], now)
	}
	n := len(s.accounts)
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.logger.Info("Accounts reset", zap.Strings("fields", labels), zap.Int("accounts", n))
	s.notifier.Notify(LevelSuccess, "Reset: "+strings.Join(labels, ", "))
	return n
}

// ResetAll clears every resettable field on every account
func (s *Service) ResetAll() int {
	return s.ResetSelected(account.AllResetOptions())
}

// BlockAccount marks an account blocked. The remaining amount at the first
// block is captured and never changed afterwards.
func (s *Service) BlockAccount(id, reason string) error {
	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("account " + id + " not found")
	}

	a := &s.accounts[i]
	a.Blocked = true
	a.BlockedReason = strings.TrimSpace(reason)
	if a.BlockedAmount == nil {
		remaining := a.Remaining()
		a.BlockedAmount = &remaining
	}
	a.UpdatedAt = s.nowMillis()
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, "Account blocked")
	return nil
}

// UnblockAccount clears the block status. The captured blocked amount stays.
func (s *Service) UnblockAccount(id string) error {
	s.mu.Lock()
	i := s.findAccountLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return apperrors.NewNotFoundError("account " + id + " not found")
	}
	if !s.accounts[i].Blocked {
		s.mu.Unlock()
		return nil
	}

	s.accounts[i].Blocked = false
	s.accounts[i].BlockedReason = ""
	s.accounts[i].UpdatedAt = s.nowMillis()
	s.commitLocked(false, true)
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, "Account unblocked")
	return nil
}
