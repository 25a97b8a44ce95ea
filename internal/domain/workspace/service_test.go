package workspace

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

func TestAddDevice(t *testing.T) {
	h := newHarness(t, nil, Options{})

	d, err := h.svc.AddDevice("  Alpha ", true)
	require.NoError(t, err)
	assert.Equal(t, "DEV_1", d.ID)
	assert.Equal(t, "Alpha", d.Name)
	assert.True(t, d.IsFOP())
	assert.Equal(t, testNow.UnixMilli(), d.CreatedAt)

	assert.Len(t, h.state.devices, 1)
	assert.True(t, h.svc.CloudSync().SyncPending)
	assert.Equal(t, notice{LevelSuccess, `Device "Alpha" added`}, h.notes.last())
}

func TestAddDevice_DuplicateNameIgnoresCase(t *testing.T) {
	h := newHarness(t, nil, Options{})
	_, err := h.svc.AddDevice("Alpha", false)
	require.NoError(t, err)

	before := h.svc.Devices()
	_, err = h.svc.AddDevice("alpha", false)

	assert.True(t, errors.Is(err, apperrors.ErrDuplicateName))
	assert.Equal(t, before, h.svc.Devices())
}

func TestAddDevice_EmptyName(t *testing.T) {
	h := newHarness(t, nil, Options{})
	_, err := h.svc.AddDevice("   ", false)

	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, h.svc.Devices())
	assert.False(t, h.svc.CloudSync().SyncPending)
}

func TestAddAccount(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, err := h.svc.AddDevice("Alpha", false)
	require.NoError(t, err)

	a, err := h.svc.AddAccount(d.ID, "Alliance")
	require.NoError(t, err)
	assert.Equal(t, 30000.0, a.MonthlyLimit)
	assert.Equal(t, []account.PartialOut{}, a.Outs)
	assert.Equal(t, "Account added to Alpha", h.notes.last().Message)

	t.Run("duplicate bank", func(t *testing.T) {
		_, err := h.svc.AddAccount(d.ID, "Alliance")
		assert.True(t, errors.Is(err, apperrors.ErrDuplicateBankForDevice))
		assert.Len(t, h.svc.Accounts(), 1)
	})

	t.Run("unknown device", func(t *testing.T) {
		_, err := h.svc.AddAccount("DEV_missing", "PUMB")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("unknown bank", func(t *testing.T) {
		_, err := h.svc.AddAccount(d.ID, "Chase")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		assert.Len(t, h.svc.Accounts(), 1)
	})
}

func TestRemoveDevice_CascadesOnlyItsAccounts(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d1, _ := h.svc.AddDevice("Alpha", false)
	d2, _ := h.svc.AddDevice("Beta", false)
	_, _ = h.svc.AddAccount(d1.ID, "Monobank")
	_, _ = h.svc.AddAccount(d1.ID, "PUMB")
	keep, _ := h.svc.AddAccount(d2.ID, "Monobank")

	h.svc.RemoveDevice(d1.ID)

	assert.Equal(t, []device.Device{d2}, h.svc.Devices())
	accounts := h.svc.Accounts()
	require.Len(t, accounts, 1)
	assert.Equal(t, keep.ID, accounts[0].ID)
	assert.Equal(t, "Device removed", h.notes.last().Message)
}

func TestRemoveDevice_UnknownIsNoop(t *testing.T) {
	h := newHarness(t, nil, Options{})
	h.svc.RemoveDevice("DEV_nope")

	assert.Equal(t, 0, h.state.saveCount())
	assert.False(t, h.svc.CloudSync().SyncPending)
}

func TestUpdateAccount(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Monobank")

	h.advance(time.Millisecond)
	require.NoError(t, h.svc.UpdateAccount(a.ID, account.Patch{
		Balance: ptr(1500.0),
		Active:  ptr(true),
		Notes:   ptr("main"),
	}))

	got := h.svc.Accounts()[0]
	assert.Equal(t, 1500.0, got.Balance)
	require.NotNil(t, got.PreviousBalance)
	assert.Equal(t, 0.0, *got.PreviousBalance)
	assert.True(t, got.Active)
	assert.Equal(t, "main", got.Notes)
	assert.Equal(t, testNow.UnixMilli()+1, got.UpdatedAt)

	t.Run("unknown account is a no-op", func(t *testing.T) {
		saves := h.state.saveCount()
		assert.NoError(t, h.svc.UpdateAccount("ACC_missing", account.Patch{Notes: ptr("x")}))
		assert.Equal(t, saves, h.state.saveCount())
	})

	t.Run("non-finite balance rejected", func(t *testing.T) {
		err := h.svc.UpdateAccount(a.ID, account.Patch{Balance: ptr(math.Inf(1))})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		assert.Equal(t, 1500.0, h.svc.Accounts()[0].Balance)
	})
}

func TestOuts_RemainingTracksBalance(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Monobank")
	require.NoError(t, h.svc.UpdateAccount(a.ID, account.Patch{Balance: ptr(1000.0)}))

	_, err := h.svc.AddOut(a.ID, 300, " rent ")
	require.NoError(t, err)
	assert.Equal(t, "Added out: 300.00 UAH", h.notes.last().Message)
	_, err = h.svc.AddOut(a.ID, 200.5, "")
	require.NoError(t, err)

	got := h.svc.Accounts()[0]
	assert.Equal(t, "rent", got.Outs[0].Note)
	assert.Equal(t, 499.5, got.Remaining())

	h.svc.DeleteOut(a.ID, 0)
	got = h.svc.Accounts()[0]
	require.Len(t, got.Outs, 1)
	assert.Equal(t, 200.5, got.Outs[0].Amount)
	assert.Equal(t, 799.5, got.Remaining())

	saves := h.state.saveCount()
	h.svc.DeleteOut(a.ID, 5)
	h.svc.DeleteOut(a.ID, -1)
	assert.Equal(t, saves, h.state.saveCount())

	h.svc.ResetOuts(a.ID)
	assert.Equal(t, 1000.0, h.svc.Accounts()[0].Remaining())
	assert.Equal(t, "Outs reset", h.notes.last().Message)
}

func TestAddOut_Errors(t *testing.T) {
	h := newHarness(t, nil, Options{})

	_, err := h.svc.AddOut("ACC_missing", 10, "")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = h.svc.AddOut("ACC_missing", 0, "")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Monobank")

	h.svc.DeleteAccount(a.ID)
	assert.Empty(t, h.svc.Accounts())
	assert.Equal(t, "Account deleted", h.notes.last().Message)
}

func TestResetSelected(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Izi")
	require.NoError(t, h.svc.UpdateAccount(a.ID, account.Patch{
		Balance:         ptr(900.0),
		Active:          ptr(true),
		Notes:           ptr("keep"),
		MonthlyReceived: ptr(12000.0),
		MonthlyLimit:    ptr(99000.0),
	}))
	_, _ = h.svc.AddOut(a.ID, 100, "")

	n := h.svc.ResetSelected(account.ResetOptions{Balance: true, Outs: true})
	assert.Equal(t, 1, n)

	got := h.svc.Accounts()[0]
	assert.Equal(t, 0.0, got.Balance)
	assert.Empty(t, got.Outs)
	assert.True(t, got.Active)
	assert.Equal(t, "keep", got.Notes)
	assert.Equal(t, 12000.0, got.MonthlyReceived)
	assert.Equal(t, 99000.0, got.MonthlyLimit)
	assert.Equal(t, "Reset: balances, outs", h.notes.last().Message)

	assert.Equal(t, 0, h.svc.ResetSelected(account.ResetOptions{}))

	h.svc.ResetAll()
	got = h.svc.Accounts()[0]
	assert.False(t, got.Active)
	assert.Empty(t, got.Notes)
	assert.Equal(t, 0.0, got.MonthlyReceived)
	assert.Equal(t, 99000.0, got.MonthlyLimit)
}

func TestBlockAccount_CapturesAmountOnce(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Monobank")
	require.NoError(t, h.svc.UpdateAccount(a.ID, account.Patch{Balance: ptr(1000.0)}))
	_, _ = h.svc.AddOut(a.ID, 250, "")

	require.NoError(t, h.svc.BlockAccount(a.ID, " frozen "))
	got := h.svc.Accounts()[0]
	assert.True(t, got.Blocked)
	assert.Equal(t, "frozen", got.BlockedReason)
	require.NotNil(t, got.BlockedAmount)
	assert.Equal(t, 750.0, *got.BlockedAmount)

	require.NoError(t, h.svc.UnblockAccount(a.ID))
	require.NoError(t, h.svc.UpdateAccount(a.ID, account.Patch{Balance: ptr(5000.0)}))
	require.NoError(t, h.svc.BlockAccount(a.ID, "again"))

	got = h.svc.Accounts()[0]
	assert.Equal(t, 750.0, *got.BlockedAmount)
	assert.Equal(t, "Account blocked", h.notes.last().Message)

	err := h.svc.BlockAccount("ACC_missing", "")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUnblockAccount(t *testing.T) {
	h := newHarness(t, nil, Options{})
	d, _ := h.svc.AddDevice("Alpha", false)
	a, _ := h.svc.AddAccount(d.ID, "Monobank")

	saves := h.state.saveCount()
	require.NoError(t, h.svc.UnblockAccount(a.ID))
	assert.Equal(t, saves, h.state.saveCount())

	require.NoError(t, h.svc.BlockAccount(a.ID, "x"))
	require.NoError(t, h.svc.UnblockAccount(a.ID))
	got := h.svc.Accounts()[0]
	assert.False(t, got.Blocked)
	assert.Empty(t, got.BlockedReason)
	assert.NotNil(t, got.BlockedAmount)
	assert.Equal(t, "Account unblocked", h.notes.last().Message)
}

func TestNewService_LoadsAndNormalizesState(t *testing.T) {
	state := &memState{
		devices:  []device.Device{{ID: "DEV_1", Name: "Alpha"}},
		accounts: []account.Account{{ID: "ACC_1", DeviceID: "DEV_1", Bank: "PUMB"}},
	}
	h := newHarness(t, state, Options{})

	accounts := h.svc.Accounts()
	require.Len(t, accounts, 1)
	assert.NotNil(t, accounts[0].Outs)
	assert.Len(t, h.svc.Devices(), 1)
}

func TestView(t *testing.T) {
	h := newHarness(t, nil, Options{})
	alpha, _ := h.svc.AddDevice("Alpha", false)
	beta, _ := h.svc.AddDevice("Beta", false)
	a, _ := h.svc.AddAccount(beta.ID, "PUMB")
	b, _ := h.svc.AddAccount(alpha.ID, "Monobank")
	require.NoError(t, h.svc.UpdateAccount(b.ID, account.Patch{Active: ptr(true), Balance: ptr(100.0)}))

	v := h.svc.View(account.Filter{})
	assert.Equal(t, []string{b.ID, a.ID}, v.IDs())
	assert.Equal(t, 1, v.Totals.ActiveCount)
	assert.Equal(t, 2, v.Totals.TotalCount)

	v = h.svc.View(account.Filter{ActiveOnly: true})
	assert.Equal(t, []string{b.ID}, v.IDs())
	assert.Equal(t, 2, v.Totals.TotalCount)
}
