package workspace

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// PullResult summarizes a pull
type PullResult struct {
	Devices  int
	Accounts int
	// Ignored is set when the remote was empty and local state was kept
	Ignored bool
}

// beginSync claims the busy flag
func (s *Service) beginSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return apperrors.NewSyncInProgressError()
	}
	if s.remote == nil {
		return apperrors.NewUnauthenticatedError("cloud sync is not configured")
	}
	s.busy = true
	return nil
}

func (s *Service) endSyncLocked() {
	s.busy = false
}

func (s *Service) syncContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.SyncTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.SyncTimeout)
	}
	return context.WithCancel(ctx)
}

// PushToCloud replaces the remote contents with the current state. Changes
// made while the push is in flight stay pending.
func (s *Service) PushToCloud(ctx context.Context) error {
	if err := s.beginSync(); err != nil {
		return err
	}
	opID := uuid.NewString()
	logger := s.logger.With(zap.String("op", "push"), zap.String("opId", opID))

	s.mu.Lock()
	snap := Snapshot{
		Devices:  device.Clone(s.devices),
		Accounts: account.Clone(s.accounts),
	}
	generation := s.generation
	s.stopTimerLocked()
	s.mu.Unlock()

	logger.Info("Push started", zap.Int("devices", len(snap.Devices)), zap.Int("accounts", len(snap.Accounts)))

	ctx, cancel := s.syncContext(ctx)
	err := s.remote.PushSnapshot(ctx, snap)
	cancel()

	s.mu.Lock()
	s.endSyncLocked()
	if err != nil {
		s.mu.Unlock()
		logger.Error("Push failed", zap.Error(err))
		s.notifier.Notify(LevelError, "Push failed: "+err.Error())
		return err
	}

	now := s.nowMillis()
	s.cloud.LastPush = &now
	if s.generation == generation {
		s.cloud.SyncPending = false
	} else {
		s.scheduleAutoPushLocked()
	}
	stillPending := s.cloud.SyncPending
	s.local.SaveCloudSync(s.cloud.clone())
	s.mu.Unlock()

	logger.Info("Push completed", zap.Bool("stillPending", stillPending))
	s.notifier.Notify(LevelSuccess, "Pushed to cloud successfully")
	return nil
}

// PullFromCloud replaces local devices and accounts with the remote ones.
// An empty remote follows the configured EmptyPullPolicy.
func (s *Service) PullFromCloud(ctx context.Context) (PullResult, error) {
	if err := s.beginSync(); err != nil {
		return PullResult{}, err
	}
	opID := uuid.NewString()
	logger := s.logger.With(zap.String("op", "pull"), zap.String("opId", opID))
	logger.Info("Pull started")

	pctx, cancel := s.syncContext(ctx)
	snap, err := s.remote.PullSnapshot(pctx)
	cancel()

	s.mu.Lock()
	s.endSyncLocked()
	if err != nil {
		s.mu.Unlock()
		logger.Error("Pull failed", zap.Error(err))
		s.notifier.Notify(LevelError, "Pull failed: "+err.Error())
		return PullResult{}, err
	}

	if snap.IsEmpty() && s.opts.EmptyPullPolicy == EmptyPullIgnore {
		s.mu.Unlock()
		logger.Info("Remote is empty, local state kept")
		s.notifier.Notify(LevelInfo, "No data found in cloud")
		return PullResult{Ignored: true}, nil
	}

	devices := device.Clone(snap.Devices)
	accounts := account.Clone(snap.Accounts)
	account.Normalize(accounts)

	s.devices = devices
	s.accounts = accounts
	s.generation++
	now := s.nowMillis()
	s.cloud.LastPull = &now
	s.cloud.SyncPending = false
	s.stopTimerLocked()

	s.local.SaveDevices(device.Clone(s.devices))
	s.local.SaveAccounts(account.Clone(s.accounts))
	s.local.SaveCloudSync(s.cloud.clone())
	result := PullResult{Devices: len(devices), Accounts: len(accounts)}
	s.mu.Unlock()

	logger.Info("Pull completed", zap.Int("devices", result.Devices), zap.Int("accounts", result.Accounts))
	s.notifier.Notify(LevelSuccess, fmt.Sprintf("Pulled %d devices and %d accounts", result.Devices, result.Accounts))
	return result, nil
}
