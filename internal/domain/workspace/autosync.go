package workspace

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// scheduleAutoPushLocked (re)arms the debounce timer when auto-sync is on
// and a change is pending. Any earlier timer is cancelled.
func (s *Service) scheduleAutoPushLocked() {
	s.stopTimerLocked()
	if s.closed || !s.cloud.AutoSyncEnabled || !s.cloud.SyncPending {
		return
	}

	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.opts.AfterFunc(s.opts.AutoPushDelay, func() {
		s.autoPushFired(seq)
	})
}

func (s *Service) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// autoPushFired runs when the debounce timer elapses. A fire superseded by a
// newer schedule is dropped.
func (s *Service) autoPushFired(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.timerSeq || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.busy {
		s.logger.Debug("Auto-push deferred, sync in flight")
		s.scheduleAutoPushLocked()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	ctx := context.Background()
	if err := s.PushToCloud(ctx); err != nil {
		if errors.Is(err, apperrors.ErrSyncInProgress) {
			s.mu.Lock()
			s.scheduleAutoPushLocked()
			s.mu.Unlock()
			return
		}
		s.logger.Warn("Auto-push failed", zap.Error(err))
	}
}

// SetAutoSync enables or disables debounced auto-push. Enabling while a
// change is pending schedules a push.
func (s *Service) SetAutoSync(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cloud.AutoSyncEnabled == enabled {
		return
	}
	s.cloud.AutoSyncEnabled = enabled
	s.local.SaveCloudSync(s.cloud.clone())
	s.scheduleAutoPushLocked()

	s.logger.Info("Auto-sync toggled", zap.Bool("enabled", enabled))
}

// FlushAutoPush runs a scheduled auto-push immediately. It reports whether a
// push was attempted.
func (s *Service) FlushAutoPush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.timer == nil || s.closed {
		s.mu.Unlock()
		return false, nil
	}
	s.stopTimerLocked()
	s.mu.Unlock()

	return true, s.PushToCloud(ctx)
}

// Close cancels any scheduled auto-push. Pending changes stay marked and are
// rescheduled on the next start.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}
