package workspace

import (
	"io"

	"go.uber.org/zap"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/transfer"
)

// ImportSnapshot replaces devices and/or accounts with a JSON backup. A slice
// absent from the document is kept. Undecodable input changes nothing.
func (s *Service) ImportSnapshot(r io.Reader) error {
	doc, err := transfer.DecodeJSON(r, s.nowMillis())
	if err != nil {
		s.logger.Warn("Import rejected", zap.Error(err))
		s.notifier.Notify(LevelError, "Invalid JSON file")
		return err
	}

	s.mu.Lock()
	if doc.HasDevices {
		s.devices = device.Clone(doc.Devices)
	}
	if doc.HasAccts {
		s.accounts = account.Clone(doc.Accounts)
		account.Normalize(s.accounts)
	}
	s.commitLocked(doc.HasDevices, doc.HasAccts)
	devices, accounts := len(s.devices), len(s.accounts)
	s.mu.Unlock()

	s.logger.Info("Snapshot imported",
		zap.Bool("devices", doc.HasDevices),
		zap.Bool("accounts", doc.HasAccts),
		zap.Int("deviceCount", devices),
		zap.Int("accountCount", accounts))
	s.notifier.Notify(LevelSuccess, "JSON imported successfully")
	return nil
}

// ExportJSON writes a full backup of the current state
func (s *Service) ExportJSON(w io.Writer) error {
	s.mu.Lock()
	snap := transfer.Snapshot{
		Devices:    device.Clone(s.devices),
		Accounts:   account.Clone(s.accounts),
		ExportedAt: s.nowMillis(),
	}
	s.mu.Unlock()

	if err := transfer.EncodeJSON(w, snap); err != nil {
		return err
	}
	s.notifier.Notify(LevelSuccess, "JSON exported")
	return nil
}

// ExportCSV writes the filtered, sorted account list
func (s *Service) ExportCSV(w io.Writer, filter account.Filter) error {
	v := s.View(filter)
	accounts := make([]account.Account, len(v.Rows))
	for i, row := range v.Rows {
		accounts[i] = row.Account
	}

	if err := transfer.EncodeCSV(w, s.Devices(), accounts); err != nil {
		return err
	}
	s.notifier.Notify(LevelSuccess, "CSV exported")
	return nil
}
