// Package transfer encodes and decodes the external JSON backup document and
// the CSV projection of the account list.
package transfer

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

// Snapshot is the full-fidelity backup document
type Snapshot struct {
	Devices    []device.Device   `json:"devices"`
	Accounts   []account.Account `json:"accounts"`
	ExportedAt int64             `json:"exportedAt"`
}

// Import is a decoded backup. A nil slice means the key was absent from the
// document and the corresponding canonical slice must be kept.
type Import struct {
	Devices    []device.Device
	Accounts   []account.Account
	HasDevices bool
	HasAccts   bool
	ExportedAt int64
}

// EncodeJSON writes the snapshot as two-space indented JSON
func EncodeJSON(w io.Writer, snap Snapshot) error {
	if snap.Devices == nil {
		snap.Devices = []device.Device{}
	}
	if snap.Accounts == nil {
		snap.Accounts = []account.Account{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

type importDocument struct {
	Devices    *[]device.Device   `json:"devices"`
	Accounts   *[]json.RawMessage `json:"accounts"`
	ExportedAt int64              `json:"exportedAt"`
}

// legacyProbe detects the pre-outs account shape that stored a single "sent" total
type legacyProbe struct {
	Sent json.RawMessage `json:"sent"`
	Outs json.RawMessage `json:"outs"`
}

// DecodeJSON parses a backup document, rewriting legacy accounts. now is the
// epoch-millis fallback timestamp for synthesized outs.
func DecodeJSON(r io.Reader, now int64) (Import, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Import{}, apperrors.NewInvalidFormatError("failed to read import document", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || bytes.TrimSpace(data)[0] != '{' {
		return Import{}, apperrors.NewInvalidFormatError("import document must be a JSON object", nil)
	}

	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Import{}, apperrors.NewInvalidFormatError("invalid JSON file", err)
	}

	imp := Import{ExportedAt: doc.ExportedAt}
	if doc.Devices != nil {
		imp.HasDevices = true
		imp.Devices = *doc.Devices
		if imp.Devices == nil {
			imp.Devices = []device.Device{}
		}
	}
	if doc.Accounts != nil {
		imp.HasAccts = true
		imp.Accounts = make([]account.Account, 0, len(*doc.Accounts))
		for i, raw := range *doc.Accounts {
			acc, err := decodeAccount(raw, now)
			if err != nil {
				return Import{}, apperrors.NewInvalidFormatError("invalid account record", err).
					WithDetail("index", i)
			}
			imp.Accounts = append(imp.Accounts, acc)
		}
	}
	return imp, nil
}

func decodeAccount(raw json.RawMessage, now int64) (account.Account, error) {
	var acc account.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return account.Account{}, err
	}
	var probe legacyProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return account.Account{}, err
	}

	if sent, ok := legacySent(probe); ok {
		acc.Outs = []account.PartialOut{}
		if sent > 0 {
			ts := acc.UpdatedAt
			if ts == 0 {
				ts = now
			}
			acc.Outs = append(acc.Outs, account.PartialOut{Amount: sent, Timestamp: ts})
		}
	}
	if acc.Outs == nil {
		acc.Outs = []account.PartialOut{}
	}
	return acc, nil
}

// legacySent returns the legacy sent total when the record has a numeric
// "sent" and no "outs" sequence
func legacySent(probe legacyProbe) (float64, bool) {
	if len(probe.Outs) > 0 && string(probe.Outs) != "null" {
		return 0, false
	}
	if len(probe.Sent) == 0 {
		return 0, false
	}
	sent, err := strconv.ParseFloat(string(bytes.TrimSpace(probe.Sent)), 64)
	if err != nil {
		return 0, false
	}
	return sent, true
}
