package account

import (
	"strings"
)

// Filter represents the transient filtering criteria for the account list
type Filter struct {
	SearchTerm string   `json:"searchTerm,omitempty"`
	Bank       string   `json:"bank,omitempty"`
	DeviceIDs  []string `json:"deviceIds,omitempty"` // empty means every device
	ActiveOnly bool     `json:"activeOnly,omitempty"`
}

// Matches reports whether a passes every criterion. deviceName is the
// display name of the owning device, "" when the device is unknown.
func (f Filter) Matches(a Account, deviceName string) bool {
	if f.SearchTerm != "" {
		term := strings.ToLower(f.SearchTerm)
		if !strings.Contains(strings.ToLower(deviceName), term) &&
			!strings.Contains(strings.ToLower(a.Bank), term) {
			return false
		}
	}
	if f.Bank != "" && a.Bank != f.Bank {
		return false
	}
	if len(f.DeviceIDs) > 0 && !f.HasDevice(a.DeviceID) {
		return false
	}
	if f.ActiveOnly && !a.Active {
		return false
	}
	return true
}

// HasDevice reports whether deviceID is in the device filter set
func (f Filter) HasDevice(deviceID string) bool {
	for _, id := range f.DeviceIDs {
		if id == deviceID {
			return true
		}
	}
	return false
}

// ToggleDevice adds deviceID to the device filter set, or removes it if present
func (f Filter) ToggleDevice(deviceID string) Filter {
	ids := make([]string, 0, len(f.DeviceIDs)+1)
	found := false
	for _, id := range f.DeviceIDs {
		if id == deviceID {
			found = true
			continue
		}
		ids = append(ids, id)
	}
	if !found {
		ids = append(ids, deviceID)
	}
	f.DeviceIDs = ids
	return f
}

// IsZero reports whether the filter lets every account through
func (f Filter) IsZero() bool {
	return f.SearchTerm == "" && f.Bank == "" && len(f.DeviceIDs) == 0 && !f.ActiveOnly
}
