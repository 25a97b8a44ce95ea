package device

import (
	"strings"
)

// FOPMonthlyLimit is the monthly ceiling carried by FOP-class devices
const FOPMonthlyLimit float64 = 500000

// IDPrefix prefixes every generated device id
const IDPrefix = "DEV_"

// Device represents a physical phone or agent that accounts are linked to
type Device struct {
	ID           string   `json:"id" dynamodbav:"id"`
	Name         string   `json:"name" dynamodbav:"name"`
	MonthlyLimit *float64 `json:"monthlyLimit,omitempty" dynamodbav:"monthlyLimit,omitempty"` // set only for FOP devices
	CreatedAt    int64    `json:"createdAt" dynamodbav:"createdAt"`                           // epoch millis
}

// New builds a device. isFOP attaches the FOP monthly limit.
func New(id, name string, isFOP bool, createdAt int64) Device {
	d := Device{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
	}
	if isFOP {
		limit := FOPMonthlyLimit
		d.MonthlyLimit = &limit
	}
	return d
}

// IsFOP reports whether the device belongs to the high-limit class
func (d Device) IsFOP() bool {
	return d.MonthlyLimit != nil
}

// NameTaken reports whether any device already uses name, ignoring case
func NameTaken(devices []Device, name string) bool {
	for _, d := range devices {
		if strings.EqualFold(d.Name, name) {
			return true
		}
	}
	return false
}

// Find returns the device with the given id
func Find(devices []Device, id string) (Device, bool) {
	for _, d := range devices {
		if d.ID == id {
			return d, true
		}
	}
	return Device{}, false
}

// NameIndex maps device ids to display names
func NameIndex(devices []Device) map[string]string {
	names := make(map[string]string, len(devices))
	for _, d := range devices {
		names[d.ID] = d.Name
	}
	return names
}

// Clone returns a deep copy of devices
func Clone(devices []Device) []Device {
	out := make([]Device, len(devices))
	for i, d := range devices {
		if d.MonthlyLimit != nil {
			limit := *d.MonthlyLimit
			d.MonthlyLimit = &limit
		}
		out[i] = d
	}
	return out
}
