package transfer

import (
	"encoding/csv"
	"io"

	"github.com/shopspring/decimal"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
)

// CSVHeader is the first row of every CSV export
var CSVHeader = []string{
	"Device", "Bank", "Balance", "Sent", "Remaining",
	"Active", "Monthly Received", "Monthly Limit", "Notes",
}

// EncodeCSV writes one row per account in the given order. The device column
// falls back to the raw device id when the device is unknown.
func EncodeCSV(w io.Writer, devices []device.Device, accounts []account.Account) error {
	names := device.NameIndex(devices)

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, a := range accounts {
		name, ok := names[a.DeviceID]
		if !ok {
			name = a.DeviceID
		}
		active := "No"
		if a.Active {
			active = "Yes"
		}
		record := []string{
			name,
			a.Bank,
			money(decimal.NewFromFloat(a.Balance)),
			money(a.SentDecimal()),
			money(a.RemainingDecimal()),
			active,
			money(decimal.NewFromFloat(a.MonthlyReceived)),
			money(decimal.NewFromFloat(a.MonthlyLimit)),
			a.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
