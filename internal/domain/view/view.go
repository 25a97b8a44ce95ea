// Package view computes the filtered, sorted account list and the dashboard
// totals from canonical state. Everything here is pure.
package view

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
)

// DefaultLanguage drives name collation when no language is configured
var DefaultLanguage = language.Ukrainian

// Row is one account as shown in the list
type Row struct {
	Account    account.Account
	DeviceName string // "" when the owning device is unknown
	Sent       decimal.Decimal
	Remaining  decimal.Decimal
	MonthlyOK  bool
}

// Totals aggregates the whole, unfiltered account set
type Totals struct {
	TotalBalance   decimal.Decimal
	TotalSent      decimal.Decimal
	TotalRemaining decimal.Decimal
	ActiveCount    int
	TotalCount     int
}

// View is the result of Compute
type View struct {
	Rows   []Row
	Totals Totals
}

// Options tunes Compute
type Options struct {
	Language language.Tag
}

// Compute filters and sorts accounts and aggregates totals over all of them
func Compute(devices []device.Device, accounts []account.Account, filter account.Filter) View {
	return ComputeWithOptions(devices, accounts, filter, Options{Language: DefaultLanguage})
}

// ComputeWithOptions is Compute with an explicit collation language
func ComputeWithOptions(devices []device.Device, accounts []account.Account, filter account.Filter, opts Options) View {
	names := device.NameIndex(devices)

	rows := make([]Row, 0, len(accounts))
	for _, a := range accounts {
		name := names[a.DeviceID]
		if !filter.Matches(a, name) {
			continue
		}
		sent := a.SentDecimal()
		rows = append(rows, Row{
			Account:    a,
			DeviceName: name,
			Sent:       sent,
			Remaining:  decimal.NewFromFloat(a.Balance).Sub(sent),
			MonthlyOK:  a.MonthlyOK(),
		})
	}

	sortRows(rows, opts.Language)

	return View{
		Rows:   rows,
		Totals: Aggregate(accounts),
	}
}

// sortRows orders by device name, then bank, using locale-aware collation
func sortRows(rows []Row, lang language.Tag) {
	// collate.Collator keeps internal buffers and is not safe for concurrent use
	c := collate.New(lang)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DeviceName != rows[j].DeviceName {
			return c.CompareString(rows[i].DeviceName, rows[j].DeviceName) < 0
		}
		return c.CompareString(rows[i].Account.Bank, rows[j].Account.Bank) < 0
	})
}

// Aggregate computes the dashboard totals over accounts
func Aggregate(accounts []account.Account) Totals {
	totals := Totals{
		TotalBalance: decimal.Zero,
		TotalSent:    decimal.Zero,
		TotalCount:   len(accounts),
	}
	for _, a := range accounts {
		totals.TotalBalance = totals.TotalBalance.Add(decimal.NewFromFloat(a.Balance))
		totals.TotalSent = totals.TotalSent.Add(a.SentDecimal())
		if a.Active {
			totals.ActiveCount++
		}
	}
	totals.TotalRemaining = totals.TotalBalance.Sub(totals.TotalSent)
	return totals
}

// IDs returns the account ids of rows, in order
func (v View) IDs() []string {
	ids := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		ids[i] = r.Account.ID
	}
	return ids
}
