package account

import (
	"github.com/shopspring/decimal"
)

// IDPrefix prefixes every generated account id
const IDPrefix = "ACC_"

// DefaultMonthlyLimit applies to banks missing from BankLimits
const DefaultMonthlyLimit float64 = 80000

// Banks lists every bank an account can be opened with, in display order
var Banks = []string{
	"Monobank",
	"PUMB",
	"Alliance",
	"Izi",
	"Privat",
	"Agricole",
	"Freebank",
	"CA",
	"Sky",
}

// BankLimits holds the monthly ceiling assigned to a new account per bank
var BankLimits = map[string]float64{
	"PUMB":     80000,
	"Monobank": 80000,
	"Alliance": 30000,
	"Izi":      60000,
	"Agricole": 80000,
	"Privat":   80000,
	"Freebank": 80000,
	"CA":       80000,
	"Sky":      80000,
}

// PartialOut is a single recorded withdrawal against an account balance
type PartialOut struct {
	Amount    float64 `json:"amount" dynamodbav:"amount"`
	Timestamp int64   `json:"timestamp" dynamodbav:"timestamp"` // epoch millis
	Note      string  `json:"note,omitempty" dynamodbav:"note,omitempty"`
}

// Account represents a bank account linked to exactly one device
type Account struct {
	ID              string       `json:"id" dynamodbav:"id"`
	DeviceID        string       `json:"deviceId" dynamodbav:"deviceId"`
	Bank            string       `json:"bank" dynamodbav:"bank"`
	Balance         float64      `json:"balance" dynamodbav:"balance"`
	PreviousBalance *float64     `json:"previousBalance,omitempty" dynamodbav:"previousBalance,omitempty"`
	Notes           string       `json:"notes" dynamodbav:"notes"`
	Active          bool         `json:"active" dynamodbav:"active"`
	Blocked         bool         `json:"blocked,omitempty" dynamodbav:"blocked,omitempty"`
	BlockedAmount   *float64     `json:"blockedAmount,omitempty" dynamodbav:"blockedAmount,omitempty"` // captured once, never changed
	BlockedReason   string       `json:"blockedReason,omitempty" dynamodbav:"blockedReason,omitempty"`
	DropName        string       `json:"dropName,omitempty" dynamodbav:"dropName,omitempty"`
	Outs            []PartialOut `json:"outs" dynamodbav:"outs"`
	MonthlyReceived float64      `json:"monthlyReceived" dynamodbav:"monthlyReceived"`
	MonthlyLimit    float64      `json:"monthlyLimit" dynamodbav:"monthlyLimit"`
	CreatedAt       int64        `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt       int64        `json:"updatedAt" dynamodbav:"updatedAt"`
}

// New builds a zeroed, inactive account with the bank's monthly limit
func New(id, deviceID, bank string, now int64) Account {
	return Account{
		ID:           id,
		DeviceID:     deviceID,
		Bank:         bank,
		Outs:         []PartialOut{},
		MonthlyLimit: LimitForBank(bank),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// LimitForBank returns the monthly limit for bank, DefaultMonthlyLimit if unlisted
func LimitForBank(bank string) float64 {
	if limit, ok := BankLimits[bank]; ok {
		return limit
	}
	return DefaultMonthlyLimit
}

// IsKnownBank reports whether bank is one of Banks
func IsKnownBank(bank string) bool {
	for _, b := range Banks {
		if b == bank {
			return true
		}
	}
	return false
}

// BankLinked reports whether an account already links bank to deviceID
func BankLinked(accounts []Account, deviceID, bank string) bool {
	for _, a := range accounts {
		if a.DeviceID == deviceID && a.Bank == bank {
			return true
		}
	}
	return false
}

// SentDecimal is the sum of all outs
func (a Account) SentDecimal() decimal.Decimal {
	sent := decimal.Zero
	for _, out := range a.Outs {
		sent = sent.Add(decimal.NewFromFloat(out.Amount))
	}
	return sent
}

// RemainingDecimal is balance minus sent
func (a Account) RemainingDecimal() decimal.Decimal {
	return decimal.NewFromFloat(a.Balance).Sub(a.SentDecimal())
}

// Sent is the sum of all outs
func (a Account) Sent() float64 {
	return a.SentDecimal().InexactFloat64()
}

// Remaining is balance minus sent
func (a Account) Remaining() float64 {
	return a.RemainingDecimal().InexactFloat64()
}

// MonthlyOK reports whether the monthly received amount is within the limit
func (a Account) MonthlyOK() bool {
	return a.MonthlyReceived <= a.MonthlyLimit
}

// Patch carries the user-editable fields of an account. Nil fields are left untouched.
type Patch struct {
	Balance         *float64
	Notes           *string
	Active          *bool
	MonthlyReceived *float64
	MonthlyLimit    *float64
	DropName        *string
}

// IsEmpty reports whether the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.Balance == nil && p.Notes == nil && p.Active == nil &&
		p.MonthlyReceived == nil && p.MonthlyLimit == nil && p.DropName == nil
}

// Apply merges the patch into a and stamps updatedAt
func (p Patch) Apply(a *Account, now int64) {
	if p.Balance != nil && *p.Balance != a.Balance {
		prev := a.Balance
		a.PreviousBalance = &prev
		a.Balance = *p.Balance
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Active != nil {
		a.Active = *p.Active
	}
	if p.MonthlyReceived != nil {
		a.MonthlyReceived = *p.MonthlyReceived
	}
	if p.MonthlyLimit != nil {
		a.MonthlyLimit = *p.MonthlyLimit
	}
	if p.DropName != nil {
		a.DropName = *p.DropName
	}
	a.UpdatedAt = now
}

// ResetOptions selects which fields a bulk reset clears
type ResetOptions struct {
	Balance         bool `json:"balance"`
	Active          bool `json:"active"`
	Outs            bool `json:"outs"`
	Notes           bool `json:"notes"`
	MonthlyReceived bool `json:"monthlyReceived"`
}

// AllResetOptions selects every resettable field
func AllResetOptions() ResetOptions {
	return ResetOptions{
		Balance:         true,
		Active:          true,
		Outs:            true,
		Notes:           true,
		MonthlyReceived: true,
	}
}

// Labels names the selected fields, in display order
func (o ResetOptions) Labels() []string {
	var labels []string
	if o.Balance {
		labels = append(labels, "balances")
	}
	if o.Active {
		labels = append(labels, "active states")
	}
	if o.Outs {
		labels = append(labels, "outs")
	}
	if o.Notes {
		labels = append(labels, "notes")
	}
	if o.MonthlyReceived {
		labels = append(labels, "monthly received")
	}
	return labels
}

// Reset clears the selected fields of a. MonthlyLimit is never touched.
func (o ResetOptions) Reset(a *Account, now int64) {
	if o.Balance {
		a.Balance = 0
	}
	if o.Active {
		a.Active = false
	}
	if o.Outs {
		a.Outs = []PartialOut{}
	}
	if o.Notes {
		a.Notes = ""
	}
	if o.MonthlyReceived {
		a.MonthlyReceived = 0
	}
	a.UpdatedAt = now
}

// Clone returns a deep copy of accounts
func Clone(accounts []Account) []Account {
	out := make([]Account, len(accounts))
	for i, a := range accounts {
		out[i] = a.clone()
	}
	return out
}

func (a Account) clone() Account {
	outs := make([]PartialOut, len(a.Outs))
	copy(outs, a.Outs)
	a.Outs = outs
	if a.PreviousBalance != nil {
		v := *a.PreviousBalance
		a.PreviousBalance = &v
	}
	if a.BlockedAmount != nil {
		v := *a.BlockedAmount
		a.BlockedAmount = &v
	}
	return a
}

// Normalize replaces nil outs with an empty sequence so every encoding
// round-trips to the same value
func Normalize(accounts []Account) {
	for i := range accounts {
		if accounts[i].Outs == nil {
			accounts[i].Outs = []PartialOut{}
		}
	}
}
