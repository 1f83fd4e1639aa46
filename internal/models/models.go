package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShiftStatus is the lifecycle state of a cash shift
type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "open"
	ShiftClosed ShiftStatus = "closed"
)

// PaymentMethod identifies how a sale was paid
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
)

// Valid reports whether m is one of the known payment methods
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentCredit:
		return true
	}
	return false
}

// User represents a cashier account
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// CashShift is one cash-drawer session on a terminal, from opening float to
// closing count.
type CashShift struct {
	ID                string              `db:"id" json:"id"`
	TerminalID        string              `db:"terminal_id" json:"terminalId"`
	UserID            string              `db:"user_id" json:"userId"`
	UserName          string              `db:"user_name" json:"userName"`
	StartingCash      decimal.Decimal     `db:"starting_cash" json:"startingCash"`
	TotalCashSales    decimal.Decimal     `db:"total_cash_sales" json:"totalCashSales"`
	TotalCardSales    decimal.Decimal     `db:"total_card_sales" json:"totalCardSales"`
	TotalCreditSales  decimal.Decimal     `db:"total_credit_sales" json:"totalCreditSales"`
	TotalSales        decimal.Decimal     `db:"total_sales" json:"totalSales"`
	TransactionsCount int                 `db:"transactions_count" json:"transactionsCount"`
	Status            ShiftStatus         `db:"status" json:"status"`
	OpenedAt          time.Time           `db:"opened_at" json:"openedAt"`
	ClosedAt          *time.Time          `db:"closed_at" json:"closedAt,omitempty"`
	ExpectedTotal     decimal.NullDecimal `db:"expected_total" json:"expectedTotal"`
	ActualTotal       decimal.NullDecimal `db:"actual_total" json:"actualTotal"`
	Difference        decimal.NullDecimal `db:"difference" json:"difference"`
	Notes             *string             `db:"notes" json:"notes,omitempty"`
}

// Sale is a single recorded payment on a terminal
type Sale struct {
	ID            string          `db:"id" json:"id"`
	TerminalID    string          `db:"terminal_id" json:"terminalId"`
	ShiftID       *string         `db:"shift_id" json:"shiftId,omitempty"`
	UserID        string          `db:"user_id" json:"userId"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"paymentMethod"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	BusinessDay   string          `db:"business_day" json:"businessDay"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
}
