package models

import "github.com/shopspring/decimal"

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Amounts are nullable so an omitted field can be told apart from zero
type OpenShiftRequest struct {
	StartingCash decimal.NullDecimal `json:"startingCash"`
}

type CloseShiftRequest struct {
	ShiftID     string              `json:"shiftId" binding:"required"`
	ActualTotal decimal.NullDecimal `json:"actualTotal"`
	Notes       *string             `json:"notes"`
}

type RecordSaleRequest struct {
	PaymentMethod PaymentMethod       `json:"paymentMethod" binding:"required"`
	Amount        decimal.NullDecimal `json:"amount"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// ShiftResponse wraps a single shift. Shift is null when a terminal has no
// open shift; Variance is set once the shift is closed.
type ShiftResponse struct {
	Status   string     `json:"status"`
	Shift    *CashShift `json:"shift"`
	Variance string     `json:"variance,omitempty"`
}

type ShiftListResponse struct {
	Status     string      `json:"status"`
	TerminalID string      `json:"terminalId"`
	Shifts     []CashShift `json:"shifts"`
}

type SaleResponse struct {
	Status string `json:"status"`
	Sale   *Sale  `json:"sale"`
}

type DailySummaryResponse struct {
	Status            string          `json:"status"`
	TerminalID        string          `json:"terminalId"`
	BusinessDay       string          `json:"businessDay"`
	TotalCashSales    decimal.Decimal `json:"totalCashSales"`
	TotalCardSales    decimal.Decimal `json:"totalCardSales"`
	TotalCreditSales  decimal.Decimal `json:"totalCreditSales"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	TransactionsCount int             `json:"transactionsCount"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
