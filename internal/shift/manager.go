// Package shift implements the cash-drawer shift lifecycle: opening a shift
// with a starting float, and reconciling the counted cash against the
// expected total when it is closed.
//
// A shift is created directly in the open state and closed exactly once.
// Every operation takes the terminal it acts on as an explicit argument.
package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/possync/shiftdesk/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for negative cash amounts
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrShiftAlreadyOpen is returned when the terminal already has an open shift
	ErrShiftAlreadyOpen = errors.New("an open shift already exists for this terminal")
	// ErrNoOpenShift is returned when closing a shift that is missing or already closed
	ErrNoOpenShift = errors.New("no open shift")
)

// Store persists shift records
type Store interface {
	CreateShift(ctx context.Context, shift *models.CashShift) error
	GetShift(ctx context.Context, id string) (*models.CashShift, error)
	GetOpenShift(ctx context.Context, terminalID string) (*models.CashShift, error)
	CloseShift(ctx context.Context, shift *models.CashShift) (bool, error)
}

// SalesAggregator sums recorded sales per payment method for a business day
type SalesAggregator interface {
	SalesByPaymentMethod(ctx context.Context, terminalID, businessDay string) (map[models.PaymentMethod]decimal.Decimal, error)
}

// DefaultTolerance is the variance still classified as exact when none is configured
var DefaultTolerance = decimal.New(1, -2)

// Options tune a Manager. Unset fields fall back to defaults; a valid zero
// Tolerance makes only an exact match classify as exact.
type Options struct {
	Tolerance decimal.NullDecimal
	Location  *time.Location
	Now       func() time.Time
}

// OpenRequest carries the cashier and float for a new shift
type OpenRequest struct {
	UserID       string
	UserName     string
	StartingCash decimal.Decimal
}

// Manager runs the open/close workflow against a Store
type Manager struct {
	store     Store
	sales     SalesAggregator
	tolerance decimal.Decimal
	loc       *time.Location
	now       func() time.Time
}

// NewManager creates a Manager
func NewManager(store Store, sales SalesAggregator, opts Options) *Manager {
	m := &Manager{
		store:     store,
		sales:     sales,
		tolerance: DefaultTolerance,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if opts.Tolerance.Valid {
		m.tolerance = opts.Tolerance.Decimal
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Tolerance returns the configured exact-match tolerance
func (m *Manager) Tolerance() decimal.Decimal {
	return m.tolerance
}

// BusinessDay returns the day, in the manager's location, that t falls on
func (m *Manager) BusinessDay(t time.Time) string {
	return t.In(m.loc).Format(time.DateOnly)
}

// Open starts a new shift on terminalID
func (m *Manager) Open(ctx context.Context, terminalID string, req OpenRequest) (*models.CashShift, error) {
	if req.StartingCash.IsNegative() {
		return nil, ErrInvalidAmount
	}

	existing, err := m.store.GetOpenShift(ctx, terminalID)
	if err != nil {
		return nil, fmt.Errorf("error checking for open shift: %w", err)
	}

	if existing != nil {
		return nil, ErrShiftAlreadyOpen
	}

	shift := &models.CashShift{
		ID:               uuid.New().String(),
		TerminalID:       terminalID,
		UserID:           req.UserID,
		UserName:         req.UserName,
		StartingCash:     req.StartingCash,
		TotalCashSales:   decimal.Zero,
		TotalCardSales:   decimal.Zero,
		TotalCreditSales: decimal.Zero,
		TotalSales:       decimal.Zero,
		Status:           models.ShiftOpen,
		OpenedAt:         m.now().UTC(),
	}

	if err := m.store.CreateShift(ctx, shift); err != nil {
		// Lost the race against another terminal session
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrShiftAlreadyOpen
		}
		return nil, fmt.Errorf("error creating shift: %w", err)
	}

	return shift, nil
}

// Close reconciles and closes the open shift shiftID on terminalID.
//
// The expected total is the starting float plus the cash sales recorded on
// the terminal today; the stored difference is actualTotal minus that.
func (m *Manager) Close(
	ctx context.Context,
	terminalID string,
	shiftID string,
	actualTotal decimal.Decimal,
	notes *string,
) (*models.CashShift, error) {
	if actualTotal.IsNegative() {
		return nil, ErrInvalidAmount
	}

	current, err := m.store.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("error getting shift: %w", err)
	}

	if current == nil || current.TerminalID != terminalID || current.Status != models.ShiftOpen {
		return nil, ErrNoOpenShift
	}

	now := m.now()

	totals, err := m.sales.SalesByPaymentMethod(ctx, terminalID, m.BusinessDay(now))
	if err != nil {
		return nil, fmt.Errorf("error summing today's sales: %w", err)
	}

	expected := ExpectedTotal(current.StartingCash, totals[models.PaymentCash])
	closedAt := now.UTC()

	closed := *current
	closed.Status = models.ShiftClosed
	closed.ClosedAt = &closedAt
	closed.ExpectedTotal = decimal.NewNullDecimal(expected)
	closed.ActualTotal = decimal.NewNullDecimal(actualTotal)
	closed.Difference = decimal.NewNullDecimal(Difference(actualTotal, expected))
	closed.Notes = notes

	ok, err := m.store.CloseShift(ctx, &closed)
	if err != nil {
		return nil, fmt.Errorf("error closing shift: %w", err)
	}

	if !ok {
		return nil, ErrNoOpenShift
	}

	return &closed, nil
}

// GetOpenShift returns the open shift of terminalID, or nil if there is none
func (m *Manager) GetOpenShift(ctx context.Context, terminalID string) (*models.CashShift, error) {
	shift, err := m.store.GetOpenShift(ctx, terminalID)
	if err != nil {
		return nil, fmt.Errorf("error getting open shift: %w", err)
	}
	return shift, nil
}

// Classify returns the variance of a closed shift, or "" while it is still open
func (m *Manager) Classify(shift *models.CashShift) Variance {
	if shift == nil || !shift.Difference.Valid {
		return ""
	}
	return Classify(shift.Difference.Decimal, m.tolerance)
}
