package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/shopspring/decimal"
)

// ErrUniqueViolation is returned when an insert collides with a unique
// constraint, such as a second open shift on the same terminal.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrShiftNotOpen is returned when a sale references a shift that is no longer open
var ErrShiftNotOpen = errors.New("shift is not open")

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Cash shift operations
	CreateShift(ctx context.Context, shift *models.CashShift) error
	GetShift(ctx context.Context, id string) (*models.CashShift, error)
	GetOpenShift(ctx context.Context, terminalID string) (*models.CashShift, error)
	CloseShift(ctx context.Context, shift *models.CashShift) (bool, error)
	ListShifts(ctx context.Context, terminalID string, limit int) ([]models.CashShift, error)

	// Sale operations
	RecordSale(ctx context.Context, sale *models.Sale) error
	SalesByPaymentMethod(ctx context.Context, terminalID, businessDay string) (map[models.PaymentMethod]decimal.Decimal, error)
	CountSales(ctx context.Context, terminalID, businessDay string) (int, error)

	Ping(ctx context.Context) error
}

// SQLRepository implements the Repository interface on top of sqlx. Queries
// are written with '?' placeholders and rebound for the active driver, so the
// same code serves the local SQLite file and a PostgreSQL server.
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new SQL repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db: db,
	}
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const shiftColumns = `id, terminal_id, user_id, user_name, starting_cash,
	total_cash_sales, total_card_sales, total_credit_sales, total_sales,
	transactions_count, status, opened_at, closed_at,
	expected_total, actual_total, difference, notes`

// User repository methods
func (r *SQLRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt)

	return translateError(err)
}

func (r *SQLRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.db.Rebind(`SELECT * FROM users WHERE email = ?`)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *SQLRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := r.db.Rebind(`SELECT * FROM users WHERE id = ?`)

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Cash shift repository methods
func (r *SQLRepository) CreateShift(ctx context.Context, shift *models.CashShift) error {
	query := r.db.Rebind(`
		INSERT INTO cash_shifts (` + shiftColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	if shift.ID == "" {
		shift.ID = uuid.New().String()
	}

	if shift.OpenedAt.IsZero() {
		shift.OpenedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, query,
		shift.ID, shift.TerminalID, shift.UserID, shift.UserName, shift.StartingCash,
		shift.TotalCashSales, shift.TotalCardSales, shift.TotalCreditSales, shift.TotalSales,
		shift.TransactionsCount, shift.Status, shift.OpenedAt, shift.ClosedAt,
		shift.ExpectedTotal, shift.ActualTotal, shift.Difference, shift.Notes)

	return translateError(err)
}

func (r *SQLRepository) GetShift(ctx context.Context, id string) (*models.CashShift, error) {
	query := r.db.Rebind(`SELECT ` + shiftColumns + ` FROM cash_shifts WHERE id = ?`)

	var shift models.CashShift
	err := r.db.GetContext(ctx, &shift, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Shift not found
		}
		return nil, err
	}

	return &shift, nil
}

func (r *SQLRepository) GetOpenShift(ctx context.Context, terminalID string) (*models.CashShift, error) {
	query := r.db.Rebind(`
		SELECT ` + shiftColumns + ` FROM cash_shifts
		WHERE terminal_id = ? AND status = ?
	`)

	var shift models.CashShift
	err := r.db.GetContext(ctx, &shift, query, terminalID, models.ShiftOpen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No open shift
		}
		return nil, err
	}

	return &shift, nil
}

// CloseShift writes the closing figures of a shift. The update only matches a
// row that is still open; false means nothing was closed.
func (r *SQLRepository) CloseShift(ctx context.Context, shift *models.CashShift) (bool, error) {
	query := r.db.Rebind(`
		UPDATE cash_shifts
		SET status = ?, closed_at = ?, expected_total = ?, actual_total = ?, difference = ?, notes = ?
		WHERE id = ? AND status = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		models.ShiftClosed, shift.ClosedAt, shift.ExpectedTotal, shift.ActualTotal,
		shift.Difference, shift.Notes, shift.ID, models.ShiftOpen)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *SQLRepository) ListShifts(ctx context.Context, terminalID string, limit int) ([]models.CashShift, error) {
	query := r.db.Rebind(`
		SELECT ` + shiftColumns + ` FROM cash_shifts
		WHERE terminal_id = ?
		ORDER BY opened_at DESC
		LIMIT ?
	`)

	shifts := []models.CashShift{}
	err := r.db.SelectContext(ctx, &shifts, query, terminalID, limit)
	if err != nil {
		return nil, err
	}

	return shifts, nil
}

// Sale repository methods

// RecordSale inserts a sale and, when it belongs to a shift, folds the amount
// into that shift's running totals within the same transaction.
func (r *SQLRepository) RecordSale(ctx context.Context, sale *models.Sale) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO sales (id, terminal_id, shift_id, user_id, payment_method, amount, business_day, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), sale.ID, sale.TerminalID, sale.ShiftID, sale.UserID, sale.PaymentMethod,
		sale.Amount, sale.BusinessDay, sale.CreatedAt)
	if err != nil {
		return err
	}

	if sale.ShiftID != nil {
		err = r.accumulateSaleTx(ctx, tx, sale)
		if err != nil {
			return err
		}
	}

	err = tx.Commit()
	return err
}

// accumulateSaleTx adds a sale to its shift's totals. Sums are computed in Go
// so that amounts stay exact on drivers without a decimal column type.
func (r *SQLRepository) accumulateSaleTx(ctx context.Context, tx *sqlx.Tx, sale *models.Sale) error {
	selectQuery := `SELECT ` + shiftColumns + ` FROM cash_shifts WHERE id = ? AND status = ?`
	if r.db.DriverName() == "postgres" {
		selectQuery += ` FOR UPDATE`
	}

	var shift models.CashShift
	if err := tx.GetContext(ctx, &shift, tx.Rebind(selectQuery), *sale.ShiftID, models.ShiftOpen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShiftNotOpen
		}
		return err
	}

	switch sale.PaymentMethod {
	case models.PaymentCash:
		shift.TotalCashSales = shift.TotalCashSales.Add(sale.Amount)
	case models.PaymentCard:
		shift.TotalCardSales = shift.TotalCardSales.Add(sale.Amount)
	case models.PaymentCredit:
		shift.TotalCreditSales = shift.TotalCreditSales.Add(sale.Amount)
	}
	shift.TotalSales = shift.TotalSales.Add(sale.Amount)
	shift.TransactionsCount++

	_, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE cash_shifts
		SET total_cash_sales = ?, total_card_sales = ?, total_credit_sales = ?,
			total_sales = ?, transactions_count = ?
		WHERE id = ?
	`), shift.TotalCashSales, shift.TotalCardSales, shift.TotalCreditSales,
		shift.TotalSales, shift.TransactionsCount, shift.ID)

	return err
}

// SalesByPaymentMethod sums the sales of one terminal on one business day,
// grouped by payment method. Methods without sales are absent from the map.
func (r *SQLRepository) SalesByPaymentMethod(
	ctx context.Context,
	terminalID string,
	businessDay string,
) (map[models.PaymentMethod]decimal.Decimal, error) {
	query := r.db.Rebind(`
		SELECT payment_method, amount FROM sales
		WHERE terminal_id = ? AND business_day = ?
	`)

	var rows []struct {
		PaymentMethod models.PaymentMethod `db:"payment_method"`
		Amount        decimal.Decimal      `db:"amount"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, terminalID, businessDay); err != nil {
		return nil, err
	}

	totals := make(map[models.PaymentMethod]decimal.Decimal)
	for _, row := range rows {
		totals[row.PaymentMethod] = totals[row.PaymentMethod].Add(row.Amount)
	}

	return totals, nil
}

// CountSales returns how many sales one terminal recorded on one business day
func (r *SQLRepository) CountSales(ctx context.Context, terminalID, businessDay string) (int, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*) FROM sales
		WHERE terminal_id = ? AND business_day = ?
	`)

	var count int
	if err := r.db.GetContext(ctx, &count, query, terminalID, businessDay); err != nil {
		return 0, err
	}

	return count, nil
}

// translateError maps driver-specific constraint errors onto ErrUniqueViolation
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrUniqueViolation
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return ErrUniqueViolation
	}

	return err
}
