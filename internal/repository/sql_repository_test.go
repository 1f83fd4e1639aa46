package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/possync/shiftdesk/internal/config"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/possync/shiftdesk/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) (*repository.SQLRepository, *models.User) {
	t.Helper()

	cfg := config.LoadConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = ":memory:"

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewSQLRepository(db)

	user := &models.User{Email: "cashier@example.com", Name: "Cashier", Password: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), user))

	return repo, user
}

func newOpenShift(user *models.User, terminalID string, startingCash string) *models.CashShift {
	return &models.CashShift{
		ID:               uuid.New().String(),
		TerminalID:       terminalID,
		UserID:           user.ID,
		UserName:         user.Name,
		StartingCash:     decimal.RequireFromString(startingCash),
		TotalCashSales:   decimal.Zero,
		TotalCardSales:   decimal.Zero,
		TotalCreditSales: decimal.Zero,
		TotalSales:       decimal.Zero,
		Status:           models.ShiftOpen,
		OpenedAt:         time.Now().UTC(),
	}
}

func TestCreateAndGetShift(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	shift := newOpenShift(user, "till-1", "150.75")
	require.NoError(t, repo.CreateShift(ctx, shift))

	got, err := repo.GetShift(ctx, shift.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, shift.ID, got.ID)
	assert.Equal(t, "till-1", got.TerminalID)
	assert.Equal(t, models.ShiftOpen, got.Status)
	assert.True(t, got.StartingCash.Equal(decimal.RequireFromString("150.75")))
	assert.WithinDuration(t, shift.OpenedAt, got.OpenedAt, time.Millisecond)
	assert.Nil(t, got.ClosedAt)
	assert.False(t, got.ActualTotal.Valid)
	assert.Nil(t, got.Notes)

	missing, err := repo.GetShift(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOneOpenShiftPerTerminal(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateShift(ctx, newOpenShift(user, "till-1", "10")))

	err := repo.CreateShift(ctx, newOpenShift(user, "till-1", "20"))
	assert.ErrorIs(t, err, repository.ErrUniqueViolation)

	assert.NoError(t, repo.CreateShift(ctx, newOpenShift(user, "till-2", "20")))
}

func TestCloseShiftOnlyOnce(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	shift := newOpenShift(user, "till-1", "10")
	require.NoError(t, repo.CreateShift(ctx, shift))

	closedAt := time.Now().UTC()
	notes := "ok"
	shift.ClosedAt = &closedAt
	shift.ExpectedTotal = decimal.NewNullDecimal(decimal.NewFromInt(10))
	shift.ActualTotal = decimal.NewNullDecimal(decimal.RequireFromString("9.99"))
	shift.Difference = decimal.NewNullDecimal(decimal.RequireFromString("-0.01"))
	shift.Notes = &notes

	ok, err := repo.CloseShift(ctx, shift)
	require.NoError(t, err)
	assert.True(t, ok)

	shift.ActualTotal = decimal.NewNullDecimal(decimal.NewFromInt(500))
	ok, err = repo.CloseShift(ctx, shift)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftClosed, got.Status)
	assert.True(t, got.ActualTotal.Decimal.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, got.Difference.Decimal.Equal(decimal.RequireFromString("-0.01")))
	require.NotNil(t, got.Notes)
	assert.Equal(t, "ok", *got.Notes)

	open, err := repo.GetOpenShift(ctx, "till-1")
	require.NoError(t, err)
	assert.Nil(t, open)

	// The unique index only covers open shifts
	assert.NoError(t, repo.CreateShift(ctx, newOpenShift(user, "till-1", "10")))
}

func TestRecordSaleAccumulatesShiftTotals(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	shift := newOpenShift(user, "till-1", "0")
	require.NoError(t, repo.CreateShift(ctx, shift))

	sales := []struct {
		method models.PaymentMethod
		amount string
	}{
		{models.PaymentCash, "0.10"},
		{models.PaymentCash, "0.20"},
		{models.PaymentCard, "15"},
		{models.PaymentCredit, "4.99"},
	}
	for _, s := range sales {
		err := repo.RecordSale(ctx, &models.Sale{
			TerminalID:    "till-1",
			ShiftID:       &shift.ID,
			UserID:        user.ID,
			PaymentMethod: s.method,
			Amount:        decimal.RequireFromString(s.amount),
			BusinessDay:   "2026-10-14",
		})
		require.NoError(t, err)
	}

	got, err := repo.GetShift(ctx, shift.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalCashSales.Equal(decimal.RequireFromString("0.3")), got.TotalCashSales.String())
	assert.True(t, got.TotalCardSales.Equal(decimal.NewFromInt(15)))
	assert.True(t, got.TotalCreditSales.Equal(decimal.RequireFromString("4.99")))
	assert.True(t, got.TotalSales.Equal(decimal.RequireFromString("20.29")))
	assert.Equal(t, 4, got.TransactionsCount)
}

func TestRecordSaleOnClosedShift(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	shift := newOpenShift(user, "till-1", "0")
	require.NoError(t, repo.CreateShift(ctx, shift))

	closedAt := time.Now().UTC()
	shift.ClosedAt = &closedAt
	_, err := repo.CloseShift(ctx, shift)
	require.NoError(t, err)

	err = repo.RecordSale(ctx, &models.Sale{
		TerminalID:    "till-1",
		ShiftID:       &shift.ID,
		UserID:        user.ID,
		PaymentMethod: models.PaymentCash,
		Amount:        decimal.NewFromInt(5),
		BusinessDay:   "2026-10-14",
	})
	assert.ErrorIs(t, err, repository.ErrShiftNotOpen)

	// The insert was rolled back
	totals, err := repo.SalesByPaymentMethod(ctx, "till-1", "2026-10-14")
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestSalesByPaymentMethod(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	record := func(terminalID, day string, method models.PaymentMethod, amount string) {
		require.NoError(t, repo.RecordSale(ctx, &models.Sale{
			TerminalID:    terminalID,
			UserID:        user.ID,
			PaymentMethod: method,
			Amount:        decimal.RequireFromString(amount),
			BusinessDay:   day,
		}))
	}

	record("till-1", "2026-10-14", models.PaymentCash, "300.25")
	record("till-1", "2026-10-14", models.PaymentCash, "50.25")
	record("till-1", "2026-10-14", models.PaymentCard, "12")
	record("till-1", "2026-10-13", models.PaymentCash, "99")
	record("till-2", "2026-10-14", models.PaymentCash, "1")

	totals, err := repo.SalesByPaymentMethod(ctx, "till-1", "2026-10-14")
	require.NoError(t, err)
	assert.Len(t, totals, 2)
	assert.True(t, totals[models.PaymentCash].Equal(decimal.RequireFromString("350.50")))
	assert.True(t, totals[models.PaymentCard].Equal(decimal.NewFromInt(12)))
	_, hasCredit := totals[models.PaymentCredit]
	assert.False(t, hasCredit)

	count, err := repo.CountSales(ctx, "till-1", "2026-10-14")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = repo.CountSales(ctx, "till-3", "2026-10-14")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListShiftsNewestFirst(t *testing.T) {
	repo, user := setupRepository(t)
	ctx := context.Background()

	older := newOpenShift(user, "till-1", "1")
	older.Status = models.ShiftClosed
	older.OpenedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, repo.CreateShift(ctx, older))

	newer := newOpenShift(user, "till-1", "2")
	require.NoError(t, repo.CreateShift(ctx, newer))

	shifts, err := repo.ListShifts(ctx, "till-1", 10)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, newer.ID, shifts[0].ID)
	assert.Equal(t, older.ID, shifts[1].ID)

	shifts, err = repo.ListShifts(ctx, "till-9", 10)
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestDuplicateUserEmail(t *testing.T) {
	repo, _ := setupRepository(t)

	err := repo.CreateUser(context.Background(), &models.User{Email: "cashier@example.com", Name: "Other", Password: "x"})
	assert.ErrorIs(t, err, repository.ErrUniqueViolation)
}
