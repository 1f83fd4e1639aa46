package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/possync/shiftdesk/internal/events"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/possync/shiftdesk/internal/repository"
	"github.com/possync/shiftdesk/internal/shift"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserExists         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrShiftNotFound      = errors.New("shift not found")
	ErrInvalidSale        = errors.New("sale amount must be positive")
	ErrInvalidPayment     = errors.New("payment method must be one of cash, card, credit")
	ErrInvalidDay         = errors.New("day must be formatted as YYYY-MM-DD")
	ErrAmountRequired     = errors.New("amount is required")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Cash shifts
	OpenShift(ctx context.Context, userID, terminalID string, req models.OpenShiftRequest) (*models.ShiftResponse, error)
	CloseShift(ctx context.Context, userID, terminalID string, req models.CloseShiftRequest) (*models.ShiftResponse, error)
	GetOpenShift(ctx context.Context, terminalID string) (*models.ShiftResponse, error)
	GetShift(ctx context.Context, shiftID string) (*models.ShiftResponse, error)
	ListShifts(ctx context.Context, terminalID string, limit int) (*models.ShiftListResponse, error)

	// Sales
	RecordSale(ctx context.Context, userID, terminalID string, req models.RecordSaleRequest) (*models.SaleResponse, error)
	GetDailySummary(ctx context.Context, terminalID, day string) (*models.DailySummaryResponse, error)

	Health(ctx context.Context) error
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	shifts        *shift.Manager
	publisher     events.Publisher
	logger        *zap.Logger
	jwtSecret     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(
	repo repository.Repository,
	shifts *shift.Manager,
	publisher events.Publisher,
	logger *zap.Logger,
	jwtSecret string,
) Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultService{
		repo:          repo,
		shifts:        shifts,
		publisher:     publisher,
		logger:        logger,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
		now:           time.Now,
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, ErrUserExists
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Name:      user.Name,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Cash shift operations
func (s *DefaultService) OpenShift(
	ctx context.Context,
	userID string,
	terminalID string,
	req models.OpenShiftRequest,
) (*models.ShiftResponse, error) {
	if !req.StartingCash.Valid {
		return nil, ErrAmountRequired
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}

	opened, err := s.shifts.Open(ctx, terminalID, shift.OpenRequest{
		UserID:       user.ID,
		UserName:     user.Name,
		StartingCash: req.StartingCash.Decimal,
	})
	if err != nil {
		s.logger.Error("failed to open shift",
			zap.String("terminal_id", terminalID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("shift opened",
		zap.String("shift_id", opened.ID),
		zap.String("terminal_id", terminalID),
		zap.String("user_id", userID),
		zap.String("starting_cash", opened.StartingCash.StringFixed(2)),
	)
	s.publish(ctx, events.ShiftOpened, terminalID, opened)

	return &models.ShiftResponse{
		Status: "success",
		Shift:  opened,
	}, nil
}

func (s *DefaultService) CloseShift(
	ctx context.Context,
	userID string,
	terminalID string,
	req models.CloseShiftRequest,
) (*models.ShiftResponse, error) {
	if !req.ActualTotal.Valid {
		return nil, ErrAmountRequired
	}

	closed, err := s.shifts.Close(ctx, terminalID, req.ShiftID, req.ActualTotal.Decimal, req.Notes)
	if err != nil {
		s.logger.Error("failed to close shift",
			zap.String("shift_id", req.ShiftID),
			zap.String("terminal_id", terminalID),
			zap.Error(err),
		)
		return nil, err
	}

	variance := s.shifts.Classify(closed)

	s.logger.Info("shift closed",
		zap.String("shift_id", closed.ID),
		zap.String("terminal_id", terminalID),
		zap.String("closed_by", userID),
		zap.String("expected_total", closed.ExpectedTotal.Decimal.StringFixed(2)),
		zap.String("actual_total", closed.ActualTotal.Decimal.StringFixed(2)),
		zap.String("difference", closed.Difference.Decimal.StringFixed(2)),
		zap.String("variance", string(variance)),
	)
	s.publish(ctx, events.ShiftClosed, terminalID, closed)

	return &models.ShiftResponse{
		Status:   "success",
		Shift:    closed,
		Variance: string(variance),
	}, nil
}

func (s *DefaultService) GetOpenShift(ctx context.Context, terminalID string) (*models.ShiftResponse, error) {
	current, err := s.shifts.GetOpenShift(ctx, terminalID)
	if err != nil {
		return nil, err
	}

	return &models.ShiftResponse{
		Status: "success",
		Shift:  current,
	}, nil
}

func (s *DefaultService) GetShift(ctx context.Context, shiftID string) (*models.ShiftResponse, error) {
	found, err := s.repo.GetShift(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("error getting shift: %w", err)
	}

	if found == nil {
		return nil, ErrShiftNotFound
	}

	return &models.ShiftResponse{
		Status:   "success",
		Shift:    found,
		Variance: string(s.shifts.Classify(found)),
	}, nil
}

func (s *DefaultService) ListShifts(ctx context.Context, terminalID string, limit int) (*models.ShiftListResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	shifts, err := s.repo.ListShifts(ctx, terminalID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing shifts: %w", err)
	}

	return &models.ShiftListResponse{
		Status:     "success",
		TerminalID: terminalID,
		Shifts:     shifts,
	}, nil
}

// Sales
func (s *DefaultService) RecordSale(
	ctx context.Context,
	userID string,
	terminalID string,
	req models.RecordSaleRequest,
) (*models.SaleResponse, error) {
	if !req.Amount.Valid {
		return nil, ErrAmountRequired
	}

	if !req.Amount.Decimal.IsPositive() {
		return nil, ErrInvalidSale
	}

	if !req.PaymentMethod.Valid() {
		return nil, ErrInvalidPayment
	}

	current, err := s.shifts.GetOpenShift(ctx, terminalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sale := &models.Sale{
		ID:            uuid.New().String(),
		TerminalID:    terminalID,
		UserID:        userID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount.Decimal,
		BusinessDay:   s.shifts.BusinessDay(now),
		CreatedAt:     now.UTC(),
	}
	if current != nil {
		sale.ShiftID = &current.ID
	}

	if err := s.repo.RecordSale(ctx, sale); err != nil {
		s.logger.Error("failed to record sale",
			zap.String("sale_id", sale.ID),
			zap.String("terminal_id", terminalID),
			zap.Error(err),
		)
		if errors.Is(err, repository.ErrShiftNotOpen) {
			return nil, shift.ErrNoOpenShift
		}
		return nil, fmt.Errorf("error recording sale: %w", err)
	}

	s.logger.Info("sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("terminal_id", terminalID),
		zap.String("payment_method", string(sale.PaymentMethod)),
		zap.String("amount", sale.Amount.StringFixed(2)),
		zap.Bool("in_shift", sale.ShiftID != nil),
	)
	s.publish(ctx, events.SaleRecorded, terminalID, sale)

	return &models.SaleResponse{
		Status: "success",
		Sale:   sale,
	}, nil
}

func (s *DefaultService) GetDailySummary(ctx context.Context, terminalID, day string) (*models.DailySummaryResponse, error) {
	if day == "" {
		day = s.shifts.BusinessDay(s.now())
	} else if _, err := time.Parse(time.DateOnly, day); err != nil {
		return nil, ErrInvalidDay
	}

	totals, err := s.repo.SalesByPaymentMethod(ctx, terminalID, day)
	if err != nil {
		return nil, fmt.Errorf("error summing sales: %w", err)
	}

	count, err := s.repo.CountSales(ctx, terminalID, day)
	if err != nil {
		return nil, fmt.Errorf("error counting sales: %w", err)
	}

	resp := &models.DailySummaryResponse{
		Status:            "success",
		TerminalID:        terminalID,
		BusinessDay:       day,
		TotalCashSales:    totals[models.PaymentCash],
		TotalCardSales:    totals[models.PaymentCard],
		TotalCreditSales:  totals[models.PaymentCredit],
		TransactionsCount: count,
	}
	resp.TotalSales = resp.TotalCashSales.Add(resp.TotalCardSales).Add(resp.TotalCreditSales)

	return resp, nil
}

func (s *DefaultService) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub":  user.ID, // subject
		"name": user.Name,
		"exp":  expirationTime.Unix(),
		"iat":  time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// publish sends an event without failing the caller; the write has already
// been committed.
func (s *DefaultService) publish(ctx context.Context, eventType, terminalID string, payload any) {
	event := events.Event{
		Type:       eventType,
		TerminalID: terminalID,
		OccurredAt: s.now().UTC(),
		Payload:    payload,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("type", eventType),
			zap.String("terminal_id", terminalID),
			zap.Error(err),
		)
	}
}
