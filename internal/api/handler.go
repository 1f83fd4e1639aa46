package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/possync/shiftdesk/internal/service"
	"github.com/possync/shiftdesk/internal/shift"
)

// Handler serves the REST API on top of a Service
type Handler struct {
	svc service.Service
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all routes on router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", h.SignUp)
	auth.POST("/login", h.Login)

	terminals := api.Group("/terminals/:terminalId", AuthMiddleware())
	terminals.GET("/shift", h.GetOpenShift)
	terminals.POST("/shift", h.OpenShift)
	terminals.POST("/shift/close", h.CloseShift)
	terminals.GET("/shifts", h.ListShifts)
	terminals.POST("/sales", h.RecordSale)
	terminals.GET("/summary", h.GetDailySummary)

	shifts := api.Group("/shifts", AuthMiddleware())
	shifts.GET("/:shiftId", h.GetShift)
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Status:  "error",
			Code:    "UNAVAILABLE",
			Message: "Database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Cash shift handlers
func (h *Handler) GetOpenShift(c *gin.Context) {
	resp, err := h.svc.GetOpenShift(c.Request.Context(), c.Param("terminalId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) OpenShift(c *gin.Context) {
	var req models.OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.OpenShift(c.Request.Context(), c.GetString("userId"), c.Param("terminalId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) CloseShift(c *gin.Context) {
	var req models.CloseShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.CloseShift(c.Request.Context(), c.GetString("userId"), c.Param("terminalId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) ListShifts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Status:  "error",
				Code:    "INVALID_REQUEST",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	resp, err := h.svc.ListShifts(c.Request.Context(), c.Param("terminalId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetShift(c *gin.Context) {
	resp, err := h.svc.GetShift(c.Request.Context(), c.Param("shiftId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Sale handlers
func (h *Handler) RecordSale(c *gin.Context) {
	var req models.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.svc.RecordSale(c.Request.Context(), c.GetString("userId"), c.Param("terminalId"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) GetDailySummary(c *gin.Context) {
	resp, err := h.svc.GetDailySummary(c.Request.Context(), c.Param("terminalId"), c.Query("day"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: err.Error(),
	})
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	message := "Internal server error"

	switch {
	case errors.Is(err, shift.ErrInvalidAmount),
		errors.Is(err, service.ErrAmountRequired),
		errors.Is(err, service.ErrInvalidSale):
		status, code, message = http.StatusBadRequest, "INVALID_AMOUNT", err.Error()
	case errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidDay):
		status, code, message = http.StatusBadRequest, "INVALID_REQUEST", err.Error()
	case errors.Is(err, shift.ErrShiftAlreadyOpen):
		status, code, message = http.StatusConflict, "SHIFT_ALREADY_OPEN", err.Error()
	case errors.Is(err, shift.ErrNoOpenShift):
		status, code, message = http.StatusConflict, "NO_OPEN_SHIFT", err.Error()
	case errors.Is(err, service.ErrUserExists):
		status, code, message = http.StatusConflict, "USER_EXISTS", err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code, message = http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error()
	case errors.Is(err, service.ErrShiftNotFound),
		errors.Is(err, service.ErrUserNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	default:
		// Recorded by the request logger
		_ = c.Error(err)
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
