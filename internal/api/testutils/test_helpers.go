package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/possync/shiftdesk/internal/api"
	"github.com/possync/shiftdesk/internal/config"
	"github.com/possync/shiftdesk/internal/models"
	"github.com/possync/shiftdesk/internal/repository"
	"github.com/possync/shiftdesk/internal/service"
	"github.com/possync/shiftdesk/internal/shift"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	TestUserEmail    = "cashier@example.com"
	TestUserPassword = "testpassword"
	TestUserName     = "Test Cashier"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  *repository.SQLRepository
	Service     service.Service
	Shifts      *shift.Manager
	JWTSecret   []byte
	DB          *sqlx.DB
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext wires the full stack against a private in-memory SQLite database
func SetupTestContext(t *testing.T) *TestContext {
	cfg := config.LoadConfig()
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = ":memory:"
	cfg.Auth.JWTSecret = "test-secret-key"

	db, err := config.SetupDatabase(cfg)
	require.NoError(t, err, "Failed to set up test database")

	repo := repository.NewSQLRepository(db)

	shifts := shift.NewManager(repo, repo, shift.Options{Location: time.UTC})

	svc := service.NewDefaultService(repo, shifts, nil, nil, cfg.Auth.JWTSecret)

	handler := api.NewHandler(svc)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	handler.SetupRoutes(router)

	testUserID, token := CreateTestUser(t, repo, cfg.Auth.JWTSecret, TestUserEmail, TestUserName)

	return &TestContext{
		Router:      router,
		Repository:  repo,
		Service:     svc,
		Shifts:      shifts,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		DB:          db,
		TestUserID:  testUserID,
		TestUserJWT: token,
	}
}

// CleanupTestContext cleans up test resources
func CleanupTestContext(t *TestContext) {
	if t.DB != nil {
		t.DB.Close()
	}
}

// CreateTestUser inserts a user and returns its ID and a signed token
func CreateTestUser(t *testing.T, repo repository.Repository, jwtSecret, email, name string) (string, string) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestUserPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     name,
		Password: string(hashedPassword),
	}

	err = repo.CreateUser(context.Background(), user)
	require.NoError(t, err, "Failed to create test user")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	})

	tokenString, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err, "Failed to generate JWT token")

	return user.ID, tokenString
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals a recorded response body into v
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "body: %s", w.Body.String())
}
