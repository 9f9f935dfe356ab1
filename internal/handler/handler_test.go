package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shophub/internal/model"
	"shophub/pkg/config"
	"shophub/pkg/database"
	"shophub/pkg/jwtutil"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testEcho = echo.New()

// setupHandlers points the handler package at a fresh in-memory database
// and a recording notifier. Returns the notifier for assertions.
func setupHandlers(t *testing.T) *fakeNotifier {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	database.DB = db

	jwtutil.Initialize(&config.JWTConfig{SigningKey: "handler-test-key", ExpirationHours: 1})

	n := &fakeNotifier{}
	cfg := &config.Config{}
	cfg.SMTP.AdminEmail = "admin@shophub.test"
	Configure(cfg, n)
	return n
}

// fakeNotifier records notifications instead of delivering them.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []notificationCall
}

type notificationCall struct {
	To      string
	Event   string
	Payload map[string]interface{}
}

func (f *fakeNotifier) SendAsync(to, event string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notificationCall{To: to, Event: event, Payload: payload})
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeNotifier) last() notificationCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// newContext builds an echo context around a JSON request. The returned
// recorder captures the handler's response.
func newContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := testEcho.NewContext(req, rec)
	c.Set("logger", zap.NewNop())
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return m
}

// registerUser creates an account through the Register handler and
// returns the stored user with a fresh session token.
func registerUser(t *testing.T, email, password string) (*model.User, string) {
	t.Helper()

	c, rec := newContext(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":      email,
		"password":   password,
		"first_name": "Test",
		"last_name":  "Shopper",
	})
	if err := Register(c); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatal("register response missing token")
	}

	var user model.User
	if err := database.GetDB().Where("email = ?", email).First(&user).Error; err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	return &user, token
}

func seedCatalogProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	t.Helper()
	p := model.Product{
		Name:       name,
		Category:   "test",
		Price:      price,
		StockCount: stock,
		InStock:    stock > 0,
	}
	if err := database.GetDB().Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &p
}
