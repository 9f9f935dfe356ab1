package service

import (
	"sync"
	"testing"

	"shophub/internal/model"
	"shophub/pkg/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database migrated with the full
// schema. A single connection keeps concurrent transactions serialized
// the way Postgres row locks would. That serialization is total, so
// lock ordering inside a transaction (the product row lock taken before
// a review insert, for instance) is not observable here; on Postgres it
// is what keeps a racing recompute from missing a committed row.
func newTestDB(t *testing.T) *gorm.DB {
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
	return db
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

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *model.Product {
	t.Helper()
	p := model.Product{
		Name:       name,
		Category:   "test",
		Price:      price,
		StockCount: stock,
		InStock:    stock > 0,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return &p
}

func fetchProduct(t *testing.T, db *gorm.DB, id uint) *model.Product {
	t.Helper()
	var p model.Product
	if err := db.First(&p, id).Error; err != nil {
		t.Fatalf("failed to fetch product %d: %v", id, err)
	}
	return &p
}
