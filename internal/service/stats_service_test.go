package service

import (
	"context"
	"testing"

	"shophub/internal/model"

	"go.uber.org/zap"
)

func TestDashboardAggregates(t *testing.T) {
	db := newTestDB(t)
	p := seedProduct(t, db, "Dashboard Item", 20, 100)
	seedProduct(t, db, "Other Item", 5, 10)

	if err := db.Create(&model.User{Email: "a@example.com", Password: "x"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	if err := db.Create(&model.User{Email: "b@example.com", Password: "x"}).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	orders := NewOrderService(db, nil, zap.NewNop())
	first, err := orders.PlaceOrder(context.Background(), validRequest(
		OrderLineRequest{ProductID: p.ID, Quantity: 2}))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	second, err := orders.PlaceOrder(context.Background(), validRequest(
		OrderLineRequest{ProductID: p.ID, Quantity: 1}))
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if _, err := orders.SetStatus(context.Background(), second.ID, model.OrderStatusCancelled); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	stats, err := NewStatsService(db).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if stats.TotalOrders != 2 {
		t.Errorf("total_orders = %d, want 2", stats.TotalOrders)
	}
	// Revenue counts every order, the cancelled one included.
	wantRevenue := first.TotalAmount + second.TotalAmount
	if stats.TotalRevenue != wantRevenue {
		t.Errorf("total_revenue = %v, want %v", stats.TotalRevenue, wantRevenue)
	}
	if stats.PendingOrders != 1 {
		t.Errorf("pending_orders = %d, want 1", stats.PendingOrders)
	}
	if stats.TotalProducts != 2 {
		t.Errorf("total_products = %d, want 2", stats.TotalProducts)
	}
	if stats.TotalUsers != 2 {
		t.Errorf("total_users = %d, want 2", stats.TotalUsers)
	}
}

func TestDashboardEmptyStore(t *testing.T) {
	db := newTestDB(t)

	stats, err := NewStatsService(db).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if stats.TotalOrders != 0 || stats.TotalRevenue != 0 || stats.PendingOrders != 0 ||
		stats.TotalProducts != 0 || stats.TotalUsers != 0 {
		t.Errorf("stats = %+v, want all zero", stats)
	}
}
