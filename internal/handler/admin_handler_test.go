package handler

import (
	"net/http"
	"testing"

	"shophub/internal/middleware"
	"shophub/internal/model"
	"shophub/pkg/config"
	"shophub/pkg/database"
	"shophub/pkg/mailer"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func configureBootstrapToken(token string) {
	cfg := &config.Config{}
	cfg.SMTP.AdminEmail = adminEmail
	cfg.Admin.BootstrapToken = token
	Configure(cfg, notifier)
}

func grantAdmin(t *testing.T, userID uint) {
	t.Helper()
	if err := database.GetDB().Model(&model.User{}).
		Where("id = ?", userID).
		Update("is_admin", true).Error; err != nil {
		t.Fatalf("failed to grant admin: %v", err)
	}
}

// The admin surface trusts the stored is_admin flag, not the token, so a
// valid session alone must not get through.
func TestAdminBoundaryRejectsNonAdmins(t *testing.T) {
	setupHandlers(t)
	_, userToken := registerUser(t, "regular@example.com", "password1")
	admin, adminToken := registerUser(t, "boss@example.com", "password2")
	grantAdmin(t, admin.ID)

	chain := middleware.AuthMiddleware(middleware.RequireAdmin(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
		{"valid non-admin token", "Bearer " + userToken, http.StatusForbidden},
		{"admin token", "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodGet, "/api/admin/stats", nil)
			if tt.authHeader != "" {
				c.Request().Header.Set("Authorization", tt.authHeader)
			}
			if err := chain(c); err != nil {
				t.Fatalf("middleware chain failed: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

// A revoked admin loses access immediately even with a still-valid token.
func TestAdminBoundaryRevocation(t *testing.T) {
	setupHandlers(t)
	admin, token := registerUser(t, "demoted@example.com", "password1")
	grantAdmin(t, admin.ID)

	chain := middleware.AuthMiddleware(middleware.RequireAdmin(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}))

	c, rec := newContext(t, http.MethodGet, "/api/admin/stats", nil)
	c.Request().Header.Set("Authorization", "Bearer "+token)
	if err := chain(c); err != nil {
		t.Fatalf("middleware chain failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}

	database.GetDB().Model(&model.User{}).Where("id = ?", admin.ID).Update("is_admin", false)

	c2, rec2 := newContext(t, http.MethodGet, "/api/admin/stats", nil)
	c2.Request().Header.Set("Authorization", "Bearer "+token)
	if err := chain(c2); err != nil {
		t.Fatalf("middleware chain failed: %v", err)
	}
	if rec2.Code != http.StatusForbidden {
		t.Errorf("revoked admin status = %d, want 403", rec2.Code)
	}
}

func TestUpdateOrderStatusHandler(t *testing.T) {
	n := setupHandlers(t)
	p := seedCatalogProduct(t, "Status Item", 30, 5)
	placed := placeTestOrder(t, p.ID, 1)
	sent := n.count()

	c, rec := newContext(t, http.MethodPut, "/api/admin/orders/1/status", map[string]string{
		"status": "not-a-status",
	})
	c.SetParamNames("id")
	c.SetParamValues(itoa(placed))
	if err := UpdateOrderStatus(c); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid status code = %d, want 400", rec.Code)
	}

	c2, rec2 := newContext(t, http.MethodPut, "/api/admin/orders/9999/status", map[string]string{
		"status": "shipped",
	})
	c2.SetParamNames("id")
	c2.SetParamValues("9999")
	if err := UpdateOrderStatus(c2); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if rec2.Code != http.StatusNotFound {
		t.Errorf("unknown order code = %d, want 404", rec2.Code)
	}

	c3, rec3 := newContext(t, http.MethodPut, "/api/admin/orders/1/status", map[string]string{
		"status": "shipped",
	})
	c3.SetParamNames("id")
	c3.SetParamValues(itoa(placed))
	if err := UpdateOrderStatus(c3); err != nil {
		t.Fatalf("UpdateOrderStatus failed: %v", err)
	}
	if rec3.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec3.Code, rec3.Body.String())
	}

	var order model.Order
	database.GetDB().First(&order, placed)
	if order.Status != model.OrderStatusShipped {
		t.Errorf("persisted status = %q, want shipped", order.Status)
	}
	if n.count() != sent+1 || n.last().Event != mailer.EventOrderStatusChanged {
		t.Error("status change notification not sent")
	}
}

func TestCreateAndUpdateProductDeriveInStock(t *testing.T) {
	setupHandlers(t)

	c, rec := newContext(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"name":        "Fresh Item",
		"category":    "misc",
		"price":       12.5,
		"stock_count": 0,
		// a lying in_stock field in the payload must be ignored
		"in_stock": true,
	})
	if err := CreateProduct(c); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created model.Product
	database.GetDB().Where("name = ?", "Fresh Item").First(&created)
	if created.InStock {
		t.Error("in_stock = true with zero stock")
	}

	c2, rec2 := newContext(t, http.MethodPut, "/api/admin/products/1", map[string]interface{}{
		"name":        "Fresh Item",
		"category":    "misc",
		"price":       12.5,
		"stock_count": 3,
	})
	c2.SetParamNames("id")
	c2.SetParamValues(itoa(created.ID))
	if err := UpdateProduct(c2); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if rec2.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec2.Code, rec2.Body.String())
	}

	var updated model.Product
	database.GetDB().First(&updated, created.ID)
	if updated.StockCount != 3 || !updated.InStock {
		t.Errorf("product = stock %d in_stock %v, want 3/true", updated.StockCount, updated.InStock)
	}
}

func TestUpdateProductRequiresNameAndPrice(t *testing.T) {
	setupHandlers(t)
	p := seedCatalogProduct(t, "Guarded Item", 30, 5)

	// An empty update body must not blank the name or zero the price.
	c, rec := newContext(t, http.MethodPut, "/api/admin/products/1", map[string]interface{}{})
	c.SetParamNames("id")
	c.SetParamValues(itoa(p.ID))
	if err := UpdateProduct(c); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	c2, rec2 := newContext(t, http.MethodPut, "/api/admin/products/1", map[string]interface{}{
		"name":        "Guarded Item",
		"price":       0,
		"stock_count": 5,
	})
	c2.SetParamNames("id")
	c2.SetParamValues(itoa(p.ID))
	if err := UpdateProduct(c2); err != nil {
		t.Fatalf("UpdateProduct failed: %v", err)
	}
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("zero price status = %d, want 400", rec2.Code)
	}

	var stored model.Product
	database.GetDB().First(&stored, p.ID)
	if stored.Name != "Guarded Item" || stored.Price != 30 {
		t.Errorf("product mutated by rejected update: name %q price %v", stored.Name, stored.Price)
	}
}

func TestCreateProductRejectsNegativeStock(t *testing.T) {
	setupHandlers(t)

	c, rec := newContext(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"name":        "Broken",
		"price":       5,
		"stock_count": -1,
	})
	if err := CreateProduct(c); err != nil {
		t.Fatalf("CreateProduct failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteProductSoftDeletes(t *testing.T) {
	setupHandlers(t)
	p := seedCatalogProduct(t, "Doomed", 10, 5)

	c, rec := newContext(t, http.MethodDelete, "/api/admin/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues(itoa(p.ID))
	if err := DeleteProduct(c); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Gone from normal queries but still present unscoped.
	var product model.Product
	if err := database.GetDB().First(&product, p.ID).Error; err != gorm.ErrRecordNotFound {
		t.Errorf("deleted product still visible, err = %v", err)
	}
	if err := database.GetDB().Unscoped().First(&product, p.ID).Error; err != nil {
		t.Errorf("soft-deleted row missing: %v", err)
	}

	c2, rec2 := newContext(t, http.MethodDelete, "/api/admin/products/1", nil)
	c2.SetParamNames("id")
	c2.SetParamValues(itoa(p.ID))
	if err := DeleteProduct(c2); err != nil {
		t.Fatalf("DeleteProduct failed: %v", err)
	}
	if rec2.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec2.Code)
	}
}

func TestImportProductsIsIdempotent(t *testing.T) {
	setupHandlers(t)

	payload := map[string]interface{}{
		"products": []map[string]interface{}{
			{"id": 1, "name": "Imported A", "category": "misc", "price": 10, "stock_count": 5},
			{"id": 2, "name": "Imported B", "category": "misc", "price": 20, "stock_count": 0},
		},
	}

	for i := 0; i < 2; i++ {
		c, rec := newContext(t, http.MethodPost, "/api/admin/import-products", payload)
		if err := ImportProducts(c); err != nil {
			t.Fatalf("ImportProducts failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	var count int64
	database.GetDB().Model(&model.Product{}).Count(&count)
	if count != 2 {
		t.Errorf("product count = %d after double import, want 2", count)
	}

	var b model.Product
	database.GetDB().First(&b, 2)
	if b.InStock {
		t.Error("imported zero-stock product marked in_stock")
	}

	// Re-import with a changed price updates in place.
	payload["products"].([]map[string]interface{})[0]["price"] = 15
	c, _ := newContext(t, http.MethodPost, "/api/admin/import-products", payload)
	if err := ImportProducts(c); err != nil {
		t.Fatalf("ImportProducts failed: %v", err)
	}
	var a model.Product
	database.GetDB().First(&a, 1)
	if a.Price != 15 {
		t.Errorf("price = %v after re-import, want 15", a.Price)
	}
}

func TestBootstrapAdmin(t *testing.T) {
	setupHandlers(t)
	user, _ := registerUser(t, "future-admin@example.com", "password1")

	// Disabled entirely when no token is configured.
	configureBootstrapToken("")
	c, rec := newContext(t, http.MethodPost, "/api/admin/bootstrap", map[string]string{
		"email": user.Email,
		"token": "anything",
	})
	if err := BootstrapAdmin(c); err != nil {
		t.Fatalf("BootstrapAdmin failed: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("disabled bootstrap status = %d, want 403", rec.Code)
	}

	configureBootstrapToken("super-secret")

	c2, rec2 := newContext(t, http.MethodPost, "/api/admin/bootstrap", map[string]string{
		"email": user.Email,
		"token": "wrong-secret",
	})
	if err := BootstrapAdmin(c2); err != nil {
		t.Fatalf("BootstrapAdmin failed: %v", err)
	}
	if rec2.Code != http.StatusForbidden {
		t.Errorf("wrong token status = %d, want 403", rec2.Code)
	}

	c3, rec3 := newContext(t, http.MethodPost, "/api/admin/bootstrap", map[string]string{
		"email": "nobody@example.com",
		"token": "super-secret",
	})
	if err := BootstrapAdmin(c3); err != nil {
		t.Fatalf("BootstrapAdmin failed: %v", err)
	}
	if rec3.Code != http.StatusNotFound {
		t.Errorf("unknown email status = %d, want 404", rec3.Code)
	}

	c4, rec4 := newContext(t, http.MethodPost, "/api/admin/bootstrap", map[string]string{
		"email": user.Email,
		"token": "super-secret",
	})
	if err := BootstrapAdmin(c4); err != nil {
		t.Fatalf("BootstrapAdmin failed: %v", err)
	}
	if rec4.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec4.Code, rec4.Body.String())
	}

	var stored model.User
	database.GetDB().First(&stored, user.ID)
	if !stored.IsAdmin {
		t.Error("is_admin still false after bootstrap")
	}
}

func TestListAllOrdersIncludesOwnerEmail(t *testing.T) {
	setupHandlers(t)
	p := seedCatalogProduct(t, "Joined Item", 25, 10)
	_, token := registerUser(t, "owner@example.com", "password1")

	// One guest order, one account order.
	placeTestOrder(t, p.ID, 1)
	placeTestOrderAs(t, p.ID, 1, token)

	c, rec := newContext(t, http.MethodGet, "/api/admin/orders", nil)
	if err := ListAllOrders(c); err != nil {
		t.Fatalf("ListAllOrders failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	orders, _ := body["orders"].([]interface{})
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}

	withEmail := 0
	for _, raw := range orders {
		row := raw.(map[string]interface{})
		if _, ok := row["user_email"]; ok {
			withEmail++
		}
	}
	if withEmail != 1 {
		t.Errorf("orders with user_email = %d, want exactly the account order", withEmail)
	}
}

func TestDashboardStatsHandler(t *testing.T) {
	setupHandlers(t)
	p := seedCatalogProduct(t, "Stat Item", 10, 10)
	registerUser(t, "counted@example.com", "password1")
	placeTestOrder(t, p.ID, 2)

	c, rec := newContext(t, http.MethodGet, "/api/admin/stats", nil)
	if err := GetDashboardStats(c); err != nil {
		t.Fatalf("GetDashboardStats failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["total_orders"].(float64) != 1 {
		t.Errorf("total_orders = %v, want 1", body["total_orders"])
	}
	if body["total_revenue"].(float64) != 20 {
		t.Errorf("total_revenue = %v, want 20", body["total_revenue"])
	}
	if body["total_users"].(float64) != 1 {
		t.Errorf("total_users = %v, want 1", body["total_users"])
	}
}
