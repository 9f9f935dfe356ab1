package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"shophub/internal/model"
	"shophub/internal/service"
	"shophub/pkg/database"
	"shophub/pkg/logger"
	"shophub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetDashboardStats returns the admin dashboard aggregates
func GetDashboardStats(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	svc := service.NewStatsService(database.GetDB())
	stats, err := svc.Dashboard(c.Request().Context())
	if err != nil {
		log.Error("Failed to compute dashboard stats", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to compute stats"})
	}

	return c.JSON(http.StatusOK, stats)
}

type adminOrderRow struct {
	model.Order
	UserEmail *string `json:"user_email,omitempty"`
}

// ListAllOrders returns every order, newest first, with the owning
// account's email when the order is not a guest order.
func ListAllOrders(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var orders []adminOrderRow
	err := database.GetDB().Table("orders").
		Select("orders.*, users.email AS user_email").
		Joins("LEFT JOIN users ON users.id = orders.user_id").
		Order("orders.created_at DESC").
		Scan(&orders).Error
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetOrderDetail returns one order with its items for the admin back-office
func GetOrderDetail(c echo.Context) error {
	log := logger.FromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var order model.Order
	if err := database.GetDB().Preload("Items").First(&order, orderID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
	}

	var userEmail *string
	if order.UserID != nil {
		var user model.User
		if err := database.GetDB().Select("email").First(&user, *order.UserID).Error; err == nil {
			userEmail = &user.Email
		}
	}

	log.Info("Admin viewed order", zap.Uint("order_id", order.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"order":      order,
		"items":      order.Items,
		"user_email": userEmail,
	})
}

// UpdateOrderStatus performs an admin state transition on an order
func UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	svc := service.NewOrderService(database.GetDB(), notifier, log)
	_, err = svc.SetStatus(c.Request().Context(), orderID, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid status"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		log.Error("Failed to update order status",
			zap.Uint("order_id", orderID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order status"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Order status updated",
	})
}

// ListUsers returns all accounts for the admin back-office
func ListUsers(c echo.Context) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	err := database.GetDB().
		Select("id", "email", "first_name", "last_name", "phone", "created_at", "is_admin").
		Order("created_at DESC").
		Find(&users).Error
	if err != nil {
		log.Error("Failed to list users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve users"})
	}

	profiles := make([]model.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}

	return c.JSON(http.StatusOK, echo.Map{"users": profiles})
}

// ProductRequest defines the structure for product creation/update requests
type ProductRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"old_price"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	StockCount  int      `json:"stock_count"`
	Badge       *string  `json:"badge"`
}

// CreateProduct handles creating a new catalog product
func CreateProduct(c echo.Context) error {
	log := logger.FromContext(c)

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Name == "" || req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive price are required"})
	}
	if req.StockCount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock count must not be negative"})
	}

	// in_stock is always derived from stock_count, never set directly
	product := model.Product{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Description: req.Description,
		Image:       req.Image,
		StockCount:  req.StockCount,
		InStock:     req.StockCount > 0,
		Badge:       req.Badge,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&product); result.Error != nil {
		log.Error("Failed to create product",
			zap.String("name", req.Name),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create product"})
	}

	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusCreated, echo.Map{
		"success":    true,
		"product_id": product.ID,
		"message":    "Product created successfully",
	})
}

// UpdateProduct handles updating an existing catalog product
func UpdateProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data",
			zap.String("product_id", id),
			zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if req.Name == "" || req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and a positive price are required"})
	}
	if req.StockCount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "stock count must not be negative"})
	}

	var product model.Product
	result := database.GetDB().First(&product, "id = ?", id)
	if result.Error != nil {
		log.Error("Product not found for update",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	product.Name = req.Name
	product.Category = req.Category
	product.Price = req.Price
	product.OldPrice = req.OldPrice
	product.Description = req.Description
	product.Image = req.Image
	product.StockCount = req.StockCount
	product.InStock = req.StockCount > 0
	product.Badge = req.Badge

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&product); result.Error != nil {
		log.Error("Failed to update product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update product"})
	}

	log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Product updated successfully",
	})
}

// DeleteProduct handles deleting a product (soft delete)
func DeleteProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	result := database.GetDB().Delete(&model.Product{}, "id = ?", id)
	if result.Error != nil {
		log.Error("Failed to delete product",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete product"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
	}

	log.Info("Product deleted", zap.String("product_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Product deleted successfully",
	})
}

// ImportProducts bulk-upserts catalog products by id. Used for catalog
// seeding; re-importing the same payload is idempotent.
func ImportProducts(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Products []model.Product `json:"products"`
	}
	if err := c.Bind(&req); err != nil || len(req.Products) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid products data"})
	}

	for i := range req.Products {
		req.Products[i].InStock = req.Products[i].StockCount > 0
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	result := database.GetDB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&req.Products)
	if result.Error != nil {
		log.Error("Failed to import products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to import products"})
	}

	log.Info("Products imported", zap.Int("count", len(req.Products)))
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"imported": len(req.Products),
		"message":  "Products imported successfully",
	})
}

// BootstrapAdmin grants the admin role to an account. It is guarded by
// an operator-provided token from the environment and disabled entirely
// when no token is configured; every attempt is logged.
func BootstrapAdmin(c echo.Context) error {
	log := logger.FromContext(c)

	if bootstrapToken == "" {
		prometheus.RecordAdminBootstrap("disabled")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "admin bootstrap is disabled"})
	}

	var req struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and token are required"})
	}

	if subtle.ConstantTimeCompare([]byte(req.Token), []byte(bootstrapToken)) != 1 {
		log.Warn("Admin bootstrap denied", zap.String("email", req.Email))
		prometheus.RecordAdminBootstrap("denied")
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid bootstrap token"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.User{}).
		Where("email = ?", req.Email).
		Update("is_admin", true)
	if result.Error != nil {
		log.Error("Failed to grant admin role", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to grant admin role"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	prometheus.RecordAdminBootstrap("granted")
	log.Info("Admin role granted", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "User is now admin",
	})
}
