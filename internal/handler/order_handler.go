package handler

import (
	"errors"
	"net/http"

	"shophub/internal/middleware"
	"shophub/internal/service"
	"shophub/pkg/database"
	"shophub/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PlaceOrder converts the submitted cart into a persisted order. The
// route carries OptionalAuthMiddleware: a valid session associates the
// order with the account, anything else places a guest order.
func PlaceOrder(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse order request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.UserID = middleware.UserIDFromContext(c)

	log.Info("Order request received",
		zap.String("customer_email", req.CustomerEmail),
		zap.Int("items_count", len(req.Items)),
		zap.Bool("guest", req.UserID == nil))

	svc := service.NewOrderService(database.GetDB(), notifier, log)
	order, err := svc.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrEmptyOrder),
			errors.Is(err, service.ErrMissingCustomerInfo),
			errors.Is(err, service.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.As(err, &stockErr):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":      stockErr.Error(),
				"product_id": stockErr.ProductID,
				"available":  stockErr.Available,
			})
		}
		log.Error("Failed to create order", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"order_id": order.ID,
		"total":    order.TotalAmount,
		"message":  "Order created successfully",
	})
}

// GetOrder returns an order with its items, used for the confirmation
// display after checkout.
func GetOrder(c echo.Context) error {
	log := logger.FromContext(c)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	svc := service.NewOrderService(database.GetDB(), notifier, log)
	order, err := svc.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		log.Error("Failed to get order", zap.Uint("order_id", orderID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve order"})
	}

	return c.JSON(http.StatusOK, order)
}

// ListMyOrders returns the authenticated user's order history
func ListMyOrders(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	svc := service.NewOrderService(database.GetDB(), notifier, log)
	orders, err := svc.ListUserOrders(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to list orders", zap.Uint("user_id", userID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// GetMyOrder returns one of the authenticated user's orders; an order
// owned by someone else is indistinguishable from a missing one.
func GetMyOrder(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	svc := service.NewOrderService(database.GetDB(), notifier, log)
	order, err := svc.GetUserOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found"})
		}
		log.Error("Failed to get order",
			zap.Uint("user_id", userID),
			zap.Uint("order_id", orderID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve order"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"items": order.Items,
	})
}
