package service

import (
	"context"
	"errors"
	"fmt"

	"shophub/internal/model"
	"shophub/pkg/mailer"
	"shophub/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier is the outbound notification capability consumed by the
// services. Delivery is fire-and-forget; implementations must never
// block the caller on delivery.
type Notifier interface {
	SendAsync(to, event string, payload map[string]interface{})
}

// OrderService converts carts into persisted orders and keeps catalog
// stock consistent while doing so.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
	log      *zap.Logger
}

func NewOrderService(db *gorm.DB, notifier Notifier, log *zap.Logger) *OrderService {
	return &OrderService{
		db:       db,
		notifier: notifier,
		log:      log,
	}
}

// OrderLineRequest is one flattened cart line as submitted by the client.
// Price is whatever the client displayed at cart time; it is recorded on
// the line item but never trusted for the order total.
type OrderLineRequest struct {
	ProductID uint    `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// PlaceOrderRequest carries the customer snapshot and cart lines.
// UserID is resolved from the session token by the caller; nil means a
// guest order.
type PlaceOrderRequest struct {
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	CustomerPhone   string             `json:"customer_phone"`
	CustomerAddress string             `json:"customer_address"`
	PaymentMethod   string             `json:"payment_method"`
	Items           []OrderLineRequest `json:"items"`
	UserID          *uint              `json:"-"`
}

// PlaceOrder validates the cart against the catalog, persists the order
// with its line items and decrements stock as one atomic unit. The total
// is recomputed server-side from current catalog prices. Two concurrent
// orders can never both take the last unit: the decrement is a
// conditional update gated on the remaining stock, and a failed gate
// rolls back the whole order.
func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*model.Order, error) {
	if len(req.Items) == 0 {
		prometheus.RecordOrderError("empty_order")
		return nil, ErrEmptyOrder
	}
	if req.CustomerName == "" || req.CustomerEmail == "" {
		prometheus.RecordOrderError("missing_customer_info")
		return nil, ErrMissingCustomerInfo
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			prometheus.RecordOrderError("invalid_quantity")
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, line.ProductID)
		}
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]model.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			var product model.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrProductNotFound, line.ProductID)
				}
				return err
			}

			if product.StockCount < line.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.StockCount,
				}
			}

			// The authoritative catalog price drives the total. The
			// client-echoed price is kept on the line item as the display
			// snapshot the customer saw.
			total += product.Price * float64(line.Quantity)
			snapshotPrice := line.Price
			if snapshotPrice <= 0 {
				snapshotPrice = product.Price
			}

			items = append(items, model.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    line.Quantity,
				Price:       snapshotPrice,
			})
		}

		// Conditional decrement: both SET expressions see the pre-update
		// stock_count, so in_stock tracks the decremented value.
		for _, line := range req.Items {
			res := tx.Model(&model.Product{}).
				Where("id = ? AND stock_count >= ?", line.ProductID, line.Quantity).
				Updates(map[string]interface{}{
					"stock_count": gorm.Expr("stock_count - ?", line.Quantity),
					"in_stock":    gorm.Expr("stock_count - ? > 0", line.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// Lost the race against a concurrent order
				var current model.Product
				if err := tx.First(&current, line.ProductID).Error; err != nil {
					return fmt.Errorf("%w: %d", ErrProductNotFound, line.ProductID)
				}
				return &InsufficientStockError{
					ProductID:   current.ID,
					ProductName: current.Name,
					Available:   current.StockCount,
				}
			}
		}

		order = model.Order{
			UserID:          req.UserID,
			CustomerName:    req.CustomerName,
			CustomerEmail:   req.CustomerEmail,
			CustomerPhone:   req.CustomerPhone,
			CustomerAddress: req.CustomerAddress,
			TotalAmount:     total,
			PaymentMethod:   req.PaymentMethod,
			Status:          model.OrderStatusPending,
			Items:           items,
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			prometheus.RecordOrderError("insufficient_stock")
		} else if errors.Is(err, ErrProductNotFound) {
			prometheus.RecordOrderError("product_not_found")
		}
		return nil, err
	}

	prometheus.OrderPlacedCounter.Inc()
	prometheus.RevenueCounter.Add(order.TotalAmount)

	s.log.Info("Order placed",
		zap.Uint("order_id", order.ID),
		zap.Float64("total", order.TotalAmount),
		zap.Int("items", len(order.Items)),
		zap.Bool("guest", order.UserID == nil))

	if s.notifier != nil {
		s.notifier.SendAsync(order.CustomerEmail, mailer.EventOrderConfirmation, map[string]interface{}{
			"order_id":      order.ID,
			"customer_name": order.CustomerName,
			"total":         order.TotalAmount,
		})
	}

	return &order, nil
}

// GetOrder returns an order with its line items.
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListUserOrders returns all orders owned by the user, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// GetUserOrder returns a single order only if it is owned by the user.
func (s *OrderService) GetUserOrder(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetStatus performs an admin status transition and fires the
// "status changed" notification. Any recognized status may be set from
// any other; the state machine is not enforced as forward-only.
func (s *OrderService) SetStatus(ctx context.Context, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var order model.Order
	if err := s.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&order).Update("status", status).Error; err != nil {
		return nil, err
	}
	order.Status = status

	prometheus.RecordStatusTransition(string(status))
	s.log.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(status)))

	if s.notifier != nil {
		s.notifier.SendAsync(order.CustomerEmail, mailer.EventOrderStatusChanged, map[string]interface{}{
			"order_id":      order.ID,
			"customer_name": order.CustomerName,
			"status":        string(status),
		})
	}

	return &order, nil
}
