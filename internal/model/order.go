package model

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is one of the five recognized states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order holds a snapshot of the customer's contact details captured at
// placement time. UserID is nil for guest orders. TotalAmount is computed
// server-side at creation and never changes afterwards.
type Order struct {
	ID              uint        `json:"id" gorm:"primarykey"`
	UserID          *uint       `json:"user_id,omitempty" gorm:"index"`
	CustomerName    string      `json:"customer_name" gorm:"type:varchar(200);not null"`
	CustomerEmail   string      `json:"customer_email" gorm:"type:varchar(100);not null"`
	CustomerPhone   string      `json:"customer_phone,omitempty" gorm:"type:varchar(50)"`
	CustomerAddress string      `json:"customer_address,omitempty" gorm:"type:varchar(255)"`
	TotalAmount     float64     `json:"total_amount" gorm:"not null"`
	PaymentMethod   string      `json:"payment_method" gorm:"type:varchar(50);not null"`
	Status          OrderStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is an immutable line-item snapshot. Price is the price shown to
// the customer at order time, independent of later product edits.
type OrderItem struct {
	ID          uint    `json:"id" gorm:"primarykey"`
	OrderID     uint    `json:"order_id" gorm:"index;not null"`
	ProductID   uint    `json:"product_id" gorm:"index;not null"`
	ProductName string  `json:"product_name" gorm:"type:varchar(255);not null"`
	Quantity    int     `json:"quantity" gorm:"not null;check:quantity > 0"`
	Price       float64 `json:"price" gorm:"not null"`
}
