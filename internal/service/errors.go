package service

import (
	"errors"
	"fmt"
)

// Business-rule errors surfaced to the request boundary.
var (
	ErrEmptyOrder          = errors.New("order must contain at least one item")
	ErrMissingCustomerInfo = errors.New("customer name and email are required")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidStatus       = errors.New("invalid order status")
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrMissingReviewer     = errors.New("name and rating are required")
)

// InsufficientStockError names the offending product and how many units
// are actually available.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: only %d left", e.ProductName, e.Available)
}
