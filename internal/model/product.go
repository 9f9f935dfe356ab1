package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents an item in the catalog. InStock is derived from
// StockCount and is never written independently of it.
type Product struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Name         string         `json:"name" gorm:"type:varchar(255);not null"`
	Category     string         `json:"category" gorm:"type:varchar(100);index"`
	Price        float64        `json:"price" gorm:"not null"`
	OldPrice     *float64       `json:"old_price,omitempty"`
	Description  string         `json:"description" gorm:"type:text"`
	Image        string         `json:"image" gorm:"type:varchar(255)"`
	Rating       int            `json:"rating" gorm:"default:5"`
	ReviewsCount int            `json:"reviews_count" gorm:"default:0"`
	StockCount   int            `json:"stock_count" gorm:"default:0"`
	InStock      bool           `json:"in_stock" gorm:"default:false"`
	Badge        *string        `json:"badge,omitempty" gorm:"type:varchar(50)"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// Review belongs to exactly one product. Submitting one recomputes the
// product's rounded mean rating and review count.
type Review struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	ProductID    uint      `json:"product_id" gorm:"index;not null"`
	CustomerName string    `json:"customer_name" gorm:"type:varchar(100);not null"`
	Rating       int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment      string    `json:"comment" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}
