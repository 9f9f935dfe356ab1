package service

import (
	"context"

	"shophub/internal/model"

	"gorm.io/gorm"
)

// DashboardStats are the admin dashboard aggregates. Revenue sums
// total_amount across all orders regardless of status, cancelled
// included.
type DashboardStats struct {
	TotalOrders   int64   `json:"total_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
	PendingOrders int64   `json:"pending_orders"`
	TotalProducts int64   `json:"total_products"`
	TotalUsers    int64   `json:"total_users"`
}

// StatsService produces read-only aggregations for the admin dashboard.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// Dashboard gathers the five aggregates inside one transaction so they
// reflect a single observation point rather than independently-timed
// reads.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Order{}).Count(&stats.TotalOrders).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Order{}).
			Select("COALESCE(SUM(total_amount), 0)").
			Scan(&stats.TotalRevenue).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Order{}).
			Where("status = ?", model.OrderStatusPending).
			Count(&stats.PendingOrders).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Product{}).Count(&stats.TotalProducts).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Count(&stats.TotalUsers).Error
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
