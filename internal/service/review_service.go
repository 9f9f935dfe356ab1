package service

import (
	"context"
	"fmt"

	"shophub/internal/model"
	"shophub/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService handles review submission and keeps the owning product's
// aggregate rating consistent.
type ReviewService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReviewService(db *gorm.DB, log *zap.Logger) *ReviewService {
	return &ReviewService{db: db, log: log}
}

// AddReview persists the review and recomputes the product's rounded
// mean rating and review count in the same transaction. The product row
// is locked before the insert, so a concurrent submission for the same
// product waits until this one commits and its recompute sees this
// review.
func (s *ReviewService) AddReview(ctx context.Context, productID uint, customerName string, rating int, comment string) (*model.Review, error) {
	if customerName == "" {
		return nil, ErrMissingReviewer
	}
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review := model.Review{
		ProductID:    productID,
		CustomerName: customerName,
		Rating:       rating,
		Comment:      comment,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Taking the row lock with an UPDATE instead of SELECT FOR UPDATE
		// keeps the statement valid on SQLite. Under Read Committed a
		// later aggregate statement would not see a racing transaction's
		// committed review; blocking here first guarantees it does.
		res := tx.Model(&model.Product{}).
			Where("id = ?", productID).
			Update("reviews_count", gorm.Expr("reviews_count"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrProductNotFound, productID)
		}

		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		return tx.Exec(
			`UPDATE products SET
				rating = COALESCE((SELECT CAST(ROUND(AVG(rating)) AS INTEGER) FROM reviews WHERE product_id = ?), 0),
				reviews_count = (SELECT COUNT(*) FROM reviews WHERE product_id = ?)
			WHERE id = ?`,
			productID, productID, productID).Error
	})
	if err != nil {
		return nil, err
	}

	prometheus.ReviewCounter.Inc()
	s.log.Info("Review added",
		zap.Uint("product_id", productID),
		zap.Int("rating", rating))

	return &review, nil
}

// ListReviews returns a product's reviews, newest first.
func (s *ReviewService) ListReviews(ctx context.Context, productID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}
