package handler

import (
	"errors"
	"net/http"
	"strconv"

	"shophub/internal/model"
	"shophub/internal/service"
	"shophub/pkg/database"
	"shophub/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func parseIDParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// ListProducts handles retrieving the whole catalog
func ListProducts(c echo.Context) error {
	log := logger.FromContext(c)

	var products []model.Product
	result := database.GetDB().Find(&products)
	if result.Error != nil {
		log.Error("Failed to list products", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve products",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// GetProduct handles retrieving a single product by ID
func GetProduct(c echo.Context) error {
	log := logger.FromContext(c)
	id := c.Param("id")

	var product model.Product
	result := database.GetDB().First(&product, "id = ?", id)
	if result.Error != nil {
		log.Error("Product not found",
			zap.String("product_id", id),
			zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Product not found",
		})
	}

	return c.JSON(http.StatusOK, product)
}

// ListReviews handles retrieving all reviews for a product
func ListReviews(c echo.Context) error {
	log := logger.FromContext(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	svc := service.NewReviewService(database.GetDB(), log)
	reviews, err := svc.ListReviews(c.Request().Context(), productID)
	if err != nil {
		log.Error("Failed to list reviews",
			zap.Uint("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to retrieve reviews",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// AddReview handles submitting a review for a product
func AddReview(c echo.Context) error {
	log := logger.FromContext(c)

	productID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	var req struct {
		CustomerName string `json:"customer_name"`
		Rating       int    `json:"rating"`
		Comment      string `json:"comment"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid review request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	svc := service.NewReviewService(database.GetDB(), log)
	review, err := svc.AddReview(c.Request().Context(), productID, req.CustomerName, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingReviewer):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and rating are required"})
		case errors.Is(err, service.ErrInvalidRating):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
		case errors.Is(err, service.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
		}
		log.Error("Failed to add review",
			zap.Uint("product_id", productID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to add review"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"success":   true,
		"review_id": review.ID,
		"message":   "Review added successfully",
	})
}
