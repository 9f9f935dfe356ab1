package handler

import (
	"net/http"

	"shophub/pkg/logger"
	"shophub/pkg/mailer"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContactForm forwards a contact form submission to the store admin.
// Delivery is best-effort like every other notification.
func ContactForm(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" || req.Email == "" || req.Subject == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	if notifier != nil {
		notifier.SendAsync(adminEmail, mailer.EventContactForm, map[string]interface{}{
			"name":    req.Name,
			"email":   req.Email,
			"subject": req.Subject,
			"message": req.Message,
		})
	}

	log.Info("Contact form submitted", zap.String("subject", req.Subject))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Your message has been sent successfully!",
	})
}
