package handler

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"shophub/internal/model"
	"shophub/pkg/database"
	"shophub/pkg/jwtutil"
	"shophub/pkg/logger"
	"shophub/pkg/mailer"
	"shophub/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// generateSecureToken returns a random hex token for email verification
// and password reset links.
func generateSecureToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Phone      string `json:"phone"`
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postal_code"`
		Country    string `json:"country"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		log.Error("Invalid registration data", zap.String("email", req.Email))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password, first name, and last name are required"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	verificationToken := generateSecureToken()
	user := model.User{
		Email:             req.Email,
		Password:          string(hashedPassword),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Phone:             req.Phone,
		Address:           req.Address,
		City:              req.City,
		PostalCode:        req.PostalCode,
		Country:           req.Country,
		VerificationToken: &verificationToken,
	}

	// Save to database - track DB insert operation. A concurrent
	// registration for the same address can slip past the check above
	// and land on the unique index instead.
	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			log.Error("User already exists", zap.String("email", req.Email))
			prometheus.RecordAuthError("email_already_exists")
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	if notifier != nil {
		notifier.SendAsync(user.Email, mailer.EventEmailVerification, map[string]interface{}{
			"token":      verificationToken,
			"first_name": user.FirstName,
		})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"token":   token,
		"user":    user.Profile(),
	})
}

func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_login")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Find user in database - track DB operation duration. The response
	// is identical for an unknown email and a wrong password so accounts
	// cannot be enumerated.
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	// Verify password
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email or password"})
	}

	token, err := jwtutil.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"token":   token,
		"user":    user.Profile(),
	})
}

func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"user": user.Profile()})
}

func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	var req struct {
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		Phone      string `json:"phone"`
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postal_code"`
		Country    string `json:"country"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"first_name":  req.FirstName,
		"last_name":   req.LastName,
		"phone":       req.Phone,
		"address":     req.Address,
		"city":        req.City,
		"postal_code": req.PostalCode,
		"country":     req.Country,
	})
	if result.Error != nil {
		log.Error("Failed to update profile", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	log.Info("Profile updated", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Profile updated successfully",
	})
}

func ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse change password request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current password and new password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().First(&user, userID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	// Verify current password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		log.Error("Current password mismatch", zap.Uint("user_id", userID))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password is incorrect"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if err := database.GetDB().Model(&user).Update("password", string(hashedPassword)).Error; err != nil {
		log.Error("Failed to update password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to change password"})
	}

	log.Info("Password changed", zap.Uint("user_id", userID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}

// ForgotPassword always answers with the same generic message so the
// endpoint cannot be used to probe which emails have accounts.
func ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Email string `json:"email"`
	}

	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	genericResponse := echo.Map{
		"success": true,
		"message": "If an account exists with that email, a password reset link has been sent.",
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err != nil {
		return c.JSON(http.StatusOK, genericResponse)
	}

	resetToken := generateSecureToken()
	expires := time.Now().Add(1 * time.Hour)

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"reset_token":         resetToken,
		"reset_token_expires": expires,
	})
	if result.Error != nil {
		log.Error("Failed to store reset token", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process request"})
	}

	if notifier != nil {
		notifier.SendAsync(user.Email, mailer.EventPasswordReset, map[string]interface{}{
			"token":      resetToken,
			"first_name": user.FirstName,
		})
	}

	log.Info("Password reset requested", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, genericResponse)
}

func ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}

	if err := c.Bind(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().
		Where("reset_token = ? AND reset_token_expires > ?", req.Token, time.Now()).
		First(&user)
	if result.Error != nil {
		prometheus.RecordAuthError("invalid_reset_token")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired reset token"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset password"})
	}

	// Single-use: clear the token together with the password update
	defer prometheus.TrackDBOperation("update")(time.Now())
	updateResult := database.GetDB().Model(&user).Updates(map[string]interface{}{
		"password":            string(hashedPassword),
		"reset_token":         nil,
		"reset_token_expires": nil,
	})
	if updateResult.Error != nil {
		log.Error("Failed to reset password", zap.Error(updateResult.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reset password"})
	}

	log.Info("Password reset completed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Password reset successfully!",
	})
}

func VerifyEmail(c echo.Context) error {
	log := logger.FromContext(c)

	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification token required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result := database.GetDB().Model(&model.User{}).
		Where("verification_token = ?", token).
		Updates(map[string]interface{}{
			"email_verified":     true,
			"verification_token": nil,
		})
	if result.Error != nil {
		log.Error("Failed to verify email", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to verify email"})
	}
	if result.RowsAffected == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired verification token"})
	}

	log.Info("Email verified")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Email verified successfully!",
	})
}
