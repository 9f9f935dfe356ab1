package model

import (
	"time"
)

// User represents a customer account stored in the database
type User struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	Email             string     `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password          string     `json:"-" gorm:"type:varchar(255)"`
	FirstName         string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName          string     `json:"last_name" gorm:"type:varchar(100)"`
	Phone             string     `json:"phone,omitempty" gorm:"type:varchar(50)"`
	Address           string     `json:"address,omitempty" gorm:"type:varchar(255)"`
	City              string     `json:"city,omitempty" gorm:"type:varchar(100)"`
	PostalCode        string     `json:"postal_code,omitempty" gorm:"type:varchar(20)"`
	Country           string     `json:"country,omitempty" gorm:"type:varchar(100)"`
	IsAdmin           bool       `json:"is_admin" gorm:"default:false"`
	EmailVerified     bool       `json:"email_verified" gorm:"default:false"`
	VerificationToken *string    `json:"-" gorm:"type:varchar(64);index"`
	ResetToken        *string    `json:"-" gorm:"type:varchar(64);index"`
	ResetTokenExpires *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Profile is the public view of a user, safe to return to clients.
type Profile struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
	IsAdmin       bool   `json:"is_admin"`
	EmailVerified bool   `json:"email_verified"`
}

// Profile returns the user's public profile with the password and token
// state stripped.
func (u *User) Profile() Profile {
	return Profile{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         u.Phone,
		Address:       u.Address,
		City:          u.City,
		PostalCode:    u.PostalCode,
		Country:       u.Country,
		IsAdmin:       u.IsAdmin,
		EmailVerified: u.EmailVerified,
	}
}
