package models

import "time"

type User struct {
	ID          int        `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"unique;not null" json:"username"`
	Email       string     `gorm:"unique;not null" json:"email"`
	FullName    string     `json:"full_name"`
	DateOfBirth *time.Time `gorm:"type:date" json:"-"`
	Password    string     `gorm:"not null" json:"-"`
	Reputation  int        `gorm:"not null;default:0" json:"reputation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Username        string `json:"username" binding:"required,min=3,max=50"`
	FullName        string `json:"full_name" binding:"required,max=100"`
	DOB             string `json:"dob" binding:"required,datetime=2006-01-02"`
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
	Message   string    `json:"message"`
}
