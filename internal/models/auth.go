package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a creator.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID         string   `json:"id"`
	ExternalID string   `json:"external_id"`
	Email      string   `json:"email"`
	FirstName  string   `json:"first_name"`
	Role       UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID     string   `json:"user_id"`
	ExternalID string   `json:"external_id"`
	Role       UserRole `json:"role"`
	Email      string   `json:"email"`
	jwt.RegisteredClaims
}

// OTPRequest starts registration and asks for a verification code.
type OTPRequest struct {
	ExternalID string `json:"external_id" validate:"required"`
	FirstName  string `json:"first_name" validate:"required,max=100"`
	LastName   string `json:"last_name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
	Gender     string `json:"gender" validate:"required,oneof=Male Female"`
	Password   string `json:"password" validate:"required,min=6"`
}

// OTPVerifyRequest confirms the emailed code.
type OTPVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric"`
}

// CompleteRegistrationRequest submits the academic placement.
type CompleteRegistrationRequest struct {
	Email     string            `json:"email" validate:"required,email"`
	Role      UserRole          `json:"role" validate:"required,oneof=RESPONDENT CREATOR"`
	Placement AcademicPlacement `json:"placement" validate:"required"`
}
