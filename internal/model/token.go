package model

import "time"

// TokenKind tells apart the tokens that share the tokens table
type TokenKind string

const (
	TokenAccess        TokenKind = "access"
	TokenRefresh       TokenKind = "refresh"
	TokenResetPassword TokenKind = "resetPassword"
	TokenVerifyEmail   TokenKind = "verifyEmail"
	TokenVerifyOTP     TokenKind = "verifyOtp"
)

// Token is a persisted token row. Access tokens are never stored.
type Token struct {
	ID          string    `gorm:"primaryKey" bson:"_id"`
	Value       string    `gorm:"index;not null" bson:"token"`
	UserID      string    `gorm:"index;not null" bson:"user"`
	Kind        TokenKind `gorm:"index;not null" bson:"type"`
	ExpiresAt   time.Time `gorm:"index" bson:"expires"`
	Blacklisted bool      `gorm:"default:false" bson:"blacklisted"`
	CreatedAt   time.Time `bson:"createdAt"`
}
