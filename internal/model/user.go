// Package model defines database models
package model

import "time"

type UserType string

const (
	UserTypeEmail  UserType = "email"
	UserTypeGoogle UserType = "google"
)

// RankBeginner is the rank every new account starts with
const RankBeginner = "beginner"

type User struct {
	ID              string    `gorm:"primaryKey" bson:"_id" json:"id"`
	Email           string    `gorm:"uniqueIndex;not null" bson:"email" json:"email"`
	PasswordHash    string    `gorm:"not null" bson:"password" json:"-"`
	Name            string    `bson:"name" json:"name"`
	FirstName       string    `bson:"firstName,omitempty" json:"firstName,omitempty"`
	LastName        string    `bson:"lastName,omitempty" json:"lastName,omitempty"`
	PictureURL      string    `bson:"pictureUrl" json:"pictureUrl"`
	Type            UserType  `gorm:"not null" bson:"type" json:"type"`
	IsEmailVerified bool      `gorm:"default:false" bson:"isEmailVerified" json:"isEmailVerified"`
	Rank            string    `bson:"rank" json:"rank"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
