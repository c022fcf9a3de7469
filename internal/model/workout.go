package model

import "time"

type Workout struct {
	ID          string    `gorm:"primaryKey" bson:"_id" json:"id"`
	UserID      string    `gorm:"uniqueIndex:idx_workout_owner_name;not null" bson:"userId" json:"userId"`
	Name        string    `gorm:"uniqueIndex:idx_workout_owner_name;not null" bson:"name" json:"name"`
	Group       string    `gorm:"column:workout_group;index;not null" bson:"group" json:"group"`
	PictureURL  string    `bson:"pictureUrl" json:"pictureUrl"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
