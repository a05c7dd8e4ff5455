package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User defines an account. Chats and battles live in their own collections
// and reference the user by id.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email          string             `bson:"email" json:"email"`
	Username       string             `bson:"username" json:"username"`
	PasswordHash   string             `bson:"passwordHash" json:"-"`
	TotalTokens    int64              `bson:"totalTokens" json:"totalTokens"`
	MonthlyTokens  int64              `bson:"monthlyTokens" json:"monthlyTokens"`
	LastTokenReset time.Time          `bson:"lastTokenReset" json:"lastTokenReset"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
