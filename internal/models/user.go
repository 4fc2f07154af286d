package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrUserNotFound = errors.New("user not found")

// DefaultRating is the rating assigned to newly created accounts.
const DefaultRating = 1000

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	PasswordHash string             `json:"-" bson:"passwordHash,omitempty"` // Never send to client
	IsAdmin      bool               `json:"isAdmin" bson:"isAdmin"`
	Rating       float64            `json:"mmr" bson:"mmr"`
	Wins         int                `json:"wins" bson:"wins"`
	Losses       int                `json:"losses" bson:"losses"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// UserInfo is the public view of a user sent to observers.
type UserInfo struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Rating   float64 `json:"mmr"`
	IsAdmin  bool    `json:"isAdmin"`
}

// CounterOutcome selects which per-user counter a concluded match increments.
type CounterOutcome string

const (
	CounterWin  CounterOutcome = "win"
	CounterLoss CounterOutcome = "loss"
)
