package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DeviceToken maps a user to one push-capable device. A compound unique index
// on (user_id, token) makes re-registration idempotent.
type DeviceToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	Token     string        `bson:"token"`
	Platform  string        `bson:"platform"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
