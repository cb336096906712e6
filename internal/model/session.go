package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Session represents one login. Sessions are deleted wholesale when the
// user's password is reset.
type Session struct {
	ID                   bson.ObjectID `bson:"_id,omitempty"`
	UserID               string        `bson:"user_id"`
	AccessToken          string        `bson:"access_token"`
	AccessTokenExpiresAt time.Time     `bson:"access_token_expires_at"`
	IPAddress            *string       `bson:"ip_address"`
	UserAgent            *string       `bson:"user_agent"`
	CreatedAt            time.Time     `bson:"created_at"`
	UpdatedAt            time.Time     `bson:"updated_at"`
}
