package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ResetToken records the single-use state of a password reset token. The
// signed JWT the client holds carries the JTI; this document decides whether
// that JTI may still be spent.
type ResetToken struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	JTI       string        `bson:"jti"`
	UserID    bson.ObjectID `bson:"user_id"`
	Email     string        `bson:"email"`
	Used      bool          `bson:"used"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}
