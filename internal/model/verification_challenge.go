package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// VerificationChallenge is one outstanding password reset attempt for an
// email address. A unique index on email keeps at most one document per
// identity; issuing a new code replaces the previous document in a single
// write.
type VerificationChallenge struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Email     string        `bson:"email"`
	Code      string        `bson:"code"`
	Attempts  int           `bson:"attempts"`
	Consumed  bool          `bson:"consumed"`
	IssuedAt  time.Time     `bson:"issued_at"`
	ExpiresAt time.Time     `bson:"expires_at"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

// Expired reports whether the challenge TTL has passed.
func (c *VerificationChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
