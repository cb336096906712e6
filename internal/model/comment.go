package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment represents a comment left on a workspace page.
type Comment struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Page        string        `bson:"page"`
	AuthorID    string        `bson:"author_id"`
	AuthorEmail string        `bson:"author_email"`
	Body        string        `bson:"body"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}
