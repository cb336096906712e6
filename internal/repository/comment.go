package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/linnoak/teamboard-api/internal/model"
)

// CommentRepository defines the interface for comment document operations.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	GetComment(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByPage(ctx context.Context, page string, limit, offset uint64) ([]*model.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

const commentCollection = "comments"

type commentMongoRepository struct {
	db *mongo.Database
}

// NewCommentMongoRepository creates a MongoDB-backed CommentRepository.
func NewCommentMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) CommentRepository {
	collection := db.Collection(commentCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "page", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "author_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create comment indexes")
	}

	return &commentMongoRepository{db: db}
}

func (r *commentMongoRepository) CreateComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	now := time.Now()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	result, err := r.db.Collection(commentCollection).InsertOne(ctx, comment)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		comment.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return comment, nil
}

func (r *commentMongoRepository) GetComment(ctx context.Context, id string) (*model.Comment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(commentCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var comment model.Comment
	if err := result.Decode(&comment); err != nil {
		return nil, err
	}

	return &comment, nil
}

func (r *commentMongoRepository) ListCommentsByPage(
	ctx context.Context,
	page string,
	limit, offset uint64,
) ([]*model.Comment, error) {
	if limit == 0 {
		limit = 20
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.db.Collection(commentCollection).Find(ctx, bson.M{"page": page}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var comments []*model.Comment
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *commentMongoRepository) DeleteComment(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(commentCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}
