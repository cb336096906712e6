package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/linnoak/teamboard-api/internal/model"
)

// ResetTokenRepository defines the interface for password reset token
// operations.
type ResetTokenRepository interface {
	// CreateToken creates a new password reset token record.
	CreateToken(ctx context.Context, token *model.ResetToken) (*model.ResetToken, error)

	// GetTokenByJTI retrieves a token record by its JTI.
	GetTokenByJTI(ctx context.Context, jti string) (*model.ResetToken, error)

	// ConsumeToken marks the token used if and only if it is still unused.
	// Returns mongo.ErrNoDocuments when the token was already spent or never
	// existed, so exactly one concurrent caller can win.
	ConsumeToken(ctx context.Context, jti string) (*model.ResetToken, error)

	// InvalidateUserTokens marks every unused token for a user as used.
	InvalidateUserTokens(ctx context.Context, userID string) error
}

const resetTokenCollection = "reset_tokens"

type resetTokenMongoRepository struct {
	db *mongo.Database
}

// NewResetTokenMongoRepository creates a MongoDB-backed ResetTokenRepository.
func NewResetTokenMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ResetTokenRepository {
	collection := db.Collection(resetTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "jti", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create reset token indexes")
	}

	return &resetTokenMongoRepository{db: db}
}

func (r *resetTokenMongoRepository) CreateToken(
	ctx context.Context,
	token *model.ResetToken,
) (*model.ResetToken, error) {
	now := time.Now()
	token.CreatedAt = now
	token.UpdatedAt = now
	token.Used = false

	result, err := r.db.Collection(resetTokenCollection).InsertOne(ctx, token)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		token.ID = objectID
	}

	return token, nil
}

func (r *resetTokenMongoRepository) GetTokenByJTI(
	ctx context.Context,
	jti string,
) (*model.ResetToken, error) {
	result := r.db.Collection(resetTokenCollection).FindOne(ctx, bson.M{"jti": jti})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.ResetToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *resetTokenMongoRepository) ConsumeToken(
	ctx context.Context,
	jti string,
) (*model.ResetToken, error) {
	filter := bson.M{
		"jti":  jti,
		"used": false,
	}
	update := bson.M{
		"$set": bson.M{
			"used":       true,
			"updated_at": time.Now(),
		},
	}

	result := r.db.Collection(resetTokenCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var token model.ResetToken
	if err := result.Decode(&token); err != nil {
		return nil, err
	}

	return &token, nil
}

func (r *resetTokenMongoRepository) InvalidateUserTokens(ctx context.Context, userID string) error {
	objectID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	filter := bson.M{
		"user_id": objectID,
		"used":    false,
	}
	update := bson.M{
		"$set": bson.M{
			"used":       true,
			"updated_at": time.Now(),
		},
	}

	_, err = r.db.Collection(resetTokenCollection).UpdateMany(ctx, filter, update)
	return err
}
