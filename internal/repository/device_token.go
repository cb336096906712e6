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

// DeviceTokenRepository defines the interface for push device token
// operations. Tokens live in a collection rather than process memory so
// registrations survive restarts and multiple instances.
type DeviceTokenRepository interface {
	// UpsertDeviceToken registers a device for a user; re-registering the
	// same (user, token) pair refreshes the record in place.
	UpsertDeviceToken(ctx context.Context, token *model.DeviceToken) (*model.DeviceToken, error)

	// ListUserDeviceTokens returns every device registered for a user.
	ListUserDeviceTokens(ctx context.Context, userID string) ([]*model.DeviceToken, error)

	// DeleteDeviceToken removes a single device token.
	DeleteDeviceToken(ctx context.Context, token string) error
}

const deviceTokenCollection = "device_tokens"

type deviceTokenMongoRepository struct {
	db *mongo.Database
}

// NewDeviceTokenMongoRepository creates a MongoDB-backed DeviceTokenRepository.
func NewDeviceTokenMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) DeviceTokenRepository {
	collection := db.Collection(deviceTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "token", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create device token indexes")
	}

	return &deviceTokenMongoRepository{db: db}
}

func (r *deviceTokenMongoRepository) UpsertDeviceToken(
	ctx context.Context,
	token *model.DeviceToken,
) (*model.DeviceToken, error) {
	now := time.Now()
	token.ID = bson.ObjectID{}
	token.CreatedAt = now
	token.UpdatedAt = now

	_, err := r.db.Collection(deviceTokenCollection).ReplaceOne(
		ctx,
		bson.M{"user_id": token.UserID, "token": token.Token},
		token,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	return token, nil
}

func (r *deviceTokenMongoRepository) ListUserDeviceTokens(
	ctx context.Context,
	userID string,
) ([]*model.DeviceToken, error) {
	cursor, err := r.db.Collection(deviceTokenCollection).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tokens []*model.DeviceToken
	if err := cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *deviceTokenMongoRepository) DeleteDeviceToken(ctx context.Context, token string) error {
	_, err := r.db.Collection(deviceTokenCollection).DeleteMany(ctx, bson.M{"token": token})
	return err
}
