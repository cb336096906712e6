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

// ChallengeRepository defines the interface for verification challenge
// operations. The unique email index plus replace-style writes give the
// "at most one active challenge per identity" guarantee without any
// read-modify-write window.
type ChallengeRepository interface {
	// ReplaceChallenge stores a new challenge for its email, atomically
	// displacing any prior challenge for the same email.
	ReplaceChallenge(ctx context.Context, challenge *model.VerificationChallenge) (*model.VerificationChallenge, error)

	// GetChallengeByEmail retrieves the current challenge for an email.
	GetChallengeByEmail(ctx context.Context, email string) (*model.VerificationChallenge, error)

	// ConsumeChallenge marks the challenge consumed if and only if it still
	// matches (same code, unconsumed, unexpired, under the attempt limit).
	// Returns mongo.ErrNoDocuments when no such challenge exists, so exactly
	// one concurrent caller can win.
	ConsumeChallenge(ctx context.Context, email, code string, attemptLimit int) (*model.VerificationChallenge, error)

	// IncrementAttempts bumps the attempt counter and returns the updated
	// challenge.
	IncrementAttempts(ctx context.Context, email string) (*model.VerificationChallenge, error)

	// DeleteChallenge removes the challenge for an email, if any.
	DeleteChallenge(ctx context.Context, email string) error
}

const challengeCollection = "verification_challenges"

type challengeMongoRepository struct {
	db *mongo.Database
}

// NewChallengeMongoRepository creates a MongoDB-backed ChallengeRepository.
func NewChallengeMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ChallengeRepository {
	collection := db.Collection(challengeCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create verification challenge indexes")
	}

	return &challengeMongoRepository{db: db}
}

func (r *challengeMongoRepository) ReplaceChallenge(
	ctx context.Context,
	challenge *model.VerificationChallenge,
) (*model.VerificationChallenge, error) {
	now := time.Now()
	challenge.ID = bson.ObjectID{}
	challenge.Attempts = 0
	challenge.Consumed = false
	challenge.CreatedAt = now
	challenge.UpdatedAt = now

	_, err := r.db.Collection(challengeCollection).ReplaceOne(
		ctx,
		bson.M{"email": challenge.Email},
		challenge,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return nil, err
	}

	return challenge, nil
}

func (r *challengeMongoRepository) GetChallengeByEmail(
	ctx context.Context,
	email string,
) (*model.VerificationChallenge, error) {
	result := r.db.Collection(challengeCollection).FindOne(ctx, bson.M{"email": email})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var challenge model.VerificationChallenge
	if err := result.Decode(&challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

func (r *challengeMongoRepository) ConsumeChallenge(
	ctx context.Context,
	email, code string,
	attemptLimit int,
) (*model.VerificationChallenge, error) {
	filter := bson.M{
		"email":      email,
		"code":       code,
		"consumed":   false,
		"attempts":   bson.M{"$lt": attemptLimit},
		"expires_at": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set": bson.M{
			"consumed":   true,
			"updated_at": time.Now(),
		},
	}

	result := r.db.Collection(challengeCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var challenge model.VerificationChallenge
	if err := result.Decode(&challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

func (r *challengeMongoRepository) IncrementAttempts(
	ctx context.Context,
	email string,
) (*model.VerificationChallenge, error) {
	update := bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result := r.db.Collection(challengeCollection).FindOneAndUpdate(
		ctx,
		bson.M{"email": email},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var challenge model.VerificationChallenge
	if err := result.Decode(&challenge); err != nil {
		return nil, err
	}

	return &challenge, nil
}

func (r *challengeMongoRepository) DeleteChallenge(ctx context.Context, email string) error {
	_, err := r.db.Collection(challengeCollection).DeleteOne(ctx, bson.M{"email": email})
	return err
}
