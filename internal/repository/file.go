package repository

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/linnoak/teamboard-api/internal/model"
)

// FileRepository defines the interface for file upload storage. Bytes go to
// GridFS; a metadata document in its own collection carries uploader and
// content type.
type FileRepository interface {
	SaveFile(ctx context.Context, upload *model.FileUpload, source io.Reader) (*model.FileUpload, error)
	GetFile(ctx context.Context, id string) (*model.FileUpload, error)
	DownloadFile(ctx context.Context, upload *model.FileUpload, dest io.Writer) (int64, error)
	DeleteFile(ctx context.Context, id string) error
}

const fileCollection = "uploads"

type fileMongoRepository struct {
	db     *mongo.Database
	bucket *mongo.GridFSBucket
}

// NewFileMongoRepository creates a GridFS-backed FileRepository.
func NewFileMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) FileRepository {
	collection := db.Collection(fileCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "uploader_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create upload indexes")
	}

	return &fileMongoRepository{
		db:     db,
		bucket: db.GridFSBucket(),
	}
}

func (r *fileMongoRepository) SaveFile(
	ctx context.Context,
	upload *model.FileUpload,
	source io.Reader,
) (*model.FileUpload, error) {
	upload.StoredName = uuid.NewString()
	upload.CreatedAt = time.Now()

	gridID, err := r.bucket.UploadFromStream(ctx, upload.StoredName, source)
	if err != nil {
		return nil, err
	}
	upload.GridFSID = gridID

	result, err := r.db.Collection(fileCollection).InsertOne(ctx, upload)
	if err != nil {
		// Orphaned bytes are worse than a failed upload; best effort cleanup.
		_ = r.bucket.Delete(ctx, gridID)
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		upload.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return upload, nil
}

func (r *fileMongoRepository) GetFile(ctx context.Context, id string) (*model.FileUpload, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(fileCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var upload model.FileUpload
	if err := result.Decode(&upload); err != nil {
		return nil, err
	}

	return &upload, nil
}

func (r *fileMongoRepository) DownloadFile(
	ctx context.Context,
	upload *model.FileUpload,
	dest io.Writer,
) (int64, error) {
	return r.bucket.DownloadToStream(ctx, upload.GridFSID, dest)
}

func (r *fileMongoRepository) DeleteFile(ctx context.Context, id string) error {
	upload, err := r.GetFile(ctx, id)
	if err != nil {
		return err
	}

	if err := r.bucket.Delete(ctx, upload.GridFSID); err != nil && !errors.Is(err, mongo.ErrFileNotFound) {
		return err
	}

	_, err = r.db.Collection(fileCollection).DeleteOne(ctx, bson.M{"_id": upload.ID})
	return err
}
