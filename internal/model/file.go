package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// FileUpload is the metadata document for a file stored in GridFS. The bytes
// live in the bucket under GridFSID.
type FileUpload struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	GridFSID    bson.ObjectID `bson:"gridfs_id"`
	UploaderID  string        `bson:"uploader_id"`
	Name        string        `bson:"name"`
	StoredName  string        `bson:"stored_name"`
	ContentType string        `bson:"content_type"`
	SizeBytes   int64         `bson:"size_bytes"`
	CreatedAt   time.Time     `bson:"created_at"`
}
