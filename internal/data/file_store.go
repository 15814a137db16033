package data

import (
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UploadsBucket is the GridFS bucket holding dashboard uploads.
const UploadsBucket = "uploads"

type fileMetadata struct {
	ContentType string `bson:"content_type"`
	UploadedBy  string `bson:"uploaded_by"`
}

// FileStore keeps uploaded files in GridFS.
type FileStore struct {
	bucket *gridfs.Bucket
}

// NewFileStore opens the uploads bucket.
func NewFileStore(db *mongo.Database) (*FileStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(UploadsBucket))
	if err != nil {
		return nil, fmt.Errorf("failed to open uploads bucket: %w", err)
	}
	return &FileStore{bucket: bucket}, nil
}

// Save streams r into the bucket under name and returns the new file id.
func (s *FileStore) Save(name, contentType, uploadedBy string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(fileMetadata{ContentType: contentType, UploadedBy: uploadedBy})
	id, err := s.bucket.UploadFromStream(name, r, opts)
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}
	return id.Hex(), nil
}

// Open returns a reader over the file and its description. The caller closes the reader.
func (s *FileStore) Open(id string) (io.ReadCloser, *StoredFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil, ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open file %s: %w", id, err)
	}

	f := stream.GetFile()
	var meta fileMetadata
	if len(f.Metadata) > 0 {
		if err := bson.Unmarshal(f.Metadata, &meta); err != nil {
			_ = stream.Close()
			return nil, nil, fmt.Errorf("failed to decode metadata of %s: %w", id, err)
		}
	}
	return stream, &StoredFile{
		ID:          id,
		Name:        f.Name,
		ContentType: meta.ContentType,
		Size:        f.Length,
		UploadedAt:  f.UploadDate,
	}, nil
}

// Delete removes a file and its chunks.
func (s *FileStore) Delete(id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	if err := s.bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file %s: %w", id, err)
	}
	return nil
}
