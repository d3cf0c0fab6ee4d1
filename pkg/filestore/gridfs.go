package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS stores files in a MongoDB GridFS bucket, keyed by file name
type GridFS struct {
	bucket *gridfs.Bucket
}

func NewGridFS(db *mongo.Database) (*GridFS, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("media"))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return &GridFS{bucket: bucket}, nil
}

func (s *GridFS) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name, err := CleanPath(name)
	if err != nil {
		return "", err
	}
	if _, err := s.fileID(ctx, name); err == nil {
		name = alternateName(name)
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	if _, err := s.bucket.UploadFromStream(name, r); err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	return name, nil
}

func (s *GridFS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	stream, err := s.bucket.OpenDownloadStreamByName(name)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func (s *GridFS) Delete(ctx context.Context, name string) error {
	id, err := s.fileID(ctx, name)
	if err != nil {
		return err
	}
	return s.bucket.Delete(id)
}

func (s *GridFS) fileID(ctx context.Context, name string) (primitive.ObjectID, error) {
	cursor, err := s.bucket.Find(bson.M{"filename": name})
	if err != nil {
		return primitive.NilObjectID, err
	}
	defer cursor.Close(ctx)

	var file struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return primitive.NilObjectID, err
		}
		return primitive.NilObjectID, ErrNotFound
	}
	if err := cursor.Decode(&file); err != nil {
		return primitive.NilObjectID, err
	}
	return file.ID, nil
}
