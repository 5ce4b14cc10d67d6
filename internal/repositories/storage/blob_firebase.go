package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

const downloadTokenKey = "firebaseStorageDownloadTokens"

// BlobFirebase stores objects in the app's Cloud Storage bucket
type BlobFirebase struct {
	bucket *gcs.BucketHandle
}

// NewBlobFirebase opens bucketName, or the app's default bucket when empty
func NewBlobFirebase(ctx context.Context, app *firebase.App, bucketName string) (repositories.BlobStore, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	var bucket *gcs.BucketHandle
	if bucketName == "" {
		bucket, err = client.DefaultBucket()
	} else {
		bucket, err = client.Bucket(bucketName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage bucket: %w", err)
	}

	return &BlobFirebase{bucket: bucket}, nil
}

func (b *BlobFirebase) Upload(ctx context.Context, path, contentType string, r io.Reader) (*models.BlobHandle, error) {
	w := b.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{downloadTokenKey: uuid.NewString()}

	if _, err := io.Copy(w, r); err != nil {
		w.CloseWithError(err)
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("upload %s: %w", path, err)
	}

	attrs := w.Attrs()
	return &models.BlobHandle{
		Path:        attrs.Name,
		Bucket:      attrs.Bucket,
		ContentType: attrs.ContentType,
		Size:        attrs.Size,
	}, nil
}

// PublicURL returns the tokenised Firebase download URL of the object
func (b *BlobFirebase) PublicURL(ctx context.Context, handle *models.BlobHandle) (string, error) {
	attrs, err := b.bucket.Object(handle.Path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return "", fmt.Errorf("public url %s: %w", handle.Path, repositories.ErrNotFound)
		}
		return "", fmt.Errorf("public url %s: %w", handle.Path, err)
	}

	token := attrs.Metadata[downloadTokenKey]
	if token == "" {
		return "", fmt.Errorf("public url %s: object has no download token", handle.Path)
	}
	return downloadURL(attrs.Bucket, attrs.Name, token), nil
}

func downloadURL(bucket, path, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(path), url.QueryEscape(token))
}
