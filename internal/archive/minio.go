// Package archive keeps a copy of a document body before it is replaced
// wholesale, so an accidental "clear" can be undone by hand.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gogotex/contentstore/internal/content"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Archiver stores the state of a document before it is overwritten.
type Archiver interface {
	Snapshot(ctx context.Context, doc *content.Document) error
}

// Noop discards snapshots.
type Noop struct{}

func (Noop) Snapshot(context.Context, *content.Document) error { return nil }

// ObjectKey is where the snapshot of one document version lives.
func ObjectKey(documentID string, version int64) string {
	return fmt.Sprintf("%s/%d.json", documentID, version)
}

// MinIOArchiver writes snapshots to a MinIO (or any S3 compatible) bucket.
type MinIOArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinIOArchiver creates a MinIO client and ensures the bucket exists.
func NewMinIOArchiver(cfg *MinIOConfig) (*MinIOArchiver, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	a := &MinIOArchiver{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, a.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return a, nil
}

// Snapshot uploads the document body under ObjectKey(doc.ID, doc.Version).
func (a *MinIOArchiver) Snapshot(ctx context.Context, doc *content.Document) error {
	_, err := a.client.PutObject(ctx, a.bucket, ObjectKey(doc.ID, doc.Version),
		bytes.NewReader(doc.Body), int64(len(doc.Body)),
		minio.PutObjectOptions{
			ContentType: "application/json",
			UserMetadata: map[string]string{
				"document-kind": doc.Kind,
			},
		})
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", doc.ID, err)
	}
	return nil
}

// Open returns a reader for a stored snapshot.
func (a *MinIOArchiver) Open(ctx context.Context, documentID string, version int64) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, ObjectKey(documentID, version), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// perform a stat to ensure object exists
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a GET URL for a snapshot valid for expires.
func (a *MinIOArchiver) PresignedURL(ctx context.Context, documentID string, version int64, expires time.Duration) (string, error) {
	u, err := a.client.PresignedGetObject(ctx, a.bucket, ObjectKey(documentID, version), expires, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
