// Package archive keeps a copy of every published sticker in an
// S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/prilive-com/packbot/internal/media"
)

// Archiver stores published artifacts.
type Archiver interface {
	Put(ctx context.Context, userID int64, packName string, art media.Artifact) (string, error)
}

// Config mirrors the archive section of the process config.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

// ObjectStore writes artifacts to MinIO or any S3-compatible service.
type ObjectStore struct {
	client *minio.Client
	cfg    Config
}

var _ Archiver = (*ObjectStore)(nil)

// New creates the client. The endpoint may be a bare host or a URL, in
// which case its scheme decides TLS.
func New(cfg Config) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &ObjectStore{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket when missing.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// Put uploads art and returns its object key.
func (s *ObjectStore) Put(ctx context.Context, userID int64, packName string, art media.Artifact) (string, error) {
	key := ObjectKey(packName, art.FileName, uuid.New())
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(art.Data), int64(len(art.Data)),
		minio.PutObjectOptions{
			ContentType: art.MIME,
			UserMetadata: map[string]string{
				"user-id": strconv.FormatInt(userID, 10),
				"format":  art.Format,
			},
		})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// ObjectKey groups artifacts by pack: <pack>/<id><ext>.
func ObjectKey(packName, fileName string, id uuid.UUID) string {
	return packName + "/" + id.String() + path.Ext(fileName)
}
