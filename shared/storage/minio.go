package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"gestao-backend/shared/config"
	"gestao-backend/shared/logger"
)

// AvatarStore persists user avatar images and returns a public URL for
// them. Handlers depend on this interface so tests can stub it.
type AvatarStore interface {
	UploadAvatar(ctx context.Context, reader io.Reader, size int64, contentType, ext string) (string, error)
}

// MinIOStorage stores avatars in a MinIO bucket.
type MinIOStorage struct {
	client     *minio.Client
	bucketName string
	serverURL  string
}

// NewMinIOStorage connects to MinIO and ensures the avatar bucket exists.
func NewMinIOStorage(cfg *config.Config) (*MinIOStorage, error) {
	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %w", err)
	}

	client, err := minio.New(parsedURL.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	s := &MinIOStorage{
		client:     client,
		bucketName: cfg.MinIOBucketName,
		serverURL:  strings.TrimRight(cfg.MinIOServerURL, "/"),
	}

	if err := s.ensureBucket(); err != nil {
		return nil, err
	}

	logger.Get().Info("avatar storage ready", zap.String("bucket", s.bucketName))
	return s, nil
}

func (s *MinIOStorage) ensureBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	// Avatars are served straight from the bucket.
	policy := fmt.Sprintf(`{
		"Version": "2012-10-17",
		"Statement": [{
			"Effect": "Allow",
			"Principal": {"AWS": ["*"]},
			"Action": ["s3:GetObject"],
			"Resource": ["arn:aws:s3:::%s/*"]
		}]
	}`, s.bucketName)
	if err := s.client.SetBucketPolicy(ctx, s.bucketName, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}
	return nil
}

// UploadAvatar stores the image under a random object name and returns
// its public URL.
func (s *MinIOStorage) UploadAvatar(ctx context.Context, reader io.Reader, size int64, contentType, ext string) (string, error) {
	objectName := fmt.Sprintf("avatars/%s%s", uuid.New().String(), ext)

	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.serverURL, s.bucketName, objectName), nil
}
