package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// StorageService object storage for delivery photos and attachments.
// The client may be nil when storage is not configured; uploads then fail
// with a clear error while the rest of the system keeps working.
type StorageService struct {
	client     *minio.Client
	bucketName string
}

func NewStorageService(client *minio.Client, bucketName string) *StorageService {
	return &StorageService{client: client, bucketName: bucketName}
}

// Enabled reports whether object storage is configured
func (s *StorageService) Enabled() bool {
	return s.client != nil
}

// EnsureBucket creates the bucket on startup if it does not exist
func (s *StorageService) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// UploadDeliveryPhoto stores a photo and returns its object path
func (s *StorageService) UploadDeliveryPhoto(ctx context.Context, reader io.Reader, fileName string, fileSize int64, contentType string) (string, error) {
	if s.client == nil {
		return "", NewBusinessRuleError("object storage is not configured")
	}

	objectName := fmt.Sprintf("deliveries/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return objectName, nil
}

// Download streams a stored object
func (s *StorageService) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, NewBusinessRuleError("object storage is not configured")
	}
	object, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return object, nil
}
