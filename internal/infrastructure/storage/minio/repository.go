package minio

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	"github.com/clauselens/clauselens/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrUploadFailed   = errors.New(errors.ErrCodeStorageError, "upload failed")
	ErrDownloadFailed = errors.New(errors.ErrCodeStorageError, "download failed")
)

// DocumentStore is the object-storage port for source documents.  Object keys
// are "documents/{analysisID}/{fileName}" and are recorded on the analysis
// record.
type DocumentStore interface {
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) error
	Download(ctx context.Context, objectKey string) ([]byte, error)
	Delete(ctx context.Context, objectKey string) error
	Exists(ctx context.Context, objectKey string) (bool, error)
	PresignedDownloadURL(ctx context.Context, objectKey string) (string, error)
}

type documentStore struct {
	client *Client
	logger logging.Logger
}

// NewDocumentStore builds a DocumentStore over the shared client.
func NewDocumentStore(client *Client, log logging.Logger) DocumentStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &documentStore{client: client, logger: log.Named("document_store")}
}

func (s *documentStore) bucket() string {
	return s.client.cfg.Bucket
}

func (s *documentStore) Upload(ctx context.Context, objectKey string, data []byte, contentType string) error {
	if objectKey == "" {
		return errors.InvalidParam("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.api.PutObject(ctx, s.bucket(), objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		s.logger.Error("Object upload failed",
			logging.String("object_key", objectKey), logging.Err(err))
		return ErrUploadFailed.WithCause(err)
	}

	s.logger.Debug("Object uploaded",
		logging.String("object_key", objectKey),
		logging.Int("size", len(data)),
	)
	return nil
}

func (s *documentStore) Download(ctx context.Context, objectKey string) ([]byte, error) {
	obj, err := s.client.api.GetObject(ctx, s.bucket(), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, ErrDownloadFailed.WithCause(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound.WithDetail(objectKey)
		}
		return nil, ErrDownloadFailed.WithCause(err)
	}
	return data, nil
}

func (s *documentStore) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.api.RemoveObject(ctx, s.bucket(), objectKey, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete object")
	}
	return nil
}

func (s *documentStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.bucket(), objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat object")
	}
	return true, nil
}

func (s *documentStore) PresignedDownloadURL(ctx context.Context, objectKey string) (string, error) {
	expiry := s.client.cfg.PresignExpiry
	if expiry == 0 {
		expiry = time.Hour
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.bucket(), objectKey, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign download url")
	}
	return u.String(), nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}
