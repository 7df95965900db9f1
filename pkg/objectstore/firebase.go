package objectstore

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const (
	firebaseDownloadHost      = "https://firebasestorage.googleapis.com"
	firebaseDownloadTokensKey = "firebaseStorageDownloadTokens"
)

// FirebaseStore writes to a Firebase Storage bucket through the Cloud Storage
// client. A positive chunk size makes every write a resumable upload.
type FirebaseStore struct {
	client    *storage.Client
	bucket    string
	chunkSize int
}

func NewFirebaseStore(ctx context.Context, bucket, credentialsFile string, chunkSize int) (*FirebaseStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &FirebaseStore{
		client:    client,
		bucket:    bucket,
		chunkSize: chunkSize,
	}, nil
}

func (s *FirebaseStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string, onProgress ProgressFunc) (string, error) {
	token := uuid.New().String()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = s.chunkSize
	w.Metadata = map[string]string{firebaseDownloadTokensKey: token}
	if onProgress != nil {
		w.ProgressFunc = func(transferred int64) {
			onProgress(Progress{BytesTransferred: transferred, TotalBytes: size})
		}
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize %s: %w", key, err)
	}
	if onProgress != nil {
		onProgress(Progress{BytesTransferred: size, TotalBytes: size})
	}

	return s.downloadURL(key, token), nil
}

func (s *FirebaseStore) downloadURL(key, token string) string {
	escaped := url.PathEscape(key)
	return fmt.Sprintf("%s/v0/b/%s/o/%s?alt=media&token=%s", firebaseDownloadHost, s.bucket, escaped, token)
}

func (s *FirebaseStore) Close() error {
	return s.client.Close()
}
