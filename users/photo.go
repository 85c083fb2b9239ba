package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrPhotoStorageDisabled = errors.New("photo storage is not configured")

// PhotoStorage keeps one profile picture per user.
type PhotoStorage interface {
	Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
	Remove(ctx context.Context, userID string) error
}

func photoObject(userID string) string {
	return "profilePics/" + userID + ".jpg"
}

type GCSPhotoStorage struct {
	client *storage.Client
	bucket string
}

// NewGCSPhotoStorage prefers explicit JSON credentials and otherwise uses
// application default credentials.
func NewGCSPhotoStorage(ctx context.Context, bucket, credentialsJSON string) (*GCSPhotoStorage, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSPhotoStorage{client: client, bucket: bucket}, nil
}

func (g *GCSPhotoStorage) Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	object := photoObject(userID)
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "no-cache"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, object), nil
}

func (g *GCSPhotoStorage) Remove(ctx context.Context, userID string) error {
	err := g.client.Bucket(g.bucket).Object(photoObject(userID)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSPhotoStorage) Close() error {
	return g.client.Close()
}

// MemoryPhotoStorage keeps uploads in process.
type MemoryPhotoStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
}

func NewMemoryPhotoStorage() *MemoryPhotoStorage {
	return &MemoryPhotoStorage{Objects: map[string][]byte{}}
}

func (m *MemoryPhotoStorage) Upload(_ context.Context, userID, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[photoObject(userID)] = data
	return "memory://" + photoObject(userID), nil
}

func (m *MemoryPhotoStorage) Remove(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, photoObject(userID))
	return nil
}
