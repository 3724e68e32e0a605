package storage

import (
	"context"
	"io"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSOptions configures GCS client initialization.
type GCSOptions struct {
	// ClientOptions are passed to the GCS client (credentials, endpoint, ...).
	ClientOptions []option.ClientOption
	// GoogleAccessID and PrivateKey sign download URLs when set.
	GoogleAccessID string
	PrivateKey     []byte
}

// GCSAdapter implements Storage using Google Cloud Storage.
type GCSAdapter struct {
	client   *gcs.Client
	accessID string
	key      []byte
}

// NewGCS constructs a GCS adapter.
func NewGCS(ctx context.Context, opts GCSOptions) (*GCSAdapter, error) {
	client, err := gcs.NewClient(ctx, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}

	return &GCSAdapter{client: client, accessID: opts.GoogleAccessID, key: opts.PrivateKey}, nil
}

func (g *GCSAdapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	w := g.client.Bucket(bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata

	n, err := io.Copy(w, r)
	if err != nil {
		_ = w.CloseWithError(err)
		return ObjectInfo{}, err
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{Bucket: bucket, Key: key, Size: n, ETag: w.Attrs().Etag}, nil
}

func (g *GCSAdapter) DeleteObject(ctx context.Context, bucket, key string) error {
	return g.client.Bucket(bucket).Object(key).Delete(ctx)
}

func (g *GCSAdapter) PresignGet(_ context.Context, bucket, key string, expiry time.Duration) (string, error) {
	if g.accessID == "" || len(g.key) == 0 {
		return "", ErrMissingSigner
	}
	return gcs.SignedURL(bucket, key, &gcs.SignedURLOptions{
		Method:         http.MethodGet,
		Expires:        time.Now().Add(expiry),
		GoogleAccessID: g.accessID,
		PrivateKey:     g.key,
		Scheme:         gcs.SigningSchemeV4,
	})
}

func (g *GCSAdapter) Close() error {
	return g.client.Close()
}
