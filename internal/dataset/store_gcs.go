//go:build gcp

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gcsStore reads a Zarr hierarchy from a Google Cloud Storage bucket.
type gcsStore struct {
	client   *storage.Client
	endpoint string
	bucket   string
	prefix   string
}

func newGCSStore(ctx context.Context, cfg gcsStoreConfig) (Store, error) {
	var opts []option.ClientOption
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	// Uses application default credentials unless anonymous.
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &gcsStore{
		client:   client,
		endpoint: cfg.Endpoint,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *gcsStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := s.client.Bucket(s.bucket).Object(joinKey(s.prefix, key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("gcs read %s failed: %w", key, err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("gcs read %s failed: %w", key, err)
	}
	return data, nil
}

func (s *gcsStore) List(ctx context.Context, prefix string) ([]string, error) {
	full := joinKey(s.prefix, prefix)
	if full != "" {
		full += "/"
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: full, Delimiter: "/"})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list %s failed: %w", full, err)
		}
		key := attrs.Name
		if attrs.Prefix != "" {
			key = attrs.Prefix
		}
		if name := childName(full, key); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

func (s *gcsStore) String() string {
	return "gs://" + joinKey(s.bucket, s.prefix)
}

func (s *gcsStore) Locator() string {
	return s.String() + " endpoint=" + s.endpoint
}
