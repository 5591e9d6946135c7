package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/cache"
)

// ErrOpen is matched by every error returned from Open.
var ErrOpen = errors.New("dataset could not be opened")

// OpenError reports a dataset that could not be opened. No checks run
// against it.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening dataset %s: %v", e.Source, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

func (e *OpenError) Is(target error) bool { return target == ErrOpen }

// OpenOptions configures how remote stores are reached.
type OpenOptions struct {
	// EndpointURL overrides the object storage endpoint (S3-compatible
	// services, Azurite, fake GCS servers).
	EndpointURL string
	// Anonymous skips credential resolution for public buckets.
	Anonymous bool
	Region    string
	// AzureAccount names the storage account for az:// sources. Defaults to
	// $AZURE_STORAGE_ACCOUNT.
	AzureAccount string
	// CacheDir enables the on-disk object cache for remote stores.
	CacheDir string
}

type gcsStoreConfig struct {
	Bucket    string
	Prefix    string
	Endpoint  string
	Anonymous bool
}

// Open opens the Zarr dataset at source: a local path, file://, s3://,
// az:// or gs:// URI.
func Open(ctx context.Context, source string, opts OpenOptions) (*Handle, error) {
	store, err := NewStore(ctx, source, opts)
	if err != nil {
		return nil, &OpenError{Source: source, Err: err}
	}
	slog.Debug("opening dataset", "source", source, "store", store.String())
	return OpenStore(ctx, store, source)
}

// NewStore resolves source to a Store.
func NewStore(ctx context.Context, source string, opts OpenOptions) (Store, error) {
	u, err := url.Parse(source)
	// Single-letter schemes are Windows drive letters.
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return newDirStore(filepath.Clean(source))
	}

	bucket := u.Host
	prefix := strings.Trim(u.Path, "/")
	if u.Scheme == "file" {
		return newDirStore(filepath.FromSlash(u.Path))
	}
	if bucket == "" {
		return nil, fmt.Errorf("%s: missing bucket or container name", source)
	}

	var store Store
	switch u.Scheme {
	case "s3":
		store, err = newS3Store(ctx, s3StoreConfig{
			Bucket:    bucket,
			Prefix:    prefix,
			Region:    opts.Region,
			Endpoint:  opts.EndpointURL,
			Anonymous: opts.Anonymous,
		})
	case "az", "azure":
		account := opts.AzureAccount
		if account == "" {
			account = os.Getenv("AZURE_STORAGE_ACCOUNT")
		}
		store, err = newAzblobStore(azblobStoreConfig{
			Account:   account,
			Container: bucket,
			Prefix:    prefix,
			Endpoint:  opts.EndpointURL,
			Anonymous: opts.Anonymous,
		})
	case "gs", "gcs":
		store, err = newGCSStore(ctx, gcsStoreConfig{
			Bucket:    bucket,
			Prefix:    prefix,
			Endpoint:  opts.EndpointURL,
			Anonymous: opts.Anonymous,
		})
	default:
		return nil, fmt.Errorf("unsupported dataset URI scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return withCache(store, cache.New(opts.CacheDir)), nil
}

// Loader opens datasets with fixed options.
type Loader struct {
	Options OpenOptions
}

// Open opens source with the loader's options.
func (l Loader) Open(ctx context.Context, source string) (*Handle, error) {
	return Open(ctx, source, l.Options)
}
