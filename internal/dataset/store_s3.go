package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3Store reads a Zarr hierarchy from an S3 bucket or an S3-compatible
// service such as MinIO or Ceph.
type s3Store struct {
	client   *s3.Client
	endpoint string
	bucket   string
	prefix   string
}

type s3StoreConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // Optional custom endpoint (path-style addressing)
	Anonymous bool
}

func newS3Store(ctx context.Context, cfg s3StoreConfig) (*s3Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Anonymous {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Store{
		client:   client,
		endpoint: cfg.Endpoint,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(joinKey(s.prefix, key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%s: %w", key, ErrKeyNotFound)
		}
		return nil, fmt.Errorf("s3 get %s failed: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s failed: %w", key, err)
	}
	return data, nil
}

func (s *s3Store) List(ctx context.Context, prefix string) ([]string, error) {
	full := joinKey(s.prefix, prefix)
	if full != "" {
		full += "/"
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(full),
		Delimiter: aws.String("/"),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s failed: %w", full, err)
		}
		for _, p := range page.CommonPrefixes {
			if name := childName(full, aws.ToString(p.Prefix)); name != "" {
				names = append(names, name)
			}
		}
		for _, obj := range page.Contents {
			if name := childName(full, aws.ToString(obj.Key)); name != "" {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (s *s3Store) String() string {
	return "s3://" + joinKey(s.bucket, s.prefix)
}

func (s *s3Store) Locator() string {
	return s.String() + " endpoint=" + s.endpoint
}
