// Package source fetches spreadsheet bytes from the local filesystem or S3.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const s3Scheme = "s3://"

// ObjectGetter is the part of the S3 API the reader needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Reader reads files by location. Plain paths are read from disk and
// s3://bucket/key locations through an S3 client built on first use.
type Reader struct {
	Region string

	logger *zap.Logger

	once  sync.Once
	s3    ObjectGetter
	s3Err error
}

// NewReader returns a Reader. region may be empty to use the AWS defaults.
func NewReader(region string, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{Region: region, logger: logger}
}

// WithS3 returns a Reader that uses client for s3:// locations.
func WithS3(client ObjectGetter, logger *zap.Logger) *Reader {
	r := NewReader("", logger)
	r.s3 = client
	r.once.Do(func() {})
	return r
}

// Name returns the file name of a location, used to pick a parser.
func Name(location string) string {
	if strings.HasPrefix(location, s3Scheme) {
		return path.Base(location)
	}
	return filepath.Base(location)
}

// IsRemote reports whether location is an S3 URI.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, s3Scheme)
}

// Read returns the contents at location.
func (r *Reader) Read(ctx context.Context, location string) ([]byte, error) {
	if !IsRemote(location) {
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", location, err)
		}
		return data, nil
	}

	bucket, key, err := splitS3(location)
	if err != nil {
		return nil, err
	}

	client, err := r.client(ctx)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Fetching object", zap.String("bucket", bucket), zap.String("key", key))

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func (r *Reader) client(ctx context.Context) (ObjectGetter, error) {
	r.once.Do(func() {
		var opts []func(*config.LoadOptions) error
		if r.Region != "" {
			opts = append(opts, config.WithRegion(r.Region))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			r.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		r.s3 = s3.NewFromConfig(awsCfg)
	})
	return r.s3, r.s3Err
}

func splitS3(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q: want s3://bucket/key", location)
	}
	return bucket, key, nil
}
