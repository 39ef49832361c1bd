package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/synaptica-ai/cardiorisk/pkg/common/logger"
)

// maxArtifactBytes bounds a single artifact read.
const maxArtifactBytes = 256 << 20

var (
	ErrArtifactTooLarge = errors.New("artifact exceeds size limit")
	ErrUnsupportedURI   = errors.New("unsupported artifact uri")
)

// ArtifactSource fetches trained artifact bytes by URI.
type ArtifactSource interface {
	Read(ctx context.Context, uri string) ([]byte, error)
}

// FileSource reads artifacts from local disk. Relative paths resolve against
// Dir.
type FileSource struct {
	Dir string
}

func (f FileSource) Read(ctx context.Context, uri string) ([]byte, error) {
	path := strings.TrimPrefix(uri, "file://")
	if !filepath.IsAbs(path) && f.Dir != "" {
		path = filepath.Join(f.Dir, path)
	}
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	logger.Log.WithField("path", path).Debug("Reading artifact from disk")
	return readLimited(file, uri)
}

// S3API is the subset of the S3 client used here.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads artifacts addressed as s3://bucket/key.
type S3Source struct {
	client S3API
}

func NewS3Source(client S3API) *S3Source {
	return &S3Source{client: client}
}

// NewS3Client builds a client from the default AWS credential chain. A
// non-empty endpoint targets S3 compatible stores such as MinIO.
func NewS3Client(ctx context.Context, endpoint string) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func (s *S3Source) Read(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", uri, err)
	}
	defer out.Body.Close()

	logger.Log.WithFields(map[string]interface{}{
		"bucket": bucket,
		"key":    key,
	}).Info("Reading artifact from S3")
	return readLimited(out.Body, uri)
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%q: %w", uri, ErrUnsupportedURI)
	}
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%q needs bucket and key: %w", uri, ErrUnsupportedURI)
	}
	return bucket, key, nil
}

// Router dispatches on URI scheme: s3:// goes to S3, everything else to
// Files.
type Router struct {
	Files FileSource
	S3    ArtifactSource
}

func (r Router) Read(ctx context.Context, uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "s3://") {
		if r.S3 == nil {
			return nil, fmt.Errorf("%q: no S3 source configured: %w", uri, ErrUnsupportedURI)
		}
		return r.S3.Read(ctx, uri)
	}
	if scheme, _, found := strings.Cut(uri, "://"); found && scheme != "file" {
		return nil, fmt.Errorf("%q: %w", uri, ErrUnsupportedURI)
	}
	return r.Files.Read(ctx, uri)
}

func readLimited(r io.Reader, uri string) ([]byte, error) {
	content, err := io.ReadAll(io.LimitReader(r, maxArtifactBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", uri, err)
	}
	if len(content) > maxArtifactBytes {
		return nil, fmt.Errorf("%s: %w", uri, ErrArtifactTooLarge)
	}
	return content, nil
}
