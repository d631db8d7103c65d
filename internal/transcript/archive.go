package transcript

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	defaultArchivePrefix = "transcripts"
	defaultArchiveRegion = "us-east-1"
)

// Archiver keeps a copy of the raw caption document of a video.
type Archiver interface {
	Archive(ctx context.Context, videoID string, data []byte) error
}

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	prefix          string
	region          string
	useSSL          bool
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithCredentials(accessKey, secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
		c.secretAccessKey = secretKey
	}
}

func WithPrefix(prefix string) MinioOpts {
	return func(c *minioConfig) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

type MinioArchiver struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewMinioArchiver(opts ...MinioOpts) (*MinioArchiver, error) {
	cfg := &minioConfig{
		prefix: defaultArchivePrefix,
		region: defaultArchiveRegion,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, fmt.Errorf("archive endpoint and bucket are required")
	}

	client, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
		Region: cfg.region,
	})
	if err != nil {
		return nil, err
	}

	return &MinioArchiver{cfg: cfg, client: client}, nil
}

func (m *MinioArchiver) Archive(ctx context.Context, videoID string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.cfg.bucket, m.objectName(videoID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/xml",
	})
	return err
}

func (m *MinioArchiver) objectName(videoID string) string {
	return fmt.Sprintf("%s/%s.xml", m.cfg.prefix, videoID)
}
