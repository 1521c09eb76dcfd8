package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher uploads export artifacts under a key prefix in the configured
// bucket (the gold layer of the medallion layout).
type Publisher struct {
	client *Client
	prefix string
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing under the given key prefix.
func NewPublisher(client *Client, prefix string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// PublishFiles uploads each local file under {prefix}/{runDate}/{basename}
// and returns the object keys written. Artifacts are small, so each upload
// is a single PutObject call.
func (p *Publisher) PublishFiles(ctx context.Context, runDate string, paths []string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, localPath := range paths {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return keys, fmt.Errorf("s3blob: read %s: %w", localPath, err)
		}

		key := path.Join(p.prefix, runDate, filepath.Base(localPath))
		contentType := mime.TypeByExtension(filepath.Ext(localPath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		_, err = p.client.S3().PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.client.Bucket()),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return keys, fmt.Errorf("s3blob: put object %s: %w", key, err)
		}

		p.logger.Info("published artifact",
			slog.String("key", key),
			slog.Int("bytes", len(data)),
		)
		keys = append(keys, key)
	}
	return keys, nil
}
