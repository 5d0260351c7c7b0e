package storage

import (
	"context"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

// GCSSink uploads objects with the Cloud Storage client.
type GCSSink struct {
	client *storage.Client
	logger *zap.Logger
}

// NewGCSSink creates a Cloud Storage client.
func NewGCSSink(ctx context.Context, opts Options, logger *zap.Logger) (*GCSSink, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to create GCS client")
	}
	return &GCSSink{client: client, logger: logger}, nil
}

// Put uploads localPath to a gs:// destination.
func (s *GCSSink) Put(ctx context.Context, localPath, dest string) error {
	d, err := ParseDestination(dest)
	if err != nil {
		return err
	}
	if d.Scheme != SchemeGCS {
		return colerrors.Newf(colerrors.ErrorTypeConfig, "GCS sink cannot upload to %s", dest)
	}

	f, err := os.Open(localPath) //nolint:gosec // G304: path is the file this run produced
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to open file for upload").WithDetail("path", localPath)
	}
	defer f.Close()

	start := time.Now()
	writer := s.client.Bucket(d.Bucket).Object(d.Key).NewWriter(ctx)
	writer.ContentType = contentType
	writer.Metadata = map[string]string{
		"created": time.Now().UTC().Format(time.RFC3339),
	}

	n, err := io.Copy(writer, f)
	if err != nil {
		_ = writer.Close()
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to write to GCS").WithDetail("destination", dest)
	}
	if err := writer.Close(); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to close GCS writer").WithDetail("destination", dest)
	}

	s.logger.Info("file uploaded to GCS",
		zap.String("object", d.String()),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Close releases the client.
func (s *GCSSink) Close() error {
	return s.client.Close()
}
