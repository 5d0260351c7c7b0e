package storage

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

const contentType = "application/vnd.jsoncol"

// S3Sink uploads through the S3 multipart uploader.
type S3Sink struct {
	uploader *manager.Uploader
	logger   *zap.Logger
}

// NewS3Sink loads the default AWS configuration and builds an uploader.
func NewS3Sink(ctx context.Context, opts Options, logger *zap.Logger) (*S3Sink, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if opts.PartSize > 0 {
			u.PartSize = opts.PartSize
		}
		if opts.Concurrency > 0 {
			u.Concurrency = opts.Concurrency
		}
	})
	return &S3Sink{uploader: uploader, logger: logger}, nil
}

// Put uploads localPath to an s3:// destination.
func (s *S3Sink) Put(ctx context.Context, localPath, dest string) error {
	d, err := ParseDestination(dest)
	if err != nil {
		return err
	}
	if d.Scheme != SchemeS3 {
		return colerrors.Newf(colerrors.ErrorTypeConfig, "S3 sink cannot upload to %s", dest)
	}

	f, err := os.Open(localPath) //nolint:gosec // G304: path is the file this run produced
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to open file for upload").WithDetail("path", localPath)
	}
	defer f.Close()

	start := time.Now()
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.Bucket),
		Key:         aws.String(d.Key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"created": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to upload to S3").WithDetail("destination", dest)
	}

	s.logger.Info("file uploaded to S3",
		zap.String("location", result.Location),
		zap.Duration("duration", time.Since(start)))
	return nil
}
