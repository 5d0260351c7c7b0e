// Package storage uploads finished columnar files to object storage.
//
// Destinations are URLs: s3://bucket/key goes through the AWS S3 multipart
// uploader and gs://bucket/object through the Google Cloud Storage client.
// Credentials are taken from the environment the way each SDK resolves them.
package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

// Scheme identifies an object store.
type Scheme string

const (
	SchemeS3  Scheme = "s3"
	SchemeGCS Scheme = "gs"
)

// Sink copies a local file to a remote destination.
type Sink interface {
	Put(ctx context.Context, localPath, dest string) error
}

// Destination is a parsed upload URL.
type Destination struct {
	Scheme Scheme
	Bucket string
	Key    string
}

// String returns the destination as a URL.
func (d Destination) String() string {
	return string(d.Scheme) + "://" + d.Bucket + "/" + d.Key
}

// ParseDestination parses s3://bucket/key or gs://bucket/object. The key
// may not be empty and may not end with a slash.
func ParseDestination(dest string) (Destination, error) {
	u, err := url.Parse(dest)
	if err != nil {
		return Destination{}, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "invalid upload destination").
			WithDetail("destination", dest)
	}

	scheme := Scheme(strings.ToLower(u.Scheme))
	switch scheme {
	case SchemeS3, SchemeGCS:
	case "":
		return Destination{}, colerrors.New(colerrors.ErrorTypeConfig, "upload destination needs an s3:// or gs:// scheme").
			WithDetail("destination", dest)
	default:
		return Destination{}, colerrors.Newf(colerrors.ErrorTypeConfig, "unsupported upload scheme %q", u.Scheme).
			WithDetail("destination", dest)
	}

	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" || strings.HasSuffix(key, "/") {
		return Destination{}, colerrors.New(colerrors.ErrorTypeConfig, "upload destination must name a bucket and an object").
			WithDetail("destination", dest)
	}
	return Destination{Scheme: scheme, Bucket: u.Host, Key: key}, nil
}

// MinPartSize is the smallest multipart part S3 accepts.
const MinPartSize = manager.MinUploadPartSize

// Options configures the SDK clients.
type Options struct {
	// Region for S3; empty uses the SDK's resolution chain
	Region string
	// CredentialsFile for GCS; empty uses application default credentials
	CredentialsFile string
	// PartSize and Concurrency tune the S3 multipart uploader
	PartSize    int64
	Concurrency int
}

// ForURL returns a sink able to upload to dest.
func ForURL(ctx context.Context, dest string, opts Options, logger *zap.Logger) (Sink, error) {
	d, err := ParseDestination(dest)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	switch d.Scheme {
	case SchemeS3:
		return NewS3Sink(ctx, opts, logger)
	default:
		return NewGCSSink(ctx, opts, logger)
	}
}
