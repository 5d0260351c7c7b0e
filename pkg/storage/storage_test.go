package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		name    string
		dest    string
		want    Destination
		wantErr bool
	}{
		{name: "s3", dest: "s3://bucket/path/to/out.jcol", want: Destination{Scheme: SchemeS3, Bucket: "bucket", Key: "path/to/out.jcol"}},
		{name: "gcs", dest: "gs://data/out.jcol", want: Destination{Scheme: SchemeGCS, Bucket: "data", Key: "out.jcol"}},
		{name: "upper case scheme", dest: "S3://bucket/k", want: Destination{Scheme: SchemeS3, Bucket: "bucket", Key: "k"}},
		{name: "local path", dest: "/tmp/out.jcol", wantErr: true},
		{name: "unsupported scheme", dest: "azure://c/out.jcol", wantErr: true},
		{name: "missing key", dest: "s3://bucket", wantErr: true},
		{name: "directory key", dest: "gs://bucket/dir/", wantErr: true},
		{name: "missing bucket", dest: "s3:///key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDestination(tt.dest)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDestinationString(t *testing.T) {
	d := Destination{Scheme: SchemeGCS, Bucket: "b", Key: "a/b.jcol"}
	assert.Equal(t, "gs://b/a/b.jcol", d.String())
}

func TestForURL_RejectsLocalPath(t *testing.T) {
	_, err := ForURL(context.Background(), "out.jcol", Options{}, nil)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}

func TestS3Sink_RejectsOtherScheme(t *testing.T) {
	s := &S3Sink{}
	err := s.Put(context.Background(), "unused", "gs://bucket/key")
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}

func TestGCSSink_RejectsOtherScheme(t *testing.T) {
	s := &GCSSink{}
	err := s.Put(context.Background(), "unused", "s3://bucket/key")
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeConfig))
}
