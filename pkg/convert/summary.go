package convert

import (
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/colfile"
	"github.com/ajitpratap0/jsoncol/pkg/runstats"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Summary reports the outcome of a conversion.
type Summary struct {
	OutputPath string
	// Uploaded is the remote destination, empty when no upload happened.
	Uploaded string
	Schema   *schema.Schema
	Footer   *colfile.Footer

	Inference schema.InferenceStats

	// RowsRead counts every record the input yielded, malformed ones included.
	RowsRead    int64
	RowsWritten int64
	RowsSkipped int64
	// Errors counts skipped records by error kind.
	Errors map[colerrors.ErrorType]int64
	// ErrorSamples holds the first skipped-record errors, in input order.
	ErrorSamples []error

	RowGroups    int
	BytesWritten int64
	IgnoredKeys  int64
	Duration     time.Duration
	Usage        runstats.Usage
}

func newSummary(out string) *Summary {
	return &Summary{
		OutputPath: out,
		Errors:     make(map[colerrors.ErrorType]int64),
	}
}

// skip accounts for a record that could not be converted.
func (s *Summary) skip(err error, maxSamples int) {
	s.RowsSkipped++
	s.Errors[colerrors.TypeOf(err)]++
	if len(s.ErrorSamples) < maxSamples {
		s.ErrorSamples = append(s.ErrorSamples, err)
	}
}

// Fields returns the summary as structured log fields.
func (s *Summary) Fields() []zap.Field {
	fields := []zap.Field{
		zap.String("output", s.OutputPath),
		zap.Int64("rows_read", s.RowsRead),
		zap.Int64("rows_written", s.RowsWritten),
		zap.Int64("rows_skipped", s.RowsSkipped),
		zap.Int("row_groups", s.RowGroups),
		zap.Int64("bytes_written", s.BytesWritten),
		zap.Int64("ignored_keys", s.IgnoredKeys),
		zap.Int("sampled", s.Inference.Sampled),
		zap.Duration("duration", s.Duration),
		zap.Uint64("peak_rss", s.Usage.PeakRSS),
	}
	for kind, n := range s.Errors {
		fields = append(fields, zap.Int64("errors_"+string(kind), n))
	}
	if s.Uploaded != "" {
		fields = append(fields, zap.String("uploaded", s.Uploaded))
	}
	return fields
}
