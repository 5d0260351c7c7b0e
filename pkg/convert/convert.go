// Package convert runs a complete JSON to columnar conversion.
//
// # Overview
//
// A Converter wires the stages together for one input:
//   - schema inference over a bounded sample
//   - row decoding against the inferred schema
//   - row group building, column encoding and file writing
//   - an optional upload of the finished file
//
// Malformed records and rows that do not fit the schema are skipped and
// counted; structural failures abort the run. The output is written to a
// temporary file next to the destination and renamed into place only when
// the footer has been written, so a failed or cancelled run leaves no file.
//
// # Basic Usage
//
//	cfg := config.Default()
//	cfg.Encoding.EnableDictionary = true
//
//	conv, err := convert.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	summary, err := conv.Run(ctx, input, "events.jcol")
package convert

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/colfile"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/config"
	"github.com/ajitpratap0/jsoncol/pkg/decoder"
	"github.com/ajitpratap0/jsoncol/pkg/encoding"
	"github.com/ajitpratap0/jsoncol/pkg/metrics"
	"github.com/ajitpratap0/jsoncol/pkg/observability"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/runstats"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
	"github.com/ajitpratap0/jsoncol/pkg/storage"
)

// CreatedBy is recorded in the footer of every file.
const CreatedBy = "jsoncol"

const writeBufferSize = 1 << 20

// outputFileMode replaces the owner-only mode of the temporary file.
const outputFileMode os.FileMode = 0o644

// Option configures a Converter.
type Option func(*Converter)

// WithMetrics records the run into m instead of a private collector set.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithSink uploads through sink instead of one chosen from the upload URL.
func WithSink(sink storage.Sink) Option {
	return func(c *Converter) { c.sink = sink }
}

// WithCreatedBy overrides the writer id stored in the footer.
func WithCreatedBy(id string) Option {
	return func(c *Converter) { c.createdBy = id }
}

// Converter converts JSON input to columnar files. A Converter may run
// several conversions, one at a time.
type Converter struct {
	cfg       *config.Config
	logger    *zap.Logger
	codec     compression.Compressor
	encoder   *encoding.Encoder
	metrics   *metrics.Metrics
	sink      storage.Sink
	createdBy string
}

// New validates cfg and prepares the codec and encoder.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Converter, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc, err := cfg.CompressionConfig()
	if err != nil {
		return nil, err
	}
	codec, err := compression.NewCompressor(cc)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "failed to create compressor")
	}
	enc, err := encoding.NewEncoder(cfg.EncodingOptions(codec))
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:       cfg,
		logger:    logger,
		codec:     codec,
		encoder:   enc,
		createdBy: CreatedBy,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	return c, nil
}

// Metrics returns the collectors the converter records into.
func (c *Converter) Metrics() *metrics.Metrics {
	return c.metrics
}

// Run converts in to the file at out; an empty out uses the configured
// output path. Seekable inputs are read twice, once for inference and once
// for conversion. Other inputs keep the inference sample in memory and
// replay it, which buffers the whole input when sampling is unbounded.
//
// On error the returned summary describes the progress made and no output
// file exists.
func (c *Converter) Run(ctx context.Context, in io.Reader, out string) (summary *Summary, err error) {
	if out == "" {
		out = c.cfg.Output.Path
	}
	summary = newSummary(out)

	monitor, merr := runstats.NewMonitor()
	if merr != nil {
		c.logger.Debug("resource monitoring unavailable", zap.Error(merr))
	}

	ctx, span := observability.StartSpan(ctx, "convert")
	defer func() {
		summary.Duration = span.Duration()
		if monitor != nil {
			summary.Usage = monitor.Sample()
		}
		span.SetAttribute("output", out)
		span.SetAttribute("rows_written", summary.RowsWritten)
		span.SetAttribute("rows_skipped", summary.RowsSkipped)
		span.End(err)
	}()

	src, s, err := c.infer(ctx, in, summary)
	if err != nil {
		return summary, err
	}
	summary.Schema = s

	err = observability.Stage(ctx, "write", func(ctx context.Context, span *observability.Span) error {
		werr := c.write(ctx, src, s, out, summary)
		span.SetAttribute("row_groups", summary.RowGroups)
		span.SetAttribute("bytes", summary.BytesWritten)
		return werr
	})
	if err != nil {
		return summary, err
	}

	c.logger.Info("conversion complete", summary.Fields()...)

	if dest := c.cfg.Output.Upload; dest != "" {
		err = observability.Stage(ctx, "upload", func(ctx context.Context, span *observability.Span) error {
			span.SetAttribute("destination", dest)
			if err := c.upload(ctx, out, dest); err != nil {
				return err
			}
			c.logger.Info("upload complete", zap.String("destination", dest), zap.Duration("duration", span.Duration()))
			return nil
		})
		if err != nil {
			return summary, err
		}
		summary.Uploaded = dest
	}

	if path := c.cfg.Observability.MetricsFile; path != "" {
		if err = c.metrics.WriteFile(path); err != nil {
			return summary, colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to write metrics file").
				WithDetail("path", path)
		}
	}
	return summary, nil
}

// infer derives the schema and returns the source the conversion pass
// reads from.
func (c *Converter) infer(ctx context.Context, in io.Reader, summary *Summary) (recordSource, *schema.Schema, error) {
	ctx, span := observability.StartSpan(ctx, "infer_schema")
	format := c.cfg.InputFormat()
	inferencer := schema.NewInferencer(c.cfg.Input.SampleSize, c.logger)

	var (
		src   recordSource
		s     *schema.Schema
		stats schema.InferenceStats
		err   error
	)
	if seeker, offset, ok := seekable(in); ok {
		s, stats, err = inferencer.Infer(ctx, records.NewReader(in, format))
		if err == nil {
			if _, serr := seeker.Seek(offset, io.SeekStart); serr != nil {
				err = colerrors.Wrap(serr, colerrors.ErrorTypeIO, "failed to rewind input")
			}
		}
		src = records.NewReader(in, format)
		span.SetAttribute("replay", false)
	} else {
		rec := newRecorder(records.NewReader(in, format))
		s, stats, err = inferencer.Infer(ctx, rec)
		src = rec.replay()
		span.SetAttribute("replay", true)
	}

	summary.Inference = stats
	c.metrics.SampledRecords.Set(float64(stats.Sampled))
	span.SetAttribute("sampled", stats.Sampled)
	span.SetAttribute("parse_errors", stats.ParseErrors)
	span.End(err)
	if err != nil {
		return nil, nil, err
	}

	c.logger.Info("schema inferred",
		zap.Int("fields", s.Len()),
		zap.Int("sampled", stats.Sampled),
		zap.Int("parse_errors", stats.ParseErrors))
	return src, s, nil
}

// seekable reports whether in can be rewound to its current offset. Pipes
// and terminals implement io.Seeker but fail to seek.
func seekable(in io.Reader) (io.Seeker, int64, bool) {
	seeker, ok := in.(io.Seeker)
	if !ok {
		return nil, 0, false
	}
	offset, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, false
	}
	return seeker, offset, true
}

// write streams every record of src into a temporary file and renames it
// to out once the footer is written.
func (c *Converter) write(ctx context.Context, src recordSource, s *schema.Schema, out string, summary *Summary) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*.tmp")
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to create output file").WithDetail("path", out)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		if rerr := os.Remove(tmp.Name()); rerr != nil && !os.IsNotExist(rerr) {
			c.logger.Warn("failed to remove temporary file", zap.String("path", tmp.Name()), zap.Error(rerr))
		}
	}()

	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	w := colfile.NewWriter(bw, s, colfile.WriterOptions{
		Compression: c.codec.Algorithm(),
		CreatedBy:   c.createdBy,
	})
	builder, err := columnar.NewBuilder(s, c.cfg.Encoding.BlockSize)
	if err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeConfig, "invalid block size")
	}
	dec := decoder.NewDecoder(s)
	maxSamples := c.cfg.Errors.MaxSamples

	var row columnar.Row
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		summary.RowsRead++
		if err == nil {
			row, err = dec.Decode(rec, row)
		}
		if err != nil {
			if !colerrors.IsRecoverable(err) {
				return err
			}
			summary.skip(err, maxSamples)
			c.metrics.Records.WithLabelValues(metrics.StatusSkipped).Inc()
			c.metrics.RecordErrors.WithLabelValues(string(colerrors.TypeOf(err))).Inc()
			c.logger.Debug("skipping record", zap.Error(err))
			continue
		}

		rg, err := builder.Append(row)
		if err != nil {
			return colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "failed to append row")
		}
		if rg != nil {
			if err := c.flush(ctx, w, rg, summary); err != nil {
				return err
			}
		}
	}
	if rg := builder.Flush(); rg != nil {
		if err := c.flush(ctx, w, rg, summary); err != nil {
			return err
		}
	}

	summary.IgnoredKeys = dec.IgnoredKeys()
	c.metrics.IgnoredKeys.Add(float64(summary.IgnoredKeys))

	footer, err := w.Close()
	if err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to flush output")
	}
	if err := tmp.Chmod(outputFileMode); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to set output permissions")
	}
	if err := tmp.Sync(); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to sync output")
	}
	if err := tmp.Close(); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to close output")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "failed to move output into place").WithDetail("path", out)
	}
	committed = true

	summary.Footer = footer
	summary.BytesWritten = w.Offset()
	c.metrics.BytesWritten.Add(float64(summary.BytesWritten))
	return nil
}

// flush encodes and writes one row group.
func (c *Converter) flush(ctx context.Context, w *colfile.Writer, rg *columnar.RowGroup, summary *Summary) error {
	return observability.Stage(ctx, "row_group", func(ctx context.Context, span *observability.Span) error {
		span.SetAttribute("index", rg.Index)
		span.SetAttribute("rows", rg.NumRows())

		timer := metrics.NewTimer("encode_row_group")
		blocks, err := c.encodeColumns(ctx, rg)
		c.metrics.EncodeLatency.Observe(timer.Stop().Seconds())
		if err != nil {
			return err
		}

		if err := w.WriteRowGroup(rg, blocks); err != nil {
			return err
		}

		summary.RowGroups++
		summary.RowsWritten += int64(rg.NumRows())
		c.metrics.RowGroups.Inc()
		c.metrics.Records.WithLabelValues(metrics.StatusWritten).Add(float64(rg.NumRows()))
		for _, b := range blocks {
			c.metrics.Blocks.WithLabelValues(string(b.Encoding)).Inc()
		}
		return nil
	})
}

// encodeColumns encodes every column of rg. With more than one worker the
// columns are encoded concurrently; the result is always in schema order.
func (c *Converter) encodeColumns(ctx context.Context, rg *columnar.RowGroup) ([]*encoding.EncodedBlock, error) {
	s := rg.Schema
	blocks := make([]*encoding.EncodedBlock, s.Len())

	workers := c.cfg.Encoding.Workers
	if workers <= 1 || s.Len() <= 1 {
		for i := range blocks {
			b, err := c.encoder.EncodeAs(s.Field(i), rg.Columns[i])
			if err != nil {
				return nil, err
			}
			blocks[i] = b
		}
		return blocks, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range blocks {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := c.encoder.EncodeAs(s.Field(i), rg.Columns[i])
			if err != nil {
				return err
			}
			blocks[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (c *Converter) upload(ctx context.Context, localPath, dest string) error {
	sink := c.sink
	if sink == nil {
		var err error
		sink, err = storage.ForURL(ctx, dest, c.cfg.StorageOptions(), c.logger)
		if err != nil {
			return err
		}
		if closer, ok := sink.(io.Closer); ok {
			defer closer.Close()
		}
	}
	if err := sink.Put(ctx, localPath, dest); err != nil {
		return colerrors.Wrap(err, colerrors.ErrorTypeIO, "upload failed").WithDetail("destination", dest)
	}
	return nil
}
