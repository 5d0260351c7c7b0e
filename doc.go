// Package jsoncol converts JSON records into a compressed, block-structured
// columnar file.
//
// A conversion reads newline-delimited JSON or a single JSON array of
// objects, infers a schema from a bounded sample of the records, and writes
// the rows column by column in row groups of a fixed maximum size. Every
// column of every row group is encoded as pages, either plain or against a
// per-block dictionary, and each page is compressed independently.
//
// # Architecture
//
// The pipeline is single-pass and streaming, leaves first:
//
//	pkg/records     - JSON input to raw records (lines or array)
//	pkg/schema      - logical types, type widening, sample-based inference
//	pkg/decoder     - raw record + schema to a typed row
//	pkg/columnar    - typed rows to row groups of column buffers
//	pkg/encoding    - column buffer to pages, dictionary choice, statistics
//	pkg/compression - page codecs (snappy, gzip, lz4, zstd, brotli, s2, deflate)
//	pkg/colfile     - file writer and reader, footer and trailer
//	pkg/convert     - one conversion run: error accounting, atomic output
//
// Supporting packages: pkg/config (YAML, environment and flag resolution),
// pkg/colerrors (structured errors), pkg/logger (zap), pkg/metrics
// (Prometheus), pkg/observability (OpenTelemetry spans), pkg/runstats
// (process resource usage), pkg/storage (S3 and GCS upload) and pkg/mmap.
//
// # Quick Start
//
//	jsoncol convert -i events.json -o events.jcol -c zstd --enable-dict
//	jsoncol inspect events.jcol
//	jsoncol cat events.jcol
//
// From Go:
//
//	conv, err := convert.New(config.Default(), logger)
//	if err != nil {
//	    return err
//	}
//	summary, err := conv.Run(ctx, input, "events.jcol")
//
// # File Layout
//
//	[row group 0 blocks] ... [row group N-1 blocks] [footer JSON] [trailer]
//
// The 20 byte trailer holds the footer offset and length as little endian
// uint64 values followed by the magic "JCOL".
package jsoncol
