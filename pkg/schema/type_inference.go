package schema

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/records"
)

// Source is a lazy sequence of raw records. records.Reader implements it.
type Source interface {
	Next() (*records.Record, error)
}

// InferenceStats describes what the inferencer looked at.
type InferenceStats struct {
	Sampled     int   // records that contributed to the schema
	ParseErrors int   // malformed records skipped while sampling
	FirstError  error // first skipped parse error, if any
}

// Inferencer builds a Schema from a sequential prefix of the input.
type Inferencer struct {
	logger     *zap.Logger
	sampleSize int
}

// NewInferencer creates an inferencer that samples at most sampleSize
// records. A sampleSize of zero or less samples the whole input.
//
// Fields that only appear after the sample are never seen; records carrying
// them later have those keys ignored.
func NewInferencer(sampleSize int, logger *zap.Logger) *Inferencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inferencer{
		logger:     logger,
		sampleSize: sampleSize,
	}
}

// fieldState tracks one field while sampling.
type fieldState struct {
	name    string
	typ     LogicalType
	present int  // sampled records containing the key
	sawNull bool // an explicit JSON null was observed
}

// Infer consumes records from src until the sample is complete or the input
// ends and returns the unified schema.
//
// It fails with a schema_inference error when no record could be parsed,
// and passes through structural errors from src unchanged.
func (e *Inferencer) Infer(ctx context.Context, src Source) (*Schema, InferenceStats, error) {
	var stats InferenceStats
	var order []*fieldState
	byName := make(map[string]*fieldState)

	for e.sampleSize <= 0 || stats.Sampled < e.sampleSize {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if colerrors.IsRecoverable(err) {
				stats.ParseErrors++
				if stats.FirstError == nil {
					stats.FirstError = err
				}
				e.logger.Debug("skipping malformed record during inference", zap.Error(err))
				continue
			}
			return nil, stats, err
		}

		stats.Sampled++
		for i, key := range rec.Keys {
			observed := Observe(rec.Values[i])
			fs, seen := byName[key]
			if !seen {
				fs = &fieldState{name: key, typ: observed}
				byName[key] = fs
				order = append(order, fs)
			} else {
				fs.typ = Widen(fs.typ, observed)
			}
			fs.present++
			if observed == TypeNull {
				fs.sawNull = true
			}
		}
	}

	if stats.Sampled == 0 {
		err := colerrors.New(colerrors.ErrorTypeSchemaInference, "no parseable records in input").
			WithDetail("parse_errors", stats.ParseErrors)
		if stats.FirstError != nil {
			err.Cause = stats.FirstError
		}
		return nil, stats, err
	}

	fields := make([]Field, len(order))
	for i, fs := range order {
		fields[i] = Field{
			Name:     fs.name,
			Type:     fs.typ,
			Nullable: fs.sawNull || fs.present < stats.Sampled,
		}
	}

	s, err := New(fields)
	if err != nil {
		return nil, stats, colerrors.Wrap(err, colerrors.ErrorTypeSchemaInference, "inferred schema is invalid")
	}

	e.logger.Debug("schema inferred",
		zap.Int("sampled", stats.Sampled),
		zap.Int("parse_errors", stats.ParseErrors),
		zap.Int("fields", s.Len()))

	return s, stats, nil
}
