package convert

import (
	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// recordSource is what the conversion pass consumes: records.Reader, or a
// replay of the inference sample followed by the rest of the reader.
type recordSource = schema.Source

type result struct {
	rec *records.Record
	err error
}

// recorder keeps every record and recoverable error handed to the
// inferencer so that non-seekable inputs can be read once.
type recorder struct {
	src     recordSource
	results []result
}

func newRecorder(src recordSource) *recorder {
	return &recorder{src: src}
}

func (r *recorder) Next() (*records.Record, error) {
	rec, err := r.src.Next()
	if err == nil || colerrors.IsRecoverable(err) {
		r.results = append(r.results, result{rec: rec, err: err})
	}
	return rec, err
}

// replay returns a source yielding the recorded results and then the
// remainder of the underlying source.
func (r *recorder) replay() recordSource {
	rp := &replay{results: r.results, src: r.src}
	r.results = nil
	return rp
}

type replay struct {
	results []result
	src     recordSource
}

func (r *replay) Next() (*records.Record, error) {
	if len(r.results) > 0 {
		next := r.results[0]
		r.results[0] = result{}
		r.results = r.results[1:]
		return next.rec, next.err
	}
	return r.src.Next()
}

// buffered reports how many results are still pending replay.
func (r *replay) buffered() int {
	return len(r.results)
}

var _ recordSource = (*records.Reader)(nil)
