// Package metrics tracks a conversion with Prometheus metrics.
//
// # Overview
//
// Every run owns a private registry, so library users can run several
// conversions in one process and the command line tool can dump the final
// values with WriteFile without exposing an HTTP endpoint.
//
// # Basic Usage
//
//	m := metrics.New()
//	m.Records.WithLabelValues(metrics.StatusWritten).Inc()
//
//	timer := metrics.NewTimer("encode_row_group")
//	encode(rg)
//	m.EncodeLatency.Observe(timer.Stop().Seconds())
//
//	if err := m.WriteFile("run.prom"); err != nil {
//	    log.Fatal(err)
//	}
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Record statuses.
const (
	StatusWritten = "written"
	StatusSkipped = "skipped"
)

// Metrics holds the collectors of one run.
type Metrics struct {
	Registry *prometheus.Registry

	// Records counts records by status (written, skipped).
	Records *prometheus.CounterVec
	// RecordErrors counts skipped records by error kind.
	RecordErrors *prometheus.CounterVec
	// IgnoredKeys counts keys dropped because they are not in the schema.
	IgnoredKeys prometheus.Counter
	// SampledRecords is the number of records schema inference looked at.
	SampledRecords prometheus.Gauge
	RowGroups      prometheus.Counter
	// Blocks counts encoded column blocks by encoding.
	Blocks        *prometheus.CounterVec
	BytesWritten  prometheus.Counter
	EncodeLatency prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Records: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsoncol_records_total",
				Help: "Records read from the input, by outcome",
			},
			[]string{"status"},
		),
		RecordErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsoncol_record_errors_total",
				Help: "Skipped records by error kind",
			},
			[]string{"kind"},
		),
		IgnoredKeys: f.NewCounter(prometheus.CounterOpts{
			Name: "jsoncol_ignored_keys_total",
			Help: "Keys dropped because they are not part of the schema",
		}),
		SampledRecords: f.NewGauge(prometheus.GaugeOpts{
			Name: "jsoncol_inference_sampled_records",
			Help: "Records examined by schema inference",
		}),
		RowGroups: f.NewCounter(prometheus.CounterOpts{
			Name: "jsoncol_row_groups_total",
			Help: "Row groups written",
		}),
		Blocks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsoncol_blocks_total",
				Help: "Column blocks written, by encoding",
			},
			[]string{"encoding"},
		),
		BytesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "jsoncol_bytes_written_total",
			Help: "Bytes written to the output file",
		}),
		EncodeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name: "jsoncol_row_group_encode_seconds",
			Help: "Time to encode all columns of a row group",
			Buckets: []float64{
				1e-5, // 10μs
				1e-4, // 100μs
				1e-3, // 1ms
				1e-2, // 10ms
				1e-1, // 100ms
				1,    // 1s
			},
		}),
	}
}

// WriteFile writes the text exposition of all collectors to path.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or spans.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the time elapsed since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
