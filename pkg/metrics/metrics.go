// Package metrics provides Prometheus metrics for colbuf: ingestion
// volume, block codec activity and materialization throughput.
//
// Metrics are recorded at block and batch granularity, never per cell, so
// the cost stays negligible next to the work being measured.
//
//	metrics.ValuesAppended.WithLabelValues("UInt64").Add(float64(len(batch)))
//
//	timer := metrics.NewTimer()
//	rows, err := m.MaterializeBlock(b)
//	metrics.MaterializeDuration.Observe(float64(timer.Stop().Nanoseconds()))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ValuesAppended counts values appended to columns, labeled by kind.
	// Incremented per batch by ingestion paths, not by the columns
	// themselves.
	ValuesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colbuf_values_appended_total",
			Help: "Total number of values appended to columns",
		},
		[]string{"kind"},
	)

	// BulkBatches counts bulk append calls, labeled by kind.
	BulkBatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colbuf_bulk_batches_total",
			Help: "Total number of bulk append batches",
		},
		[]string{"kind"},
	)

	// BlocksEncoded counts block frames produced by the codec, labeled by
	// compression algorithm.
	BlocksEncoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colbuf_blocks_encoded_total",
			Help: "Total number of encoded block frames",
		},
		[]string{"algorithm"},
	)

	// BlocksDecoded counts block frames decoded, labeled by compression
	// algorithm.
	BlocksDecoded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colbuf_blocks_decoded_total",
			Help: "Total number of decoded block frames",
		},
		[]string{"algorithm"},
	)

	// RowsMaterialized counts rows produced by the materializer.
	RowsMaterialized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "colbuf_rows_materialized_total",
			Help: "Total number of materialized rows",
		},
	)

	// MaterializeDuration tracks per-block materialization latency in
	// nanoseconds.
	MaterializeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "colbuf_materialize_duration_nanoseconds",
			Help: "Per-block materialization duration in nanoseconds",
			Buckets: []float64{
				1000,  // 1μs
				10000, // 10μs
				1e5,   // 100μs
				1e6,   // 1ms
				1e7,   // 10ms
				1e8,   // 100ms
				1e9,   // 1s
			},
		},
	)
)

// Timer measures the duration of one operation.
type Timer struct {
	start time.Time
}

// NewTimer starts timing immediately.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer was created.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
