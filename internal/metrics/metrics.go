package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg           *prometheus.Registry
	RowsIn        *prometheus.CounterVec // stage, record_type
	RowsOut       *prometheus.CounterVec // stage, record_type
	RowsRejected  *prometheus.CounterVec // record_type, reason
	Duplicates    *prometheus.CounterVec // record_type
	StageErrors   *prometheus.CounterVec // stage, kind
	StageSeconds  *prometheus.HistogramVec
	ArtifactBytes *prometheus.CounterVec // zone
	LastSuccess   *prometheus.GaugeVec   // stage, unix seconds

	// ingest
	IngestConsumed prometheus.Counter
	IngestInvalid  prometheus.Counter
	IngestLanded   prometheus.Counter
	IngestPending  prometheus.Gauge
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	rowsIn := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_rows_in_total"}, []string{"stage", "record_type"})
	rowsOut := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_rows_out_total"}, []string{"stage", "record_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_rows_rejected_total"}, []string{"record_type", "reason"})
	dups := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_rows_duplicate_total"}, []string{"record_type"})
	stageErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_stage_errors_total"}, []string{"stage", "kind"})
	stageSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecomflow_stage_duration_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	artifactBytes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ecomflow_artifact_bytes_total"}, []string{"zone"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ecomflow_stage_last_success_timestamp_seconds"}, []string{"stage"})

	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ecomflow_ingest_consumed_total"})
	invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "ecomflow_ingest_invalid_total"})
	landed := prometheus.NewCounter(prometheus.CounterOpts{Name: "ecomflow_ingest_landed_total"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ecomflow_ingest_pending_rows"})

	r.MustRegister(rowsIn, rowsOut, rejected, dups, stageErrors, stageSeconds, artifactBytes, lastSuccess,
		consumed, invalid, landed, pending)
	return &Registry{
		reg:            r,
		RowsIn:         rowsIn,
		RowsOut:        rowsOut,
		RowsRejected:   rejected,
		Duplicates:     dups,
		StageErrors:    stageErrors,
		StageSeconds:   stageSeconds,
		ArtifactBytes:  artifactBytes,
		LastSuccess:    lastSuccess,
		IngestConsumed: consumed,
		IngestInvalid:  invalid,
		IngestLanded:   landed,
		IngestPending:  pending,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// WriteTextfile dumps the registry in text format for the node exporter textfile
// collector; batch commands call it on exit.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
