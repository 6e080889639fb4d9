// Package pipeline binds the extract, clean, enrich and analytics stages to storage,
// sinks, run manifests and metrics. Every operation is synchronous and idempotent: it
// reads persisted partitions and overwrites only the artifacts it owns.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecomflow/internal/extract"
	"ecomflow/internal/logging"
	"ecomflow/internal/manifest"
	"ecomflow/internal/metrics"
	"ecomflow/internal/model"
	"ecomflow/internal/sink"
	"ecomflow/internal/storage"
)

// Stage names used in manifests, sink events, metrics and logs.
const (
	StageClean        = "clean"
	StageEnrich       = "enrich"
	StageSummary      = "summary"
	StageStock        = "stock"
	StageNewCustomers = "new_customers"
	StageRevenue      = "revenue"
	StageReport       = "report"
)

// Artifact kinds of the reports.
const (
	KindDailySummary   = "daily_summary"
	KindStock          = "stock"
	KindNewCustomers   = "new_customers"
	KindMonthlyRevenue = "monthly_revenue"
)

// StageResult describes the artifact one record type produced in a clean or enrich run.
type StageResult struct {
	RecordType  model.RecordType `json:"record_type"`
	RowsIn      int              `json:"rows_in"`
	RowsOut     int              `json:"rows_out"`
	Rejected    int              `json:"rejected"`
	Duplicates  int              `json:"duplicates"`
	ArtifactKey string           `json:"artifact_key"`
}

// RunReport is the outcome of a clean or enrich run over one date.
type RunReport struct {
	RunID      string            `json:"run_id"`
	Stage      string            `json:"stage"`
	Date       time.Time         `json:"date"`
	Results    []StageResult     `json:"results"`
	Conditions []model.Condition `json:"conditions"`
}

type Service struct {
	store     storage.Store
	extractor *extract.Extractor
	rejects   sink.Writer
	reports   sink.Writer
	manifests manifest.Publisher
	metrics   *metrics.Registry
	logger    *slog.Logger
}

type Option func(*Service)

// WithRejectSink receives one event per rejected row.
func WithRejectSink(w sink.Writer) Option { return func(s *Service) { s.rejects = w } }

// WithReportSink receives one event per computed report.
func WithReportSink(w sink.Writer) Option { return func(s *Service) { s.reports = w } }

func WithManifests(p manifest.Publisher) Option { return func(s *Service) { s.manifests = p } }

func WithMetrics(r *metrics.Registry) Option { return func(s *Service) { s.metrics = r } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a service over store. Without options events and manifests are
// discarded and metrics go to a private registry.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		rejects:   sink.NewMultiWriter(),
		reports:   sink.NewMultiWriter(),
		manifests: manifest.MultiPublisher(),
		metrics:   metrics.NewRegistry(),
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.extractor = extract.NewExtractor(store, s.logger)
	return s
}

func (s *Service) Metrics() *metrics.Registry { return s.metrics }

// begin tags ctx with a fresh run id.
func (s *Service) begin(ctx context.Context) (context.Context, string) {
	id := manifest.NewRunID()
	return logging.WithRunID(ctx, id), id
}

// finish records the duration and outcome of a stage.
func (s *Service) finish(ctx context.Context, stage string, started time.Time, err error) {
	s.metrics.StageSeconds.WithLabelValues(stage).Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.StageErrors.WithLabelValues(stage, errorKind(err)).Inc()
		s.logger.WarnContext(ctx, "stage failed", slog.String("stage", stage), slog.String("err", err.Error()))
		return
	}
	s.metrics.LastSuccess.WithLabelValues(stage).SetToCurrentTime()
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingSource):
		return model.ConditionMissingSource
	case errors.Is(err, model.ErrEmptyDataset):
		return model.ConditionEmptyDataset
	case errors.Is(err, model.ErrMisconfiguredInput):
		return "misconfigured_input"
	case errors.Is(err, model.ErrInvalidRecord):
		return "invalid_record"
	}
	return "internal"
}

// condition turns an absorbable data error into a Condition; ok is false for other errors.
func condition(stage string, date time.Time, err error) (model.Condition, bool) {
	kind := errorKind(err)
	if kind != model.ConditionMissingSource && kind != model.ConditionEmptyDataset {
		return model.Condition{}, false
	}
	return model.Condition{Date: model.Day(date), Stage: stage, Kind: kind, Message: err.Error()}, true
}

func (s *Service) put(ctx context.Context, key storage.Key, data []byte) error {
	if err := s.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	s.metrics.ArtifactBytes.WithLabelValues(string(key.Zone)).Add(float64(len(data)))
	return nil
}

func (s *Service) publish(ctx context.Context, w sink.Writer, kind, stage string, key storage.Key, payload any) error {
	e, err := sink.NewEvent(kind, stage, key.String(), payload)
	if err != nil {
		return err
	}
	e.RunID = logging.RunID(ctx)
	if err := w.Append(ctx, e); err != nil {
		return fmt.Errorf("publish %s %s: %w", stage, kind, err)
	}
	return nil
}

func (s *Service) manifest(ctx context.Context, stage string, rt model.RecordType, key storage.Key, in, out, rejected, dups int) error {
	m := manifest.Manifest{
		RunID:       logging.RunID(ctx),
		Stage:       stage,
		RecordType:  string(rt),
		Period:      key.Period,
		RowsIn:      int64(in),
		RowsOut:     int64(out),
		Rejected:    int64(rejected),
		Duplicates:  int64(dups),
		ArtifactKey: key.String(),
	}
	if err := s.manifests.Publish(ctx, m); err != nil {
		return fmt.Errorf("publish manifest %s: %w", m.Key(), err)
	}
	return nil
}

// selectTypes expands an empty filter to every record type.
func selectTypes(rts []model.RecordType) ([]model.RecordType, bool) {
	if len(rts) == 0 {
		return model.AllRecordTypes, false
	}
	return rts, true
}
