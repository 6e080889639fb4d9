package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecomflow/internal/clean"
	"ecomflow/internal/columnar"
	"ecomflow/internal/enrich"
	"ecomflow/internal/extract"
	"ecomflow/internal/model"
	"ecomflow/internal/sink"
	"ecomflow/internal/storage"
)

// Clean cleans the raw partitions of date and persists them in the clean zone. With no
// record type every type is processed and a missing or empty source only adds a
// condition; the call fails when no type could be cleaned. An explicitly requested type
// fails on its own missing source.
func (s *Service) Clean(ctx context.Context, date time.Time, rts ...model.RecordType) (RunReport, error) {
	return s.runTypes(ctx, StageClean, date, rts, s.cleanOne)
}

// Enrich enriches the clean partitions of date and persists them in the enriched zone,
// with the same record type rules as Clean.
func (s *Service) Enrich(ctx context.Context, date time.Time, rts ...model.RecordType) (RunReport, error) {
	return s.runTypes(ctx, StageEnrich, date, rts, s.enrichOne)
}

type stageFunc func(ctx context.Context, rt model.RecordType, date time.Time) (StageResult, error)

func (s *Service) runTypes(ctx context.Context, stage string, date time.Time, rts []model.RecordType, fn stageFunc) (rep RunReport, err error) {
	ctx, runID := s.begin(ctx)
	defer func(started time.Time) { s.finish(ctx, stage, started, err) }(time.Now())

	date = model.Day(date)
	rep = RunReport{RunID: runID, Stage: stage, Date: date}
	types, explicit := selectTypes(rts)
	var firstErr error
	for _, rt := range types {
		res, err := fn(ctx, rt, date)
		if err != nil {
			c, ok := condition(stage, date, err)
			if explicit || !ok {
				return rep, fmt.Errorf("%s %s %s: %w", stage, rt, date.Format(model.DateLayout), err)
			}
			s.logger.WarnContext(ctx, "source skipped",
				slog.String("stage", stage), slog.String("record_type", string(rt)), slog.String("kind", c.Kind))
			rep.Conditions = append(rep.Conditions, c)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rep.Results = append(rep.Results, res)
	}
	if len(rep.Results) == 0 && firstErr != nil {
		return rep, fmt.Errorf("%s %s: %w", stage, date.Format(model.DateLayout), firstErr)
	}
	return rep, nil
}

func (s *Service) cleanOne(ctx context.Context, rt model.RecordType, date time.Time) (StageResult, error) {
	raw, err := s.extractor.Extract(ctx, rt, date)
	if err != nil {
		return StageResult{}, err
	}
	switch rt {
	case model.Orders:
		return cleanTable(ctx, s, rt, date, raw, clean.Orders, columnar.Orders)
	case model.Clients:
		return cleanTable(ctx, s, rt, date, raw, clean.Clients, columnar.Clients)
	case model.Products:
		return cleanTable(ctx, s, rt, date, raw, clean.Products, columnar.Products)
	}
	return StageResult{}, fmt.Errorf("%w: record type %q", model.ErrMisconfiguredInput, rt)
}

func cleanTable[T any](ctx context.Context, s *Service, rt model.RecordType, date time.Time, raw *extract.RawTable,
	fn func(*extract.RawTable, time.Time) (clean.Result[T], error), codec *columnar.Codec[T]) (StageResult, error) {
	res, err := fn(raw, date)
	if err != nil {
		return StageResult{}, err
	}
	data, err := codec.Encode(res.Rows)
	if err != nil {
		return StageResult{}, fmt.Errorf("encode: %w", err)
	}
	key := storage.DayKey(storage.ZoneClean, string(rt), date)
	if err := s.put(ctx, key, data); err != nil {
		return StageResult{}, err
	}

	rawKey := storage.DayKey(storage.ZoneRaw, string(rt), date)
	for _, rj := range res.Rejections {
		if err := s.publish(ctx, s.rejects, sink.KindRejection, StageClean, rawKey, rj); err != nil {
			return StageResult{}, err
		}
	}
	label := string(rt)
	s.metrics.RowsIn.WithLabelValues(StageClean, label).Add(float64(res.RowsIn))
	s.metrics.RowsOut.WithLabelValues(StageClean, label).Add(float64(len(res.Rows)))
	s.metrics.Duplicates.WithLabelValues(label).Add(float64(res.Duplicates))
	reasons := res.ReasonCounts()
	attrs := make([]any, 0, len(reasons))
	for reason, n := range reasons {
		s.metrics.RowsRejected.WithLabelValues(label, reason).Add(float64(n))
		attrs = append(attrs, slog.Int(reason, n))
	}
	s.logger.InfoContext(ctx, "partition cleaned",
		slog.String("record_type", label),
		slog.String("key", key.String()),
		slog.Int("rows_in", res.RowsIn),
		slog.Int("rows_out", len(res.Rows)),
		slog.Int("duplicates", res.Duplicates),
		slog.Group("rejected", attrs...))

	out := StageResult{
		RecordType: rt, RowsIn: res.RowsIn, RowsOut: len(res.Rows),
		Rejected: len(res.Rejections), Duplicates: res.Duplicates, ArtifactKey: key.String(),
	}
	return out, s.manifest(ctx, StageClean, rt, key, out.RowsIn, out.RowsOut, out.Rejected, out.Duplicates)
}

func (s *Service) enrichOne(ctx context.Context, rt model.RecordType, date time.Time) (StageResult, error) {
	switch rt {
	case model.Orders:
		return enrichTable(ctx, s, rt, date, columnar.Orders, columnar.EnrichedOrders, enrich.Orders)
	case model.Clients:
		return enrichTable(ctx, s, rt, date, columnar.Clients, columnar.EnrichedClients, enrich.Clients)
	case model.Products:
		return enrichTable(ctx, s, rt, date, columnar.Products, columnar.EnrichedProducts, enrich.Products)
	}
	return StageResult{}, fmt.Errorf("%w: record type %q", model.ErrMisconfiguredInput, rt)
}

func enrichTable[T, E any](ctx context.Context, s *Service, rt model.RecordType, date time.Time,
	in *columnar.Codec[T], out *columnar.Codec[E], fn func([]T) []E) (StageResult, error) {
	src := storage.DayKey(storage.ZoneClean, string(rt), date)
	data, err := s.store.Get(ctx, src)
	if err != nil {
		return StageResult{}, err
	}
	rows, err := in.Decode(ctx, data)
	if err != nil {
		return StageResult{}, fmt.Errorf("decode %s: %w", src, err)
	}
	enriched := fn(rows)
	encoded, err := out.Encode(enriched)
	if err != nil {
		return StageResult{}, fmt.Errorf("encode: %w", err)
	}
	key := storage.DayKey(storage.ZoneEnriched, string(rt), date)
	if err := s.put(ctx, key, encoded); err != nil {
		return StageResult{}, err
	}
	label := string(rt)
	s.metrics.RowsIn.WithLabelValues(StageEnrich, label).Add(float64(len(rows)))
	s.metrics.RowsOut.WithLabelValues(StageEnrich, label).Add(float64(len(enriched)))
	s.logger.InfoContext(ctx, "partition enriched",
		slog.String("record_type", label),
		slog.String("key", key.String()),
		slog.Int("rows", len(enriched)),
		slog.Int("columns", len(out.ColumnNames())))

	res := StageResult{RecordType: rt, RowsIn: len(rows), RowsOut: len(enriched), ArtifactKey: key.String()}
	return res, s.manifest(ctx, StageEnrich, rt, key, res.RowsIn, res.RowsOut, 0, 0)
}
