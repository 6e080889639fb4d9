package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ecomflow/internal/model"
	"ecomflow/internal/storage"
)

var errEmpty = errors.New("source has no header line")

// Extractor reads and writes raw partitions: raw_data/<record type>/Y/M/D.csv.
type Extractor struct {
	store  storage.Store
	logger *slog.Logger
}

func NewExtractor(store storage.Store, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{store: store, logger: logger}
}

// Extract loads the raw partition of rt for date. A missing partition wraps
// model.ErrMissingSource; a partition without any record line wraps
// model.ErrEmptyDataset.
func (e *Extractor) Extract(ctx context.Context, rt model.RecordType, date time.Time) (*RawTable, error) {
	key := storage.DayKey(storage.ZoneRaw, string(rt), date)
	data, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rt, err)
	}
	t, err := ParseCSV(data)
	if err != nil {
		if errors.Is(err, errEmpty) {
			return nil, fmt.Errorf("extract %s: %w: %s", rt, model.ErrEmptyDataset, key)
		}
		return nil, fmt.Errorf("extract %s: %w", rt, err)
	}
	if t.Len() == 0 && len(t.Malformed) == 0 {
		return nil, fmt.Errorf("extract %s: %w: %s has a header and no rows", rt, model.ErrEmptyDataset, key)
	}
	if len(t.Malformed) > 0 {
		e.logger.WarnContext(ctx, "malformed raw lines",
			slog.String("key", key.String()),
			slog.Int("lines", len(t.Malformed)),
			slog.Int("first_line", t.Malformed[0].Line))
	}
	e.logger.DebugContext(ctx, "raw partition extracted",
		slog.String("record_type", string(rt)),
		slog.String("key", key.String()),
		slog.Int("rows", t.Len()))
	return t, nil
}

// Land writes t as the raw partition of rt for date, replacing any previous content.
func (e *Extractor) Land(ctx context.Context, rt model.RecordType, date time.Time, t *RawTable) error {
	data, err := EncodeCSV(t)
	if err != nil {
		return fmt.Errorf("land %s: %w", rt, err)
	}
	key := storage.DayKey(storage.ZoneRaw, string(rt), date)
	if err := e.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("land %s: %w", rt, err)
	}
	e.logger.InfoContext(ctx, "raw partition landed",
		slog.String("key", key.String()),
		slog.Int("rows", t.Len()))
	return nil
}

// Append adds rows, laid out as header, to the raw partition of rt for date. An existing
// partition keeps its bytes and its own header: rows are mapped onto it by column name
// and written after its last line. A missing or zero byte partition is created with header.
func (e *Extractor) Append(ctx context.Context, rt model.RecordType, date time.Time, header []string, rows [][]string) error {
	key := storage.DayKey(storage.ZoneRaw, string(rt), date)
	data, err := e.store.Get(ctx, key)
	if err != nil && !errors.Is(err, model.ErrMissingSource) {
		return fmt.Errorf("append %s: %w", rt, err)
	}
	existing, err := ReadHeader(data)
	if errors.Is(err, errEmpty) {
		return e.Land(ctx, rt, date, NewRawTable(header, rows))
	}
	if err != nil {
		return fmt.Errorf("append %s: %w", rt, err)
	}

	from := NewRawTable(header, rows)
	mapped := make([][]string, len(rows))
	for i := range rows {
		out := make([]string, len(existing))
		for j, col := range existing {
			out[j] = from.Value(i, col)
		}
		mapped[i] = out
	}
	tail, err := encodeRecords(mapped)
	if err != nil {
		return fmt.Errorf("append %s: %w", rt, err)
	}
	out := make([]byte, 0, len(data)+1+len(tail))
	out = append(out, data...)
	if out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	out = append(out, tail...)
	if err := e.store.Put(ctx, key, out); err != nil {
		return fmt.Errorf("append %s: %w", rt, err)
	}
	e.logger.InfoContext(ctx, "raw partition appended",
		slog.String("key", key.String()),
		slog.Int("rows", len(rows)))
	return nil
}
