// Package ingest lands raw order messages into the raw zone, one CSV partition per
// order date.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ecomflow/internal/extract"
	"ecomflow/internal/metrics"
	"ecomflow/internal/model"
	"ecomflow/internal/storage"
)

// OrderColumns is the header of landed order partitions.
var OrderColumns = []string{"order_id", "order_date", "customer_id", "customer_name", "product_id", "product_name", "quantity", "price", "status"}

// Message is one consumed record.
type Message struct {
	Key    []byte
	Value  []byte
	Offset int64
}

// Source yields messages. Next returns ok=false when no message arrived within its poll
// window. Commit acknowledges everything returned so far.
type Source interface {
	Next(ctx context.Context) (msg Message, ok bool, err error)
	Commit(ctx context.Context) error
}

type Lander struct {
	extractor *extract.Extractor
	metrics   *metrics.Registry
	logger    *slog.Logger

	flushRows     int
	flushInterval time.Duration

	buf     map[time.Time][][]string
	pending int
}

func NewLander(store storage.Store, reg *metrics.Registry, logger *slog.Logger, flushRows int, flushInterval time.Duration) *Lander {
	if logger == nil {
		logger = slog.Default()
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	return &Lander{
		extractor:     extract.NewExtractor(store, logger),
		metrics:       reg,
		logger:        logger,
		flushRows:     flushRows,
		flushInterval: flushInterval,
		buf:           make(map[time.Time][][]string),
	}
}

// Pending is the number of buffered rows.
func (l *Lander) Pending() int { return l.pending }

// Add buffers one JSON order. Messages that are not objects or lack a readable order_date
// are counted and skipped; the cleaner judges every other field.
func (l *Lander) Add(ctx context.Context, msg Message) {
	l.metrics.IngestConsumed.Inc()
	row, date, err := parseOrder(msg.Value)
	if err != nil {
		l.metrics.IngestInvalid.Inc()
		l.logger.WarnContext(ctx, "message skipped", slog.Int64("offset", msg.Offset), slog.String("err", err.Error()))
		return
	}
	l.buf[date] = append(l.buf[date], row)
	l.pending++
	l.metrics.IngestPending.Set(float64(l.pending))
}

func parseOrder(value []byte) ([]string, time.Time, error) {
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode: %w", err)
	}
	row := make([]string, len(OrderColumns))
	for i, col := range OrderColumns {
		switch v := fields[col].(type) {
		case nil:
		case string:
			row[i] = v
		case json.Number:
			row[i] = v.String()
		default:
			row[i] = fmt.Sprint(v)
		}
	}
	ds := strings.TrimSpace(row[1])
	if len(ds) > len(model.DateLayout) {
		ds = ds[:len(model.DateLayout)]
	}
	date, err := model.ParseDay(ds)
	if err != nil {
		return nil, time.Time{}, err
	}
	return row, date, nil
}

// Flush appends the buffered rows to their raw partitions.
func (l *Lander) Flush(ctx context.Context) error {
	dates := make([]time.Time, 0, len(l.buf))
	for d := range l.buf {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	for _, d := range dates {
		if err := l.landDay(ctx, d, l.buf[d]); err != nil {
			return err
		}
		l.metrics.IngestLanded.Add(float64(len(l.buf[d])))
		l.pending -= len(l.buf[d])
		delete(l.buf, d)
	}
	l.metrics.IngestPending.Set(float64(l.pending))
	return nil
}

func (l *Lander) landDay(ctx context.Context, date time.Time, rows [][]string) error {
	if err := l.extractor.Append(ctx, model.Orders, date, OrderColumns, rows); err != nil {
		return fmt.Errorf("land %s: %w", date.Format(model.DateLayout), err)
	}
	return nil
}

// Run consumes src until ctx is done, flushing when enough rows are buffered or the flush
// interval elapsed, and committing after each flush. A final flush runs on shutdown.
func (l *Lander) Run(ctx context.Context, src Source) error {
	last := time.Now()
	flush := func(ctx context.Context) error {
		if l.pending == 0 {
			last = time.Now()
			return nil
		}
		n := l.pending
		if err := l.Flush(ctx); err != nil {
			return err
		}
		if err := src.Commit(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		l.logger.InfoContext(ctx, "ingest flushed", slog.Int("rows", n))
		last = time.Now()
		return nil
	}
	for {
		if ctx.Err() != nil {
			return flush(context.WithoutCancel(ctx))
		}
		msg, ok, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return flush(context.WithoutCancel(ctx))
			}
			return fmt.Errorf("consume: %w", err)
		}
		if ok {
			l.Add(ctx, msg)
		}
		if l.pending >= l.flushRows || time.Since(last) >= l.flushInterval {
			if err := flush(ctx); err != nil {
				return err
			}
		}
	}
}
