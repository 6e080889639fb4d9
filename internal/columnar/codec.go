// Package columnar encodes typed row slices as Apache Parquet files through Apache Arrow.
//
// A table is declared once as a list of typed columns; the same declaration drives both
// encoding and decoding. Encoding is deterministic: identical rows give identical bytes.
package columnar

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"ecomflow/internal/model"
)

// ErrMissingColumn is returned when an artifact lacks a column the table requires.
var ErrMissingColumn = fmt.Errorf("%w: missing column", model.ErrMisconfiguredInput)

// Codec converts between []T and Parquet bytes.
type Codec[T any] struct {
	cols   []Column[T]
	schema *arrow.Schema
}

// NewCodec declares a table. Column names must be unique.
func NewCodec[T any](cols ...Column[T]) *Codec[T] {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: false}
	}
	return &Codec[T]{cols: cols, schema: arrow.NewSchema(fields, nil)}
}

func (c *Codec[T]) Schema() *arrow.Schema { return c.schema }

// ColumnNames lists the declared columns in order.
func (c *Codec[T]) ColumnNames() []string {
	names := make([]string, len(c.cols))
	for i, col := range c.cols {
		names[i] = col.Name
	}
	return names
}

// Encode writes rows as a single row group Parquet file.
func (c *Codec[T]) Encode(rows []T) ([]byte, error) {
	mem := memory.NewGoAllocator()
	b := array.NewRecordBuilder(mem, c.schema)
	defer b.Release()
	for i := range rows {
		for j, col := range c.cols {
			col.appendTo(b.Field(j), &rows[i])
		}
	}
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithCreatedBy("ecomflow"),
	)
	w, err := pqarrow.NewFileWriter(c.schema, &buf, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, fmt.Errorf("parquet writer: %w", err)
	}
	if rec.NumRows() > 0 {
		if err := w.Write(rec); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("parquet write: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("parquet close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads a Parquet file produced by Encode or by any writer carrying the declared
// columns. Extra columns are ignored; missing ones fail with ErrMissingColumn.
func (c *Codec[T]) Decode(ctx context.Context, data []byte) ([]T, error) {
	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("parquet read: %w", err)
	}
	defer tbl.Release()

	rows := make([]T, tbl.NumRows())
	for _, col := range c.cols {
		idx := tbl.Schema().FieldIndices(col.Name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col.Name)
		}
		offset := 0
		for _, chunk := range tbl.Column(idx[0]).Data().Chunks() {
			read, err := col.readFrom(chunk)
			if err != nil {
				return nil, err
			}
			for i := 0; i < chunk.Len(); i++ {
				read(i, &rows[offset+i])
			}
			offset += chunk.Len()
		}
	}
	return rows, nil
}
