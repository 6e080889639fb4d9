package columnar

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/shopspring/decimal"
)

// Decimal columns are stored as DECIMAL(18,4).
const (
	DecimalPrecision = 18
	DecimalScale     = 4
)

// Column is one typed column of a table of T.
type Column[T any] struct {
	Name string
	Type arrow.DataType

	appendTo func(b array.Builder, row *T)
	readFrom func(a arrow.Array) (func(i int, row *T), error)
}

func typeMismatch(name string, a arrow.Array, want arrow.DataType) error {
	return fmt.Errorf("%w %q: stored as %s, want %s", ErrMissingColumn, name, a.DataType(), want)
}

func String[T any](name string, get func(*T) string, set func(*T, string)) Column[T] {
	return Column[T]{
		Name: name,
		Type: arrow.BinaryTypes.String,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.StringBuilder).Append(get(r))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.String)
			if !ok {
				return nil, typeMismatch(name, a, arrow.BinaryTypes.String)
			}
			return func(i int, r *T) { set(r, arr.Value(i)) }, nil
		},
	}
}

func Int64[T any](name string, get func(*T) int64, set func(*T, int64)) Column[T] {
	return Column[T]{
		Name: name,
		Type: arrow.PrimitiveTypes.Int64,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.Int64Builder).Append(get(r))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.Int64)
			if !ok {
				return nil, typeMismatch(name, a, arrow.PrimitiveTypes.Int64)
			}
			return func(i int, r *T) { set(r, arr.Value(i)) }, nil
		},
	}
}

func Float64[T any](name string, get func(*T) float64, set func(*T, float64)) Column[T] {
	return Column[T]{
		Name: name,
		Type: arrow.PrimitiveTypes.Float64,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.Float64Builder).Append(get(r))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.Float64)
			if !ok {
				return nil, typeMismatch(name, a, arrow.PrimitiveTypes.Float64)
			}
			return func(i int, r *T) { set(r, arr.Value(i)) }, nil
		},
	}
}

func Bool[T any](name string, get func(*T) bool, set func(*T, bool)) Column[T] {
	return Column[T]{
		Name: name,
		Type: arrow.FixedWidthTypes.Boolean,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.BooleanBuilder).Append(get(r))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.Boolean)
			if !ok {
				return nil, typeMismatch(name, a, arrow.FixedWidthTypes.Boolean)
			}
			return func(i int, r *T) { set(r, arr.Value(i)) }, nil
		},
	}
}

// Date stores the calendar date of a time.Time; the time of day is dropped.
func Date[T any](name string, get func(*T) time.Time, set func(*T, time.Time)) Column[T] {
	return Column[T]{
		Name: name,
		Type: arrow.FixedWidthTypes.Date32,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.Date32Builder).Append(arrow.Date32FromTime(get(r)))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.Date32)
			if !ok {
				return nil, typeMismatch(name, a, arrow.FixedWidthTypes.Date32)
			}
			return func(i int, r *T) { set(r, arr.Value(i).ToTime().UTC()) }, nil
		},
	}
}

var decimalType = &arrow.Decimal128Type{Precision: DecimalPrecision, Scale: DecimalScale}

// Decimal stores a decimal rounded to DecimalScale places.
func Decimal[T any](name string, get func(*T) decimal.Decimal, set func(*T, decimal.Decimal)) Column[T] {
	return Column[T]{
		Name: name,
		Type: decimalType,
		appendTo: func(b array.Builder, r *T) {
			b.(*array.Decimal128Builder).Append(toNum(get(r)))
		},
		readFrom: func(a arrow.Array) (func(int, *T), error) {
			arr, ok := a.(*array.Decimal128)
			if !ok {
				return nil, typeMismatch(name, a, decimalType)
			}
			scale := int32(arr.DataType().(*arrow.Decimal128Type).Scale)
			return func(i int, r *T) { set(r, fromNum(arr.Value(i), scale)) }, nil
		},
	}
}

// Embed lifts a column of an embedded struct to the outer row type.
func Embed[T, U any](c Column[T], inner func(*U) *T) Column[U] {
	return Column[U]{
		Name: c.Name,
		Type: c.Type,
		appendTo: func(b array.Builder, r *U) {
			c.appendTo(b, inner(r))
		},
		readFrom: func(a arrow.Array) (func(int, *U), error) {
			read, err := c.readFrom(a)
			if err != nil {
				return nil, err
			}
			return func(i int, r *U) { read(i, inner(r)) }, nil
		},
	}
}

// EmbedAll lifts every column of an embedded struct.
func EmbedAll[T, U any](cols []Column[T], inner func(*U) *T) []Column[U] {
	out := make([]Column[U], len(cols))
	for i, c := range cols {
		out[i] = Embed(c, inner)
	}
	return out
}

func toNum(d decimal.Decimal) decimal128.Num {
	return decimal128.FromBigInt(d.Shift(DecimalScale).Round(0).BigInt())
}

func fromNum(n decimal128.Num, scale int32) decimal.Decimal {
	return decimal.NewFromBigInt(n.BigInt(), -scale)
}
