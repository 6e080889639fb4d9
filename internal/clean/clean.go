// Package clean validates, normalizes and deduplicates raw record tables.
//
// Invalid rows never fail a run: they are dropped and returned as Rejections so the
// caller can count, log and publish them. Only a source that lacks a required column is
// an error, since every row of it would be unusable.
package clean

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ecomflow/internal/extract"
	"ecomflow/internal/model"
)

// Rejection reasons.
const (
	ReasonMissingID    = "missing_id"
	ReasonBadID        = "bad_id"
	ReasonBadDate      = "bad_date"
	ReasonBadQuantity  = "bad_quantity"
	ReasonBadPrice     = "bad_price"
	ReasonBadNumber    = "bad_number"
	ReasonBadEmail     = "bad_email"
	ReasonMissingField = "missing_field"
	ReasonMalformed    = "malformed_row"
)

// Rejection describes one dropped row.
type Rejection struct {
	RecordType model.RecordType `json:"record_type"`
	Date       string           `json:"date"`
	Line       int              `json:"line"` // source line, header is line 1
	Key        string           `json:"key"`
	Reason     string           `json:"reason"`
	Detail     string           `json:"detail"`
}

// Result is the outcome of cleaning one partition.
type Result[T any] struct {
	Rows       []T
	RowsIn     int
	Duplicates int
	Rejections []Rejection
}

// Dropped counts rows removed for any reason.
func (r Result[T]) Dropped() int { return r.Duplicates + len(r.Rejections) }

// ReasonCounts groups rejections by reason.
func (r Result[T]) ReasonCounts() map[string]int {
	counts := make(map[string]int)
	for _, rj := range r.Rejections {
		counts[rj.Reason]++
	}
	return counts
}

// invalid is a row level validation failure. It unwraps to model.ErrInvalidRecord.
type invalid struct {
	reason string
	detail string
}

func (e *invalid) Error() string { return e.reason + ": " + e.detail }
func (e *invalid) Unwrap() error { return model.ErrInvalidRecord }

func reject(reason, format string, args ...any) error {
	return &invalid{reason: reason, detail: fmt.Sprintf(format, args...)}
}

func requireColumns(rt model.RecordType, t *extract.RawTable, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s source lacks required columns %s", model.ErrMisconfiguredInput, rt, strings.Join(missing, ", "))
	}
	return nil
}

// run parses every row, drops the invalid ones, then keeps the first valid row per id.
// Lines the CSV reader could not parse count as input and are rejected as malformed.
func run[T any](rt model.RecordType, t *extract.RawTable, date time.Time, keyCol string,
	parse func(i int) (T, error), id func(*T) int64) Result[T] {
	res := Result[T]{RowsIn: t.Len() + len(t.Malformed)}
	seen := make(map[int64]struct{}, t.Len())
	day := date.Format(model.DateLayout)
	for _, m := range t.Malformed {
		res.Rejections = append(res.Rejections, Rejection{RecordType: rt, Date: day, Line: m.Line, Reason: ReasonMalformed, Detail: m.Err})
	}
	for i := 0; i < t.Len(); i++ {
		row, err := parse(i)
		if err != nil {
			rj := Rejection{RecordType: rt, Date: day, Line: t.Line(i), Key: strings.TrimSpace(t.Value(i, keyCol)), Reason: "invalid", Detail: err.Error()}
			if iv, ok := err.(*invalid); ok {
				rj.Reason, rj.Detail = iv.reason, iv.detail
			}
			res.Rejections = append(res.Rejections, rj)
			continue
		}
		k := id(&row)
		if _, dup := seen[k]; dup {
			res.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		res.Rows = append(res.Rows, row)
	}
	sort.SliceStable(res.Rejections, func(i, j int) bool { return res.Rejections[i].Line < res.Rejections[j].Line })
	return res
}
