// Package extract reads raw date-partitioned CSV sources into string tables and lands
// new raw partitions.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecomflow/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RawTable is a header plus string cells, exactly as read from the source.
type RawTable struct {
	Header []string
	Rows   [][]string
	// Malformed lists the source lines that could not be read as records.
	Malformed []MalformedLine

	lines []int
	index map[string]int
}

// MalformedLine is a source line the CSV reader could not parse.
type MalformedLine struct {
	Line int
	Err  string
}

// NewRawTable builds a table; header names are trimmed and lower-cased.
func NewRawTable(header []string, rows [][]string) *RawTable {
	t := &RawTable{Header: make([]string, len(header)), Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		t.Header[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	return t
}

func (t *RawTable) Len() int { return len(t.Rows) }

// Line is the source line of row i; the header is line 1.
func (t *RawTable) Line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// Has reports whether the source carries column col.
func (t *RawTable) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Value returns the cell of row i in column col. Short rows read as empty cells.
func (t *RawTable) Value(i int, col string) string {
	j, ok := t.index[col]
	if !ok || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// ParseCSV reads comma separated text with a header line. A leading UTF-8 BOM is ignored.
// Lines that are not valid CSV are collected in Malformed and reading resumes at the
// next record; only an unreadable header fails.
func ParseCSV(data []byte) (*RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmpty
		}
		return nil, fmt.Errorf("%w: read header: %v", model.ErrMisconfiguredInput, err)
	}
	var (
		rows      [][]string
		lines     []int
		malformed []MalformedLine
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			malformed = append(malformed, MalformedLine{Line: pe.StartLine, Err: pe.Err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", len(rows)+len(malformed)+2, err)
		}
		line, _ := r.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	t := NewRawTable(header, rows)
	t.lines = lines
	t.Malformed = malformed
	return t, nil
}

// ReadHeader returns the normalized header of a CSV partition.
func ReadHeader(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errEmpty
		}
		return nil, fmt.Errorf("%w: read header: %v", model.ErrMisconfiguredInput, err)
	}
	return NewRawTable(header, nil).Header, nil
}

// EncodeCSV writes t with its header.
func EncodeCSV(t *RawTable) ([]byte, error) {
	return encodeRecords(append([][]string{t.Header}, t.Rows...))
}

func encodeRecords(recs [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, rec := range recs {
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("write record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return buf.Bytes(), nil
}
