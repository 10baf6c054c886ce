package export

import (
	"bytes"
	"fmt"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	Spans   []Span
}

// Span marks a cell that visually covers Width columns starting at Column.
// Row indexes Rows, Column indexes Headers.
type Span struct {
	Row    int
	Column int
	Width  int
}

// Record returns the row values ordered by header.
func (d Dataset) Record(row int) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = d.Rows[row][header]
	}
	return record
}

// SpanIndex maps row -> column -> width for spans wider than one column.
func (d Dataset) SpanIndex() map[int]map[int]int {
	index := make(map[int]map[int]int)
	for _, span := range d.Spans {
		if span.Width <= 1 {
			continue
		}
		if index[span.Row] == nil {
			index[span.Row] = make(map[int]int)
		}
		index[span.Row][span.Column] = span.Width
	}
	return index
}

// CSVExporter renders Dataset records into CSV bytes with every field quoted.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writeRecord(buf, data.Headers)
	for i := range data.Rows {
		buf.WriteByte('\n')
		writeRecord(buf, data.Record(i))
	}
	return buf.Bytes(), nil
}

// encoding/csv only quotes when needed, spreadsheet imports expect every field quoted.
func writeRecord(buf *bytes.Buffer, record []string) {
	for i, field := range record {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
}
