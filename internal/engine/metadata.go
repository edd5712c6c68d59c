// Package engine drives the query pipeline: layout classification, schema and
// statistics extraction, the evidence accumulation loop, plan synthesis, and
// the handoff to synthetic execution. One pipeline instance serves one query;
// nothing here is shared across concurrent queries.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/events"
	"github.com/QuartzBytes/sheetquery-cli/internal/oracle"
	"github.com/QuartzBytes/sheetquery-cli/internal/stats"
	"github.com/QuartzBytes/sheetquery-cli/internal/workbook"
)

// UnsupportedFormatError aborts a query whose sheet layout is anything but
// Columnar. Fatal, never retried.
type UnsupportedFormatError struct {
	Format oracle.Format
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported sheet format %q: only Columnar layouts are supported", e.Format)
}

// HeaderInfo is one header name and the row it was found at. All headers of a
// Columnar sheet share the same row index.
type HeaderInfo struct {
	Name     string
	RowIndex int
}

// Metadata describes the source sheet for one query. Built once, immutable
// afterward, discarded at query end.
type Metadata struct {
	Format         oracle.Format
	TotalRows      int
	TotalColumns   int
	HeaderRowIndex int
	Headers        []HeaderInfo
	DataStartRow   int
	DataRowCount   int
	Columns        []stats.Column
}

// HeaderNames returns the ordered header names.
func (m *Metadata) HeaderNames() []string {
	names := make([]string, len(m.Headers))
	for i, h := range m.Headers {
		names[i] = h.Name
	}
	return names
}

// LastDataRow is the index of the final data row, or -1 when there is none.
func (m *Metadata) LastDataRow() int {
	if m.DataRowCount == 0 {
		return -1
	}
	return m.DataStartRow + m.DataRowCount - 1
}

// Summary renders the metadata and column statistics as prompt context.
func (m *Metadata) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "format: %s, rows: %d, columns: %d, header row: %d, data rows: %d\n",
		m.Format, m.TotalRows, m.TotalColumns, m.HeaderRowIndex, m.DataRowCount)
	b.WriteString(stats.Describe(m.Columns))
	return b.String()
}

// ExtractMetadata classifies the sheet layout, locates the header row, and
// computes per-column statistics. Non-Columnar layouts fail immediately.
func ExtractMetadata(ctx context.Context, orc oracle.Oracle, sheet *workbook.Sheet, em *events.Emitter) (*Metadata, error) {
	fc, err := orc.ClassifyFormat(ctx, workbook.StratifiedSamples(sheet))
	if err != nil {
		return nil, err
	}
	em.Emit(events.FormatDetected, map[string]any{
		"format":     string(fc.Format),
		"confidence": fc.Confidence,
	})
	if fc.Format != oracle.FormatColumnar {
		return nil, &UnsupportedFormatError{Format: fc.Format}
	}

	limit := workbook.SampleRows
	if sheet.TotalRows() < limit {
		limit = sheet.TotalRows()
	}
	he, err := orc.ExtractHeaders(ctx, workbook.IndexedGrid(sheet, limit))
	if err != nil {
		return nil, err
	}
	if he.HeaderRowIndex >= sheet.TotalRows() {
		return nil, fmt.Errorf("header row index %d beyond sheet rows %d", he.HeaderRowIndex, sheet.TotalRows())
	}

	md := &Metadata{
		Format:         fc.Format,
		TotalRows:      sheet.TotalRows(),
		TotalColumns:   sheet.TotalColumns(),
		HeaderRowIndex: he.HeaderRowIndex,
	}
	for i, name := range he.Headers {
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Column_%d", i)
		}
		md.Headers = append(md.Headers, HeaderInfo{Name: name, RowIndex: he.HeaderRowIndex})
	}
	em.Emit(events.HeadersExtracted, map[string]any{
		"headerRow": he.HeaderRowIndex,
		"headers":   md.HeaderNames(),
	})

	md.DataStartRow = md.HeaderRowIndex + 1
	md.DataRowCount = md.TotalRows - md.DataStartRow
	if md.DataRowCount < 0 {
		md.DataRowCount = 0
	}

	md.Columns = stats.Summarize(md.HeaderNames(), sheet.Rows[md.DataStartRow:])
	em.Emit(events.MetadataExtracted, map[string]any{
		"dataStartRow": md.DataStartRow,
		"dataRowCount": md.DataRowCount,
		"columns":      len(md.Columns),
	})
	return md, nil
}
