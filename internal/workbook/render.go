package workbook

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// SampleRows is the size of each stratified sample window.
	SampleRows = 50
	// SampleColumns limits every rendering to the leading columns.
	SampleColumns = 10
)

// ColumnLetter converts a zero-based column index to its spreadsheet letter.
func ColumnLetter(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return "?"
	}
	return name
}

// PipeRow renders up to maxCols cells of a row as a pipe-delimited line.
func PipeRow(row []string, maxCols int) string {
	if len(row) > maxCols {
		row = row[:maxCols]
	}
	return strings.Join(row, " | ")
}

// StratifiedSamples draws the classifier's three sample windows: the first
// SampleRows rows, a middle window when the sheet exceeds 100 rows, and the
// last SampleRows rows. Each sample is a block of pipe-delimited lines.
func StratifiedSamples(s *Sheet) []string {
	total := s.TotalRows()
	var samples []string

	render := func(label string, start, end int) string {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("[%s rows %d-%d]\n", label, start, end-1))
		for i := start; i < end; i++ {
			b.WriteString(PipeRow(s.Rows[i], SampleColumns))
			b.WriteString("\n")
		}
		return b.String()
	}

	firstEnd := min(SampleRows, total)
	samples = append(samples, render("first", 0, firstEnd))

	if total > 100 {
		mid := total / 2
		start := mid - SampleRows/2
		if start < 0 {
			start = 0
		}
		end := min(start+SampleRows, total)
		samples = append(samples, render("middle", start, end))
	}

	if total > SampleRows {
		start := total - SampleRows
		if start < firstEnd {
			start = firstEnd
		}
		samples = append(samples, render("last", start, total))
	}
	return samples
}

// IndexedGrid renders rows [0, limit) with literal row indices, used by the
// header extractor so the oracle can name the header row.
func IndexedGrid(s *Sheet, limit int) string {
	if limit > s.TotalRows() {
		limit = s.TotalRows()
	}
	var b strings.Builder
	for i := 0; i < limit; i++ {
		b.WriteString(fmt.Sprintf("row %d: %s\n", i, PipeRow(s.Rows[i], SampleColumns)))
	}
	return b.String()
}

// AnnotatedWindow renders the data window [start, end] with column letters and
// header names on top, the shape every analyze-batch call receives.
func AnnotatedWindow(s *Sheet, headers []string, start, end int) string {
	var b strings.Builder
	b.WriteString("columns: ")
	for i, h := range headers {
		if i >= SampleColumns {
			break
		}
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(fmt.Sprintf("%s=%s", ColumnLetter(i), h))
	}
	b.WriteString("\n")
	if end >= s.TotalRows() {
		end = s.TotalRows() - 1
	}
	for i := start; i <= end; i++ {
		b.WriteString(fmt.Sprintf("row %d: %s\n", i, PipeRow(s.Rows[i], SampleColumns)))
	}
	return b.String()
}
