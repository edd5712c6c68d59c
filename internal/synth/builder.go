// Package synth materializes an execution plan's minimal dataset into a fresh
// spreadsheet and evaluates the plan's formula against it. The grid contains
// only the rows the plan supplied; formula ranges are relative to it, never to
// the original source sheet.
package synth

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/QuartzBytes/sheetquery-cli/internal/values"
)

// CellAssignment is the diagnostic record written for every materialized cell.
type CellAssignment struct {
	CellRef  string      `json:"cellReference"`
	Row      int         `json:"row"`
	Col      int         `json:"column"`
	Original string      `json:"originalValue"`
	Kind     values.Kind `json:"-"`
	KindName string      `json:"assignedType"`
	Assigned any         `json:"assignedValue"`
}

// Workbook owns the synthetic grid for one query.
type Workbook struct {
	File        *excelize.File
	Sheet       string
	RowCount    int // includes the header row
	Headers     []string
	Assignments []CellAssignment
}

// Build allocates a fresh grid sized exactly to the dataset and writes every
// cell through the value normalizer. The caller must Close the workbook on
// every exit path.
func Build(dataset [][]string) (*Workbook, error) {
	if len(dataset) == 0 {
		return nil, fmt.Errorf("minimal dataset is empty")
	}
	f := excelize.NewFile()
	sheet := f.GetSheetList()[0]

	wb := &Workbook{
		File:     f,
		Sheet:    sheet,
		RowCount: len(dataset),
		Headers:  append([]string(nil), dataset[0]...),
	}

	for r, row := range dataset {
		for c, raw := range row {
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("cell name (%d,%d): %w", r, c, err)
			}
			var v values.Value
			if r == 0 {
				// header row stays literal text
				v = values.Value{Kind: values.Text, Text: raw}
			} else {
				v = values.Normalize(raw)
			}
			if !v.IsNull() {
				if err := f.SetCellValue(sheet, ref, v.Native()); err != nil {
					f.Close()
					return nil, fmt.Errorf("set cell %s: %w", ref, err)
				}
			}
			wb.Assignments = append(wb.Assignments, CellAssignment{
				CellRef:  ref,
				Row:      r,
				Col:      c,
				Original: raw,
				Kind:     v.Kind,
				KindName: v.Kind.String(),
				Assigned: v.Native(),
			})
		}
	}
	return wb, nil
}

// Close releases the underlying file resources.
func (w *Workbook) Close() error {
	if w == nil || w.File == nil {
		return nil
	}
	return w.File.Close()
}
