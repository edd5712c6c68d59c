// Package workbook provides read-only access to tabular source files and the
// grid renderings sent to the oracle. Sources are never written back.
package workbook

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet holds the fully loaded cell grid of one worksheet. Rows are raw cell
// strings exactly as the source renders them; normalization happens downstream.
type Sheet struct {
	Name string
	Rows [][]string
}

// TotalRows returns the number of rows in the sheet.
func (s *Sheet) TotalRows() int { return len(s.Rows) }

// TotalColumns returns the widest row length in the sheet.
func (s *Sheet) TotalColumns() int {
	max := 0
	for _, r := range s.Rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// Cell returns the raw cell at (row, col), or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Open loads the named sheet (or the first sheet when name is empty) from an
// .xlsx or .csv source. The file handle is released before Open returns; the
// caller owns only the in-memory grid.
func Open(path, sheetName string) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return openXLSX(path, sheetName)
	case ".csv":
		return openCSV(path)
	default:
		return nil, fmt.Errorf("unsupported source type: %s (want .xlsx or .csv)", filepath.Ext(path))
	}
}

func openXLSX(path, sheetName string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := sheetName
	if name == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		name = list[0]
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

func openCSV(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, append([]string(nil), rec...))
	}
	return &Sheet{Name: filepath.Base(path), Rows: rows}, nil
}

// ListSheets returns the worksheet names of an .xlsx file; a .csv counts as a
// single sheet named after the file.
func ListSheets(path string) ([]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return []string{filepath.Base(path)}, nil
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
