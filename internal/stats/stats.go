// Package stats computes per-column summaries over normalized cell values.
// Statistics are calculated once during metadata extraction and read-only
// afterwards; the evidence loop and plan synthesizer consume them as context.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/values"
)

// InferredType classifies a column's dominant value kind.
type InferredType string

const (
	TypeNumeric InferredType = "numeric"
	TypeDate    InferredType = "date"
	TypeText    InferredType = "text"
	TypeMixed   InferredType = "mixed"
	TypeUnknown InferredType = "unknown"
)

// ValueCount pairs a text value with its occurrence count.
type ValueCount struct {
	Value string
	Count int
}

// NumericStats are the aggregates for a numeric column. StdDev and Variance
// use the population convention (divisor n); SampleStdDev (divisor n-1) is
// carried alongside so formula generation can stay consistent with VAR.S.
type NumericStats struct {
	Min          float64
	Max          float64
	Sum          float64
	Mean         float64
	StdDev       float64
	SampleStdDev float64
	Variance     float64
	Median       float64
	Mode         *float64
	P25          float64
	P75          float64
	IQR          float64
	OutlierCount int
	OutlierPct   float64
}

// DateStats are the aggregates for a date column.
type DateStats struct {
	Min       values.Value
	Max       values.Value
	RangeDays int
}

// TextStats are the aggregates for a text column.
type TextStats struct {
	MinLength int
	MaxLength int
	AvgLength float64
	TopValues []ValueCount
}

// Column captures inferred type and statistics for one header.
type Column struct {
	Name         string
	Index        int
	Type         InferredType
	NonNullCount int
	NullCount    int
	UniqueCount  int
	FillRate     float64
	Numeric      *NumericStats
	Date         *DateStats
	Text         *TextStats
}

// Summarize scans the given data rows (strings as read from the sheet),
// normalizes every cell, and produces one Column per header. Type decision by
// majority vote over non-null values: >80% numeric, >80% date, >50% text,
// otherwise mixed; a column with no non-null values is unknown.
func Summarize(headers []string, rows [][]string) []Column {
	cols := make([]Column, len(headers))
	for i, h := range headers {
		cols[i] = summarizeColumn(h, i, rows, len(rows))
	}
	return cols
}

func summarizeColumn(name string, idx int, rows [][]string, dataRowCount int) Column {
	col := Column{Name: name, Index: idx, Type: TypeUnknown}

	var nums []float64
	var dates []values.Value
	var texts []string
	uniq := map[string]struct{}{}

	for _, row := range rows {
		var raw string
		if idx < len(row) {
			raw = row[idx]
		}
		v := values.Normalize(raw)
		if v.IsNull() {
			col.NullCount++
			continue
		}
		col.NonNullCount++
		uniq[v.Display()] = struct{}{}
		switch v.Kind {
		case values.Number:
			nums = append(nums, v.Number)
		case values.Date:
			dates = append(dates, v)
		case values.Bool:
			// booleans count toward the text vote; they are rare in
			// tabular data and never drive numeric aggregates
			texts = append(texts, v.Display())
		default:
			texts = append(texts, v.Text)
		}
	}

	col.UniqueCount = len(uniq)
	if dataRowCount > 0 {
		col.FillRate = float64(col.NonNullCount) / float64(dataRowCount)
	}
	if col.NonNullCount == 0 {
		return col
	}

	n := float64(col.NonNullCount)
	switch {
	case float64(len(nums))/n > 0.8:
		col.Type = TypeNumeric
		col.Numeric = numericStats(nums)
	case float64(len(dates))/n > 0.8:
		col.Type = TypeDate
		col.Date = dateStats(dates)
	case float64(len(texts))/n > 0.5:
		col.Type = TypeText
		col.Text = textStats(texts)
	default:
		col.Type = TypeMixed
	}
	return col
}

func numericStats(xs []float64) *NumericStats {
	s := &NumericStats{}
	n := len(xs)
	if n == 0 {
		return s
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	s.Min = sorted[0]
	s.Max = sorted[n-1]
	for _, x := range xs {
		s.Sum += x
	}
	s.Mean = s.Sum / float64(n)

	var m2 float64
	for _, x := range xs {
		d := x - s.Mean
		m2 += d * d
	}
	s.StdDev = math.Sqrt(m2 / float64(n))
	s.Variance = s.StdDev * s.StdDev
	if n > 1 {
		s.SampleStdDev = math.Sqrt(m2 / float64(n-1))
	}

	s.Median = Percentile(sorted, 0.5)
	s.P25 = Percentile(sorted, 0.25)
	s.P75 = Percentile(sorted, 0.75)
	s.IQR = s.P75 - s.P25

	if mode, count := modeOf(xs); count > 1 {
		m := mode
		s.Mode = &m
	}

	lo := s.P25 - 1.5*s.IQR
	hi := s.P75 + 1.5*s.IQR
	for _, x := range xs {
		if x < lo || x > hi {
			s.OutlierCount++
		}
	}
	s.OutlierPct = float64(s.OutlierCount) * 100 / float64(n)
	return s
}

// Percentile interpolates linearly at index p*(n-1) over sorted values.
// p=0 yields the minimum and p=1 the maximum.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func modeOf(xs []float64) (float64, int) {
	counts := map[float64]int{}
	best, bestCount := 0.0, 0
	for _, x := range xs {
		counts[x]++
		if counts[x] > bestCount || (counts[x] == bestCount && x < best) {
			best, bestCount = x, counts[x]
		}
	}
	return best, bestCount
}

func dateStats(ds []values.Value) *DateStats {
	s := &DateStats{Min: ds[0], Max: ds[0]}
	for _, d := range ds[1:] {
		if d.Time.Before(s.Min.Time) {
			s.Min = d
		}
		if d.Time.After(s.Max.Time) {
			s.Max = d
		}
	}
	s.RangeDays = int(s.Max.Serial() - s.Min.Serial())
	return s
}

func textStats(ts []string) *TextStats {
	s := &TextStats{MinLength: len(ts[0]), MaxLength: len(ts[0])}
	var total int
	counts := map[string]int{}
	for _, t := range ts {
		l := len(t)
		total += l
		if l < s.MinLength {
			s.MinLength = l
		}
		if l > s.MaxLength {
			s.MaxLength = l
		}
		counts[t]++
	}
	s.AvgLength = float64(total) / float64(len(ts))

	tops := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		tops = append(tops, ValueCount{Value: v, Count: c})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 5 {
		tops = tops[:5]
	}
	s.TopValues = tops
	return s
}

// Describe renders the columns as a compact text block suitable for prompts.
func Describe(cols []Column) string {
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, null %d, unique %d, fill %.1f%%)",
			c.Name, c.Type, c.NonNullCount, c.NullCount, c.UniqueCount, c.FillRate*100))
		switch {
		case c.Numeric != nil:
			n := c.Numeric
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, sum %.4g, stddev(pop) %.4g, stddev(sample) %.4g, median %.4g, p25 %.4g, p75 %.4g, outliers %d (%.1f%%)",
				n.Min, n.Max, n.Mean, n.Sum, n.StdDev, n.SampleStdDev, n.Median, n.P25, n.P75, n.OutlierCount, n.OutlierPct))
			if n.Mode != nil {
				b.WriteString(fmt.Sprintf(", mode %.4g", *n.Mode))
			}
		case c.Date != nil:
			b.WriteString(fmt.Sprintf(" — min %s, max %s, range %d days",
				c.Date.Min.Display(), c.Date.Max.Display(), c.Date.RangeDays))
		case c.Text != nil:
			t := c.Text
			b.WriteString(fmt.Sprintf(" — len min %d, max %d, avg %.1f", t.MinLength, t.MaxLength, t.AvgLength))
			if len(t.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, tv := range t.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", tv.Value, tv.Count))
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
