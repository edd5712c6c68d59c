// Package values normalizes heterogeneous spreadsheet cell representations
// (accounting negatives, currency strings, multi-format dates, numeric text)
// into a single tagged value. The same rules apply wherever cells are parsed
// so statistics and synthetic-grid materialization always agree.
package values

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind tags the parsed type of a cell value.
type Kind int

const (
	Null Kind = iota
	Number
	Date
	Text
	Bool
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Date:
		return "date"
	case Text:
		return "text"
	case Bool:
		return "boolean"
	default:
		return "null"
	}
}

// Value is the tagged union produced by Normalize. Exactly one payload field
// is meaningful, selected by Kind.
type Value struct {
	Kind   Kind
	Number float64
	Time   time.Time
	Text   string
	Bool   bool
}

// excelEpoch is day zero of the 1900 date system (serial 0 == 1899-12-30).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts is the ordered list of explicit formats tried before the
// generic fallback. Day-first layouts take priority over month-first.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"2-1-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 02 2006",
	"Jan 2 2006",
	"January 2, 2006",
}

// fallbackLayouts are generic date-time parses attempted after the explicit
// date formats.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
}

var currencySymbols = []string{"$", "€", "£"}

// Normalize converts a raw cell of unknown origin into a tagged Value.
// First match wins: native type, accounting/currency-cleaned number or date,
// then plain text. Empty input stays Null.
func Normalize(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: Null}
	case Value:
		return v
	case float64:
		return Value{Kind: Number, Number: v}
	case float32:
		return Value{Kind: Number, Number: float64(v)}
	case int:
		return Value{Kind: Number, Number: float64(v)}
	case int64:
		return Value{Kind: Number, Number: float64(v)}
	case bool:
		return Value{Kind: Bool, Bool: v}
	case time.Time:
		return Value{Kind: Date, Time: v.UTC().Truncate(24 * time.Hour)}
	case string:
		return normalizeString(v)
	default:
		return normalizeString(fmt.Sprint(raw))
	}
}

func normalizeString(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Value{Kind: Null}
	}

	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return Value{Kind: Bool, Bool: true}
	case "FALSE":
		return Value{Kind: Bool, Bool: false}
	}

	cleaned, negate := unwrapAccounting(trimmed)
	cleaned = stripCurrency(cleaned)

	if t, ok := parseDate(trimmed); ok {
		return Value{Kind: Date, Time: t}
	}

	numeric := strings.ReplaceAll(cleaned, ",", "")
	if f, err := strconv.ParseFloat(numeric, 64); err == nil {
		if negate {
			f = -f
		}
		return Value{Kind: Number, Number: f}
	}

	return Value{Kind: Text, Text: trimmed}
}

// unwrapAccounting removes "(X)" wrapping or a trailing minus, reporting
// whether the parsed number must be negated.
func unwrapAccounting(s string) (string, bool) {
	if len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[1 : len(s)-1]), true
	}
	if len(s) >= 2 && strings.HasSuffix(s, "-") {
		return strings.TrimSpace(s[:len(s)-1]), true
	}
	return s, false
}

func stripCurrency(s string) string {
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	return strings.TrimSpace(s)
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Serial returns the Excel serial day count for a Date value, or the numeric
// payload unchanged for a Number.
func (v Value) Serial() float64 {
	switch v.Kind {
	case Date:
		return math.Round(v.Time.Sub(excelEpoch).Hours() / 24)
	case Number:
		return v.Number
	default:
		return 0
	}
}

// FromSerial converts an Excel serial day count back to a calendar date.
func FromSerial(serial float64) time.Time {
	return excelEpoch.Add(time.Duration(math.Round(serial)) * 24 * time.Hour)
}

// Native yields the Go value a spreadsheet cell writer expects: float64,
// time.Time, bool, string, or nil.
func (v Value) Native() any {
	switch v.Kind {
	case Number:
		return v.Number
	case Date:
		return v.Time
	case Bool:
		return v.Bool
	case Text:
		return v.Text
	default:
		return nil
	}
}

// IsNull reports whether the value carries no payload.
func (v Value) IsNull() bool { return v.Kind == Null }

// Display renders the value the way it would appear in a cell, used for
// diagnostics and audit records.
func (v Value) Display() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case Date:
		return v.Time.Format("2006-01-02")
	case Bool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	case Text:
		return v.Text
	default:
		return ""
	}
}
