package synth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/QuartzBytes/sheetquery-cli/internal/values"
)

// Plausible Excel serial window for date rendering: 1970-01-01 .. 2100-01-01.
// Anything outside it is treated as an ordinary number even under a date hint,
// so small sums over date-named columns don't turn into calendar output.
const (
	minPlausibleSerial = 25569
	maxPlausibleSerial = 73050
)

// FormatRaw turns a calculated raw value into its display string. Booleans
// pass through as TRUE/FALSE, non-numeric text is kept verbatim, plausible
// date serials under a date hint render as yyyy-MM-dd, and everything else
// gets magnitude-based numeric formatting.
func FormatRaw(raw string, dateHint bool) string {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToUpper(trimmed) {
	case "TRUE":
		return "TRUE"
	case "FALSE":
		return "FALSE"
	}

	x, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return trimmed
	}

	if dateHint && x >= minPlausibleSerial && x <= maxPlausibleSerial && x == math.Trunc(x) {
		return values.FromSerial(x).Format("2006-01-02")
	}
	return FormatNumber(x)
}

// FormatNumber applies the magnitude-based rendering rules.
func FormatNumber(x float64) string {
	abs := math.Abs(x)

	if x == math.Trunc(x) && abs < 1e15 {
		return groupThousands(strconv.FormatFloat(x, 'f', 0, 64))
	}

	switch {
	case abs < 1e-4:
		return fmt.Sprintf("%.4e", x)
	case abs <= 100:
		two := fmt.Sprintf("%.2f", x)
		if back, err := strconv.ParseFloat(two, 64); err == nil && back != x {
			return fmt.Sprintf("%.4f", x)
		}
		return two
	case abs < 1000:
		return fmt.Sprintf("%.2f", x)
	case abs < 1e8:
		return groupThousands(fmt.Sprintf("%.2f", x))
	default:
		return fmt.Sprintf("%.1f", x)
	}
}

// groupThousands inserts comma separators into the integer part of a plain
// decimal string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.Index(s, "."); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
