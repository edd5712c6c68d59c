package synth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Result reports one formula execution. Evaluation failures are captured
// here, not raised: the pipeline always gets a structured result back.
type Result struct {
	Success     bool              `json:"success"`
	RawValue    string            `json:"rawValue"`
	Formatted   string            `json:"formattedValue"`
	Error       string            `json:"error,omitempty"`
	FormulaCell string            `json:"formulaCellReference"`
	Debug       map[string]string `json:"debug,omitempty"`
}

var cellErrors = map[string]struct{}{
	"#DIV/0!": {}, "#N/A": {}, "#NAME?": {}, "#NULL!": {},
	"#NUM!": {}, "#REF!": {}, "#VALUE!": {}, "#SPILL!": {}, "#CALC!": {},
}

var columnRefPattern = regexp.MustCompile(`\$?([A-Z]{1,3})\$?[0-9]+`)

// Evaluate places the formula in the contract's target cell (column A, one
// row below the dataset), triggers recalculation, and classifies the result.
func Evaluate(wb *Workbook, formula string) *Result {
	target := fmt.Sprintf("A%d", wb.RowCount+1)
	res := &Result{
		FormulaCell: target,
		Debug: map[string]string{
			"formula":     formula,
			"datasetRows": fmt.Sprintf("%d", wb.RowCount),
			"sheet":       wb.Sheet,
		},
	}

	if err := wb.File.SetCellFormula(wb.Sheet, target, strings.TrimPrefix(formula, "=")); err != nil {
		res.Error = fmt.Sprintf("place formula: %v", err)
		res.Formatted = failureText(res.Error)
		return res
	}

	raw, err := wb.File.CalcCellValue(wb.Sheet, target, excelize.Options{RawCellValue: true})
	res.RawValue = raw
	if err != nil {
		res.Error = err.Error()
		res.Formatted = failureText(res.Error)
		return res
	}
	if _, bad := cellErrors[strings.TrimSpace(raw)]; bad {
		res.Error = fmt.Sprintf("formula produced cell error %s", strings.TrimSpace(raw))
		res.Formatted = failureText(res.Error)
		return res
	}

	res.Success = true
	res.Formatted = FormatRaw(raw, dateHint(formula, wb.Headers))
	return res
}

// dateHint reports whether the formula or any column it references carries a
// date-like name, which switches plausible serial results to calendar output.
func dateHint(formula string, headers []string) bool {
	if containsDateToken(formula) {
		return true
	}
	for _, m := range columnRefPattern.FindAllStringSubmatch(formula, -1) {
		idx := columnIndex(m[1])
		if idx >= 0 && idx < len(headers) && containsDateToken(headers[idx]) {
			return true
		}
	}
	return false
}

var dateTokens = []string{"date", "day", "month", "year", "time", "when", "period"}

func containsDateToken(s string) bool {
	low := strings.ToLower(s)
	for _, tok := range dateTokens {
		if strings.Contains(low, tok) {
			return true
		}
	}
	return false
}

func columnIndex(letters string) int {
	n, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return -1
	}
	return n - 1
}

func failureText(msg string) string {
	return fmt.Sprintf("Formula evaluation failed: %s", msg)
}
