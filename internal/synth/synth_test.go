package synth

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuartzBytes/sheetquery-cli/internal/values"
)

func TestBuildMaterializesDataset(t *testing.T) {
	wb, err := Build([][]string{
		{"Name", "Amount"},
		{"alpha", "$1,234.56"},
		{"beta", "(500.00)"},
	})
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, 3, wb.RowCount)
	assert.Equal(t, []string{"Name", "Amount"}, wb.Headers)
	// one assignment per cell
	assert.Len(t, wb.Assignments, 6)

	byRef := map[string]CellAssignment{}
	for _, a := range wb.Assignments {
		byRef[a.CellRef] = a
	}
	assert.Equal(t, "number", byRef["B2"].KindName)
	assert.Equal(t, 1234.56, byRef["B2"].Assigned)
	assert.Equal(t, -500.0, byRef["B3"].Assigned)
	// header row stays literal text even when numeric-looking
	assert.Equal(t, "text", byRef["A1"].KindName)

	got, err := wb.File.GetCellValue(wb.Sheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got)
}

func TestBuildRejectsEmptyDataset(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)
}

func TestEvaluateSum(t *testing.T) {
	wb, err := Build([][]string{
		{"Amount"},
		{"10"},
		{"20"},
		{"30"},
	})
	require.NoError(t, err)
	defer wb.Close()

	res := Evaluate(wb, "=SUM(A2:A4)")
	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "A5", res.FormulaCell)
	assert.Equal(t, "60", res.Formatted)
}

func TestEvaluatePercentage(t *testing.T) {
	wb, err := Build([][]string{
		{"CashRows", "TotalRows"},
		{"15", "100"},
	})
	require.NoError(t, err)
	defer wb.Close()

	res := Evaluate(wb, "=A2/B2*100")
	require.True(t, res.Success, "error: %s", res.Error)
	v, err := strconv.ParseFloat(res.RawValue, 64)
	require.NoError(t, err)
	assert.InDelta(t, 15.00, v, 0.01)
}

func TestEvaluateMinDateRendersCalendarDate(t *testing.T) {
	wb, err := Build([][]string{
		{"Invoice Date"},
		{"15/01/2024"},
		{"2024-06-30"},
	})
	require.NoError(t, err)
	defer wb.Close()

	res := Evaluate(wb, "=MIN(A2:A3)")
	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "2024-01-15", res.Formatted, "raw=%s", res.RawValue)
}

func TestEvaluateCellErrorIsReportedNotThrown(t *testing.T) {
	wb, err := Build([][]string{
		{"X"},
		{"10"},
		{"0"},
	})
	require.NoError(t, err)
	defer wb.Close()

	res := Evaluate(wb, "=A2/A3")
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "#DIV/0!")
	assert.Contains(t, res.Formatted, "failed")
}

func TestRoundTripExactDoubles(t *testing.T) {
	// values exactly representable as doubles survive normalize -> assign ->
	// read-back bit-exact, whether they arrived as numbers or numeric strings
	for _, in := range []string{"0.25", "1024", "-3.5", "123456.75"} {
		wb, err := Build([][]string{{"V"}, {in}})
		require.NoError(t, err)

		want := values.Normalize(in).Number
		res := Evaluate(wb, "=A2")
		require.True(t, res.Success)
		got, err := strconv.ParseFloat(res.RawValue, 64)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", in)
		wb.Close()
	}
}

func TestDateHint(t *testing.T) {
	headers := []string{"Invoice Date", "Amount"}
	assert.True(t, dateHint("=MIN(A2:A10)", headers))
	assert.False(t, dateHint("=SUM(B2:B10)", headers))
	assert.True(t, dateHint("=DATE(2024,1,1)", nil))
}

func TestFormatNumberMagnitudes(t *testing.T) {
	cases := map[float64]string{
		0.00005:     "5.0000e-05",
		42.5:        "42.50",
		0.125:       "0.1250", // 2dp rounding would lose information
		512.75:      "512.75",
		1500.2:      "1,500.20",
		150000000.7: "150000000.7",
		60:          "60",
		1234567:     "1,234,567",
		-4200:       "-4,200",
		0:           "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatNumber(in), "input %v", in)
	}
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "TRUE", FormatRaw("TRUE", false))
	assert.Equal(t, "sometext", FormatRaw("sometext", false))
	assert.Equal(t, "2024-01-15", FormatRaw("45306", true))
	// date hint alone never converts implausible serials
	assert.Equal(t, "60", FormatRaw("60", true))
}
