package oracle

import (
	"strings"
	"testing"

	"github.com/QuartzBytes/sheetquery-cli/internal/utils"
)

func TestClassifyUserIncludesAllSamples(t *testing.T) {
	got := classifyUser([]string{"Name | Amount", "Alice | 10", "Bob | 20"})
	for _, want := range []string{"Name | Amount", "Alice | 10", "Bob | 20"} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing sample %q", want)
		}
	}
}

func TestClassifyUserDropsOversizedSamples(t *testing.T) {
	huge := strings.Repeat("x", (maxWindowTokens+1)*4)
	got := classifyUser([]string{"Name | Amount", huge})
	if !strings.Contains(got, "Name | Amount") {
		t.Error("prompt lost the in-budget sample")
	}
	if strings.Contains(got, huge) {
		t.Error("oversized sample was not dropped")
	}
	if utils.CountTokens(got) > maxWindowTokens {
		t.Errorf("prompt exceeds window budget: %d tokens", utils.CountTokens(got))
	}
}
