package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON strips markdown code fences and any prose around the outermost
// JSON object. Models occasionally wrap structured output despite the JSON
// response format being requested.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response: %.120q", s)
	}
	return s[start : end+1], nil
}

func decodeInto(capability, content string, out any) error {
	body, err := extractJSON(content)
	if err != nil {
		return &TransportError{Capability: capability, Err: err}
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &TransportError{Capability: capability, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func validateClassification(c *FormatClassification) error {
	switch c.Format {
	case FormatColumnar, FormatRowBased, FormatNested, FormatMatrix, FormatMixed, FormatUnknown:
		return nil
	}
	return fmt.Errorf("unrecognized format %q", c.Format)
}

func validateHeaders(h *HeaderExtraction) error {
	if h.HeaderRowIndex < 0 {
		return fmt.Errorf("negative header row index %d", h.HeaderRowIndex)
	}
	if len(h.Headers) == 0 {
		return fmt.Errorf("empty header list")
	}
	return nil
}

func validatePlan(p *ExecutionPlan) error {
	if !p.NeedFormula {
		return nil
	}
	if strings.TrimSpace(p.Formula) == "" {
		return fmt.Errorf("needFormula set but formula is empty")
	}
	if len(p.MinimalDataset) < 2 {
		return fmt.Errorf("minimal dataset needs a header row and at least one data row, got %d rows", len(p.MinimalDataset))
	}
	width := len(p.MinimalDataset[0])
	if width == 0 {
		return fmt.Errorf("minimal dataset header row is empty")
	}
	for i, row := range p.MinimalDataset {
		if len(row) > width {
			return fmt.Errorf("dataset row %d wider than header row (%d > %d)", i, len(row), width)
		}
	}
	return nil
}
