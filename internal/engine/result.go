package engine

// DatasetContext records where the answer's data lived in the source sheet.
type DatasetContext struct {
	HeaderRowIndex int `json:"HeaderRowIndex"`
	DataStartRow   int `json:"DataStartRow"`
	DataEndRow     int `json:"DataEndRow"`
	TotalDataRows  int `json:"TotalDataRows"`
}

// DataUsed describes the minimal dataset a formula ran over.
type DataUsed struct {
	Rows    int      `json:"Rows"`
	Columns int      `json:"Columns"`
	Headers []string `json:"Headers"`
}

// Result is the uniform query outcome. Every pipeline exit produces one:
// success and failure share the shape, with Error populated on failure.
type Result struct {
	Success             bool            `json:"Success"`
	Query               string          `json:"Query"`
	Answer              string          `json:"Answer,omitempty"`
	Formula             string          `json:"Formula,omitempty"`
	Reasoning           string          `json:"Reasoning,omitempty"`
	RequiredCalculation bool            `json:"RequiredCalculation"`
	DatasetContext      *DatasetContext `json:"DatasetContext,omitempty"`
	DataUsed            *DataUsed       `json:"DataUsed,omitempty"`
	Error               string          `json:"Error,omitempty"`
}

func failure(query string, err error) *Result {
	return &Result{Success: false, Query: query, Error: err.Error()}
}
