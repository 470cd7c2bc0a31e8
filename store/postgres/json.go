package postgres

import (
	"encoding/json"

	"github.com/diffsentry/diffsentry/analysis"
)

// resultToJSON converts an analysis result to a JSON string for storage.
func resultToJSON(result *analysis.Result) string {
	if result == nil {
		return "null"
	}
	b, _ := json.Marshal(result)
	return string(b)
}

// resultFromJSON parses a JSON string into an analysis result.
func resultFromJSON(s string) *analysis.Result {
	if s == "" || s == "null" {
		return nil
	}
	var result analysis.Result
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return nil
	}
	return &result
}
