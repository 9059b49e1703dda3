package display

import (
	"encoding/json"
	"os"
)

// CompactEnv switches JSON output to a single line when set to a non-empty value.
// Useful when piping batches into line-oriented tools.
const CompactEnv = "SLIDEINSPO_JSON_COMPACT"

// MarshalJSON marshals v indented for people, or compact when CompactEnv is set
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv(CompactEnv) != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
