// Package output provides serialization and file writing for inspection results.
package output

import (
	"encoding/json"
)

// ToJSON serializes a report, check result or cleanup result.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
