package domain

import "encoding/json"

// ApplyUpstreamCompat rewrites body in place into the shape the upstream
// script expects:
//   - product and serial get placeholders when the keys are absent
//   - evidence moves to file when file is unset and evidence is set
func ApplyUpstreamCompat(body map[string]any) {
	if _, ok := body[FieldProduct]; !ok {
		body[FieldProduct] = PlaceholderValue
	}
	if _, ok := body[FieldSerial]; !ok {
		body[FieldSerial] = PlaceholderValue
	}

	if !Truthy(body[FieldFile]) && Truthy(body[FieldEvidence]) {
		body[FieldFile] = body[FieldEvidence]
		delete(body, FieldEvidence)
	}
}

// Truthy follows JSON-script truthiness: null, false, "", and 0 are unset.
func Truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case string:
		return value != ""
	case json.Number:
		f, err := value.Float64()
		return err != nil || f != 0
	case float64:
		return value != 0
	}
	return true
}
