package db

import "encoding/json"

// jsonArray marshals a string slice for a JSONB column; nil becomes [].
func jsonArray(values []string) []byte {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return []byte("[]")
	}
	return data
}

// decodeJSONArray unmarshals a JSONB column; bad or empty data becomes [].
func decodeJSONArray(data []byte) []string {
	var values []string
	if len(data) == 0 || json.Unmarshal(data, &values) != nil || values == nil {
		return []string{}
	}
	return values
}
