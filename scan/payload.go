package scan

import (
	"encoding/json"
	"net/url"
	"strings"
)

// DecodePayload extracts a scanned code from an HTTP request body.
//
// Two encodings are accepted, in order:
//  1. JSON object carrying "code", "barcode", or "value"
//  2. Form-encoded body carrying "code" or "barcode"
//
// Returns ("", false) when no code could be extracted.
func DecodePayload(body []byte) (string, bool) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"code", "barcode", "value"} {
			if v, ok := payload[key].(string); ok {
				if code := strings.TrimSpace(v); code != "" {
					return code, true
				}
			}
		}
	}

	if values, err := url.ParseQuery(string(body)); err == nil {
		for _, key := range []string{"code", "barcode"} {
			if code := strings.TrimSpace(values.Get(key)); code != "" {
				return code, true
			}
		}
	}

	return "", false
}
