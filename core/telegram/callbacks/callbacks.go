// Package callbacks defines the "key|payload" encoding used for inline
// keyboard callback data.
package callbacks

import (
	"strconv"
	"strings"
)

// Join encodes a callback key and payload into one data string.
func Join(key, payload string) string {
	if payload == "" {
		return key
	}
	return key + "|" + payload
}

// Split decodes callback data into its key and payload. The payload may
// itself contain separators; only the first one splits.
func Split(data string) (key, payload string) {
	parts := strings.SplitN(data, "|", 2)
	key = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// PayloadInt64 parses a payload as int64.
func PayloadInt64(payload string) (int64, error) {
	return strconv.ParseInt(payload, 10, 64)
}
