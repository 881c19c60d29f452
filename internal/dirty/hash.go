// Package dirty detects which fields changed since they were last seen in
// an editing session.
package dirty

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Canonicalize returns value with JSON objects re-encoded in sorted key
// order. Values that are not JSON objects or arrays are returned as is.
func Canonicalize(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return value
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil || dec.More() {
		return value
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(parsed); err != nil {
		return value
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Hash returns the hash of the canonical form of value.
func Hash(value string) uint64 {
	return xxhash.Sum64String(Canonicalize(value))
}
