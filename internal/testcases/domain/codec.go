package domain

import "encoding/json"

// ListCodec is the encode/decode pair for the list-valued columns
// (steps, expected results, tags), which are stored as JSON arrays in a
// text column. The fallbacks are part of the read contract: an empty or
// missing value decodes to an empty list, and malformed stored content
// decodes to an empty list instead of failing the row read.
type ListCodec struct{}

// Encode renders items as a JSON array. A nil slice encodes as "[]" so
// the column never holds a JSON null.
func (ListCodec) Encode(items []string) string {
	if items == nil {
		items = []string{}
	}
	raw, _ := json.Marshal(items)
	return string(raw)
}

// Decode parses a stored JSON array back into an ordered list.
func (ListCodec) Decode(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	if items == nil {
		return []string{}
	}
	return items
}
