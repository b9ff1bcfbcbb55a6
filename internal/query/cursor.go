package query

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
)

// cursorPayload is the decoded cursor state. Offset is typed loosely so
// decoding can distinguish "missing or non-numeric" from zero.
type cursorPayload struct {
	Offset any `json:"offset"`
}

// EncodeCursor builds an opaque pagination token for an offset.
// The token is a black box to callers; only EncodeCursor/DecodeCursor
// know its shape.
func EncodeCursor(offset int) string {
	if offset < 0 {
		offset = 0
	}
	raw, _ := json.Marshal(map[string]int{"offset": offset})
	return base64.URLEncoding.EncodeToString(raw)
}

// DecodeCursor extracts the offset from a token. Any malformation — bad
// base64, bad JSON, a missing offset field, or a non-numeric offset —
// is reported as an error; callers treat that as "no cursor" rather
// than failing the query.
func DecodeCursor(token string) (int, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("query: cursor: decode base64: %w", err)
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("query: cursor: decode payload: %w", err)
	}
	f, ok := p.Offset.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("query: cursor: offset is missing or not numeric")
	}
	offset := int(math.Floor(f))
	if offset < 0 {
		offset = 0
	}
	return offset, nil
}
