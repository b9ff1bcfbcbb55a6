package query_test

import (
	"encoding/base64"
	"testing"

	"github.com/coccobas/agent-memory/internal/query"
)

func TestCursor_RoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 50, 12345} {
		token := query.EncodeCursor(offset)
		got, err := query.DecodeCursor(token)
		if err != nil {
			t.Fatalf("DecodeCursor(EncodeCursor(%d)): %v", offset, err)
		}
		if got != offset {
			t.Errorf("round trip %d → %d", offset, got)
		}
	}
}

func TestCursor_EncodeNegativeClampsToZero(t *testing.T) {
	got, err := query.DecodeCursor(query.EncodeCursor(-7))
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestCursor_DecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not base64":    "!!!not-base64!!!",
		"not json":      base64.URLEncoding.EncodeToString([]byte("not json")),
		"no offset":     base64.URLEncoding.EncodeToString([]byte(`{"page":2}`)),
		"string offset": base64.URLEncoding.EncodeToString([]byte(`{"offset":"ten"}`)),
		"null offset":   base64.URLEncoding.EncodeToString([]byte(`{"offset":null}`)),
	}
	for name, token := range cases {
		if _, err := query.DecodeCursor(token); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestCursor_DecodeFractionalFloors(t *testing.T) {
	token := base64.URLEncoding.EncodeToString([]byte(`{"offset":3.9}`))
	got, err := query.DecodeCursor(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}

func TestCursor_DecodeNegativeClampsToZero(t *testing.T) {
	token := base64.URLEncoding.EncodeToString([]byte(`{"offset":-4}`))
	got, err := query.DecodeCursor(token)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
