package feed

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{
		SortDate: time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC),
		ID:       "post-42",
	}

	token := c.Encode()
	if token == "" {
		t.Fatal("Encode() returned empty token")
	}

	got := DecodeCursor(token)
	if got == nil {
		t.Fatal("DecodeCursor() returned nil for valid token")
	}
	if !got.SortDate.Equal(c.SortDate) || got.ID != c.ID {
		t.Errorf("DecodeCursor() = %+v, want %+v", got, c)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"not json", "bm90LWpzb24"},
		{"missing id", `eyJzIjoiMjAyNi0wNS0wMVQxMjowMDowMFoifQ`},
		{"zero value", "e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeCursor(tt.token); got != nil {
				t.Errorf("DecodeCursor(%q) = %+v, want nil", tt.token, got)
			}
		})
	}
}
