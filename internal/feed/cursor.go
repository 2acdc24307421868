package feed

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Cursor marks a pagination boundary: the page below it is strictly
// less than SortDate, or equal SortDate and strictly less than ID.
// Never an offset: filtering happens post-query, and offsets skip or
// duplicate rows once earlier pages mutate.
type Cursor struct {
	SortDate time.Time `json:"s"`
	ID       string    `json:"i"`
}

// Encode returns the opaque token for the cursor.
func (c Cursor) Encode() string {
	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses an opaque token. A malformed token degrades to
// "no cursor" (start from the beginning) rather than an error.
func DecodeCursor(token string) *Cursor {
	if token == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil
	}
	if c.ID == "" || c.SortDate.IsZero() {
		return nil
	}
	return &c
}
