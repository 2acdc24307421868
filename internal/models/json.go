package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document-shaped fields are stored as JSON text columns. Each column
// type implements driver.Valuer and sql.Scanner so GORM round-trips it
// on both PostgreSQL and SQLite.

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(dest interface{}, src interface{}) error {
	if src == nil {
		return nil
	}
	switch s := src.(type) {
	case []byte:
		if len(s) == 0 {
			return nil
		}
		return json.Unmarshal(s, dest)
	case string:
		if s == "" {
			return nil
		}
		return json.Unmarshal([]byte(s), dest)
	default:
		return fmt.Errorf("unsupported JSON column source type %T", src)
	}
}

// StringList is a JSON array of ids.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error { return jsonScan(l, src) }

// MediaList is a JSON array of media attachments.
type MediaList []MediaItem

// Value implements driver.Valuer
func (l MediaList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner
func (l *MediaList) Scan(src interface{}) error { return jsonScan(l, src) }

// CommentList is a JSON tree of comments.
type CommentList []Comment

// Value implements driver.Valuer
func (l CommentList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner
func (l *CommentList) Scan(src interface{}) error { return jsonScan(l, src) }

// Value implements driver.Valuer
func (v *Venue) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return jsonValue(v)
}

// Scan implements sql.Scanner
func (v *Venue) Scan(src interface{}) error { return jsonScan(v, src) }

// Value implements driver.Valuer
func (b *BusinessRef) Value() (driver.Value, error) {
	if b == nil {
		return nil, nil
	}
	return jsonValue(b)
}

// Scan implements sql.Scanner
func (b *BusinessRef) Scan(src interface{}) error { return jsonScan(b, src) }

// Value implements driver.Valuer
func (s *SharedRef) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return jsonValue(s)
}

// Scan implements sql.Scanner
func (s *SharedRef) Scan(src interface{}) error { return jsonScan(s, src) }

// Value implements driver.Valuer
func (d Details) Value() (driver.Value, error) { return jsonValue(d) }

// Scan implements sql.Scanner
func (d *Details) Scan(src interface{}) error { return jsonScan(d, src) }
