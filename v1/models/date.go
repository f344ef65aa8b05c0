package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted wire and storage representation of a calendar date
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, serialized as YYYY-MM-DD
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's own location
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD string
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected format YYYY-MM-DD", value)
	}
	return Date{Time: parsed}, nil
}

// String implements fmt.Stringer
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddMonths returns the date n calendar months later, clamped to the last day of the
// target month (Jan 31 + 1 month is Feb 28)
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, d.Location())
	if last := first.AddDate(0, 1, -1).Day(); day > last {
		day = last
	}
	return Date{Time: time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())}
}

// After reports whether d is strictly later than other
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

// MarshalJSON implements json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts only a YYYY-MM-DD string
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid date: expected a YYYY-MM-DD string")
	}

	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements the sql.Scanner interface for Date
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = NewDate(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) scanString(value string) error {
	// Drivers may hand back a full timestamp for date columns
	if len(value) > len(DateLayout) {
		value = value[:len(DateLayout)]
	}
	parsed, err := ParseDate(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements the driver.Valuer interface for Date
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// GormDataType gorm common data type
func (Date) GormDataType() string {
	return "date"
}
