package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar form dates are exchanged in.
const DateLayout = "2006-01-02"

// FormatError reports a date that is not a valid calendar day in the expected form.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid date format %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid date format %q", e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// EncodeDate converts "YYYY-MM-DD" into its YYYYMMDD integer form.
func EncodeDate(iso string) (int, error) {
	t, err := time.Parse(DateLayout, iso)
	if err != nil {
		return 0, &FormatError{Value: iso, Err: err}
	}
	if t.Year() < 1 || t.Year() > 9999 {
		return 0, &FormatError{Value: iso}
	}
	return DateFromTime(t), nil
}

// DecodeDate converts a YYYYMMDD integer back to "YYYY-MM-DD".
func DecodeDate(date int) (string, error) {
	t, err := DateToTime(date)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// DateFromTime encodes the calendar day of t, in t's own location.
func DateFromTime(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateToTime returns midnight UTC of an encoded date.
func DateToTime(date int) (time.Time, error) {
	y, m, d := date/10000, (date/100)%100, date%100
	if date <= 0 || y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 {
		return time.Time{}, &FormatError{Value: fmt.Sprint(date)}
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow such as Feb 30; reject instead
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, &FormatError{Value: fmt.Sprint(date)}
	}
	return t, nil
}

// FormatDate renders an encoded date for display, falling back to the raw integer.
func FormatDate(date int) string {
	s, err := DecodeDate(date)
	if err != nil {
		return fmt.Sprint(date)
	}
	return s
}
