package domain

import (
	"fmt"
	"time"
)

// LocalDate is a calendar date with no time-of-day or zone attached.
// Streak accounting counts these, never instants: the caller resolves
// "today" in the user's configured time zone and hands us the date.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

const localDateLayout = "2006-01-02"

// ParseLocalDate parses a date in YYYY-MM-DD form.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(localDateLayout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("parse local date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

func (d LocalDate) String() string {
	return d.Time().Format(localDateLayout)
}

// Time returns midnight UTC on the date, the representation used for
// Postgres date columns.
func (d LocalDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero date.
func (d LocalDate) IsZero() bool {
	return d == LocalDate{}
}

// AddDays returns the date n days after d (n may be negative).
func (d LocalDate) AddDays(n int) LocalDate {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Next returns the following calendar day.
func (d LocalDate) Next() LocalDate { return d.AddDays(1) }

// Prev returns the preceding calendar day.
func (d LocalDate) Prev() LocalDate { return d.AddDays(-1) }

// Before reports whether d is earlier than other.
func (d LocalDate) Before(other LocalDate) bool {
	return d.Time().Before(other.Time())
}

// DaysUntil returns the number of calendar days from d to other
// (positive when other is later).
func (d LocalDate) DaysUntil(other LocalDate) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// MarshalJSON encodes the date as a YYYY-MM-DD string.
func (d LocalDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a YYYY-MM-DD string.
func (d *LocalDate) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("local date must be a JSON string")
	}
	parsed, err := ParseLocalDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
