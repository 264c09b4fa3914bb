package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date wire format used across storage, API and sheets.
const DateLayout = "2006-01-02"

// DefaultLegacyYear is attributed to legacy rows that carry neither explicit
// period fields nor any date.
const DefaultLegacyYear = 2025

type (
	// Date is a calendar date at UTC midnight. It carries no time-of-day and
	// is never converted between time zones.
	Date struct {
		time.Time
	}

	// Period is a billing month.
	Period struct {
		Year  int
		Month time.Month
	}
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidDay   = errors.New("invalid day")
)

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// IsEmpty returns true if the date is zero (for optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Period returns the billing month the date falls in.
func (d Date) Period() Period {
	return Period{Year: d.Year(), Month: d.Month()}
}

// EarlierThan compares calendar dates only.
func (d Date) EarlierThan(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// MarshalJSON shadows time.Time's RFC 3339 encoding; dates travel as
// "YYYY-MM-DD" and the zero date as "".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewPeriod validates the month before building a Period.
func NewPeriod(year int, month time.Month) (Period, error) {
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return ErrInvalidMonth
	}
	if p.Year < 1 {
		return fmt.Errorf("%w: year %d", ErrInvalidDate, p.Year)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Contains reports whether d falls in the period. A zero date never does.
func (p Period) Contains(d Date) bool {
	return !d.IsZero() && d.Year() == p.Year && d.Month() == p.Month
}

// LastDay returns the number of days in the period's month.
func (p Period) LastDay() int {
	return time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOnDay returns the date for day in this period, clamped into the month
// (day 31 in February yields the last day of February).
func (p Period) DateOnDay(day int) Date {
	if day < 1 {
		day = 1
	}
	if last := p.LastDay(); day > last {
		day = last
	}
	return NewDate(p.Year, p.Month, day)
}
