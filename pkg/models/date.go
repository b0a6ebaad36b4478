package models

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the layout used to print dates.
const DateFormat = "2006-01-02"

// Date is a calendar day with no time zone attached.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// DateIn resolves an instant to the calendar day it falls on in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return NewDate(t.In(loc).Date())
}

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d.y == 0 && d.m == 0 && d.d == 0 }
func (d Date) String() string     { return d.Time().Format(DateFormat) }
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }
func (d Date) After(x Date) bool  { return d.Time().After(x.Time()) }

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// ParseDate parses value with every layout and fails unless they agree.
// A value accepted by two layouts that yield different days is ambiguous
// and rejected instead of guessed.
func ParseDate(value string, layouts ...string) (Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Date{}, &DateParseError{Value: value, Layouts: layouts, Reason: "empty date"}
	}
	var (
		found Date
		ok    bool
	)
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		d := NewDate(t.Date())
		if ok && d != found {
			return Date{}, &DateParseError{
				Value:   value,
				Layouts: layouts,
				Reason:  fmt.Sprintf("ambiguous: %s or %s", found, d),
			}
		}
		found, ok = d, true
	}
	if !ok {
		return Date{}, &DateParseError{Value: value, Layouts: layouts, Reason: "no layout matched"}
	}
	return found, nil
}

// ParseTimestamp parses a vendor timestamp expressed in loc. A trailing
// zone abbreviation ("2024-01-05 10:00:00 PST") is dropped since loc
// already carries the offset rules.
func ParseTimestamp(value string, loc *time.Location, layouts ...string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	if i := strings.LastIndexByte(value, ' '); i > 0 && isZoneAbbrev(value[i+1:]) {
		value = value[:i]
	}
	var (
		found time.Time
		ok    bool
	)
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err != nil {
			continue
		}
		if ok && !t.Equal(found) {
			return time.Time{}, &DateParseError{Value: value, Layouts: layouts, Reason: "ambiguous timestamp"}
		}
		found, ok = t, true
	}
	if !ok {
		return time.Time{}, &DateParseError{Value: value, Layouts: layouts, Reason: "no layout matched"}
	}
	return found, nil
}

func isZoneAbbrev(s string) bool {
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
