package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DateStatus is the display classification of a remember date.
type DateStatus string

const (
	StatusToday  DateStatus = "today"
	StatusPast   DateStatus = "past"
	StatusFuture DateStatus = "future"
)

// DateLayout is the calendar-date layout used on the wire and in forms.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid remember date")

// rememberDateLayouts are tried in order. The API may send a bare date or a
// timestamp; only the calendar date is kept.
var rememberDateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseRememberDate extracts the calendar date from raw and returns it as
// midnight in loc. A zone carried by a timestamp is ignored on purpose:
// the date is what the user picked, not an instant.
func ParseRememberDate(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.Local
	}

	for _, layout := range rememberDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// Classify compares date with now on calendar days in now's location.
func Classify(date, now time.Time) DateStatus {
	dy, dm, dd := date.Date()
	ny, nm, nd := now.Date()

	day := time.Date(dy, dm, dd, 0, 0, 0, 0, time.UTC)
	today := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)

	switch {
	case day.Equal(today):
		return StatusToday
	case day.Before(today):
		return StatusPast
	default:
		return StatusFuture
	}
}

// ClassifyRaw parses raw and classifies it. Unparsable dates fall back to
// StatusFuture, which renders with the default styling.
func ClassifyRaw(raw string, now time.Time) DateStatus {
	date, err := ParseRememberDate(raw, now.Location())
	if err != nil {
		return StatusFuture
	}
	return Classify(date, now)
}

// FormatLongDate renders a date like "January 2nd, 2024".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s %s, %d", t.Month(), humanize.Ordinal(t.Day()), t.Year())
}

// Today returns now's calendar date in DateLayout.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}
