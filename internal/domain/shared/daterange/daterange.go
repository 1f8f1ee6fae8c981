package daterange

import (
	"errors"
	"time"
)

var (
	ErrEmptyRange    = errors.New("daterange: range must cover at least one night")
	ErrZeroBoundary  = errors.New("daterange: both boundaries are required")
	ErrInvertedRange = errors.New("daterange: start must precede end")
)

// DateRange is a half-open interval of calendar dates: Start is the first
// occupied night, End is the morning of departure and is never occupied.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// New normalizes both boundaries to UTC midnight and validates ordering.
func New(start, end time.Time) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, ErrZeroBoundary
	}
	s := Day(start)
	e := Day(end)
	if e.Before(s) {
		return DateRange{}, ErrInvertedRange
	}
	if s.Equal(e) {
		return DateRange{}, ErrEmptyRange
	}
	return DateRange{Start: s, End: e}, nil
}

// Day truncates a timestamp to its UTC calendar date.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights counts the occupied nights, rounding partial days up.
func (r DateRange) Nights() int {
	span := r.End.Sub(r.Start)
	nights := int(span / (24 * time.Hour))
	if span%(24*time.Hour) != 0 {
		nights++
	}
	return nights
}

// Overlaps reports whether two half-open ranges share at least one night.
// Touching boundaries (one range ending where the other starts) do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether other lies fully inside the receiver.
func (r DateRange) Contains(other DateRange) bool {
	return !other.Start.Before(r.Start) && !other.End.After(r.End)
}

// IsZero reports whether the range carries no boundaries at all.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}
