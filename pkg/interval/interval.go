// Package interval implements half-open time interval arithmetic shared by
// the booking and office hour schedulers.
package interval

import "time"

// Span is a half-open interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// New builds a Span without validating it. Call Valid before trusting it.
func New(start, end time.Time) Span {
	return Span{Start: start, End: end}
}

// Valid reports whether the span has positive length.
func (s Span) Valid() bool {
	return s.End.After(s.Start)
}

// Duration returns End - Start.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open spans intersect. Touching
// endpoints (a.End == b.Start) do not count as overlap.
func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Contains reports whether t falls inside the span.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Overlaps is the free-function form of Span.Overlaps for callers holding
// raw timestamps.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
