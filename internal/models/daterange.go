package models

import "time"

// Day truncates t to midnight UTC. All coverage arithmetic works on whole
// days; storing anything finer would break interval comparison.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateRange is an inclusive interval of days. The zero value is the sentinel
// "never fetched" interval, distinguishable from a real one-day interval.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange normalizes both ends to whole days. From and To may be given
// in either order.
func NewDateRange(from, to time.Time) DateRange {
	from, to = Day(from), Day(to)
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		from, to = to, from
	}
	return DateRange{From: from, To: to}
}

// IsZero reports the never-fetched sentinel.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Contains reports whether r fully covers o. The sentinel range contains
// nothing and is contained by everything.
func (r DateRange) Contains(o DateRange) bool {
	if o.IsZero() {
		return true
	}
	if r.IsZero() {
		return false
	}
	return !r.From.After(o.From) && !r.To.Before(o.To)
}

// Union returns the minimal contiguous interval covering both r and o.
// Expanding to the union rather than fetching disjoint sub-ranges is what
// keeps every stored interval gap-free.
func (r DateRange) Union(o DateRange) DateRange {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	out := r
	if o.From.Before(out.From) {
		out.From = o.From
	}
	if o.To.After(out.To) {
		out.To = o.To
	}
	return out
}

// Extend widens r to include the single day d.
func (r DateRange) Extend(d time.Time) DateRange {
	d = Day(d)
	if d.IsZero() {
		return r
	}
	return r.Union(DateRange{From: d, To: d})
}
