// Package item holds the minimal organizer item model the bundled engines
// operate on: items, open-ended date ranges, a small recurrence rule, fetch
// hints and save masks.
//
// It is deliberately not a full calendaring model. Recurrence supports a
// frequency, an interval, a count, an until bound and exception dates; there
// is no BYDAY/BYMONTH expansion.
package item
