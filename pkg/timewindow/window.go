// Package timewindow turns the relative date/period phrases produced by
// intent classification into concrete scheduling filters.
package timewindow

import (
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// Recognized literal date tokens.
const (
	TokenToday     = "today"
	TokenTomorrow  = "tomorrow"
	TokenYesterday = "yesterday"
)

// Recognized period tokens. Weeks run Monday through Sunday.
const (
	PeriodWeek     = "week"
	PeriodNextWeek = "next_week"
	PeriodLastWeek = "last_week"
)

// Window is a resolved scheduling filter. At most one of On or Start/End is
// set; the zero Window means "no date constraint".
type Window struct {
	On    *time.Time
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether the window constrains nothing.
func (w Window) IsZero() bool {
	return w.On == nil && w.Start == nil && w.End == nil
}

// Resolve maps a literal date token and/or a period token onto a concrete
// window anchored at "today". A parseable date token wins over the period
// token; an unparsable date token is silently ignored so a noisy classifier
// never fails a query outright.
func Resolve(dateToken, periodToken string, anchor time.Time) Window {
	today := truncate(anchor)

	if on, ok := resolveDate(dateToken, today); ok {
		return Window{On: &on}
	}

	switch strings.TrimSpace(strings.ToLower(periodToken)) {
	case PeriodWeek:
		start := startOfWeek(today)
		end := start.AddDate(0, 0, 6)
		return Window{Start: &start, End: &end}
	case PeriodNextWeek:
		start := startOfWeek(today).AddDate(0, 0, 7)
		end := start.AddDate(0, 0, 6)
		return Window{Start: &start, End: &end}
	case PeriodLastWeek:
		start := startOfWeek(today).AddDate(0, 0, -7)
		end := start.AddDate(0, 0, 6)
		return Window{Start: &start, End: &end}
	}

	return Window{}
}

func resolveDate(token string, today time.Time) (time.Time, bool) {
	switch strings.TrimSpace(strings.ToLower(token)) {
	case "":
		return time.Time{}, false
	case TokenToday:
		return today, true
	case TokenTomorrow:
		return today.AddDate(0, 0, 1), true
	case TokenYesterday:
		return today.AddDate(0, 0, -1), true
	}

	parsed, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(token), today.Location())
	if err != nil {
		// Lenient fallback: classifier output is noisy.
		return time.Time{}, false
	}
	return truncate(parsed), true
}

func startOfWeek(day time.Time) time.Time {
	// Monday-anchored: Go's Weekday has Sunday == 0.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
