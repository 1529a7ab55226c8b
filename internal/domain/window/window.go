// Package window turns window selectors ("2020", "Jul-2020", "recent",
// "recent_year", "all") into concrete date ranges.
package window

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Well-known selectors.
const (
	Recent     = "recent"
	RecentYear = "recent_year"
	All        = "all"
)

const (
	recentSpan     = 30 * 24 * time.Hour
	recentYearSpan = 366 * 24 * time.Hour
	monthLayout    = "Jan-2006"

	// Calendar windows must fit in int64 Unix nanoseconds.
	minYear = 1678
	maxYear = 2261
)

// Epoch is the start of the all-time window.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // constant instant

// Window is a resolved date range. End is exclusive unless EndInclusive is
// set, in which case every instant on End's calendar day is inside.
type Window struct {
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	EndInclusive bool      `json:"end_inclusive"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return t.Before(w.Until())
}

// Until returns the exclusive upper bound of the window.
func (w Window) Until() time.Time {
	if w.EndInclusive {
		return w.End.AddDate(0, 0, 1)
	}
	return w.End
}

// String renders the window as [start, end] or [start, end).
func (w Window) String() string {
	closing := ")"
	if w.EndInclusive {
		closing = "]"
	}
	return fmt.Sprintf("%s [%s, %s%s", w.Label, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly), closing)
}

// Resolve converts a selector into a Window relative to now. An unparseable
// selector yields the all-time window together with ErrInvalidWindowSpec so
// that callers can log it and carry on.
func Resolve(selector string, now time.Time) (Window, error) {
	sel := strings.TrimSpace(selector)
	loc := now.Location()

	switch strings.ToLower(sel) {
	case "", All:
		return allTime(now), nil
	case Recent:
		return Window{Label: Recent, Start: now.Add(-recentSpan), End: now}, nil
	case RecentYear:
		return Window{Label: RecentYear, Start: now.Add(-recentYearSpan), End: now}, nil
	}

	if year, ok := parseYear(sel); ok {
		return Window{
			Label:        sel,
			Start:        time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			End:          time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
			EndInclusive: true,
		}, nil
	}

	if strings.Contains(sel, "-") {
		if start, ok := parseMonth(sel, loc); ok {
			return Window{
				Label: start.Format(monthLayout),
				Start: start,
				End:   start.AddDate(0, 1, 0),
			}, nil
		}
	}

	return allTime(now), fmt.Errorf("%w: %q", ErrInvalidWindowSpec, selector)
}

func allTime(now time.Time) Window {
	return Window{Label: All, Start: Epoch.In(now.Location()), End: now}
}

func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < minYear || year > maxYear {
		return 0, false
	}
	return year, true
}

// parseMonth accepts "Jul-2020" in any letter case.
func parseMonth(s string, loc *time.Location) (time.Time, bool) {
	mon, year, ok := strings.Cut(s, "-")
	if !ok || len(mon) != 3 {
		return time.Time{}, false
	}
	normalized := strings.ToUpper(mon[:1]) + strings.ToLower(mon[1:]) + "-" + year
	t, err := time.ParseInLocation(monthLayout, normalized, loc)
	if err != nil || t.Year() < minYear || t.Year() > maxYear {
		return time.Time{}, false
	}
	return t, true
}

// YearLabels lists the window selectors of a trophy board: "recent", then
// every calendar year from now's year down to oldest's year.
func YearLabels(now, oldest time.Time) []string {
	labels := []string{Recent}
	first := oldest.Year()
	if oldest.IsZero() || first > now.Year() {
		first = now.Year()
	}
	for y := now.Year(); y >= first; y-- {
		labels = append(labels, strconv.Itoa(y))
	}
	return labels
}
