package venue

import (
	"strings"
	"time"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
	closingLayout   = "3:04 PM"
)

// Time-of-day forms accepted in place of a full timestamp; they are placed
// on the reference date.
var clockLayouts = []string{"15:04:05", "15:04"}

// Status is the result of resolving a schedule against an instant.
type Status struct {
	Open     bool
	ClosesAt time.Time
	Label    string
}

// ClosingTime returns the end of the active window as a short local time,
// or "" when closed.
func (s Status) ClosingTime() string {
	if !s.Open {
		return ""
	}
	return s.ClosesAt.Format(closingLayout)
}

// TodayString returns the schedule date string for now in now's location.
func TodayString(now time.Time) string {
	return now.Format(dateLayout)
}

// Today returns the day entry matching now's date, if any.
func Today(days []Day, now time.Time) (Day, bool) {
	today := TodayString(now)
	for _, d := range days {
		if d.Date == today {
			return d, true
		}
	}
	return Day{}, false
}

// Resolve decides whether a schedule is open at now and, if so, which
// window is active. The first window containing now wins; both bounds are
// inclusive. Windows with unparseable bounds are ignored.
func Resolve(days []Day, now time.Time) Status {
	day, ok := Today(days, now)
	if !ok || !strings.EqualFold(day.Status, "open") {
		return Status{}
	}

	for _, dp := range day.DayParts {
		start, err := parseWallClock(dp.StartTime, now)
		if err != nil {
			continue
		}
		end, err := parseWallClock(dp.EndTime, now)
		if err != nil {
			continue
		}
		if !now.Before(start) && !now.After(end) {
			return Status{Open: true, ClosesAt: end, Label: dp.Label}
		}
	}

	return Status{}
}

// ClosingTime returns the formatted closing time of the venue's current
// window and true, or "" and false when the venue is closed.
func ClosingTime(v Venue, now time.Time) (string, bool) {
	st := Resolve(v.Days, now)
	return st.ClosingTime(), st.Open
}

// IsOpen reports whether the venue has an active window at now.
func IsOpen(v Venue, now time.Time) bool {
	return Resolve(v.Days, now).Open
}

// parseWallClock parses a zone-less timestamp in ref's location. A bare
// time of day is combined with ref's date.
func parseWallClock(s string, ref time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation(timestampLayout, s, ref.Location())
	if err == nil {
		return t, nil
	}

	for _, layout := range clockLayouts {
		c, cerr := time.Parse(layout, s)
		if cerr != nil {
			continue
		}
		y, m, d := ref.Date()
		return time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, ref.Location()), nil
	}

	return time.Time{}, err
}
