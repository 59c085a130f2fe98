package venue

import (
	"strings"
	"time"
)

const closedToday = "CLOSED TODAY"

// FormatTime renders a schedule timestamp compactly: "2:30p", "11a".
func FormatTime(s string) string {
	t, err := time.Parse(timestampLayout, strings.TrimSpace(s))
	if err != nil {
		return "Invalid time format"
	}

	out := t.Format("3:04") + "a"
	if t.Hour() >= 12 {
		out = t.Format("3:04") + "p"
	}
	return strings.ReplaceAll(out, ":00", "")
}

// FormatDayParts renders a day's windows for a list row. A single window
// keeps its am/pm suffixes; several windows drop them to save space.
func FormatDayParts(parts []DayPart) string {
	switch len(parts) {
	case 0:
		return closedToday
	case 1:
		return FormatTime(parts[0].StartTime) + "-" + FormatTime(parts[0].EndTime)
	}

	out := make([]string, 0, len(parts))
	for _, dp := range parts {
		out = append(out, dropSuffix(FormatTime(dp.StartTime))+" - "+dropSuffix(FormatTime(dp.EndTime)))
	}
	return strings.Join(out, " | ")
}

// FormatToday renders today's hours for v.
func FormatToday(v Venue, now time.Time) string {
	day, ok := Today(v.Days, now)
	if !ok {
		return closedToday
	}
	return FormatDayParts(day.DayParts)
}

func dropSuffix(s string) string {
	if s == "" {
		return s
	}
	return s[:len(s)-1]
}
