package venue

import (
	"fmt"
	"strings"
	"time"
)

// MealPeriod scopes ratings and comments to a part of the day.
type MealPeriod string

const (
	Breakfast MealPeriod = "breakfast"
	Lunch     MealPeriod = "lunch"
	Dinner    MealPeriod = "dinner"
	Closed    MealPeriod = "closed"
)

// MealPeriodAt buckets t's local hour: [6,11) breakfast, [11,17) lunch,
// [17,22) dinner, anything else closed.
func MealPeriodAt(t time.Time) MealPeriod {
	switch h := t.Hour(); {
	case h >= 6 && h < 11:
		return Breakfast
	case h >= 11 && h < 17:
		return Lunch
	case h >= 17 && h < 22:
		return Dinner
	default:
		return Closed
	}
}

// ParseMealPeriod accepts any of the four period names, case-insensitively.
func ParseMealPeriod(s string) (MealPeriod, error) {
	p := MealPeriod(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Breakfast, Lunch, Dinner, Closed:
		return p, nil
	}
	return "", fmt.Errorf("unknown meal period %q", s)
}

func (p MealPeriod) String() string { return string(p) }
