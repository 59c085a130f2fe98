package venue

import (
	"fmt"
	"strings"
)

// Rating is the five-point comparison scale a user picks for a meal.
type Rating int

const (
	WayWorse Rating = iota
	Worse
	Neutral
	Better
	WayBetter
)

var ratingNames = [...]string{"way-worse", "worse", "neutral", "better", "way-better"}

var ratingValues = [...]float64{-1.0, -0.5, 0.0, 0.5, 1.0}

// Value maps the scale onto {-1, -0.5, 0, 0.5, 1}.
func (r Rating) Value() float64 {
	if r < WayWorse || r > WayBetter {
		return 0
	}
	return ratingValues[r]
}

func (r Rating) String() string {
	if r < WayWorse || r > WayBetter {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingNames[r]
}

// ParseRating accepts the names printed by String, with or without dashes
// ("way-better", "waybetter", "WayBetter").
func ParseRating(s string) (Rating, error) {
	norm := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(s))
	for i, name := range ratingNames {
		if norm == strings.ReplaceAll(name, "-", "") {
			return Rating(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rating %q", s)
}

// RatingFromValue is the inverse of Value; ok is false for any other number.
func RatingFromValue(v float64) (Rating, bool) {
	for i, rv := range ratingValues {
		if rv == v {
			return Rating(i), true
		}
	}
	return 0, false
}
