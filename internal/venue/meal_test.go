package venue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dininguru/internal/venue"
)

func TestMealPeriodAt(t *testing.T) {
	tests := []struct {
		hour, min int
		want      venue.MealPeriod
	}{
		{6, 0, venue.Breakfast},
		{10, 59, venue.Breakfast},
		{11, 0, venue.Lunch},
		{16, 59, venue.Lunch},
		{17, 0, venue.Dinner},
		{21, 59, venue.Dinner},
		{22, 0, venue.Closed},
		{5, 59, venue.Closed},
		{0, 0, venue.Closed},
	}

	for _, tt := range tests {
		got := venue.MealPeriodAt(at(tt.hour, tt.min))
		assert.Equal(t, tt.want, got, "%02d:%02d", tt.hour, tt.min)
	}
}

func TestParseMealPeriod(t *testing.T) {
	p, err := venue.ParseMealPeriod(" Dinner ")
	require.NoError(t, err)
	assert.Equal(t, venue.Dinner, p)

	_, err = venue.ParseMealPeriod("brunch")
	require.Error(t, err)
}

func TestRatingValue(t *testing.T) {
	assert.Equal(t, -1.0, venue.WayWorse.Value())
	assert.Equal(t, -0.5, venue.Worse.Value())
	assert.Equal(t, 0.0, venue.Neutral.Value())
	assert.Equal(t, 0.5, venue.Better.Value())
	assert.Equal(t, 1.0, venue.WayBetter.Value())
}

func TestParseRating(t *testing.T) {
	for _, s := range []string{"way-better", "WayBetter", "way_better", "waybetter"} {
		r, err := venue.ParseRating(s)
		require.NoError(t, err, s)
		assert.Equal(t, venue.WayBetter, r)
	}

	_, err := venue.ParseRating("amazing")
	require.Error(t, err)
}

func TestRatingFromValue(t *testing.T) {
	r, ok := venue.RatingFromValue(-0.5)
	require.True(t, ok)
	assert.Equal(t, venue.Worse, r)

	_, ok = venue.RatingFromValue(0.7)
	assert.False(t, ok)
}
