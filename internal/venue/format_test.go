package venue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neexbeast/dininguru/internal/venue"
)

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "11a", venue.FormatTime("2024-11-22T11:00:00"))
	assert.Equal(t, "2:30p", venue.FormatTime("2024-11-22T14:30:00"))
	assert.Equal(t, "12p", venue.FormatTime("2024-11-22T12:00:00"))
	assert.Equal(t, "Invalid time format", venue.FormatTime("noon"))
}

func TestFormatDayParts(t *testing.T) {
	assert.Equal(t, "CLOSED TODAY", venue.FormatDayParts(nil))

	one := []venue.DayPart{{StartTime: "2024-11-22T11:00:00", EndTime: "2024-11-22T14:00:00"}}
	assert.Equal(t, "11a-2p", venue.FormatDayParts(one))

	two := []venue.DayPart{
		{StartTime: "2024-11-22T07:00:00", EndTime: "2024-11-22T10:30:00"},
		{StartTime: "2024-11-22T17:00:00", EndTime: "2024-11-22T20:00:00"},
	}
	assert.Equal(t, "7 - 10:30 | 5 - 8", venue.FormatDayParts(two))
}

func TestFormatToday(t *testing.T) {
	v := venue.Venue{Days: lunchOnly("open")}
	assert.Equal(t, "11a-2p", venue.FormatToday(v, at(9, 0)))

	v.Days[0].Date = "2024-11-21"
	assert.Equal(t, "CLOSED TODAY", venue.FormatToday(v, at(9, 0)))
}

func TestPartitionAndSort(t *testing.T) {
	venues := []venue.Venue{
		{ID: 639, Name: "Houston Market"},
		{ID: 636, Name: "Hill House"},
		{ID: 593, Name: "1920 Commons"},
		{ID: 642, Name: "Joe's Cafe"},
		{ID: 638, Name: "Falk"},
	}

	halls, retail := venue.Partition(venues)
	assert.Len(t, halls, 3)
	assert.Len(t, retail, 2)

	venue.Sort(halls, []int{638})
	names := []string{halls[0].Name, halls[1].Name, halls[2].Name}
	assert.Equal(t, []string{"Falk", "1920 Commons", "Hill House"}, names)

	url, ok := venue.MenuURL(636)
	assert.True(t, ok)
	assert.Contains(t, url, "hill-house")

	_, ok = venue.MenuURL(1)
	assert.False(t, ok)
}
