package businessflow

import (
	"testing"
	"time"

	"github.com/qread/qread/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAt(at time.Time, city, country string) *models.Scan {
	return &models.Scan{ScanTime: at, City: city, Country: country}
}

func TestDailySeries(t *testing.T) {
	today := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	t.Run("ZeroFilledWindow", func(t *testing.T) {
		series := DailySeries(nil, today)
		require.Len(t, series, 7)
		assert.Equal(t, "2025-03-09", series[0].Date)
		assert.Equal(t, "2025-03-15", series[6].Date)
		for _, day := range series {
			assert.Zero(t, day.Count)
		}
	})

	t.Run("BucketsByDay", func(t *testing.T) {
		scans := []*models.Scan{
			scanAt(today, "Lisbon", "Portugal"),
			scanAt(today.Add(-2*time.Hour), "Lisbon", "Portugal"),
			scanAt(today.AddDate(0, 0, -3), "Porto", "Portugal"),
		}
		series := DailySeries(scans, today)
		require.Len(t, series, 7)
		assert.Equal(t, 2, series[6].Count)
		assert.Equal(t, 1, series[3].Count)
	})

	t.Run("IgnoresScansOutsideWindow", func(t *testing.T) {
		scans := []*models.Scan{
			scanAt(today.AddDate(0, 0, -7), "Old", "Old"),
			scanAt(today.AddDate(0, 0, 1), "Future", "Future"),
			scanAt(today, "Lisbon", "Portugal"),
		}
		series := DailySeries(scans, today)
		total := 0
		for _, day := range series {
			total += day.Count
		}
		assert.Equal(t, 1, total)
	})

	t.Run("DayBoundaryIsUTC", func(t *testing.T) {
		// 23:59 UTC on the oldest in-window day still counts
		edge := time.Date(2025, 3, 9, 23, 59, 59, 0, time.UTC)
		series := DailySeries([]*models.Scan{scanAt(edge, "Lisbon", "Portugal")}, today)
		assert.Equal(t, 1, series[0].Count)
	})
}

func TestLocationHistogram(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, LocationHistogram(nil))
	})

	t.Run("CountDescending", func(t *testing.T) {
		scans := []*models.Scan{
			scanAt(time.Now(), "Porto", "Portugal"),
			scanAt(time.Now(), "Lisbon", "Portugal"),
			scanAt(time.Now(), "Lisbon", "Portugal"),
		}
		locations := LocationHistogram(scans)
		require.Len(t, locations, 2)
		assert.Equal(t, "Lisbon", locations[0].City)
		assert.Equal(t, 2, locations[0].Count)
		assert.Equal(t, "Porto", locations[1].City)
	})

	t.Run("TiesKeepFirstSeenOrder", func(t *testing.T) {
		scans := []*models.Scan{
			scanAt(time.Now(), "Porto", "Portugal"),
			scanAt(time.Now(), "Lisbon", "Portugal"),
		}
		locations := LocationHistogram(scans)
		require.Len(t, locations, 2)
		assert.Equal(t, "Porto", locations[0].City)
		assert.Equal(t, "Lisbon", locations[1].City)
	})

	t.Run("SameCityDifferentCountry", func(t *testing.T) {
		scans := []*models.Scan{
			scanAt(time.Now(), "Springfield", "United States"),
			scanAt(time.Now(), "Springfield", "Canada"),
		}
		locations := LocationHistogram(scans)
		assert.Len(t, locations, 2)
	})
}

func TestGenerateShortCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := generateShortCode()
		assert.Len(t, code, 8)
		assert.True(t, isValidShortCode(code))
		seen[code] = true
	}
	// 100 draws from a 16^8 space should never collide
	assert.Len(t, seen, 100)
}

func TestIsValidShortCode(t *testing.T) {
	assert.True(t, isValidShortCode("abcd1234"))
	assert.True(t, isValidShortCode("AB-cd_12"))
	assert.False(t, isValidShortCode("short"))
	assert.False(t, isValidShortCode("toolong123"))
	assert.False(t, isValidShortCode("bad code"))
	assert.False(t, isValidShortCode("bad/code"))
	assert.False(t, isValidShortCode(""))
}
