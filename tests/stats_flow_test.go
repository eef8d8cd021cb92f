// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"bytes"
	"testing"
	"time"

	"github.com/qread/qread/app/services"
	businessflow "github.com/qread/qread/business_flow"
	"github.com/qread/qread/repository"
	testingutil "github.com/qread/qread/testing"
	"github.com/qread/qread/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newStatsFlow(testDB *testingutil.TestDB) businessflow.StatsFlow {
	qrRepo := repository.NewQRCodeRepository(testDB.DB)
	scanRepo := repository.NewScanRepository(testDB.DB)
	return businessflow.NewStatsFlow(qrRepo, scanRepo, services.NewScanReportService())
}

func TestGetScanStats(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newStatsFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		qr, err := fixtures.CreateTestQRCode(owner.ID, "https://example.com", "stat0001")
		require.NoError(t, err)
		otherQR, err := fixtures.CreateTestQRCode(owner.ID, "https://example.com/b", "stat0002")
		require.NoError(t, err)

		now := utils.UTCNow()
		today := utils.TruncateToDay(now)

		// Two scans today, one two days ago, one outside the window
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.1", "Lisbon", "Portugal", now)
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.2", "Lisbon", "Portugal", now.Add(-time.Hour))
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.3", "Porto", "Portugal", now.AddDate(0, 0, -2))
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.4", "Madrid", "Spain", now.AddDate(0, 0, -10))
		require.NoError(t, err)

		// A scan on the owner's second code, visible only in the overall view
		_, err = fixtures.CreateTestScan(otherQR.ID, "203.0.113.5", "Berlin", "Germany", now)
		require.NoError(t, err)

		shortURL := "stat0001"

		t.Run("SingleCode", func(t *testing.T) {
			stats, err := flow.GetScanStats(ctx, owner.ID, &shortURL)
			require.NoError(t, err)

			require.Len(t, stats.ScanData, utils.StatsWindowDays)
			assert.Equal(t, 2, stats.ScanData[today.Format(time.DateOnly)])
			assert.Equal(t, 1, stats.ScanData[today.AddDate(0, 0, -2).Format(time.DateOnly)])
			assert.Equal(t, 0, stats.ScanData[today.AddDate(0, 0, -1).Format(time.DateOnly)])

			// Lisbon leads the histogram; the out-of-window Madrid scan
			// still counts toward locations
			require.NotEmpty(t, stats.Locations)
			assert.Equal(t, "Lisbon", stats.Locations[0].City)
			assert.Equal(t, 2, stats.Locations[0].Count)
			for _, loc := range stats.Locations {
				assert.NotEqual(t, "Berlin", loc.City)
			}
		})

		t.Run("AllCodes", func(t *testing.T) {
			stats, err := flow.GetScanStats(ctx, owner.ID, nil)
			require.NoError(t, err)
			assert.Equal(t, 3, stats.ScanData[today.Format(time.DateOnly)])

			cities := make(map[string]int)
			for _, loc := range stats.Locations {
				cities[loc.City] = loc.Count
			}
			assert.Equal(t, 1, cities["Berlin"])
		})

		t.Run("ForeignCodeIsNotFound", func(t *testing.T) {
			_, err := flow.GetScanStats(ctx, stranger.ID, &shortURL)
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))
		})

		t.Run("NoScansIsZeroFilled", func(t *testing.T) {
			stats, err := flow.GetScanStats(ctx, stranger.ID, nil)
			require.NoError(t, err)
			require.Len(t, stats.ScanData, utils.StatsWindowDays)
			for _, count := range stats.ScanData {
				assert.Zero(t, count)
			}
			assert.Empty(t, stats.Locations)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestExportScans(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newStatsFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		qr, err := fixtures.CreateTestQRCode(owner.ID, "https://example.com", "expt0001")
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.1", "Lisbon", "Portugal", utils.UTCNow())
		require.NoError(t, err)

		t.Run("BuildsWorkbook", func(t *testing.T) {
			filename, data, err := flow.ExportScans(ctx, owner.ID, "expt0001")
			require.NoError(t, err)
			assert.Equal(t, "scans_expt0001.xlsx", filename)
			require.NotEmpty(t, data)

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer xl.Close()

			rows, err := xl.GetRows("scans")
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, []string{"scan_time", "ip_address", "city", "country"}, rows[0])
			assert.Equal(t, "Lisbon", rows[1][2])
		})

		t.Run("ForeignCodeIsNotFound", func(t *testing.T) {
			_, _, err := flow.ExportScans(ctx, stranger.ID, "expt0001")
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
