// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qread/qread/models"
	"github.com/qread/qread/repository"
	testingutil "github.com/qread/qread/testing"
	"github.com/qread/qread/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewUserRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("Save", func(t *testing.T) {
			user, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.NotEqual(t, uuid.Nil, user.UUID)
		})

		t.Run("ByID", func(t *testing.T) {
			original, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			user, err := repo.ByID(ctx, original.ID)
			require.NoError(t, err)
			require.NotNil(t, user)
			assert.Equal(t, original.Email, user.Email)
		})

		t.Run("ByIDNotFound", func(t *testing.T) {
			user, err := repo.ByID(ctx, 999999)
			assert.NoError(t, err)
			assert.Nil(t, user)
		})

		t.Run("ByEmail", func(t *testing.T) {
			original, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			user, err := repo.ByEmail(ctx, original.Email)
			require.NoError(t, err)
			require.NotNil(t, user)
			assert.Equal(t, original.ID, user.ID)
		})

		t.Run("Exists", func(t *testing.T) {
			original, err := fixtures.CreateTestUser()
			require.NoError(t, err)

			exists, err := repo.Exists(ctx, models.UserFilter{Email: &original.Email})
			require.NoError(t, err)
			assert.True(t, exists)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestQRCodeRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewQRCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("Save", func(t *testing.T) {
			qr := &models.QRCode{
				UserID:   user.ID,
				Content:  "https://example.com",
				ShortURL: "aaaa1111",
			}
			require.NoError(t, repo.Save(ctx, qr))
			assert.NotEqual(t, uuid.Nil, qr.ID)
		})

		t.Run("SaveDuplicateShortURL", func(t *testing.T) {
			qr := &models.QRCode{
				UserID:   user.ID,
				Content:  "https://example.com/other",
				ShortURL: "aaaa1111",
			}
			err := repo.Save(ctx, qr)
			require.Error(t, err)
			assert.True(t, repository.IsDuplicateKeyError(err))
		})

		t.Run("ByShortURL", func(t *testing.T) {
			original, err := fixtures.CreateTestQRCode(user.ID, "https://example.com/a", "bbbb2222")
			require.NoError(t, err)

			qr, err := repo.ByShortURL(ctx, "bbbb2222")
			require.NoError(t, err)
			require.NotNil(t, qr)
			assert.Equal(t, original.ID, qr.ID)
			assert.Equal(t, "https://example.com/a", qr.Content)
		})

		t.Run("ByShortURLNotFound", func(t *testing.T) {
			qr, err := repo.ByShortURL(ctx, "zzzz9999")
			require.NoError(t, err)
			assert.Nil(t, qr)
		})

		t.Run("ListByUser", func(t *testing.T) {
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			_, err = fixtures.CreateTestQRCode(other.ID, "https://example.com/x", "cccc3333")
			require.NoError(t, err)
			_, err = fixtures.CreateTestQRCode(other.ID, "https://example.com/y", "dddd4444")
			require.NoError(t, err)

			rows, err := repo.ListByUser(ctx, other.ID)
			require.NoError(t, err)
			assert.Len(t, rows, 2)
			for _, row := range rows {
				assert.Equal(t, other.ID, row.UserID)
			}
		})

		t.Run("Delete", func(t *testing.T) {
			qr, err := fixtures.CreateTestQRCode(user.ID, "https://example.com/del", "eeee5555")
			require.NoError(t, err)

			require.NoError(t, repo.Delete(ctx, qr.ID))

			found, err := repo.ByShortURL(ctx, "eeee5555")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestScanRepository(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		repo := repository.NewScanRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		qr, err := fixtures.CreateTestQRCode(user.ID, "https://example.com", "ffff6666")
		require.NoError(t, err)

		t.Run("Save", func(t *testing.T) {
			scan := &models.Scan{
				QRCodeID:  qr.ID,
				ScanTime:  utils.UTCNow(),
				IPAddress: "203.0.113.7",
				City:      "Lisbon",
				Country:   "Portugal",
			}
			require.NoError(t, repo.Save(ctx, scan))
			assert.NotZero(t, scan.ID)
		})

		t.Run("ListByQRCodeOrdered", func(t *testing.T) {
			now := utils.UTCNow()
			_, err := fixtures.CreateTestScan(qr.ID, "203.0.113.8", "Porto", "Portugal", now.Add(-2*time.Hour))
			require.NoError(t, err)
			_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.9", "Madrid", "Spain", now.Add(-1*time.Hour))
			require.NoError(t, err)

			scans, err := repo.ListByQRCode(ctx, qr.ID)
			require.NoError(t, err)
			require.GreaterOrEqual(t, len(scans), 3)
			for i := 1; i < len(scans); i++ {
				assert.False(t, scans[i].ScanTime.Before(scans[i-1].ScanTime))
			}
		})

		t.Run("ListByUser", func(t *testing.T) {
			other, err := fixtures.CreateTestUser()
			require.NoError(t, err)
			otherQR, err := fixtures.CreateTestQRCode(other.ID, "https://example.com/z", "gggg7777")
			require.NoError(t, err)
			_, err = fixtures.CreateTestScan(otherQR.ID, "203.0.113.10", "Berlin", "Germany", utils.UTCNow())
			require.NoError(t, err)

			scans, err := repo.ListByUser(ctx, other.ID)
			require.NoError(t, err)
			require.Len(t, scans, 1)
			assert.Equal(t, otherQR.ID, scans[0].QRCodeID)

			// The first user's scans never leak into another owner's view
			scans, err = repo.ListByUser(ctx, user.ID)
			require.NoError(t, err)
			for _, scan := range scans {
				assert.Equal(t, qr.ID, scan.QRCodeID)
			}
		})

		t.Run("CountByQRCode", func(t *testing.T) {
			count, err := repo.CountByQRCode(ctx, qr.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, int64(3))
		})

		return nil
	})
	require.NoError(t, err)
}
