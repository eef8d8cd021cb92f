// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"context"
	"testing"

	"github.com/qread/qread/app/dto"
	"github.com/qread/qread/app/services"
	businessflow "github.com/qread/qread/business_flow"
	"github.com/qread/qread/models"
	"github.com/qread/qread/repository"
	testingutil "github.com/qread/qread/testing"
	"github.com/qread/qread/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQRCodeFlow(testDB *testingutil.TestDB) businessflow.QRCodeFlow {
	userRepo := repository.NewUserRepository(testDB.DB)
	qrRepo := repository.NewQRCodeRepository(testDB.DB)
	return businessflow.NewQRCodeFlow(userRepo, qrRepo, services.NewMockQRImageService(), nil, nil)
}

func TestCreateQRCode(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.1", "test-agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("GeneratedShortCode", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: user.ID}
			result, err := flow.CreateQRCode(ctx, req, metadata)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Len(t, result.ShortURL, utils.ShortURLLength)
			assert.Equal(t, "https://example.com", result.Content)
			assert.NotEmpty(t, result.ImagePath)
		})

		t.Run("ExplicitShortCode", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{
				Content:  "https://example.com/docs",
				ShortURL: "mydocs01",
				UserID:   user.ID,
			}
			result, err := flow.CreateQRCode(ctx, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, "mydocs01", result.ShortURL)
		})

		t.Run("ExplicitShortCodeTaken", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{
				Content:  "https://example.com/other",
				ShortURL: "mydocs01",
				UserID:   user.ID,
			}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsShortCodeTaken(err))
		})

		t.Run("ExplicitShortCodeInvalid", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{
				Content:  "https://example.com",
				ShortURL: "bad code",
				UserID:   user.ID,
			}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsShortCodeInvalid(err))
		})

		t.Run("EmptyContent", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{Content: "   ", UserID: user.ID}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsContentRequired(err))
		})

		t.Run("UnknownUser", func(t *testing.T) {
			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: 999999}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("InactiveUser", func(t *testing.T) {
			inactive, err := fixtures.CreateInactiveTestUser()
			require.NoError(t, err)

			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: inactive.ID}
			_, err = flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsAccountInactive(err))
		})

		return nil
	})
	require.NoError(t, err)
}

// collidingQRCodeRepo fails Save with a duplicate-key error a fixed number
// of times before delegating to the real repository, simulating generated
// codes losing the unique-index race
type collidingQRCodeRepo struct {
	repository.QRCodeRepository
	remaining int
	attempted []string
}

func (r *collidingQRCodeRepo) Save(ctx context.Context, qr *models.QRCode) error {
	r.attempted = append(r.attempted, qr.ShortURL)
	if r.remaining > 0 {
		r.remaining--
		return gorm.ErrDuplicatedKey
	}
	return r.QRCodeRepository.Save(ctx, qr)
}

func TestCreateQRCodeCollisionRetry(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		userRepo := repository.NewUserRepository(testDB.DB)
		qrRepo := repository.NewQRCodeRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()
		metadata := businessflow.NewClientMetadata("203.0.113.1", "test-agent")

		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		t.Run("RegeneratesOnCollision", func(t *testing.T) {
			colliding := &collidingQRCodeRepo{QRCodeRepository: qrRepo, remaining: 1}
			images := services.NewMockQRImageService()
			flow := businessflow.NewQRCodeFlow(userRepo, colliding, images, nil, nil)

			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: user.ID}
			result, err := flow.CreateQRCode(ctx, req, metadata)
			require.NoError(t, err)

			// One rejected insert, one successful one, with a fresh code
			require.Len(t, colliding.attempted, 2)
			assert.NotEqual(t, colliding.attempted[0], colliding.attempted[1])
			assert.Equal(t, colliding.attempted[1], result.ShortURL)
			assert.Len(t, result.ShortURL, utils.ShortURLLength)

			stored, err := qrRepo.ByShortURL(ctx, result.ShortURL)
			require.NoError(t, err)
			require.NotNil(t, stored)

			// The first attempt's image was removed and re-rendered for
			// the regenerated code
			require.Len(t, images.Generated, 2)
			require.Len(t, images.Removed, 1)
			assert.Equal(t, images.Generated[0], images.Removed[0])
			assert.Equal(t, images.Generated[1], result.ImagePath)
		})

		t.Run("ExhaustedAfterPersistentCollisions", func(t *testing.T) {
			colliding := &collidingQRCodeRepo{QRCodeRepository: qrRepo, remaining: 1 << 30}
			images := services.NewMockQRImageService()
			flow := businessflow.NewQRCodeFlow(userRepo, colliding, images, nil, nil)

			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: user.ID}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsShortCodeExhausted(err))

			// Every rejected attempt cleans up its rendered image
			assert.Len(t, images.Removed, len(images.Generated))
		})

		t.Run("NonDuplicateFailureCleansUpImage", func(t *testing.T) {
			broken := &failingSaveQRCodeRepo{QRCodeRepository: qrRepo}
			images := services.NewMockQRImageService()
			flow := businessflow.NewQRCodeFlow(userRepo, broken, images, nil, nil)

			req := &dto.CreateQRCodeRequest{Content: "https://example.com", UserID: user.ID}
			_, err := flow.CreateQRCode(ctx, req, metadata)
			require.Error(t, err)
			assert.False(t, businessflow.IsShortCodeExhausted(err))

			require.Len(t, images.Generated, 1)
			require.Len(t, images.Removed, 1)
			assert.Equal(t, images.Generated[0], images.Removed[0])
		})

		return nil
	})
	require.NoError(t, err)
}

// failingSaveQRCodeRepo rejects every Save with a non-duplicate error
type failingSaveQRCodeRepo struct {
	repository.QRCodeRepository
}

func (r *failingSaveQRCodeRepo) Save(context.Context, *models.QRCode) error {
	return gorm.ErrInvalidDB
}

func TestListAndGetQRCodes(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		_, err = fixtures.CreateTestQRCode(owner.ID, "https://example.com/1", "list0001")
		require.NoError(t, err)
		_, err = fixtures.CreateTestQRCode(owner.ID, "https://example.com/2", "list0002")
		require.NoError(t, err)

		t.Run("ListOwnerScoped", func(t *testing.T) {
			result, err := flow.ListQRCodes(ctx, owner.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, result.Total)

			result, err = flow.ListQRCodes(ctx, stranger.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, result.Total)
		})

		t.Run("Get", func(t *testing.T) {
			result, err := flow.GetQRCode(ctx, owner.ID, "list0001")
			require.NoError(t, err)
			assert.Equal(t, "https://example.com/1", result.Content)
		})

		t.Run("GetForeignCodeIsNotFound", func(t *testing.T) {
			_, err := flow.GetQRCode(ctx, stranger.ID, "list0001")
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDeleteQRCode(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		flow := newQRCodeFlow(testDB)
		fixtures := testingutil.NewTestFixtures(testDB)
		scanRepo := repository.NewScanRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		owner, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		stranger, err := fixtures.CreateTestUser()
		require.NoError(t, err)

		qr, err := fixtures.CreateTestQRCode(owner.ID, "https://example.com/del", "delt0001")
		require.NoError(t, err)
		_, err = fixtures.CreateTestScan(qr.ID, "203.0.113.2", "Rome", "Italy", utils.UTCNow())
		require.NoError(t, err)

		t.Run("ForeignCodeIsNotFound", func(t *testing.T) {
			err := flow.DeleteQRCode(ctx, stranger.ID, "delt0001")
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))
		})

		t.Run("DeleteRemovesScans", func(t *testing.T) {
			require.NoError(t, flow.DeleteQRCode(ctx, owner.ID, "delt0001"))

			_, err := flow.GetQRCode(ctx, owner.ID, "delt0001")
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))

			count, err := scanRepo.CountByQRCode(ctx, qr.ID)
			require.NoError(t, err)
			assert.Zero(t, count)
		})

		t.Run("DeleteTwiceIsNotFound", func(t *testing.T) {
			err := flow.DeleteQRCode(ctx, owner.ID, "delt0001")
			require.Error(t, err)
			assert.True(t, businessflow.IsQRCodeNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
