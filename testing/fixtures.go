// Package testing provides test utilities and database setup for testing the QR code service
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/qread/qread/models"
	"github.com/qread/qread/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with a random email and username
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		Email:        fmt.Sprintf("jane.doe.%s@example.com", randomDigits),
		Username:     fmt.Sprintf("jane_%s", randomDigits),
		Name:         "Jane Doe",
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateInactiveTestUser creates a user whose account is disabled
func (tf *TestFixtures) CreateInactiveTestUser() (*models.User, error) {
	user, err := tf.CreateTestUser()
	if err != nil {
		return nil, err
	}

	user.IsActive = utils.ToPtr(false)
	if err := tf.DB.DB.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test user: %w", err)
	}
	return user, nil
}

// CreateTestQRCode creates a QR code owned by the given user
func (tf *TestFixtures) CreateTestQRCode(userID uint, content, shortURL string) (*models.QRCode, error) {
	qr := &models.QRCode{
		ID:       uuid.New(),
		UserID:   userID,
		Content:  content,
		ShortURL: shortURL,
	}

	if err := tf.DB.DB.Create(qr).Error; err != nil {
		return nil, fmt.Errorf("failed to create test QR code: %w", err)
	}

	return qr, nil
}

// CreateTestScan records one scan event against a QR code
func (tf *TestFixtures) CreateTestScan(qrCodeID uuid.UUID, ip, city, country string, at time.Time) (*models.Scan, error) {
	scan := &models.Scan{
		QRCodeID:  qrCodeID,
		ScanTime:  at,
		IPAddress: ip,
		City:      city,
		Country:   country,
	}

	if err := tf.DB.DB.Create(scan).Error; err != nil {
		return nil, fmt.Errorf("failed to create test scan: %w", err)
	}

	return scan, nil
}
