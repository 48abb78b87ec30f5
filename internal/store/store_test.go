package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "najum_test.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.TransactionHistory{},
		&models.Handover{},
		&models.HandoverItem{},
		&models.DailySequence{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, fullName, role string) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func asRequester(u models.User) Requester {
	return Requester{ID: u.ID, Role: u.Role}
}

var seedCounter int

func seedTransaction(t *testing.T, s *TransactionStore, owner models.User) *models.Transaction {
	t.Helper()
	seedCounter++
	txn, err := s.Create(CreateTransactionInput{
		ServiceType:      "Document Processing",
		TransactionType:  "New",
		ClientName:       fmt.Sprintf("Client %d", seedCounter),
		PassportID:       fmt.Sprintf("P%06d", seedCounter),
		MobileNumber:     fmt.Sprintf("05000000%02d", seedCounter),
		ReceiveDate:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ExpectedDelivery: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
	}, asRequester(owner))
	require.NoError(t, err)
	return txn
}
