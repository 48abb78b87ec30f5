package config

import (
	"log/slog"
	"os"

	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// ConnectDB opens the Postgres connection from DB_URL and migrates the schema.
// TranslateError is enabled so unique-constraint violations surface as
// gorm.ErrDuplicatedKey, which the transaction number allocator relies on.
func ConnectDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		slog.Error("DB_URL environment variable is not set")
		os.Exit(1)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.TransactionHistory{},
		&models.Handover{},
		&models.HandoverItem{},
		&models.DailySequence{},
	); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	DB = db
	slog.Info("Connected to database")
}
