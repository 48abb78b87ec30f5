package txnumber

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "txnumber_test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DailySequence{}))
	return db
}

func TestFormat(t *testing.T) {
	day := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "TRX-20240301-0003", Format(day, 3))
	assert.Equal(t, "TRX-20240301-1234", Format(day, 1234))
	assert.Equal(t, "TRX-20240301-", DayPrefix(day))
}

func TestFormatUsesUTCDate(t *testing.T) {
	// 01:30 on March 1st in UTC+3 is 22:30 UTC on February 29th.
	loc := time.FixedZone("UTC+3", 3*60*60)
	local := time.Date(2024, 3, 1, 1, 30, 0, 0, loc)
	assert.Equal(t, "TRX-20240229-0001", Format(local, 1))
}

func TestNextIncrementsPerDay(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		var number string
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			number, err = Next(tx, day)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, Format(day, i), number)
	}

	otherDay := day.AddDate(0, 0, 1)
	var number string
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = Next(tx, otherDay)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "TRX-20240302-0001", number, "counters are scoped per calendar day")
}

func TestNextRollsBackWithEnclosingTransaction(t *testing.T) {
	db := openTestDB(t)
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := Next(tx, day); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var number string
	err = db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = Next(tx, day)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, Format(day, 1), number, "an aborted allocation must not consume a sequence value")
}
