// Package txnumber allocates human-readable transaction numbers in the format
// TRX-YYYYMMDD-NNNN, where NNNN is a 4-digit counter scoped to the UTC
// calendar date. The counter is monotonic per day, not gap-free: a deleted
// transaction never frees its number for reuse.
package txnumber

import (
	"fmt"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const prefix = "TRX"

const dayLayout = "20060102"

// Format renders the number for a given day and sequence value.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.UTC().Format(dayLayout), seq)
}

// DayPrefix returns the shared prefix of all numbers allocated on the given
// day, e.g. "TRX-20240301-".
func DayPrefix(day time.Time) string {
	return fmt.Sprintf("%s-%s-", prefix, day.UTC().Format(dayLayout))
}

// Next allocates the next number for the day by atomically incrementing the
// day's counter row. It must run inside the same storage transaction as the
// insert that consumes the number: the incremented row stays locked until that
// transaction commits, which serializes concurrent creators on the same day.
// If the transaction rolls back, the increment rolls back with it.
//
// The unique index on transactions.transaction_number remains the backstop;
// callers retry on gorm.ErrDuplicatedKey.
func Next(tx *gorm.DB, day time.Time) (string, error) {
	dayKey := day.UTC().Format(dayLayout)

	seq := models.DailySequence{Day: dayKey, LastSeq: 1}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seq": gorm.Expr("last_seq + 1")}),
	}).Create(&seq).Error
	if err != nil {
		return "", err
	}

	if err := tx.First(&seq, "day = ?", dayKey).Error; err != nil {
		return "", err
	}

	return Format(day, seq.LastSeq), nil
}
