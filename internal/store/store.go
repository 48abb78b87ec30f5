// Package store implements the transaction repository and the handover
// workflow engine. All coordination between concurrent requests goes through
// the database's transactional guarantees; the package keeps no in-process
// shared state.
package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Requester is the verified identity attached to every operation by the
// authentication middleware.
type Requester struct {
	ID   uint
	Role string
}

// lockForUpdate applies a row-level lock where the dialect supports one.
// SQLite rejects FOR UPDATE and serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
