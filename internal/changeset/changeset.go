// Package changeset computes the field-level delta between a stored
// transaction and a proposed partial update. The output feeds both the UPDATE
// statement and the audit history entry, so the two can never disagree.
package changeset

import (
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
)

// Patch carries the proposed values for a transaction update. Nil pointers
// mean "leave this field untouched" (PATCH semantics, not PUT).
type Patch struct {
	ServiceType      *string
	TransactionType  *string
	ClientName       *string
	PassportID       *string
	MobileNumber     *string
	Status           *string
	ReceiveDate      *time.Time
	ExpectedDelivery *time.Time
	Notes            *string
}

// Change records one field transition for the audit trail.
type Change struct {
	From interface{} `json:"from"`
	To   interface{} `json:"to"`
}

const dateLayout = "2006-01-02"

// Diff compares the existing transaction with the patch. It returns the audit
// change set keyed by column name and the staged column updates. A provided
// value equal to the stored one produces no entry, so a patch that changes
// nothing yields two empty maps and the caller must reject it.
func Diff(existing *models.Transaction, patch Patch) (models.ChangeSet, map[string]interface{}) {
	changes := models.ChangeSet{}
	updates := map[string]interface{}{}

	setString := func(column string, proposed *string, current string) {
		if proposed != nil && *proposed != current {
			changes[column] = Change{From: current, To: *proposed}
			updates[column] = *proposed
		}
	}
	setDate := func(column string, proposed *time.Time, current time.Time) {
		if proposed != nil && !proposed.Equal(current) {
			changes[column] = Change{
				From: current.Format(dateLayout),
				To:   proposed.Format(dateLayout),
			}
			updates[column] = *proposed
		}
	}

	setString("service_type", patch.ServiceType, existing.ServiceType)
	setString("transaction_type", patch.TransactionType, existing.TransactionType)
	setString("client_name", patch.ClientName, existing.ClientName)
	setString("passport_id", patch.PassportID, existing.PassportID)
	setString("mobile_number", patch.MobileNumber, existing.MobileNumber)
	setString("status", patch.Status, existing.Status)
	setDate("receive_date", patch.ReceiveDate, existing.ReceiveDate)
	setDate("expected_delivery", patch.ExpectedDelivery, existing.ExpectedDelivery)
	setString("notes", patch.Notes, existing.Notes)

	return changes, updates
}
