package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Transaction statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusReady      = "ready"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// ValidStatus reports whether the given string is a known transaction status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// ChangeSet is a structured before/after payload stored as JSONB alongside a
// history entry. Its shape depends on the history action.
type ChangeSet map[string]interface{}

// Value serializes the change set to JSON for storage.
func (c ChangeSet) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan reads the change set back from its JSON column.
func (c *ChangeSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	}
	return errors.New("unsupported type for ChangeSet column")
}

// Transaction represents one unit of client service work. The transaction
// number is assigned once at creation and never changes afterwards.
type Transaction struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	TransactionNumber string    `json:"transactionNumber" gorm:"uniqueIndex;not null"`
	ServiceType       string    `json:"serviceType" gorm:"not null"`
	TransactionType   string    `json:"transactionType" gorm:"not null"`
	ClientName        string    `json:"clientName" gorm:"not null"`
	PassportID        string    `json:"passportId" gorm:"not null"`
	MobileNumber      string    `json:"mobileNumber" gorm:"not null"`
	Status            string    `json:"status" gorm:"not null;default:'pending';index"`
	ReceiveDate       time.Time `json:"receiveDate" gorm:"not null"`
	ExpectedDelivery  time.Time `json:"expectedDelivery" gorm:"not null"`
	Notes             string    `json:"notes"`
	AssignedTo        uint      `json:"assignedTo" gorm:"not null;index"`
	CreatedBy         uint      `json:"createdBy" gorm:"not null"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	AssignedEmployee *User `json:"assignedEmployee,omitempty" gorm:"foreignKey:AssignedTo"`
	Creator          *User `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
}

// History entry actions.
const (
	HistoryActionCreated  = "created"
	HistoryActionUpdated  = "updated"
	HistoryActionHandover = "handover"
)

// TransactionHistory is an append-only audit record of a single mutation to a
// transaction. Entries are never updated or deleted individually; they are
// removed only by the cascade when an admin hard-deletes the parent transaction.
type TransactionHistory struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	TransactionID uint      `json:"transactionId" gorm:"not null;index"`
	Action        string    `json:"action" gorm:"not null"`
	Changes       ChangeSet `json:"changes" gorm:"type:jsonb"`
	ModifiedBy    uint      `json:"modifiedBy" gorm:"not null"`
	ModifiedAt    time.Time `json:"modifiedAt" gorm:"autoCreateTime"`

	Transaction *Transaction `json:"-" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}

// DailySequence is the per-day counter backing transaction number allocation.
// The row is incremented atomically inside the creation transaction, so two
// concurrent creators on the same day cannot observe the same value.
type DailySequence struct {
	Day     string `gorm:"primaryKey;size:8"`
	LastSeq int    `gorm:"not null"`
}
