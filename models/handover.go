package models

import "time"

// Handover statuses. The state machine is pending -> accepted, nothing else.
const (
	HandoverStatusPending  = "pending"
	HandoverStatusAccepted = "accepted"
)

// Handover is a supervisor-initiated batch transfer of transaction ownership
// between two employees. Ownership moves at creation time; acceptance by the
// receiving employee is an acknowledgement, not a data mutation gate.
type Handover struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	FromEmployee uint       `json:"fromEmployee" gorm:"not null;index"`
	ToEmployee   uint       `json:"toEmployee" gorm:"not null;index"`
	SupervisorID uint       `json:"supervisorId" gorm:"not null"`
	Status       string     `json:"status" gorm:"not null;default:'pending'"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"createdAt"`
	AcceptedAt   *time.Time `json:"acceptedAt"`

	Items []HandoverItem `json:"items,omitempty" gorm:"foreignKey:HandoverID;constraint:OnDelete:CASCADE"`
}

// HandoverItem pins one transaction to one handover batch. Immutable once
// created.
type HandoverItem struct {
	ID            uint `json:"id" gorm:"primaryKey"`
	HandoverID    uint `json:"handoverId" gorm:"not null;index"`
	TransactionID uint `json:"transactionId" gorm:"not null;index"`

	Transaction *Transaction `json:"-" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`
}
