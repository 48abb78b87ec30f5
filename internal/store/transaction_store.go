package store

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/changeset"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/txnumber"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"gorm.io/gorm"
)

// TransactionStore is the role-scoped repository over transaction records.
type TransactionStore struct {
	DB *gorm.DB
}

func NewTransactionStore(db *gorm.DB) *TransactionStore {
	return &TransactionStore{DB: db}
}

// allocateAttempts bounds the retry loop when two same-day creations collide
// on a transaction number. The counter row makes collisions rare; the unique
// index makes them harmless.
const allocateAttempts = 3

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Pagination is the envelope returned with every paginated listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

func clampPage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	switch {
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	case limit <= 0:
		limit = DefaultPageLimit
	}
	return page, limit
}

func newPagination(page, limit int, total int64) *Pagination {
	pages := 0
	if total > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// CreateTransactionInput carries the fields for a new transaction.
type CreateTransactionInput struct {
	ServiceType      string
	TransactionType  string
	ClientName       string
	PassportID       string
	MobileNumber     string
	Status           string
	ReceiveDate      time.Time
	ExpectedDelivery time.Time
	Notes            string
}

func (in CreateTransactionInput) validate() []apperrors.FieldError {
	var fields []apperrors.FieldError
	require := func(field, value, message string) {
		if strings.TrimSpace(value) == "" {
			fields = append(fields, apperrors.FieldError{Field: field, Message: message})
		}
	}
	require("serviceType", in.ServiceType, "Service type is required")
	require("transactionType", in.TransactionType, "Transaction type is required")
	require("clientName", in.ClientName, "Client name is required")
	require("passportId", in.PassportID, "Passport/ID is required")
	require("mobileNumber", in.MobileNumber, "Mobile number is required")
	if in.ReceiveDate.IsZero() {
		fields = append(fields, apperrors.FieldError{Field: "receiveDate", Message: "Receive date is required"})
	}
	if in.ExpectedDelivery.IsZero() {
		fields = append(fields, apperrors.FieldError{Field: "expectedDelivery", Message: "Expected delivery date is required"})
	}
	return fields
}

// Create inserts a new transaction owned by its creator. Number allocation,
// the row insert and the "created" history entry run in one storage
// transaction; a duplicate number aborts the whole unit and the allocation is
// retried with a fresh counter value.
func (s *TransactionStore) Create(in CreateTransactionInput, requester Requester) (*models.Transaction, error) {
	if fields := in.validate(); len(fields) > 0 {
		return nil, apperrors.Validation("Validation failed", fields...)
	}

	status := in.Status
	if status == "" {
		status = models.StatusPending
	} else if !models.ValidStatus(status) {
		return nil, apperrors.Validation("Validation failed",
			apperrors.FieldError{Field: "status", Message: "Invalid status"})
	}

	for attempt := 1; attempt <= allocateAttempts; attempt++ {
		created := models.Transaction{
			ServiceType:      in.ServiceType,
			TransactionType:  in.TransactionType,
			ClientName:       in.ClientName,
			PassportID:       in.PassportID,
			MobileNumber:     in.MobileNumber,
			Status:           status,
			ReceiveDate:      in.ReceiveDate,
			ExpectedDelivery: in.ExpectedDelivery,
			Notes:            in.Notes,
			AssignedTo:       requester.ID,
			CreatedBy:        requester.ID,
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			number, err := txnumber.Next(tx, time.Now())
			if err != nil {
				return err
			}
			created.TransactionNumber = number

			if err := tx.Create(&created).Error; err != nil {
				return err
			}

			history := models.TransactionHistory{
				TransactionID: created.ID,
				Action:        models.HistoryActionCreated,
				Changes:       models.ChangeSet{"message": "Transaction created"},
				ModifiedBy:    requester.ID,
			}
			return tx.Create(&history).Error
		})
		if err == nil {
			return &created, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			slog.Warn("Transaction number collision, retrying allocation", "attempt", attempt)
			continue
		}
		return nil, apperrors.Internal(err)
	}

	return nil, apperrors.Conflict("Could not allocate a transaction number, please retry")
}

// HistoryEntry is one audit record joined with the modifier's name.
type HistoryEntry struct {
	ID             uint             `json:"id"`
	TransactionID  uint             `json:"transactionId"`
	Action         string           `json:"action"`
	Changes        models.ChangeSet `json:"changes"`
	ModifiedBy     uint             `json:"modifiedBy"`
	ModifiedByName string           `json:"modifiedByName"`
	ModifiedAt     time.Time        `json:"modifiedAt"`
}

// Get loads one transaction with its full history, most recent entry first.
// Employees can only see their own transactions.
func (s *TransactionStore) Get(id uint, requester Requester) (*models.Transaction, []HistoryEntry, error) {
	var txn models.Transaction
	if err := s.DB.Preload("AssignedEmployee").Preload("Creator").First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFound("Transaction not found")
		}
		return nil, nil, apperrors.Internal(err)
	}

	if requester.Role == models.RoleEmployee && txn.AssignedTo != requester.ID {
		return nil, nil, apperrors.Forbidden("Access denied")
	}

	history, err := s.History(id)
	if err != nil {
		return nil, nil, err
	}
	return &txn, history, nil
}

// History lists the audit trail of a transaction, most recent first.
func (s *TransactionStore) History(transactionID uint) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	err := s.DB.Table("transaction_histories h").
		Select("h.id, h.transaction_id, h.action, h.changes, h.modified_by, h.modified_at, COALESCE(u.full_name, '') AS modified_by_name").
		Joins("LEFT JOIN users u ON h.modified_by = u.id").
		Where("h.transaction_id = ?", transactionID).
		Order("h.modified_at DESC, h.id DESC").
		Scan(&entries).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return entries, nil
}

// ListFilter carries the optional listing filters. Which of them are honored
// depends on the requester's role.
type ListFilter struct {
	Status      string
	ServiceType string
	AssignedTo  uint
	Search      string
	Page        int
	Limit       int
}

// TransactionRow is one listing row joined with employee names.
type TransactionRow struct {
	ID                   uint      `json:"id"`
	TransactionNumber    string    `json:"transactionNumber"`
	ServiceType          string    `json:"serviceType"`
	TransactionType      string    `json:"transactionType"`
	ClientName           string    `json:"clientName"`
	PassportID           string    `json:"passportId"`
	MobileNumber         string    `json:"mobileNumber"`
	Status               string    `json:"status"`
	ReceiveDate          time.Time `json:"receiveDate"`
	ExpectedDelivery     time.Time `json:"expectedDelivery"`
	Notes                string    `json:"notes"`
	AssignedTo           uint      `json:"assignedTo"`
	CreatedBy            uint      `json:"createdBy"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
	AssignedEmployeeName string    `json:"assignedEmployeeName"`
	CreatedByName        string    `json:"createdByName"`
}

func likePattern(value string) string {
	return "%" + strings.ToLower(value) + "%"
}

// VisibilityScope builds the role-conditional filter predicate for transaction
// listings. An employee is hard-scoped to their own rows: their assignedTo
// filter is silently ignored and their search covers only client name and
// mobile number. Admin and supervisor see everything and search the full
// column set.
func VisibilityScope(filter ListFilter, requester Requester) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if requester.Role == models.RoleEmployee {
			db = db.Where("t.assigned_to = ?", requester.ID)
		} else if filter.AssignedTo != 0 {
			db = db.Where("t.assigned_to = ?", filter.AssignedTo)
		}

		if filter.Status != "" {
			db = db.Where("t.status = ?", filter.Status)
		}
		if filter.ServiceType != "" {
			db = db.Where("LOWER(t.service_type) LIKE ?", likePattern(filter.ServiceType))
		}

		if filter.Search != "" {
			p := likePattern(filter.Search)
			if requester.Role == models.RoleEmployee {
				db = db.Where("LOWER(t.client_name) LIKE ? OR LOWER(t.mobile_number) LIKE ?", p, p)
			} else {
				db = db.Where(
					"LOWER(t.transaction_number) LIKE ? OR LOWER(t.client_name) LIKE ? OR LOWER(t.mobile_number) LIKE ? OR LOWER(t.passport_id) LIKE ? OR LOWER(t.service_type) LIKE ? OR LOWER(t.notes) LIKE ?",
					p, p, p, p, p, p,
				)
			}
		}
		return db
	}
}

// List returns a page of transactions visible to the requester, newest first.
func (s *TransactionStore) List(filter ListFilter, requester Requester) ([]TransactionRow, *Pagination, error) {
	page, limit := clampPage(filter.Page, filter.Limit)

	var total int64
	if err := s.DB.Table("transactions t").
		Scopes(VisibilityScope(filter, requester)).
		Count(&total).Error; err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	rows := make([]TransactionRow, 0)
	err := s.DB.Table("transactions t").
		Select("t.*, COALESCE(u.full_name, '') AS assigned_employee_name, COALESCE(c.full_name, '') AS created_by_name").
		Joins("LEFT JOIN users u ON t.assigned_to = u.id").
		Joins("LEFT JOIN users c ON t.created_by = c.id").
		Scopes(VisibilityScope(filter, requester)).
		Order("t.created_at DESC, t.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return rows, newPagination(page, limit, total), nil
}

// ExportRows returns every transaction visible to the requester, newest first,
// without pagination. Used by the register export.
func (s *TransactionStore) ExportRows(filter ListFilter, requester Requester) ([]TransactionRow, error) {
	rows := make([]TransactionRow, 0)
	err := s.DB.Table("transactions t").
		Select("t.*, COALESCE(u.full_name, '') AS assigned_employee_name, COALESCE(c.full_name, '') AS created_by_name").
		Joins("LEFT JOIN users u ON t.assigned_to = u.id").
		Joins("LEFT JOIN users c ON t.created_by = c.id").
		Scopes(VisibilityScope(filter, requester)).
		Order("t.created_at DESC, t.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}

// Update applies a partial update. Only changed fields are written; the
// computed change set is appended to the history in the same storage
// transaction as the field write. A patch that changes nothing is a
// validation error, not a silent success.
func (s *TransactionStore) Update(id uint, patch changeset.Patch, requester Requester) (*models.Transaction, error) {
	var existing models.Transaction
	if err := s.DB.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Transaction not found")
		}
		return nil, apperrors.Internal(err)
	}

	if requester.Role == models.RoleEmployee && existing.AssignedTo != requester.ID {
		return nil, apperrors.Forbidden("Access denied")
	}

	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return nil, apperrors.Validation("Validation failed",
			apperrors.FieldError{Field: "status", Message: "Invalid status"})
	}

	changes, updates := changeset.Diff(&existing, patch)
	if len(updates) == 0 {
		return nil, apperrors.Validation("No changes detected")
	}
	updates["updated_at"] = time.Now()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		history := models.TransactionHistory{
			TransactionID: id,
			Action:        models.HistoryActionUpdated,
			Changes:       changes,
			ModifiedBy:    requester.ID,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var updated models.Transaction
	if err := s.DB.First(&updated, id).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	return &updated, nil
}

// Delete hard-removes a transaction together with its history and any handover
// items referencing it. Admin only, irreversible.
func (s *TransactionStore) Delete(id uint, requester Requester) error {
	if requester.Role != models.RoleAdmin {
		return apperrors.Forbidden("Access denied")
	}

	var txn models.Transaction
	if err := s.DB.First(&txn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Transaction not found")
		}
		return apperrors.Internal(err)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("transaction_id = ?", id).Delete(&models.TransactionHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&models.HandoverItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Transaction{}, id).Error
	})
	if err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// StatsSummary aggregates transaction counts by status plus today's creations.
type StatsSummary struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"in_progress"`
	Ready      int64 `json:"ready"`
	Delivered  int64 `json:"delivered"`
	Cancelled  int64 `json:"cancelled"`
	Today      int64 `json:"today"`
}

// Stats is restricted to admin and supervisor.
func (s *TransactionStore) Stats(requester Requester) (*StatsSummary, error) {
	if requester.Role != models.RoleAdmin && requester.Role != models.RoleSupervisor {
		return nil, apperrors.Forbidden("Access denied")
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.DB.Model(&models.Transaction{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	summary := &StatsSummary{}
	for _, row := range rows {
		summary.Total += row.Count
		switch row.Status {
		case models.StatusPending:
			summary.Pending = row.Count
		case models.StatusInProgress:
			summary.InProgress = row.Count
		case models.StatusReady:
			summary.Ready = row.Count
		case models.StatusDelivered:
			summary.Delivered = row.Count
		case models.StatusCancelled:
			summary.Cancelled = row.Count
		}
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.DB.Model(&models.Transaction{}).
		Where("created_at >= ?", dayStart).
		Count(&summary.Today).Error; err != nil {
		return nil, apperrors.Internal(err)
	}

	return summary, nil
}
