package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/models"
	"gorm.io/gorm"
)

// HandoverStore orchestrates the atomic batch transfer of transactions
// between two employees under supervisor authority.
type HandoverStore struct {
	DB *gorm.DB
}

func NewHandoverStore(db *gorm.DB) *HandoverStore {
	return &HandoverStore{DB: db}
}

// CreateHandoverInput carries the fields for a new handover.
type CreateHandoverInput struct {
	FromEmployee   uint
	ToEmployee     uint
	TransactionIDs []uint
	Notes          string
}

// Create validates the participants and the transaction set, then runs the
// whole transfer as one storage transaction: handover row, one item per
// transaction, reassignment of every transaction, one history entry per
// transaction. The candidate rows are locked (SELECT ... FOR UPDATE) and
// ownership re-checked under the lock, so two concurrent handovers cannot
// both claim an overlapping set from the same employee. Any failure aborts
// the entire unit.
func (s *HandoverStore) Create(in CreateHandoverInput, requester Requester) (*models.Handover, error) {
	if requester.Role != models.RoleSupervisor {
		return nil, apperrors.Forbidden("Only supervisors can create handovers")
	}
	if in.FromEmployee == 0 || in.ToEmployee == 0 {
		return nil, apperrors.Validation("Both employees are required")
	}
	if in.FromEmployee == in.ToEmployee {
		return nil, apperrors.Validation("Cannot hand over transactions to the same employee")
	}
	if len(in.TransactionIDs) == 0 {
		return nil, apperrors.Validation("At least one transaction must be selected")
	}

	var employees []models.User
	if err := s.DB.Where("id IN ?", []uint{in.FromEmployee, in.ToEmployee}).Find(&employees).Error; err != nil {
		return nil, apperrors.Internal(err)
	}
	if len(employees) != 2 {
		return nil, apperrors.Validation("One or both employees not found")
	}
	for _, u := range employees {
		if u.Role != models.RoleEmployee {
			return nil, apperrors.Validation("Handover can only be done between employees")
		}
		if !u.Active() {
			return nil, apperrors.Validation(fmt.Sprintf("Employee %s is not active", u.FullName))
		}
	}

	handover := models.Handover{
		FromEmployee: in.FromEmployee,
		ToEmployee:   in.ToEmployee,
		SupervisorID: requester.ID,
		Status:       models.HandoverStatusPending,
		Notes:        in.Notes,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Lock the candidate rows and re-check ownership under the lock.
		var owned []models.Transaction
		if err := lockForUpdate(tx).
			Where("id IN ? AND assigned_to = ?", in.TransactionIDs, in.FromEmployee).
			Find(&owned).Error; err != nil {
			return err
		}
		if len(owned) != len(in.TransactionIDs) {
			return apperrors.Validation("Some transactions are invalid or not assigned to the from employee")
		}

		if err := tx.Create(&handover).Error; err != nil {
			return err
		}

		items := make([]models.HandoverItem, 0, len(in.TransactionIDs))
		for _, id := range in.TransactionIDs {
			items = append(items, models.HandoverItem{HandoverID: handover.ID, TransactionID: id})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Transaction{}).
			Where("id IN ?", in.TransactionIDs).
			Updates(map[string]interface{}{
				"assigned_to": in.ToEmployee,
				"updated_at":  time.Now(),
			}).Error; err != nil {
			return err
		}

		for _, id := range in.TransactionIDs {
			history := models.TransactionHistory{
				TransactionID: id,
				Action:        models.HistoryActionHandover,
				Changes: models.ChangeSet{
					"from":        in.FromEmployee,
					"to":          in.ToEmployee,
					"handover_id": handover.ID,
				},
				ModifiedBy: requester.ID,
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if appErr, ok := apperrors.As(err); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal(err)
	}

	return &handover, nil
}

// Accept transitions a pending handover to accepted. Only the receiving
// employee may accept, and only once: the transition is a guarded UPDATE on
// status, so a second accept finds no pending row and fails with a conflict.
// Ownership already moved at creation time; nothing else is touched.
func (s *HandoverStore) Accept(id uint, requester Requester) (*models.Handover, error) {
	var handover models.Handover
	if err := s.DB.First(&handover, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Handover not found")
		}
		return nil, apperrors.Internal(err)
	}

	if handover.ToEmployee != requester.ID {
		return nil, apperrors.Forbidden("Access denied. This handover is not assigned to you.")
	}

	now := time.Now()
	res := s.DB.Model(&models.Handover{}).
		Where("id = ? AND status = ?", id, models.HandoverStatusPending).
		Updates(map[string]interface{}{
			"status":      models.HandoverStatusAccepted,
			"accepted_at": now,
		})
	if res.Error != nil {
		return nil, apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.Conflict("Handover has already been accepted")
	}

	handover.Status = models.HandoverStatusAccepted
	handover.AcceptedAt = &now
	return &handover, nil
}

// HandoverRow is one listing row joined with participant names.
type HandoverRow struct {
	ID               uint       `json:"id"`
	FromEmployee     uint       `json:"fromEmployee"`
	ToEmployee       uint       `json:"toEmployee"`
	SupervisorID     uint       `json:"supervisorId"`
	Status           string     `json:"status"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"createdAt"`
	AcceptedAt       *time.Time `json:"acceptedAt"`
	FromEmployeeName string     `json:"fromEmployeeName"`
	ToEmployeeName   string     `json:"toEmployeeName"`
	SupervisorName   string     `json:"supervisorName"`
}

// List returns a page of all handovers, newest first. Admin and supervisor
// only; the route layer enforces the role.
func (s *HandoverStore) List(page, limit int) ([]HandoverRow, *Pagination, error) {
	page, limit = clampPage(page, limit)

	var total int64
	if err := s.DB.Model(&models.Handover{}).Count(&total).Error; err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	rows := make([]HandoverRow, 0)
	err := s.DB.Table("handovers h").
		Select("h.*, COALESCE(u1.full_name, '') AS from_employee_name, COALESCE(u2.full_name, '') AS to_employee_name, COALESCE(u3.full_name, '') AS supervisor_name").
		Joins("LEFT JOIN users u1 ON h.from_employee = u1.id").
		Joins("LEFT JOIN users u2 ON h.to_employee = u2.id").
		Joins("LEFT JOIN users u3 ON h.supervisor_id = u3.id").
		Order("h.created_at DESC, h.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return rows, newPagination(page, limit, total), nil
}

// HandoverItemRow is one transferred transaction within a handover detail.
type HandoverItemRow struct {
	ID                uint   `json:"id"`
	HandoverID        uint   `json:"handoverId"`
	TransactionID     uint   `json:"transactionId"`
	TransactionNumber string `json:"transactionNumber"`
	ClientName        string `json:"clientName"`
	ServiceType       string `json:"serviceType"`
	Status            string `json:"status"`
}

// Get loads one handover with its pinned transaction set.
func (s *HandoverStore) Get(id uint) (*HandoverRow, []HandoverItemRow, error) {
	var row HandoverRow
	res := s.DB.Table("handovers h").
		Select("h.*, COALESCE(u1.full_name, '') AS from_employee_name, COALESCE(u2.full_name, '') AS to_employee_name, COALESCE(u3.full_name, '') AS supervisor_name").
		Joins("LEFT JOIN users u1 ON h.from_employee = u1.id").
		Joins("LEFT JOIN users u2 ON h.to_employee = u2.id").
		Joins("LEFT JOIN users u3 ON h.supervisor_id = u3.id").
		Where("h.id = ?", id).
		Scan(&row)
	if res.Error != nil {
		return nil, nil, apperrors.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, apperrors.NotFound("Handover not found")
	}

	items := make([]HandoverItemRow, 0)
	err := s.DB.Table("handover_items hi").
		Select("hi.id, hi.handover_id, hi.transaction_id, t.transaction_number, t.client_name, t.service_type, t.status").
		Joins("JOIN transactions t ON hi.transaction_id = t.id").
		Where("hi.handover_id = ?", id).
		Order("hi.id").
		Scan(&items).Error
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	return &row, items, nil
}

// PendingHandoverRow is one pending handover annotated with its item count.
type PendingHandoverRow struct {
	ID               uint      `json:"id"`
	FromEmployee     uint      `json:"fromEmployee"`
	ToEmployee       uint      `json:"toEmployee"`
	SupervisorID     uint      `json:"supervisorId"`
	Status           string    `json:"status"`
	Notes            string    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	FromEmployeeName string    `json:"fromEmployeeName"`
	SupervisorName   string    `json:"supervisorName"`
	TransactionCount int64     `json:"transactionCount"`
}

// ListPendingFor returns the pending handovers addressed to the given
// employee, newest first, each with the number of transactions it carries.
func (s *HandoverStore) ListPendingFor(employeeID uint) ([]PendingHandoverRow, error) {
	rows := make([]PendingHandoverRow, 0)
	err := s.DB.Table("handovers h").
		Select("h.id, h.from_employee, h.to_employee, h.supervisor_id, h.status, h.notes, h.created_at, COALESCE(u1.full_name, '') AS from_employee_name, COALESCE(u3.full_name, '') AS supervisor_name, COUNT(hi.id) AS transaction_count").
		Joins("LEFT JOIN users u1 ON h.from_employee = u1.id").
		Joins("LEFT JOIN users u3 ON h.supervisor_id = u3.id").
		Joins("LEFT JOIN handover_items hi ON h.id = hi.handover_id").
		Where("h.to_employee = ? AND h.status = ?", employeeID, models.HandoverStatusPending).
		Group("h.id, h.from_employee, h.to_employee, h.supervisor_id, h.status, h.notes, h.created_at, u1.full_name, u3.full_name").
		Order("h.created_at DESC, h.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return rows, nil
}
