package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/apperrors"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/changeset"
	"github.com/accounting-cell/NAJUM-ALTHURAY/internal/store"
	"github.com/gin-gonic/gin"
)

// TransactionHandler exposes the transaction repository over HTTP.
type TransactionHandler struct {
	Store *store.TransactionStore
}

func NewTransactionHandler(s *store.TransactionStore) *TransactionHandler {
	return &TransactionHandler{Store: s}
}

const dateLayout = "2006-01-02"

// List handles GET /api/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	filter := store.ListFilter{
		Status:      c.Query("status"),
		ServiceType: c.Query("serviceType"),
		Search:      c.Query("search"),
		Page:        queryInt(c, "page", 1),
		Limit:       queryInt(c, "limit", store.DefaultPageLimit),
	}
	if assignedTo, err := strconv.ParseUint(c.Query("assignedTo"), 10, 32); err == nil {
		filter.AssignedTo = uint(assignedTo)
	}

	rows, pagination, err := h.Store.List(filter, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"transactions": rows, "pagination": pagination})
}

// Get handles GET /api/transactions/:id, returning the record plus its
// history.
func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	txn, history, err := h.Store.Get(id, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"transaction": txn, "history": history})
}

// CreateTransactionRequest is the POST /api/transactions body. Dates use the
// YYYY-MM-DD layout.
type CreateTransactionRequest struct {
	ServiceType      string `json:"serviceType"`
	TransactionType  string `json:"transactionType"`
	ClientName       string `json:"clientName"`
	PassportID       string `json:"passportId"`
	MobileNumber     string `json:"mobileNumber"`
	Status           string `json:"status"`
	ReceiveDate      string `json:"receiveDate"`
	ExpectedDelivery string `json:"expectedDelivery"`
	Notes            string `json:"notes"`
}

// Create handles POST /api/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	in := store.CreateTransactionInput{
		ServiceType:     req.ServiceType,
		TransactionType: req.TransactionType,
		ClientName:      req.ClientName,
		PassportID:      req.PassportID,
		MobileNumber:    req.MobileNumber,
		Status:          req.Status,
		Notes:           req.Notes,
	}
	var fields []apperrors.FieldError
	if req.ReceiveDate != "" {
		parsed, err := time.Parse(dateLayout, req.ReceiveDate)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "receiveDate", Message: "Invalid date, use YYYY-MM-DD"})
		} else {
			in.ReceiveDate = parsed
		}
	}
	if req.ExpectedDelivery != "" {
		parsed, err := time.Parse(dateLayout, req.ExpectedDelivery)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "expectedDelivery", Message: "Invalid date, use YYYY-MM-DD"})
		} else {
			in.ExpectedDelivery = parsed
		}
	}
	if len(fields) > 0 {
		respondError(c, apperrors.Validation("Validation failed", fields...))
		return
	}

	txn, err := h.Store.Create(in, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Transaction created successfully", gin.H{"transaction": txn})
}

// UpdateTransactionRequest is the PUT /api/transactions/:id body. Absent
// fields are left untouched.
type UpdateTransactionRequest struct {
	ServiceType      *string `json:"serviceType"`
	TransactionType  *string `json:"transactionType"`
	ClientName       *string `json:"clientName"`
	PassportID       *string `json:"passportId"`
	MobileNumber     *string `json:"mobileNumber"`
	Status           *string `json:"status"`
	ReceiveDate      *string `json:"receiveDate"`
	ExpectedDelivery *string `json:"expectedDelivery"`
	Notes            *string `json:"notes"`
}

// Update handles PUT /api/transactions/:id as a partial update.
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("Invalid request body: "+err.Error()))
		return
	}

	patch := changeset.Patch{
		ServiceType:     req.ServiceType,
		TransactionType: req.TransactionType,
		ClientName:      req.ClientName,
		PassportID:      req.PassportID,
		MobileNumber:    req.MobileNumber,
		Status:          req.Status,
		Notes:           req.Notes,
	}
	var fields []apperrors.FieldError
	if req.ReceiveDate != nil {
		parsed, err := time.Parse(dateLayout, *req.ReceiveDate)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "receiveDate", Message: "Invalid date, use YYYY-MM-DD"})
		} else {
			patch.ReceiveDate = &parsed
		}
	}
	if req.ExpectedDelivery != nil {
		parsed, err := time.Parse(dateLayout, *req.ExpectedDelivery)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "expectedDelivery", Message: "Invalid date, use YYYY-MM-DD"})
		} else {
			patch.ExpectedDelivery = &parsed
		}
	}
	if len(fields) > 0 {
		respondError(c, apperrors.Validation("Validation failed", fields...))
		return
	}

	txn, err := h.Store.Update(id, patch, currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Transaction updated successfully", gin.H{"transaction": txn})
}

// Delete handles DELETE /api/transactions/:id. Hard delete, admin only.
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.Store.Delete(id, currentRequester(c)); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Transaction deleted successfully", nil)
}

// Stats handles GET /api/transactions/stats/summary.
func (h *TransactionHandler) Stats(c *gin.Context) {
	summary, err := h.Store.Stats(currentRequester(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, summary)
}
